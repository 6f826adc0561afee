package spheres

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityEngineAttachesPreparedVisuals(t *testing.T) {
	ee := NewEntityEngine(nil)
	re := NewRenderEngine(newFakeBackend(newShaderLoader()), newShaderLoader(), nil)

	a := NewEntity("a")
	b := NewEntity("b")
	var managed []*Entity
	ee.AddEntity(a, &managed)
	ee.AddEntity(b, nil)
	assert.Equal(t, []*Entity{a}, managed)

	va := NewMeshVisual(DebugBoxMesh, "")
	vb := NewMeshVisual(DebugBoxMesh, "")
	idA := a.RequestVisual(re, va)
	idB := b.RequestVisual(re, vb)

	// delivered in reverse order and one of them twice
	prepared := []PendingVisual{{Id: idB, Visual: vb}, {Id: idA, Visual: va}}
	ee.UpdatePreparedVisuals(prepared)
	ee.UpdatePreparedVisuals(prepared[:1])

	assert.Equal(t, []Visual{va}, a.Visuals())
	assert.Equal(t, []Visual{vb}, b.Visuals())
	assert.Empty(t, a.Placeholders())
	assert.Empty(t, b.Placeholders())
}

func TestEntityEngineIgnoresUnknownIds(t *testing.T) {
	ee := NewEntityEngine(nil)
	e := NewEntity("e")
	e.AddVisualPlaceholder(3)
	ee.AddEntity(e, nil)

	ee.UpdatePreparedVisuals([]PendingVisual{{Id: 4, Visual: NewMeshVisual("m", "")}})
	assert.Empty(t, e.Visuals())
	assert.Equal(t, []VisualId{3}, e.Placeholders())
}

func TestEntityEngineBroadcastsChanges(t *testing.T) {
	ee := NewEntityEngine(nil)
	mesh := NewMeshVisual(DebugBoxMesh, "")
	mesh.Data.Program = ShaderProgram{Name: MeshProgramName, Handle: 1, Valid: true}
	ps := NewParticleSystemVisual(NopModel())
	ps.Data.Program = ShaderProgram{Name: ParticlesProgramName, Handle: 2, Valid: true}

	e1 := NewEntity("one")
	e1.AddVisual(mesh)
	e2 := NewEntity("two")
	e2.AddVisual(ps)
	ee.AddEntity(e1, nil)
	ee.AddEntity(e2, nil)

	ee.UpdateVisuals([]RenderChangeEvent{
		ShaderProgramReloaded(ShaderProgram{Name: MeshProgramName, Handle: 5, Valid: true}),
	})
	assert.Equal(t, ProgramHandle(5), mesh.Data.Program.Handle)
	assert.Equal(t, ProgramHandle(2), ps.Data.Program.Handle)
}

func TestEntityEngineExtractsInInsertionOrder(t *testing.T) {
	ee := NewEntityEngine(nil)
	for i, x := range []float32{1, 2, 3} {
		e := NewEntity("box")
		e.SetPosition(mgl32.Vec3{x, 0, 0})
		v := NewMeshVisual(DebugBoxMesh, "")
		v.Data.Mesh = MeshHandle(i + 1)
		e.AddVisual(v)
		ee.AddEntity(e, nil)
	}
	cam := NewCameraEntity("cam", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})
	ee.AddEntity(cam, nil)

	var s SceneSnapshot
	ee.ExtractVisualData(&s)
	require.Len(t, s.Meshes, 3)
	for i, m := range s.Meshes {
		assert.Equal(t, MeshHandle(i+1), m.Mesh)
		assert.Equal(t, float32(i+1), m.Transform.Position.X())
	}
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, s.Camera.Position)
}

func TestEntityEngineRemoveReleasesAspects(t *testing.T) {
	engines := NewEngines(newFakeBackend(newShaderLoader()), newShaderLoader(), nil)
	ee := engines.Entity

	e := NewEntity("spinner")
	e.AddAspect(engines, &SpinAspect{Speed: 1})
	e.AddVisualPlaceholder(9)
	ee.AddEntity(e, nil)
	assert.Equal(t, 1, ee.OnTimeStep.Len())

	assert.True(t, ee.RemoveEntity(e))
	assert.False(t, ee.RemoveEntity(e))
	assert.Equal(t, 0, ee.OnTimeStep.Len())
	assert.Empty(t, ee.Entities())

	// prepared later, nobody is waiting any more
	ee.UpdatePreparedVisuals([]PendingVisual{{Id: 9, Visual: NewMeshVisual("m", "")}})
	assert.Empty(t, e.Visuals())
}

func TestEnginesRemoveEntityDropsBody(t *testing.T) {
	engines := NewEngines(newFakeBackend(newShaderLoader()), newShaderLoader(), nil)

	floor := NewEntity("floor")
	engines.Entity.AddEntity(floor, nil)
	engines.Physics.AddBody(floor, &RigidBody{IsStatic: true}, BoxCollider(mgl32.Vec3{5, 0.5, 5}))

	ball := NewEntity("ball")
	ball.SetPosition(mgl32.Vec3{0, 4, 0})
	engines.Entity.AddEntity(ball, nil)
	engines.Physics.AddBody(ball, &RigidBody{Mass: 1, GravityScale: 1}, SphereCollider(0.5))

	assert.True(t, engines.RemoveEntity(floor))
	assert.False(t, engines.RemoveEntity(floor))
	assert.Len(t, engines.Entity.Entities(), 1)
	require.Len(t, engines.Physics.Bodies(), 1)
	assert.Same(t, ball, engines.Physics.Bodies()[0].Entity)

	for i := 0; i < 60; i++ {
		engines.Physics.Step(50 * time.Millisecond)
	}
	if y := ball.Position().Y(); y > 0 {
		t.Errorf("Ball should fall through the removed floor, Y = %f", y)
	}
}

func TestEntityEngineStepEmitsTimeStep(t *testing.T) {
	ee := NewEntityEngine(nil)
	var got []time.Duration
	ee.OnTimeStep.Subscribe(func(dt time.Duration) { got = append(got, dt) })
	ee.Step(10 * time.Millisecond)
	ee.Step(20 * time.Millisecond)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, got)
}

func TestFirstVisualWithoutVisualsPanics(t *testing.T) {
	e := NewEntity("empty")
	assert.Panics(t, func() { e.FirstVisual() })
}

func TestDebugBoxEndToEnd(t *testing.T) {
	loader := newShaderLoader()
	fb := newFakeBackend(loader)
	engines := NewEngines(fb, loader, nil)
	loop := NewGameLoop(engines, LoopConfig{}, nil)
	loop.AddRenderersStage()()
	engines.Render.AddTarget(NewCameraTarget(640, 480, fb, nil))

	box := NewEntity("box")
	box.RequestVisual(engines.Render, NewMeshVisual(DebugBoxMesh, ""))
	engines.Entity.AddEntity(box, nil)

	logic := loop.LogicStage()
	render := loop.RenderStage()

	logic(time.Millisecond)
	render(time.Millisecond)
	assert.Empty(t, fb.meshDraws, "not prepared before the first render tick")

	logic(time.Millisecond)
	require.Len(t, box.Visuals(), 1)
	render(time.Millisecond)

	require.Len(t, fb.meshDraws, 1)
	draw := fb.meshDraws[0]
	assert.True(t, draw.Program.Valid)
	assert.Equal(t, MeshProgramName, draw.Program.Name)
	assert.Equal(t, 36, draw.VertexCount)
}
