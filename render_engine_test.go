package spheres

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEngineVisualIdsAreUnique(t *testing.T) {
	re := NewRenderEngine(newFakeBackend(newShaderLoader()), newShaderLoader(), nil)

	seen := make(map[VisualId]bool)
	for i := 0; i < 100; i++ {
		id := re.AddToPrepareVisual(NewMeshVisual(DebugBoxMesh, ""))
		if seen[id] {
			t.Fatalf("visual id %d handed out twice", id)
		}
		seen[id] = true
	}
	assert.Equal(t, 100, re.PendingCount())
}

func TestRenderEnginePreparesInOrder(t *testing.T) {
	var log []string
	fb := newFakeBackend(newShaderLoader())
	re := NewRenderEngine(fb, newShaderLoader(), nil)
	meshes := &recordingRenderer{kind: VisualKindMesh, log: &log, name: "mesh"}
	particles := &recordingRenderer{kind: VisualKindParticleSystem, log: &log, name: "particles"}
	re.AddRenderer(meshes)
	re.AddRenderer(particles)
	re.AddTarget(&recordingTarget{log: &log, name: "left"})
	re.AddTarget(&recordingTarget{log: &log, name: "right"})

	ps := NewParticleSystemVisual(NopModel())
	id := re.AddToPrepareVisual(ps)
	re.Render()

	assert.Equal(t, []string{
		"mesh.Prepare", "particles.Prepare",
		"left.Before", "mesh.Render", "particles.Render", "left.After",
		"right.Before", "mesh.Render", "particles.Render", "right.After",
	}, log)
	assert.Equal(t, []string{"BeforeRender", "Present"}, fb.Calls())

	prepared := re.PopPreparedVisuals()
	require.Len(t, prepared, 1)
	assert.Equal(t, id, prepared[0].Id)
	assert.Same(t, ps, prepared[0].Visual)
	assert.Empty(t, re.PopPreparedVisuals())
	assert.Equal(t, 0, re.PendingCount())
}

func TestRenderEngineUnclaimedVisualIsFatal(t *testing.T) {
	var buf bytes.Buffer
	var log []string
	re := NewRenderEngine(newFakeBackend(newShaderLoader()), newShaderLoader(), captureLogger(&buf))
	re.AddRenderer(&recordingRenderer{kind: VisualKindMesh, log: &log, name: "mesh"})

	re.AddToPrepareVisual(NewParticleSystemVisual(NopModel()))
	assert.PanicsWithValue(t, "No renderer which can prepare ParticleSystemVisual", re.Render)
	assert.Contains(t, buf.String(), "ERROR: No renderer which can prepare ParticleSystemVisual")
}

func TestRenderEngineRendererRegisteredTwiceIsFatal(t *testing.T) {
	var buf bytes.Buffer
	var log []string
	re := NewRenderEngine(newFakeBackend(newShaderLoader()), newShaderLoader(), captureLogger(&buf))
	meshes := &recordingRenderer{kind: VisualKindMesh, log: &log, name: "mesh"}
	re.AddRenderer(meshes)
	re.AddRenderer(&recordingRenderer{kind: VisualKindParticleSystem, log: &log, name: "particles"})

	assert.PanicsWithValue(t, "Renderer *spheres.recordingRenderer registered twice", func() { re.AddRenderer(meshes) })
	assert.Contains(t, buf.String(), "ERROR: Renderer *spheres.recordingRenderer registered twice")
	assert.Len(t, re.Renderers(), 2)
}

func TestRenderEngineGathersChanges(t *testing.T) {
	var log []string
	re := NewRenderEngine(newFakeBackend(newShaderLoader()), newShaderLoader(), nil)
	r := &recordingRenderer{kind: VisualKindMesh, log: &log, name: "mesh"}
	r.changes = []RenderChangeEvent{ShaderProgramReloaded(ShaderProgram{Name: "default", Valid: true})}
	re.AddRenderer(r)
	re.AddTarget(&recordingTarget{log: &log, name: "cam"})

	re.Render()
	re.Render()

	changes := re.PopVisualChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, ShaderProgramReload, changes[0].Kind)
	assert.Empty(t, re.PopVisualChanges())
}

func TestRenderEngineWorkingSnapshotIsReplaced(t *testing.T) {
	re := NewRenderEngine(newFakeBackend(newShaderLoader()), newShaderLoader(), nil)
	s := SceneSnapshot{Meshes: []MeshData{{Mesh: 1, Visible: true}}}
	re.UpdateVisualData(s)

	assert.Equal(t, MeshHandle(1), re.VisualData().Meshes[0].Mesh)

	re.UpdateVisualData(SceneSnapshot{})
	assert.Empty(t, re.VisualData().Meshes)
}

func TestRenderEngineReportsShaderReloads(t *testing.T) {
	loader := newShaderLoader()
	fb := newFakeBackend(loader)
	re := NewRenderEngine(fb, loader, nil)
	re.AddRenderer(NewMeshRenderer(nil))

	mv := NewMeshVisual(DebugBoxMesh, "")
	re.AddToPrepareVisual(mv)
	re.Render()
	require.True(t, mv.Data.Program.Valid)
	re.PopVisualChanges()

	loader.SetShader("default.wgsl", "fn vs_main() {} fn fs_main() { }")
	re.Render()

	changes := re.PopVisualChanges()
	require.Len(t, changes, 1)
	assert.True(t, strings.HasPrefix(changes[0].String(), "ShaderProgram default"))
	mv.Update(changes[0])
	assert.Equal(t, changes[0].ShaderProgram.Handle, mv.Data.Program.Handle)
}
