package spheres

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func vecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestComposePlacesLocalInParent(t *testing.T) {
	parent := Transform{
		Position: mgl32.Vec3{10, 0, 0},
		Rotation: mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}),
		Scale:    mgl32.Vec3{2, 2, 2},
	}
	local := TransformAt(mgl32.Vec3{1, 0, 0})

	world := Compose(parent, local)
	// +X rotated 90 degrees around Y points to -Z
	vecNear(t, mgl32.Vec3{10, 0, -2}, world.Position)
	vecNear(t, mgl32.Vec3{2, 2, 2}, world.Scale)
}

func TestZeroTransformIsIdentity(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), Transform{}.Matrix())

	world := Compose(Transform{Position: mgl32.Vec3{1, 2, 3}}, Transform{})
	vecNear(t, mgl32.Vec3{1, 2, 3}, world.Position)
	vecNear(t, mgl32.Vec3{1, 1, 1}, world.Scale)
}

func TestTransformMatrix(t *testing.T) {
	tr := TransformAt(mgl32.Vec3{1, 2, 3})
	tr.Scale = mgl32.Vec3{2, 1, 1}
	p := tr.Matrix().Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	vecNear(t, mgl32.Vec3{3, 3, 4}, p.Vec3())
}

func TestSpinAspectRotates(t *testing.T) {
	engines := NewEngines(newFakeBackend(nil), NewMemoryLoader(), nil)
	e := NewEntity("spinner")
	e.Transform.Rotation = mgl32.Quat{}
	e.AddAspect(engines, &SpinAspect{Speed: mgl32.DegToRad(90)})

	engines.Entity.Step(1e9)
	vecNear(t, mgl32.Vec3{0, 0, -1}, e.Transform.Rotation.Rotate(mgl32.Vec3{1, 0, 0}))
}
