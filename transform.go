package spheres

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position, rotation and scale. Entities carry one as their
// pose, visuals carry one relative to their entity.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func TransformAt(pos mgl32.Vec3) Transform {
	t := IdentityTransform()
	t.Position = pos
	return t
}

// Compose places local inside parent:
// pos = parent.pos + parent.rot * (parent.scale * local.pos),
// rot = parent.rot * local.rot, scale = parent.scale * local.scale.
func Compose(parent, local Transform) Transform {
	parent = normalizeTransform(parent)
	local = normalizeTransform(local)

	scaledLocalPos := mgl32.Vec3{
		local.Position.X() * parent.Scale.X(),
		local.Position.Y() * parent.Scale.Y(),
		local.Position.Z() * parent.Scale.Z(),
	}
	return Transform{
		Position: parent.Position.Add(parent.Rotation.Rotate(scaledLocalPos)),
		Rotation: parent.Rotation.Mul(local.Rotation).Normalize(),
		Scale: mgl32.Vec3{
			parent.Scale.X() * local.Scale.X(),
			parent.Scale.Y() * local.Scale.Y(),
			parent.Scale.Z() * local.Scale.Z(),
		},
	}
}

// Matrix is translate * rotate * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	t = normalizeTransform(t)
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// zero values are treated as identity so a literal Transform{Position: p} works
func normalizeTransform(t Transform) Transform {
	if t.Rotation == (mgl32.Quat{}) {
		t.Rotation = mgl32.QuatIdent()
	}
	if t.Scale == (mgl32.Vec3{}) {
		t.Scale = mgl32.Vec3{1, 1, 1}
	}
	return t
}
