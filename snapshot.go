package spheres

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraData is where the scene is looked at from.
type CameraData struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
}

// MeshData is the draw record of one prepared mesh visual.
type MeshData struct {
	Mesh        MeshHandle
	VertexCount int
	Texture     TextureHandle
	Program     ShaderProgram
	Visible     bool

	// Pose in world space once extracted, relative to the entity before.
	Transform Transform
}

type ParticleColor struct {
	R, G, B, A uint8
}

func White() ParticleColor { return ParticleColor{255, 255, 255, 255} }

// ParticleSystemData is the draw record of one prepared particle system.
type ParticleSystemData struct {
	Buffers  ParticleBufferHandle
	Capacity int
	Program  ShaderProgram

	// xyz is the particle position, w its size.
	PositionSizes []mgl32.Vec4
	Colors        []ParticleColor
	// Version changes whenever particle content changed; renderers upload
	// the buffers only when it differs from the last uploaded version.
	Version uint64

	Transform Transform
}

func (d ParticleSystemData) Clone() ParticleSystemData {
	d.PositionSizes = slices.Clone(d.PositionSizes)
	d.Colors = slices.Clone(d.Colors)
	return d
}

// SceneSnapshot holds everything the renderer needs for one frame. The
// logic thread produces a fresh one every tick and it replaces the
// previous one wholesale.
type SceneSnapshot struct {
	Camera          CameraData
	Meshes          []MeshData
	ParticleSystems []ParticleSystemData
}

// Clone returns a deep copy that shares no slices with s.
func (s SceneSnapshot) Clone() SceneSnapshot {
	out := SceneSnapshot{
		Camera: s.Camera,
		Meshes: slices.Clone(s.Meshes),
	}
	if s.ParticleSystems != nil {
		out.ParticleSystems = make([]ParticleSystemData, len(s.ParticleSystems))
		for i, ps := range s.ParticleSystems {
			out.ParticleSystems[i] = ps.Clone()
		}
	}
	return out
}

func (s *SceneSnapshot) Clear() {
	s.Camera = CameraData{}
	s.Meshes = s.Meshes[:0]
	s.ParticleSystems = s.ParticleSystems[:0]
}
