package spheres

import (
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const defaultParticleSize = 0.1

// ParticleSimulation is the per-particle state a model integrates.
type ParticleSimulation struct {
	Velocity mgl32.Vec3
	Mass     float32
	Age      float32
	// Zero means the particle lives forever.
	Lifetime float32
}

type ParticleState struct {
	Position mgl32.Vec3
	Size     float32
	Color    ParticleColor
	ParticleSimulation
}

// ParticleModel advances a particle system by dt seconds.
type ParticleModel func(ps *ParticleSystemVisual, dt float32)

// ParticleSystemVisual keeps its particles as parallel slices so position,
// size and color can be handed to the GPU without repacking.
type ParticleSystemVisual struct {
	// Number of particles the GPU buffers are sized for. Zero lets the
	// renderer choose from the particle count at preparation time.
	Capacity int

	PositionSizes []mgl32.Vec4
	Colors        []ParticleColor
	Simulation    []ParticleSimulation

	Local Transform
	// Filled in by the particles renderer when the visual is prepared.
	Data ParticleSystemData

	model   ParticleModel
	version uint64
}

func NewParticleSystemVisual(model ParticleModel) *ParticleSystemVisual {
	return &ParticleSystemVisual{
		Local: IdentityTransform(),
		model: model,
	}
}

func (v *ParticleSystemVisual) Kind() VisualKind { return VisualKindParticleSystem }

func (v *ParticleSystemVisual) Count() int { return len(v.PositionSizes) }

func (v *ParticleSystemVisual) AddParticle(p ParticleState) {
	size := p.Size
	if size == 0 {
		size = defaultParticleSize
	}
	if p.Mass == 0 {
		p.Mass = 1
	}
	color := p.Color
	if color == (ParticleColor{}) {
		color = White()
	}
	v.PositionSizes = append(v.PositionSizes, p.Position.Vec4(size))
	v.Colors = append(v.Colors, color)
	v.Simulation = append(v.Simulation, p.ParticleSimulation)
	v.MarkUpdated()
}

// KillParticle removes particle i by moving the last particle into its slot.
func (v *ParticleSystemVisual) KillParticle(i int) {
	last := len(v.PositionSizes) - 1
	v.PositionSizes[i] = v.PositionSizes[last]
	v.Colors[i] = v.Colors[last]
	v.Simulation[i] = v.Simulation[last]
	v.PositionSizes = v.PositionSizes[:last]
	v.Colors = v.Colors[:last]
	v.Simulation = v.Simulation[:last]
	v.MarkUpdated()
}

// MarkUpdated tells the renderer the particle buffers must be uploaded again.
// Models that write the slices directly call it.
func (v *ParticleSystemVisual) MarkUpdated() { v.version++ }

func (v *ParticleSystemVisual) Step(dt time.Duration) {
	if v.model == nil {
		return
	}
	v.model(v, float32(dt.Seconds()))
}

func (v *ParticleSystemVisual) Update(change RenderChangeEvent) {
	if change.Kind != ShaderProgramReload {
		return
	}
	if change.ShaderProgram.Name == v.Data.Program.Name {
		v.Data.Program = change.ShaderProgram
	}
}

func (v *ParticleSystemVisual) Extract(owner Transform, snapshot *SceneSnapshot) {
	d := v.Data
	d.PositionSizes = slices.Clone(v.PositionSizes)
	d.Colors = slices.Clone(v.Colors)
	d.Version = v.version
	d.Transform = Compose(owner, v.Local)
	snapshot.ParticleSystems = append(snapshot.ParticleSystems, d)
}
