package spheres

const defaultParticleCapacity = 1024

// ParticlesRenderer prepares and draws ParticleSystemVisuals with the
// "particles" program. Particle buffers are uploaded only when the content
// version of a system changed.
type ParticlesRenderer struct {
	logger   Logger
	uploaded map[ParticleBufferHandle]uint64
	warned   map[ParticleBufferHandle]bool
}

func NewParticlesRenderer(logger Logger) *ParticlesRenderer {
	return &ParticlesRenderer{
		logger:   orNop(logger),
		uploaded: make(map[ParticleBufferHandle]uint64),
		warned:   make(map[ParticleBufferHandle]bool),
	}
}

func (r *ParticlesRenderer) Prepare(v Visual, backend Backend, loader ResourceLoader) bool {
	if v.Kind() != VisualKindParticleSystem {
		return false
	}
	ps, ok := v.(*ParticleSystemVisual)
	if !ok {
		return false
	}

	capacity := ps.Capacity
	if capacity <= 0 {
		capacity = max(ps.Count(), defaultParticleCapacity)
	}
	buffers, err := backend.Particles().CreateParticleBuffers(capacity)
	if err != nil {
		fatalf(r.logger, "cannot create particle buffers for %d particles: %v", capacity, err)
	}

	ps.Capacity = capacity
	ps.Data.Buffers = buffers
	ps.Data.Capacity = capacity
	ps.Data.Program = backend.Shaders().LoadProgram(ParticlesProgramName)
	return true
}

func (r *ParticlesRenderer) Render(backend Backend, snapshot *SceneSnapshot, target TargetData) []RenderChangeEvent {
	particles := backend.Particles()
	for _, d := range snapshot.ParticleSystems {
		if !d.Program.Valid || d.Buffers == 0 {
			continue
		}
		count := len(d.PositionSizes)
		if count > d.Capacity {
			if !r.warned[d.Buffers] {
				r.logger.Warnf("particle system has %d particles but buffers for %d, drawing the first %d", count, d.Capacity, d.Capacity)
				r.warned[d.Buffers] = true
			}
			count = d.Capacity
		}
		if v, ok := r.uploaded[d.Buffers]; !ok || v != d.Version {
			particles.UploadParticles(d.Buffers, d.PositionSizes[:count], d.Colors[:count])
			r.uploaded[d.Buffers] = d.Version
		}
		if count == 0 {
			continue
		}
		particles.DrawParticles(target, ParticleDraw{
			Buffers: d.Buffers,
			Count:   count,
			Program: d.Program,
			Model:   d.Transform.Matrix(),
		})
	}
	return nil
}
