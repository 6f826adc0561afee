package spheres

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// NopModel leaves particles where they are.
func NopModel() ParticleModel {
	return func(ps *ParticleSystemVisual, dt float32) {}
}

// NewtonWithGravity moves every particle along its velocity and pulls it down
// the Y axis.
func NewtonWithGravity(gravity float32) ParticleModel {
	return func(ps *ParticleSystemVisual, dt float32) {
		if dt <= 0 {
			return
		}
		for i := range ps.PositionSizes {
			sim := &ps.Simulation[i]
			sim.Velocity[1] -= gravity * dt
			p := ps.PositionSizes[i]
			ps.PositionSizes[i] = mgl32.Vec4{
				p[0] + sim.Velocity[0]*dt,
				p[1] + sim.Velocity[1]*dt,
				p[2] + sim.Velocity[2]*dt,
				p[3],
			}
		}
		ps.MarkUpdated()
	}
}

// Emitter spawns particles continuously from the origin of the system.
type Emitter struct {
	MaxParticles int

	SpawnRate        float32    // particles per second
	LifetimeRange    [2]float32 // seconds (min,max)
	StartSpeedRange  [2]float32 // units/sec (min,max)
	StartSizeRange   [2]float32 // world units (min,max)
	StartColorMin    ParticleColor
	StartColorMax    ParticleColor
	Gravity          float32 // positive acceleration downward
	Drag             float32 // per-second linear drag
	ConeAngleDegrees float32 // 0 emits along +Y

	spawnAcc float32
}

// Model returns the particle model driving this emitter. rng may be nil.
func (em *Emitter) Model(rng *rand.Rand) ParticleModel {
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	return func(ps *ParticleSystemVisual, dt float32) {
		if dt <= 0 || em.MaxParticles <= 0 {
			return
		}

		em.spawnAcc += em.SpawnRate * dt
		spawnCount := int(em.spawnAcc)
		if spawnCount > 0 {
			em.spawnAcc -= float32(spawnCount)
		}
		if free := em.MaxParticles - ps.Count(); spawnCount > free {
			spawnCount = free
		}
		for i := 0; i < spawnCount; i++ {
			dir := sampleCone(rng, em.ConeAngleDegrees)
			speed := lerp(em.StartSpeedRange[0], em.StartSpeedRange[1], rng.Float32())
			ps.AddParticle(ParticleState{
				Size:  lerp(em.StartSizeRange[0], em.StartSizeRange[1], rng.Float32()),
				Color: lerpColor(em.StartColorMin, em.StartColorMax, rng.Float32()),
				ParticleSimulation: ParticleSimulation{
					Velocity: dir.Mul(speed),
					Mass:     1,
					Lifetime: lerp(em.LifetimeRange[0], em.LifetimeRange[1], rng.Float32()),
				},
			})
		}

		drag := float32(math.Max(0, float64(1.0-em.Drag*dt)))
		i := 0
		for i < ps.Count() {
			sim := &ps.Simulation[i]
			sim.Age += dt
			if sim.Lifetime > 0 && sim.Age >= sim.Lifetime {
				ps.KillParticle(i)
				continue
			}
			sim.Velocity = sim.Velocity.Add(mgl32.Vec3{0, -em.Gravity * dt, 0}).Mul(drag)
			p := ps.PositionSizes[i]
			pos := p.Vec3().Add(sim.Velocity.Mul(dt))
			ps.PositionSizes[i] = pos.Vec4(p[3])
			i++
		}
		ps.MarkUpdated()
	}
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func lerpColor(a, b ParticleColor, t float32) ParticleColor {
	mix := func(x, y uint8) uint8 { return uint8(lerp(float32(x), float32(y), t)) }
	return ParticleColor{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

// sampleCone returns a unit vector distributed uniformly in a cone around +Y.
func sampleCone(rng *rand.Rand, coneDeg float32) mgl32.Vec3 {
	if coneDeg <= 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	thetaMax := float32(math.Pi) * (coneDeg / 180.0)
	cosTheta := lerp(float32(math.Cos(float64(thetaMax))), 1.0, rng.Float32())
	sinTheta := float32(math.Sqrt(float64(1.0 - cosTheta*cosTheta)))
	phi := 2.0 * math.Pi * rng.Float64()
	return mgl32.Vec3{
		float32(math.Cos(phi)) * sinTheta,
		cosTheta,
		float32(math.Sin(phi)) * sinTheta,
	}.Normalize()
}

// CreateFountain adds count particles leaving the origin along direction with
// a speed drawn from velocityRange.
func CreateFountain(ps *ParticleSystemVisual, rng *rand.Rand, count int, velocityRange [2]float32, direction mgl32.Vec3) {
	for i := 0; i < count; i++ {
		speed := lerp(velocityRange[0], velocityRange[1], rng.Float32())
		jitter := func() float32 { return lerp(velocityRange[0], velocityRange[1], rng.Float32()) * 0.2 }
		v := mgl32.Vec3{
			direction.X()*speed + jitter(),
			direction.Y()*speed + jitter(),
			direction.Z()*speed + jitter(),
		}
		ps.AddParticle(ParticleState{
			Color:              ParticleColor{0, 0, 255, uint8(50 + rng.IntN(206))},
			ParticleSimulation: ParticleSimulation{Velocity: v, Mass: 1},
		})
	}
}

type colorStop struct {
	at    float32
	color ParticleColor
}

func interpolateColor(stops []colorStop, x float32) ParticleColor {
	if len(stops) == 0 {
		return White()
	}
	if x <= stops[0].at {
		return stops[0].color
	}
	for i := 1; i < len(stops); i++ {
		if x <= stops[i].at {
			lo, hi := stops[i-1], stops[i]
			return lerpColor(lo.color, hi.color, (x-lo.at)/(hi.at-lo.at))
		}
	}
	return stops[len(stops)-1].color
}

// CreateMilkyWay adds a barred two-arm spiral galaxy in the XZ plane: count
// arm particles plus a tenth of that for the central bar and again for red
// star forming regions.
func CreateMilkyWay(ps *ParticleSystemVisual, rng *rand.Rand, count int) {
	const (
		armAdditionTurn = 5.0
		armOutgoing     = 4.0
		armPhiMax       = 2.3
		barWidth        = 2.0
		barDiameter     = 0.3
		fuzzSigma       = 0.1
		heightSigma     = 0.2
	)
	yellowish := ParticleColor{240, 255, 155, 255}
	whiteish := ParticleColor{206, 206, 206, 255}
	reddish := ParticleColor{240, 20, 20, 255}
	pinkish := ParticleColor{219, 76, 138, 255}
	armColors := []colorStop{{0, yellowish}, {1, whiteish}, {4, ParticleColor{138, 145, 166, 255}}, {8, ParticleColor{120, 100, 110, 255}}}

	armRadius := func(phi float64) float32 {
		turn := phi / (2 * math.Pi)
		return float32(barWidth*0.5 + turn*armAdditionTurn + math.Pow(turn, armOutgoing))
	}
	armPoint := func(i int, phi float64, radius float32) mgl32.Vec3 {
		y := float32(rng.NormFloat64() * heightSigma)
		if i%2 == 0 {
			return mgl32.Vec3{float32(math.Cos(phi))*radius + barWidth*0.3, y, float32(math.Sin(phi)) * radius}
		}
		return mgl32.Vec3{-float32(math.Cos(-phi))*radius - barWidth*0.3, y, float32(math.Sin(-phi)) * radius}
	}

	for i := 0; i < count/10; i++ {
		x := lerp(-barWidth*0.6, barWidth*0.6, rng.Float32())
		r := barDiameter * 0.5 * rng.Float32()
		phi := 2 * math.Pi * rng.Float64()
		ps.AddParticle(ParticleState{
			Position: mgl32.Vec3{x, float32(math.Sin(phi)) * r, float32(math.Cos(phi)) * r},
			Color:    yellowish,
		})
	}

	for i := 0; i < count; i++ {
		phi := rng.Float64() * math.Pi * armPhiMax
		fuzz := float32(1 + rng.NormFloat64()*fuzzSigma)
		pull := float32(math.Abs(float64((1 - fuzz) / fuzzSigma)))
		ps.AddParticle(ParticleState{
			Position: armPoint(i, phi, armRadius(phi)*fuzz),
			Color:    interpolateColor(armColors, pull),
		})
	}

	for i := 0; i < count/10; i++ {
		phi := rng.Float64() * math.Pi * armPhiMax
		fuzz := float32(1 + rng.NormFloat64()*fuzzSigma*0.2)
		color := reddish
		if i%2 == 1 {
			color = pinkish
		}
		ps.AddParticle(ParticleState{
			Position: armPoint(i, phi, armRadius(phi)*fuzz),
			Size:     defaultParticleSize * 1.5,
			Color:    color,
		})
	}
}
