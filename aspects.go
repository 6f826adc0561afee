package spheres

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// ParticleAspect steps every particle system attached to its entity once per
// logic tick. Particle systems still being prepared are not stepped.
type ParticleAspect struct {
	entity *Entity
	subs   Subscriptions
}

func (a *ParticleAspect) Init(engines *Engines, e *Entity) {
	a.entity = e
	a.subs.Add(engines.Entity.OnTimeStep.Subscribe(a.step))
}

func (a *ParticleAspect) step(dt time.Duration) {
	for _, v := range a.entity.Visuals() {
		if v.Kind() != VisualKindParticleSystem {
			continue
		}
		v.(*ParticleSystemVisual).Step(dt)
	}
}

func (a *ParticleAspect) Release() { a.subs.Close() }

// SpinAspect rotates its entity around Axis at Speed radians per second.
type SpinAspect struct {
	Axis  mgl32.Vec3
	Speed float32

	subs Subscriptions
}

func (a *SpinAspect) Init(engines *Engines, e *Entity) {
	axis := a.Axis
	if axis.Len() == 0 {
		axis = worldUp
	}
	axis = axis.Normalize()
	a.subs.Add(engines.Entity.OnTimeStep.Subscribe(func(dt time.Duration) {
		delta := mgl32.QuatRotate(a.Speed*float32(dt.Seconds()), axis)
		rot := normalizeTransform(e.Transform).Rotation
		e.Transform.Rotation = delta.Mul(rot).Normalize()
	}))
}

func (a *SpinAspect) Release() { a.subs.Close() }

// ActionAspect calls Fn for every unhandled input action named Name and
// marks the action handled.
type ActionAspect struct {
	Name string
	Fn   func(a *InputAction)

	subs Subscriptions
}

func (a *ActionAspect) Init(engines *Engines, e *Entity) {
	a.subs.Add(engines.Input.OnNewInputAction.Subscribe(func(action *InputAction) {
		if action.Handled() || action.Name != a.Name {
			return
		}
		a.Fn(action)
		action.SetHandled()
	}))
}

func (a *ActionAspect) Release() { a.subs.Close() }
