package spheres

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Aspect is a unit of behavior attached to an entity. Init is where it
// subscribes to the engine signals it needs.
type Aspect interface {
	Init(engines *Engines, e *Entity)
}

// AspectReleaser is implemented by aspects holding subscriptions that must be
// dropped when their entity is removed.
type AspectReleaser interface {
	Release()
}

// Camera makes an entity the point the scene is rendered from.
type Camera struct {
	LookAt mgl32.Vec3
}

// Entity owns its visuals and aspects. Entities are only touched by the logic
// thread.
type Entity struct {
	Name      string
	Transform Transform
	Camera    *Camera

	visuals      []Visual
	placeholders []VisualId
	aspects      []Aspect
}

func NewEntity(name string) *Entity {
	return &Entity{Name: name, Transform: IdentityTransform()}
}

func NewCameraEntity(name string, position, lookAt mgl32.Vec3) *Entity {
	e := NewEntity(name)
	e.Transform.Position = position
	e.Camera = &Camera{LookAt: lookAt}
	return e
}

func (e *Entity) Position() mgl32.Vec3 { return e.Transform.Position }

func (e *Entity) SetPosition(p mgl32.Vec3) { e.Transform.Position = p }

func (e *Entity) AddVisual(v Visual) {
	e.visuals = append(e.visuals, v)
}

// AddVisualPlaceholder records a visual that is still being prepared by the
// render engine under id.
func (e *Entity) AddVisualPlaceholder(id VisualId) {
	e.placeholders = append(e.placeholders, id)
}

// RequestVisual submits v for preparation and keeps a placeholder for it.
// The visual becomes part of the entity once the render thread prepared it.
func (e *Entity) RequestVisual(render *RenderEngine, v Visual) VisualId {
	id := render.AddToPrepareVisual(v)
	e.AddVisualPlaceholder(id)
	return id
}

func (e *Entity) Visuals() []Visual { return e.visuals }

func (e *Entity) Placeholders() []VisualId { return e.placeholders }

// FirstVisual returns the first attached visual. Asking an entity without
// any visual is a setup error.
func (e *Entity) FirstVisual() Visual {
	if len(e.visuals) == 0 {
		fatalf(nil, "entity %q has no visuals", e.Name)
	}
	return e.visuals[0]
}

func (e *Entity) AddAspect(engines *Engines, a Aspect) {
	a.Init(engines, e)
	e.aspects = append(e.aspects, a)
}

func (e *Entity) Aspects() []Aspect { return e.aspects }

// updatePreparedVisuals attaches every prepared visual whose id this entity
// is waiting for and returns how many were attached.
func (e *Entity) updatePreparedVisuals(prepared []PendingVisual, logger Logger) int {
	if len(e.placeholders) == 0 {
		return 0
	}
	attached := 0
	for _, p := range prepared {
		idx := slices.Index(e.placeholders, p.Id)
		if idx < 0 {
			continue
		}
		e.AddVisual(p.Visual)
		e.placeholders = slices.Delete(e.placeholders, idx, idx+1)
		attached++
		logger.Infof("Prepared visual of type %s added to entity %q", p.Visual.Kind(), e.Name)
	}
	return attached
}

func (e *Entity) updateVisuals(changes []RenderChangeEvent) {
	for _, c := range changes {
		for _, v := range e.visuals {
			v.Update(c)
		}
	}
}

func (e *Entity) extract(snapshot *SceneSnapshot) {
	if e.Camera != nil {
		snapshot.Camera = CameraData{Position: e.Transform.Position, LookAt: e.Camera.LookAt}
	}
	for _, v := range e.visuals {
		v.Extract(e.Transform, snapshot)
	}
}

func (e *Entity) release() {
	for _, a := range e.aspects {
		if r, ok := a.(AspectReleaser); ok {
			r.Release()
		}
	}
	e.aspects = nil
	e.placeholders = nil
}
