package spheres

import (
	"slices"
	"time"
)

// EntityEngine owns all entities and connects them to the data coming back
// from the render thread.
type EntityEngine struct {
	// OnTimeStep fires once per logic tick, before any other engine steps.
	OnTimeStep Signal[time.Duration]

	entities []*Entity
	logger   Logger
}

func NewEntityEngine(logger Logger) *EntityEngine {
	return &EntityEngine{logger: orNop(logger)}
}

// AddEntity takes ownership of e. If managed is not nil, e is also appended to
// it so game code can keep its own list of entities of one sort.
func (ee *EntityEngine) AddEntity(e *Entity, managed *[]*Entity) {
	if managed != nil {
		*managed = append(*managed, e)
	}
	ee.entities = append(ee.entities, e)
}

// RemoveEntity drops e together with its outstanding placeholders. Visuals
// of e that are prepared later match no entity and are ignored.
func (ee *EntityEngine) RemoveEntity(e *Entity) bool {
	idx := slices.Index(ee.entities, e)
	if idx < 0 {
		return false
	}
	if len(e.placeholders) > 0 {
		ee.logger.Debugf("removing entity %q with %d visuals still being prepared", e.Name, len(e.placeholders))
	}
	e.release()
	ee.entities = slices.Delete(ee.entities, idx, idx+1)
	return true
}

// Entities returns the entities in insertion order.
func (ee *EntityEngine) Entities() []*Entity { return ee.entities }

func (ee *EntityEngine) Step(dt time.Duration) {
	ee.OnTimeStep.Emit(dt)
}

// UpdatePreparedVisuals hands prepared visuals to the entities waiting for
// them. Matching is by id only, so the order of prepared does not matter and
// ids nobody waits for are dropped.
func (ee *EntityEngine) UpdatePreparedVisuals(prepared []PendingVisual) {
	if len(prepared) == 0 {
		return
	}
	attached := 0
	for _, e := range ee.entities {
		attached += e.updatePreparedVisuals(prepared, ee.logger)
	}
	if attached < len(prepared) && ee.logger.DebugEnabled() {
		ee.logger.Debugf("%d of %d prepared visuals had no waiting entity", len(prepared)-attached, len(prepared))
	}
}

// UpdateVisuals broadcasts every change to every visual of every entity.
func (ee *EntityEngine) UpdateVisuals(changes []RenderChangeEvent) {
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		ee.logger.Debugf("forwarding visual change: %s", c)
	}
	for _, e := range ee.entities {
		e.updateVisuals(changes)
	}
}

// ExtractVisualData appends the draw records of all entities in insertion
// order.
func (ee *EntityEngine) ExtractVisualData(snapshot *SceneSnapshot) {
	for _, e := range ee.entities {
		e.extract(snapshot)
	}
}
