package spheres

import "fmt"

type VisualKind int

const (
	VisualKindMesh VisualKind = iota
	VisualKindParticleSystem
)

func (k VisualKind) String() string {
	switch k {
	case VisualKindMesh:
		return "MeshVisual"
	case VisualKindParticleSystem:
		return "ParticleSystemVisual"
	default:
		return fmt.Sprintf("VisualKind(%d)", int(k))
	}
}

// VisualId names a visual submitted for preparation. Ids are unique within one
// RenderEngine; wraparound is tolerated since only a few are in flight.
type VisualId uint32

// Visual is something an entity draws. Code that needs the concrete type
// checks Kind first and narrows afterwards.
type Visual interface {
	Kind() VisualKind
	// Update applies a change reported by the render thread. Visuals ignore
	// events that do not concern them.
	Update(change RenderChangeEvent)
	// Extract appends the draw record of this visual, placed by the owning
	// entity's transform, to the snapshot.
	Extract(owner Transform, snapshot *SceneSnapshot)
}

// PendingVisual pairs a visual with the id it was submitted under. The
// render engine only reads the visual while preparing it; the entity that
// requested it remains the owner.
type PendingVisual struct {
	Id     VisualId
	Visual Visual
}

func (p PendingVisual) String() string {
	return fmt.Sprintf("%s#%d", p.Visual.Kind(), p.Id)
}
