package spheres

import (
	"math"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type ColliderShape int

const (
	ShapeBox ColliderShape = iota
	ShapeSphere
)

type RigidBody struct {
	Velocity     mgl32.Vec3
	Mass         float32
	GravityScale float32
	IsStatic     bool
	Sleeping     bool
	IdleTime     float32
}

func (rb *RigidBody) Wake() {
	rb.Sleeping = false
	rb.IdleTime = 0
}

func (rb *RigidBody) ApplyImpulse(impulse mgl32.Vec3) {
	rb.Wake()
	if rb.Mass > 0 {
		rb.Velocity = rb.Velocity.Add(impulse.Mul(1.0 / rb.Mass))
	} else {
		rb.Velocity = rb.Velocity.Add(impulse)
	}
}

type Collider struct {
	Shape       ColliderShape
	HalfExtents mgl32.Vec3 // ShapeBox
	Radius      float32    // ShapeSphere
	Friction    float32
	Restitution float32
}

// BoxCollider returns a collider for a box of the given half extents.
func BoxCollider(halfExtents mgl32.Vec3) Collider {
	return Collider{Shape: ShapeBox, HalfExtents: halfExtents}
}

func SphereCollider(radius float32) Collider {
	return Collider{Shape: ShapeSphere, Radius: radius}
}

// aabb returns the half extents of the box around the collider. Spheres
// collide as their bounding box.
func (c Collider) aabb() mgl32.Vec3 {
	if c.Shape == ShapeSphere {
		return mgl32.Vec3{c.Radius, c.Radius, c.Radius}
	}
	return c.HalfExtents
}

// Body ties a rigid body and its collider to the entity it moves.
type Body struct {
	Entity    *Entity
	RigidBody *RigidBody
	Collider  Collider

	extents mgl32.Vec3
	// box the body is registered with in the broadphase
	box AABB
}

const minExtent = 0.001

func (b *Body) scaledExtents() mgl32.Vec3 {
	half := b.Collider.aabb()
	scale := normalizeTransform(b.Entity.Transform).Scale
	ext := mgl32.Vec3{half.X() * scale.X(), half.Y() * scale.Y(), half.Z() * scale.Z()}
	for i := range ext {
		if ext[i] < minExtent {
			ext[i] = minExtent
		}
	}
	return ext
}

const defaultCellSize = 2.0

// PhysicsEngine moves the entities of its bodies. Collisions are resolved
// axis by axis between the AABBs of all bodies and, when enabled, a ground
// plane. Candidate bodies come from a spatial hash grid rebuilt every step.
type PhysicsEngine struct {
	Gravity        mgl32.Vec3
	SleepThreshold float32
	SleepTime      float32

	// Bodies never sink below GroundLevel when HasGround is set.
	HasGround   bool
	GroundLevel float32

	bodies []*Body
	grid   *SpatialHashGrid
}

func NewPhysicsEngine() *PhysicsEngine {
	return &PhysicsEngine{
		Gravity:        mgl32.Vec3{0, -9.81, 0},
		SleepThreshold: 0.05,
		SleepTime:      1.0,
		grid:           NewSpatialHashGrid(defaultCellSize),
	}
}

func (pe *PhysicsEngine) AddBody(e *Entity, rb *RigidBody, col Collider) *Body {
	b := &Body{Entity: e, RigidBody: rb, Collider: col}
	pe.bodies = append(pe.bodies, b)
	return b
}

// RemoveBody drops the bodies of e.
func (pe *PhysicsEngine) RemoveBody(e *Entity) bool {
	n := len(pe.bodies)
	pe.bodies = slices.DeleteFunc(pe.bodies, func(b *Body) bool { return b.Entity == e })
	return len(pe.bodies) != n
}

func (pe *PhysicsEngine) Bodies() []*Body { return pe.bodies }

func (pe *PhysicsEngine) Step(dt time.Duration) {
	seconds := float32(dt.Seconds())
	if seconds <= 0 || seconds > 1.0 {
		return
	}

	if pe.grid == nil {
		pe.grid = NewSpatialHashGrid(defaultCellSize)
	}
	pe.grid.Clear()
	for _, b := range pe.bodies {
		b.extents = b.scaledExtents()
		b.box = aabbAround(b.Entity.Transform.Position, b.extents)
		pe.grid.Insert(b, b.box)
	}

	for _, b := range pe.bodies {
		rb := b.RigidBody
		if rb.IsStatic || rb.Sleeping {
			continue
		}

		if rb.GravityScale != 0 {
			rb.Velocity = rb.Velocity.Add(pe.Gravity.Mul(rb.GravityScale * seconds))
		}

		displacement := rb.Velocity.Mul(seconds)
		if l := float64(displacement.Len()); math.IsNaN(l) || math.IsInf(l, 0) {
			rb.Velocity = mgl32.Vec3{}
			continue
		}

		tr := &b.Entity.Transform
		startPos := tr.Position
		friction := b.Collider.Friction
		restitution := b.Collider.Restitution

		// vertical first so resting bodies get friction before sliding
		tr.Position, rb.Velocity = pe.resolveAxis(b, tr.Position, rb.Velocity, displacement, 1, friction, restitution)
		displacement = rb.Velocity.Mul(seconds)
		tr.Position, rb.Velocity = pe.resolveAxis(b, tr.Position, rb.Velocity, displacement, 0, friction, restitution)
		displacement = rb.Velocity.Mul(seconds)
		tr.Position, rb.Velocity = pe.resolveAxis(b, tr.Position, rb.Velocity, displacement, 2, friction, restitution)

		if tr.Position != startPos {
			box := aabbAround(tr.Position, b.extents)
			pe.grid.Move(b, b.box, box)
			b.box = box
		}
		if tr.Position.Sub(startPos).Len() > 0.001 {
			pe.wakeNeighbors(b)
		}

		if rb.Velocity.Len() < pe.SleepThreshold {
			rb.IdleTime += seconds
			if rb.IdleTime > pe.SleepTime {
				rb.Sleeping = true
				rb.Velocity = mgl32.Vec3{}
			}
		} else {
			rb.IdleTime = 0
		}
	}
}

func (pe *PhysicsEngine) wakeNeighbors(b *Body) {
	const margin = 0.05
	pos := b.Entity.Transform.Position
	reach := b.extents.Add(mgl32.Vec3{margin, margin, margin})
	for _, other := range pe.grid.QueryAABB(aabbAround(pos, reach)) {
		if other == b || !other.RigidBody.Sleeping {
			continue
		}
		if overlaps(pos, reach, other.Entity.Transform.Position, other.extents) {
			other.RigidBody.Wake()
		}
	}
}

func (pe *PhysicsEngine) resolveAxis(self *Body, pos, vel, displacement mgl32.Vec3, axis int, friction, restitution float32) (mgl32.Vec3, mgl32.Vec3) {
	dist := displacement[axis]
	if abs32(dist) < 0.0001 {
		return pos, vel
	}

	stepSize := float32(0.1)
	if dist < 0 {
		stepSize = -0.1
	}
	remaining := min(abs32(dist), 10.0)

	newPos := pos
	for i := 0; remaining > 0 && i < 200; i++ {
		move := stepSize
		if remaining < abs32(stepSize) {
			move = remaining
			if dist < 0 {
				move = -remaining
			}
		}

		testPos := newPos
		testPos[axis] += move
		if pe.collides(self, testPos) {
			vel[axis] = -vel[axis] * restitution
			if abs32(vel[axis]) < 0.1 {
				vel[axis] = 0
			}
			for a := 0; a < 3; a++ {
				if a == axis {
					continue
				}
				vel[a] *= 1.0 - friction
				if abs32(vel[a]) < 0.01 {
					vel[a] = 0
				}
			}
			break
		}
		newPos = testPos
		remaining -= abs32(move)
	}
	return newPos, vel
}

func (pe *PhysicsEngine) collides(self *Body, pos mgl32.Vec3) bool {
	half := self.extents
	if pe.HasGround && pos.Y()-half.Y() < pe.GroundLevel {
		return true
	}
	for _, other := range pe.grid.QueryAABB(aabbAround(pos, half)) {
		if other == self {
			continue
		}
		if overlaps(pos, half, other.Entity.Transform.Position, other.extents) {
			return true
		}
	}
	return false
}

func overlaps(p1, h1, p2, h2 mgl32.Vec3) bool {
	return abs32(p1.X()-p2.X()) < h1.X()+h2.X() &&
		abs32(p1.Y()-p2.Y()) < h1.Y()+h2.Y() &&
		abs32(p1.Z()-p2.Z()) < h1.Z()+h2.Z()
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
