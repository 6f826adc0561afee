package spheres

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis aligned box in world space.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func aabbAround(center, half mgl32.Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Bodies touching more cells than this are kept in a list every query
// returns instead of being spread over the grid.
const maxCellsPerBody = 4096

// SpatialHashGrid is the physics broadphase: it buckets bodies by the grid
// cells their box touches. Queries return candidates only; hash collisions
// and neighboring cells may add bodies that do not actually overlap.
type SpatialHashGrid struct {
	cellSize float32
	cells    map[uint64][]*Body
	large    []*Body
}

func NewSpatialHashGrid(cellSize float32) *SpatialHashGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]*Body),
	}
}

func (grid *SpatialHashGrid) Clear() {
	clear(grid.cells)
	grid.large = grid.large[:0]
}

type cellRange struct {
	minX, maxX, minY, maxY, minZ, maxZ int
}

func (grid *SpatialHashGrid) cellsOf(box AABB) (cellRange, bool) {
	r := cellRange{
		minX: grid.getCellIndex(box.Min.X()), maxX: grid.getCellIndex(box.Max.X()),
		minY: grid.getCellIndex(box.Min.Y()), maxY: grid.getCellIndex(box.Max.Y()),
		minZ: grid.getCellIndex(box.Min.Z()), maxZ: grid.getCellIndex(box.Max.Z()),
	}
	n := (r.maxX - r.minX + 1) * (r.maxY - r.minY + 1) * (r.maxZ - r.minZ + 1)
	return r, n > 0 && n <= maxCellsPerBody
}

func (r cellRange) each(fn func(x, y, z int)) {
	for x := r.minX; x <= r.maxX; x++ {
		for y := r.minY; y <= r.maxY; y++ {
			for z := r.minZ; z <= r.maxZ; z++ {
				fn(x, y, z)
			}
		}
	}
}

func (grid *SpatialHashGrid) Insert(b *Body, box AABB) {
	r, ok := grid.cellsOf(box)
	if !ok {
		grid.large = append(grid.large, b)
		return
	}
	r.each(func(x, y, z int) {
		key := grid.hashKey(x, y, z)
		grid.cells[key] = append(grid.cells[key], b)
	})
}

// Remove takes b out of the cells of box, which must be the box b was
// inserted with.
func (grid *SpatialHashGrid) Remove(b *Body, box AABB) {
	r, ok := grid.cellsOf(box)
	if !ok {
		if i := slices.Index(grid.large, b); i >= 0 {
			grid.large = slices.Delete(grid.large, i, i+1)
		}
		return
	}
	r.each(func(x, y, z int) {
		key := grid.hashKey(x, y, z)
		bodies := grid.cells[key]
		if i := slices.Index(bodies, b); i >= 0 {
			bodies = slices.Delete(bodies, i, i+1)
		}
		if len(bodies) == 0 {
			delete(grid.cells, key)
			return
		}
		grid.cells[key] = bodies
	})
}

// Move updates the cells of b after its box changed from one to another.
func (grid *SpatialHashGrid) Move(b *Body, from, to AABB) {
	grid.Remove(b, from)
	grid.Insert(b, to)
}

func (grid *SpatialHashGrid) QueryAABB(box AABB) []*Body {
	results := slices.Clone(grid.large)
	r, ok := grid.cellsOf(box)
	if !ok {
		// a huge query box is cheaper as a scan over every cell
		seen := make(map[*Body]struct{})
		for _, b := range results {
			seen[b] = struct{}{}
		}
		for _, bodies := range grid.cells {
			for _, b := range bodies {
				if _, dup := seen[b]; !dup {
					seen[b] = struct{}{}
					results = append(results, b)
				}
			}
		}
		return results
	}

	unique := make(map[*Body]struct{}, len(results))
	for _, b := range results {
		unique[b] = struct{}{}
	}
	r.each(func(x, y, z int) {
		for _, b := range grid.cells[grid.hashKey(x, y, z)] {
			if _, ok := unique[b]; !ok {
				unique[b] = struct{}{}
				results = append(results, b)
			}
		}
	})
	return results
}

// QueryRadius returns the candidates within the box around a sphere.
func (grid *SpatialHashGrid) QueryRadius(center mgl32.Vec3, radius float32) []*Body {
	return grid.QueryAABB(aabbAround(center, mgl32.Vec3{radius, radius, radius}))
}

func (grid *SpatialHashGrid) getCellIndex(pos float32) int {
	return int(math.Floor(float64(pos / grid.cellSize)))
}

func (grid *SpatialHashGrid) hashKey(x, y, z int) uint64 {
	// large primes for mixing
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}
