package spheres

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Name of the procedural unit cube every FileLoader knows.
const DebugBoxMesh = "debug_box"

type MeshVertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// MeshGenerator builds a mesh on demand.
type MeshGenerator func() ([]MeshVertex, []uint16)

// BoxMesh returns a box centered at the origin with four vertices per face so
// every face gets its own normal.
func BoxMesh(halfExtents mgl32.Vec3) ([]MeshVertex, []uint16) {
	hx, hy, hz := halfExtents.X(), halfExtents.Y(), halfExtents.Z()
	faces := []struct {
		normal mgl32.Vec3
		corner [4]mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
	}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	vertices := make([]MeshVertex, 0, 24)
	indices := make([]uint16, 0, 36)
	for _, f := range faces {
		base := uint16(len(vertices))
		for i, c := range f.corner {
			vertices = append(vertices, MeshVertex{Position: c, Normal: f.normal, UV: uvs[i]})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// SphereMesh returns a UV sphere.
func SphereMesh(radius float32, rings, segments int) ([]MeshVertex, []uint16) {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}
	var vertices []MeshVertex
	for r := 0; r <= rings; r++ {
		theta := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			n := mgl32.Vec3{
				float32(math.Sin(theta) * math.Cos(phi)),
				float32(math.Cos(theta)),
				float32(math.Sin(theta) * math.Sin(phi)),
			}
			vertices = append(vertices, MeshVertex{
				Position: n.Mul(radius),
				Normal:   n,
				UV:       [2]float32{float32(s) / float32(segments), float32(r) / float32(rings)},
			})
		}
	}
	var indices []uint16
	stride := uint16(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint16(r)*stride + uint16(s)
			b := a + stride
			indices = append(indices, a, a+1, b, b, a+1, b+1)
		}
	}
	return vertices, indices
}

// PlaneMesh returns a square in the XZ plane facing +Y.
func PlaneMesh(halfSize float32) ([]MeshVertex, []uint16) {
	up := [3]float32{0, 1, 0}
	vertices := []MeshVertex{
		{Position: [3]float32{-halfSize, 0, halfSize}, Normal: up, UV: [2]float32{0, 1}},
		{Position: [3]float32{halfSize, 0, halfSize}, Normal: up, UV: [2]float32{1, 1}},
		{Position: [3]float32{halfSize, 0, -halfSize}, Normal: up, UV: [2]float32{1, 0}},
		{Position: [3]float32{-halfSize, 0, -halfSize}, Normal: up, UV: [2]float32{0, 0}},
	}
	return vertices, []uint16{0, 1, 2, 0, 2, 3}
}

// ConeMesh returns a cone standing on the XZ plane with its tip at height.
func ConeMesh(radius, height float32, segments int) ([]MeshVertex, []uint16) {
	if segments < 3 {
		segments = 3
	}
	vertices := []MeshVertex{
		{Position: [3]float32{0, height, 0}, Normal: [3]float32{0, 1, 0}, UV: [2]float32{0.5, 0}},
		{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, -1, 0}, UV: [2]float32{0.5, 1}},
	}
	slope := radius / height
	for s := 0; s <= segments; s++ {
		phi := 2 * math.Pi * float64(s) / float64(segments)
		x, z := float32(math.Cos(phi)), float32(math.Sin(phi))
		n := mgl32.Vec3{x, slope, z}.Normalize()
		vertices = append(vertices, MeshVertex{
			Position: [3]float32{x * radius, 0, z * radius},
			Normal:   n,
			UV:       [2]float32{float32(s) / float32(segments), 1},
		})
	}
	var indices []uint16
	for s := 0; s < segments; s++ {
		a := uint16(2 + s)
		indices = append(indices, 0, a+1, a)
		indices = append(indices, 1, a, a+1)
	}
	return vertices, indices
}
