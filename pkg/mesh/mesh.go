// Package mesh holds indexed triangle meshes and the operations applied to
// reconstructed scaffold surfaces: smoothing, cleanup, normal repair,
// decimation and measurement.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh. Faces index into Vertices and are
// wound counter-clockwise when seen from outside. Normals is optional and,
// when present, has one entry per vertex.
type Mesh struct {
	Vertices []r3.Vec
	Faces    [][3]int
	Normals  []r3.Vec
}

// New builds a mesh from vertices and faces without copying them
func New(vertices []r3.Vec, faces [][3]int) *Mesh {
	return &Mesh{Vertices: vertices, Faces: faces}
}

// Clone returns a deep copy
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: append([]r3.Vec(nil), m.Vertices...),
		Faces:    append([][3]int(nil), m.Faces...),
	}
	if m.Normals != nil {
		c.Normals = append([]r3.Vec(nil), m.Normals...)
	}
	return c
}

// NumVertices returns the vertex count
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumFaces returns the face count
func (m *Mesh) NumFaces() int { return len(m.Faces) }

// Corners returns the three vertex positions of face i
func (m *Mesh) Corners(i int) (a, b, c r3.Vec) {
	f := m.Faces[i]
	return m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
}

// FaceNormal returns the unit normal of face i, or the zero vector for a
// degenerate face
func (m *Mesh) FaceNormal(i int) r3.Vec {
	a, b, c := m.Corners(i)
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if l := r3.Norm(n); l > 0 {
		return r3.Scale(1/l, n)
	}
	return r3.Vec{}
}

// FaceArea returns the area of face i
func (m *Mesh) FaceArea(i int) float64 {
	a, b, c := m.Corners(i)
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// SurfaceArea sums the face areas
func (m *Mesh) SurfaceArea() float64 {
	total := 0.0
	for i := range m.Faces {
		total += m.FaceArea(i)
	}
	return total
}

// Volume returns the signed enclosed volume from the divergence theorem,
// summing the tetrahedra spanned by the origin and each face. It is
// positive for closed outward-wound meshes.
func (m *Mesh) Volume() float64 {
	total := 0.0
	for i := range m.Faces {
		a, b, c := m.Corners(i)
		total += r3.Dot(a, r3.Cross(b, c))
	}
	return total / 6
}

// Bounds returns the axis-aligned bounding box of the vertices
func (m *Mesh) Bounds() (lo, hi r3.Vec) {
	if len(m.Vertices) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	lo = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.Vertices {
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return lo, hi
}

// Adjacency lists, for every vertex, the distinct other vertices that share
// a face with it. Compute it once and reuse it across smoothing passes.
func (m *Mesh) Adjacency() [][]int {
	adj := make([][]int, len(m.Vertices))
	seen := make([]map[int]struct{}, len(m.Vertices))
	add := func(a, b int) {
		if a == b {
			return
		}
		if seen[a] == nil {
			seen[a] = make(map[int]struct{}, 6)
		}
		if _, ok := seen[a][b]; ok {
			return
		}
		seen[a][b] = struct{}{}
		adj[a] = append(adj[a], b)
	}
	for _, f := range m.Faces {
		for k := 0; k < 3; k++ {
			add(f[k], f[(k+1)%3])
			add(f[k], f[(k+2)%3])
		}
	}
	return adj
}
