package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Weld merges the corners of a triangle soup that lie within tolerance of
// each other (snapped to a grid of that pitch) into shared vertices.
// Winding is preserved.
func Weld(triangles [][3]r3.Vec, tolerance float64) *Mesh {
	if tolerance <= 0 {
		tolerance = 1e-9
	}
	type key [3]int64
	snap := func(v r3.Vec) key {
		return key{
			int64(math.Round(v.X / tolerance)),
			int64(math.Round(v.Y / tolerance)),
			int64(math.Round(v.Z / tolerance)),
		}
	}

	index := make(map[key]int, len(triangles))
	m := &Mesh{
		Vertices: make([]r3.Vec, 0, len(triangles)/2),
		Faces:    make([][3]int, 0, len(triangles)),
	}
	for _, tri := range triangles {
		var f [3]int
		for k, v := range tri {
			kk := snap(v)
			id, ok := index[kk]
			if !ok {
				id = len(m.Vertices)
				index[kk] = id
				m.Vertices = append(m.Vertices, v)
			}
			f[k] = id
		}
		m.Faces = append(m.Faces, f)
	}
	return m
}

// Triangles expands the mesh back into a triangle soup
func (m *Mesh) Triangles() [][3]r3.Vec {
	out := make([][3]r3.Vec, len(m.Faces))
	for i := range m.Faces {
		a, b, c := m.Corners(i)
		out[i] = [3]r3.Vec{a, b, c}
	}
	return out
}
