package mesh

import "gonum.org/v1/gonum/spatial/r3"

// ComputeNormals sets area-weighted unit vertex normals
func ComputeNormals(m *Mesh) *Mesh {
	normals := make([]r3.Vec, len(m.Vertices))
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		// the unnormalized cross product is already area-weighted
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, v := range f {
			normals[v] = r3.Add(normals[v], n)
		}
	}
	for i, n := range normals {
		if l := r3.Norm(n); l > 0 {
			normals[i] = r3.Scale(1/l, n)
		}
	}
	return &Mesh{Vertices: m.Vertices, Faces: m.Faces, Normals: normals}
}

type edgeKey struct{ a, b int }

func undirected(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// hasDirected reports whether face f traverses a then b
func hasDirected(f [3]int, a, b int) bool {
	for k := 0; k < 3; k++ {
		if f[k] == a && f[(k+1)%3] == b {
			return true
		}
	}
	return false
}

// FixNormals makes winding consistent across each edge-connected component,
// turns every component outward (positive signed volume) and recomputes
// vertex normals.
func FixNormals(m *Mesh) *Mesh {
	faces := append([][3]int(nil), m.Faces...)

	edgeFaces := make(map[edgeKey][]int, len(faces)*3/2)
	for i, f := range faces {
		for k := 0; k < 3; k++ {
			key := undirected(f[k], f[(k+1)%3])
			edgeFaces[key] = append(edgeFaces[key], i)
		}
	}

	flip := func(i int) {
		faces[i][1], faces[i][2] = faces[i][2], faces[i][1]
	}

	visited := make([]bool, len(faces))
	for seed := range faces {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		component := []int{seed}
		queue := []int{seed}
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			f := faces[fi]
			for k := 0; k < 3; k++ {
				a, b := f[k], f[(k+1)%3]
				for _, gi := range edgeFaces[undirected(a, b)] {
					if visited[gi] {
						continue
					}
					// a consistent neighbour walks the shared edge b -> a
					if hasDirected(faces[gi], a, b) {
						flip(gi)
					}
					visited[gi] = true
					component = append(component, gi)
					queue = append(queue, gi)
				}
			}
		}

		signed := 0.0
		for _, fi := range component {
			f := faces[fi]
			signed += r3.Dot(m.Vertices[f[0]], r3.Cross(m.Vertices[f[1]], m.Vertices[f[2]]))
		}
		if signed < 0 {
			for _, fi := range component {
				flip(fi)
			}
		}
	}

	return ComputeNormals(&Mesh{Vertices: m.Vertices, Faces: faces})
}
