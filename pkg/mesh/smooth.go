package mesh

import "gonum.org/v1/gonum/spatial/r3"

// Default Taubin weights. The negative mu pass re-inflates what the lambda
// pass shrinks.
const (
	DefaultLambda = 0.5
	DefaultMu     = -0.53
)

// LaplacianStep moves every vertex toward the centroid of its neighbours by
// factor and returns the new positions. Vertices without neighbours stay put.
func LaplacianStep(vertices []r3.Vec, adj [][]int, factor float64) []r3.Vec {
	out := make([]r3.Vec, len(vertices))
	for i, v := range vertices {
		nbrs := adj[i]
		if len(nbrs) == 0 {
			out[i] = v
			continue
		}
		var centroid r3.Vec
		for _, j := range nbrs {
			centroid = r3.Add(centroid, vertices[j])
		}
		centroid = r3.Scale(1/float64(len(nbrs)), centroid)
		out[i] = r3.Add(v, r3.Scale(factor, r3.Sub(centroid, v)))
	}
	return out
}

// Laplacian applies iterations umbrella-operator passes with weight lambda.
// Faces are shared with m; vertices are new.
func Laplacian(m *Mesh, iterations int, lambda float64) *Mesh {
	adj := m.Adjacency()
	verts := m.Vertices
	for i := 0; i < iterations; i++ {
		verts = LaplacianStep(verts, adj, lambda)
	}
	return &Mesh{Vertices: verts, Faces: m.Faces}
}

// Taubin applies lambda/mu smoothing: each iteration is a shrinking
// Laplacian pass with lambda followed by an inflating pass with mu.
func Taubin(m *Mesh, iterations int, lambda, mu float64) *Mesh {
	adj := m.Adjacency()
	verts := m.Vertices
	for i := 0; i < iterations; i++ {
		verts = LaplacianStep(verts, adj, lambda)
		verts = LaplacianStep(verts, adj, mu)
	}
	return &Mesh{Vertices: verts, Faces: m.Faces}
}
