package mesh

import (
	"github.com/fogleman/simplify"
	"gonum.org/v1/gonum/spatial/r3"
)

// Decimate reduces m to roughly targetFaces faces by quadric error edge
// collapse. Meshes already at or below the target are returned unchanged.
func Decimate(m *Mesh, targetFaces int) *Mesh {
	if targetFaces <= 0 || len(m.Faces) <= targetFaces {
		return m
	}

	tris := make([]*simplify.Triangle, len(m.Faces))
	for i := range m.Faces {
		a, b, c := m.Corners(i)
		tris[i] = simplify.NewTriangle(toSimplify(a), toSimplify(b), toSimplify(c))
	}
	factor := float64(targetFaces) / float64(len(m.Faces))
	reduced := simplify.NewMesh(tris).Simplify(factor)

	soup := make([][3]r3.Vec, len(reduced.Triangles))
	for i, t := range reduced.Triangles {
		soup[i] = [3]r3.Vec{fromSimplify(t.V1), fromSimplify(t.V2), fromSimplify(t.V3)}
	}
	return Weld(soup, WeldTolerance(m))
}

func toSimplify(v r3.Vec) simplify.Vector {
	return simplify.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

func fromSimplify(v simplify.Vector) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// WeldTolerance is a millionth of the bounding-box diagonal
func WeldTolerance(m *Mesh) float64 {
	lo, hi := m.Bounds()
	if d := r3.Norm(r3.Sub(hi, lo)); d > 0 {
		return d * 1e-6
	}
	return 1e-9
}
