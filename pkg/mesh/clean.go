package mesh

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// degenerateArea is the relative area below which a face counts as
// collapsed, scaled by the squared bounding-box diagonal
const degenerateArea = 1e-14

// RemoveDuplicateFaces drops faces that reference the same vertex set as an
// earlier face, regardless of winding
func RemoveDuplicateFaces(m *Mesh) *Mesh {
	seen := make(map[[3]int]struct{}, len(m.Faces))
	faces := make([][3]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		key := f
		sort.Ints(key[:])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		faces = append(faces, f)
	}
	return &Mesh{Vertices: m.Vertices, Faces: faces, Normals: m.Normals}
}

// RemoveDegenerateFaces drops faces that repeat a vertex or have no area
func RemoveDegenerateFaces(m *Mesh) *Mesh {
	lo, hi := m.Bounds()
	diag := r3.Norm2(r3.Sub(hi, lo))
	minArea := degenerateArea * diag
	faces := make([][3]int, 0, len(m.Faces))
	for i, f := range m.Faces {
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		if m.FaceArea(i) <= minArea {
			continue
		}
		faces = append(faces, f)
	}
	return &Mesh{Vertices: m.Vertices, Faces: faces, Normals: m.Normals}
}

// RemoveUnreferencedVertices drops vertices no face uses and reindexes faces
func RemoveUnreferencedVertices(m *Mesh) *Mesh {
	remap := make([]int, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	for _, f := range m.Faces {
		for _, v := range f {
			remap[v] = 0
		}
	}

	out := &Mesh{}
	hasNormals := len(m.Normals) == len(m.Vertices) && m.Normals != nil
	for i, v := range m.Vertices {
		if remap[i] < 0 {
			continue
		}
		remap[i] = len(out.Vertices)
		out.Vertices = append(out.Vertices, v)
		if hasNormals {
			out.Normals = append(out.Normals, m.Normals[i])
		}
	}
	out.Faces = make([][3]int, len(m.Faces))
	for i, f := range m.Faces {
		out.Faces[i] = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
	return out
}

// Clean removes duplicate faces, degenerate faces and unreferenced
// vertices, in that order
func Clean(m *Mesh) *Mesh {
	return RemoveUnreferencedVertices(RemoveDegenerateFaces(RemoveDuplicateFaces(m)))
}
