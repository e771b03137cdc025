package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// cube returns a closed, outward-wound unit cube
func cube() *Mesh {
	v := []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	f := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{2, 3, 7}, {2, 7, 6}, // back
		{1, 2, 6}, {1, 6, 5}, // right
		{0, 4, 7}, {0, 7, 3}, // left
	}
	return New(v, f)
}

// icosphere subdivides an icosahedron level times and projects onto the
// unit sphere
func icosphere(level int) *Mesh {
	t := (1 + 2.23606797749979) / 2
	verts := []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	for i := range verts {
		verts[i] = r3.Unit(verts[i])
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for l := 0; l < level; l++ {
		mid := map[[2]int]int{}
		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if id, ok := mid[key]; ok {
				return id
			}
			verts = append(verts, r3.Unit(r3.Scale(0.5, r3.Add(verts[a], verts[b]))))
			mid[key] = len(verts) - 1
			return len(verts) - 1
		}
		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			a := midpoint(f[0], f[1])
			b := midpoint(f[1], f[2])
			c := midpoint(f[2], f[0])
			next = append(next,
				[3]int{f[0], a, c}, [3]int{f[1], b, a}, [3]int{f[2], c, b}, [3]int{a, b, c})
		}
		faces = next
	}
	return New(verts, faces)
}
