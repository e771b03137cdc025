package morphology

// Connectivity selects which neighbours join a component.
type Connectivity int

const (
	// Face joins voxels sharing a face: 4 neighbours in 2D, 6 in 3D.
	Face Connectivity = iota
	// Full joins voxels sharing a face, edge or corner: 8 in 2D, 26 in 3D.
	Full
)

type offset struct{ dx, dy, dz int }

// backwardOffsets returns the neighbours already visited in raster order.
func backwardOffsets(conn Connectivity, is2D bool) []offset {
	var offs []offset
	for dz := -1; dz <= 0; dz++ {
		if is2D && dz != 0 {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				// keep only neighbours that precede the voxel in raster order
				if dz == 0 && (dy > 0 || (dy == 0 && dx >= 0)) {
					continue
				}
				nonZero := 0
				if dx != 0 {
					nonZero++
				}
				if dy != 0 {
					nonZero++
				}
				if dz != 0 {
					nonZero++
				}
				if conn == Face && nonZero > 1 {
					continue
				}
				offs = append(offs, offset{dx, dy, dz})
			}
		}
	}
	return offs
}

// unionFind is a disjoint-set forest over voxel indices with path halving.
type unionFind struct {
	parent []int32
}

func newUnionFind(n int) *unionFind {
	p := make([]int32, n)
	for i := range p {
		p[i] = int32(i)
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int32) int32 {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int32) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}

// Label assigns component labels to the true voxels of mask. Labels start
// at 1 in raster order of first appearance; background voxels get 0.
// sizes[l] is the voxel count of label l (sizes[0] is always 0).
func Label(mask []bool, width, height, depth int, conn Connectivity) (labels []int32, sizes []int) {
	n := width * height * depth
	labels = make([]int32, n)
	uf := newUnionFind(n)
	offs := backwardOffsets(conn, depth == 1)
	plane := width * height

	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := z*plane + y*width + x
				if !mask[i] {
					continue
				}
				for _, o := range offs {
					nx, ny, nz := x+o.dx, y+o.dy, z+o.dz
					if nx < 0 || nx >= width || ny < 0 || ny >= height || nz < 0 {
						continue
					}
					j := nz*plane + ny*width + nx
					if mask[j] {
						uf.union(int32(i), int32(j))
					}
				}
			}
		}
	}

	// root index -> label, 0 while unassigned
	rootLabel := make([]int32, n)
	sizes = []int{0}
	for i := 0; i < n; i++ {
		if !mask[i] {
			continue
		}
		r := uf.find(int32(i))
		l := rootLabel[r]
		if l == 0 {
			l = int32(len(sizes))
			rootLabel[r] = l
			sizes = append(sizes, 0)
		}
		labels[i] = l
		sizes[l]++
	}
	return labels, sizes
}

// LargestComponent returns the size of the biggest component, 0 if none.
func LargestComponent(sizes []int) int {
	best := 0
	for _, s := range sizes {
		if s > best {
			best = s
		}
	}
	return best
}
