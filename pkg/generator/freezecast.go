package generator

import (
	"math"
	"sort"

	"scaffoldstudio/internal/models"
)

// FreezeCast carves parallel cylindrical channels along Z, mimicking the
// aligned pores left by directional ice templating.
//
// Channel centres sit on a hexagonal lattice whose pitch is the target pore
// diameter. The channel radius is then grown on a single cross-section until
// the section holds round(PorosityTarget * area) pore pixels, so the
// extruded volume meets the porosity target to within one pixel.
func FreezeCast(p models.ScaffoldParams) *models.Volume {
	nx, ny, nz := p.GridSize()
	section := freezeCastSection(nx, ny, p.PoreDiameterVoxels(), p.PorosityTarget)

	v := models.NewFilledVolume(nx, ny, nz, true)
	plane := nx * ny
	for z := 0; z < nz; z++ {
		base := z * plane
		for i, pore := range section {
			if pore {
				v.Data[base+i] = false
			}
		}
	}
	return v
}

type point2 struct{ x, y float64 }

// channelCenters lays out a hexagonal lattice over an nx by ny section. One
// extra ring of centres outside the section keeps the edges from being
// walled off.
func channelCenters(nx, ny int, pitch float64) []point2 {
	if pitch < 2 {
		pitch = 2
	}
	cols := int(float64(nx) / pitch)
	if cols < 1 {
		cols = 1
	}
	sx := float64(nx) / float64(cols)

	rows := int(math.Round(float64(ny) / (sx * math.Sqrt(3) / 2)))
	if rows < 1 {
		rows = 1
	}
	sy := float64(ny) / float64(rows)

	var centers []point2
	for j := -1; j <= rows; j++ {
		shift := 0.0
		if j&1 == 1 {
			shift = sx / 2
		}
		for i := -1; i <= cols; i++ {
			centers = append(centers, point2{
				x: (float64(i)+0.5)*sx + shift,
				y: (float64(j)+0.5)*sy,
			})
		}
	}
	return centers
}

// freezeCastSection returns the pore mask of one cross-section
func freezeCastSection(nx, ny int, poreDiameter, porosity float64) []bool {
	centers := channelCenters(nx, ny, poreDiameter)

	n := nx * ny
	nearest := make([]float64, n)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			best := math.Inf(1)
			for _, c := range centers {
				dx, dy := px-c.x, py-c.y
				if d := dx*dx + dy*dy; d < best {
					best = d
				}
			}
			nearest[y*nx+x] = best
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return nearest[order[a]] < nearest[order[b]]
	})

	k := int(math.Round(porosity * float64(n)))
	if k > n {
		k = n
	}
	mask := make([]bool, n)
	for _, idx := range order[:k] {
		mask[idx] = true
	}
	return mask
}
