package generator

import (
	"math"

	"golang.org/x/exp/rand"

	"scaffoldstudio/internal/models"
)

// SphereCount is the number of salt particles needed to reach the porosity
// target if none overlapped
func SphereCount(p models.ScaffoldParams) int {
	nx, ny, nz := p.GridSize()
	total := nx * ny * nz
	d := p.PoreDiameterVoxels()
	sphereVolume := 4.0 / 3.0 * math.Pi * math.Pow(d/2, 3)
	target := int(float64(total) * p.PorosityTarget)
	return int(float64(target) / sphereVolume)
}

// SaltLeach dissolves randomly placed spherical porogen particles out of a
// solid block. Positions come from a PRNG seeded by the caller, so equal
// seeds give identical volumes. Overlapping particles lower the porosity
// below target; this is not corrected.
func SaltLeach(p models.ScaffoldParams, seed uint64) *models.Volume {
	nx, ny, nz := p.GridSize()
	v := models.NewFilledVolume(nx, ny, nz, true)

	radius := int(p.PoreDiameterVoxels() / 2)
	r2 := radius * radius
	rng := rand.New(rand.NewSource(seed))

	for n := SphereCount(p); n > 0; n-- {
		cx, cy, cz := rng.Intn(nx), rng.Intn(ny), rng.Intn(nz)
		for z := max(cz-radius, 0); z <= min(cz+radius, nz-1); z++ {
			dz := z - cz
			for y := max(cy-radius, 0); y <= min(cy+radius, ny-1); y++ {
				dy := y - cy
				for x := max(cx-radius, 0); x <= min(cx+radius, nx-1); x++ {
					dx := x - cx
					if dx*dx+dy*dy+dz*dz <= r2 {
						v.Set(x, y, z, false)
					}
				}
			}
		}
	}
	return v
}
