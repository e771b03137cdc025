package generator

import "scaffoldstudio/internal/models"

// Bioprint lays down a 0/90 degree woodpile. Strands are int(0.3*d) voxels
// square and repeat every int(d) voxels, where d is the target pore
// diameter in voxels. Even layers run along X and odd layers along Y.
func Bioprint(p models.ScaffoldParams) *models.Volume {
	nx, ny, nz := p.GridSize()
	d := p.PoreDiameterVoxels()

	width := int(d * 0.3)
	if width < 1 {
		width = 1
	}
	pitch := int(d)
	if pitch < 1 {
		pitch = 1
	}

	v := models.NewVolume(nx, ny, nz)
	layer := 0
	for z0 := 0; z0 < nz; z0 += pitch {
		zEnd := min(z0+width, nz)
		alongX := layer%2 == 0
		for s := 0; ; s += pitch {
			if (alongX && s >= ny) || (!alongX && s >= nx) {
				break
			}
			for z := z0; z < zEnd; z++ {
				if alongX {
					for y := s; y < min(s+width, ny); y++ {
						for x := 0; x < nx; x++ {
							v.Set(x, y, z, true)
						}
					}
				} else {
					for y := 0; y < ny; y++ {
						for x := s; x < min(s+width, nx); x++ {
							v.Set(x, y, z, true)
						}
					}
				}
			}
		}
		layer++
	}
	return v
}
