// Package reconstruction converts binary scaffold volumes into smoothed,
// cleaned triangle meshes ready for STL export.
package reconstruction

import (
	"fmt"
	"time"

	"github.com/deadsy/sdfx/render"
	"gonum.org/v1/gonum/spatial/r3"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
	"scaffoldstudio/pkg/imaging"
	"scaffoldstudio/pkg/logging"
	"scaffoldstudio/pkg/mesh"
	"scaffoldstudio/pkg/morphology"
)

// IsoLevel is the occupancy at which the material surface is extracted
const IsoLevel = 0.5

// Reconstructor turns volumes into meshes at a fixed voxel size and quality.
//
// The reconstruction process consists of several steps:
// 1. Stacking a 2D slice into a thin 3D block
// 2. Optional Gaussian pre-smoothing of the occupancy field
// 3. Marching cubes at IsoLevel, with vertices scaled to micrometres
// 4. Cleanup of duplicate and degenerate faces
// 5. Tier-specific smoothing, decimation and normal repair
// 6. A final cleanup pass
type Reconstructor struct {
	// voxelSizeUM scales voxel coordinates to micrometres
	voxelSizeUM float64

	// quality selects the processing tier
	quality Quality

	logger logging.Logger
}

// NewReconstructor creates a reconstructor for the given voxel size and tier.
//
// Parameters:
//   - voxelSizeUM: voxel edge length in micrometres, must be positive
//   - quality: one of Draft, Standard, High, Ultra
//   - logger: progress logger, nil for none
func NewReconstructor(voxelSizeUM float64, quality Quality, logger logging.Logger) (*Reconstructor, error) {
	if voxelSizeUM <= 0 {
		return nil, apperrors.InvalidParam("voxel size must be positive").
			WithDetail(fmt.Sprintf("got %g", voxelSizeUM))
	}
	if _, ok := tiers[quality]; !ok {
		return nil, apperrors.InvalidParam("unknown mesh quality").WithDetail(quality.String())
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Reconstructor{
		voxelSizeUM: voxelSizeUM,
		quality:     quality,
		logger:      logger.Named("reconstruction"),
	}, nil
}

// Quality returns the configured tier
func (r *Reconstructor) Quality() Quality {
	return r.quality
}

// VolumeToMesh is a convenience wrapper around Reconstructor.Process
func VolumeToMesh(v *models.Volume, voxelSizeUM float64, quality Quality) (*mesh.Mesh, error) {
	r, err := NewReconstructor(voxelSizeUM, quality, nil)
	if err != nil {
		return nil, err
	}
	return r.Process(v)
}

// Process runs the complete reconstruction pipeline on v
func (r *Reconstructor) Process(v *models.Volume) (*mesh.Mesh, error) {
	if err := morphology.CheckVolume(v); err != nil {
		return nil, err
	}
	t := tiers[r.quality]
	start := time.Now()

	// Step 1: a single slice becomes three identical layers so it has thickness
	data, w, h, d := stackField(v)

	// Step 2: pre-smoothing softens the voxel staircase before extraction
	if t.sigma > 0 {
		data = imaging.GaussianFilter(data, w, h, d, t.sigma)
	}

	// Step 3: isosurface extraction
	m := r.extract(data, w, h, d, t.step)
	if m.NumFaces() == 0 {
		return nil, apperrors.New(apperrors.CodeStageFailed, "volume has no surface at the iso level").
			WithDetail(fmt.Sprintf("%dx%dx%d, %d solid voxels", v.Width, v.Height, v.Depth, v.SolidCount()))
	}
	r.logger.Debug("isosurface extracted",
		logging.Int("vertices", m.NumVertices()),
		logging.Int("faces", m.NumFaces()))

	// Step 4: cleanup
	m = mesh.Clean(m)

	// Step 5: tier processing
	switch t.smoothing {
	case laplacianSmoothing:
		m = mesh.Laplacian(m, t.iterations, mesh.DefaultLambda)
	case taubinSmoothing:
		m = mesh.Taubin(m, t.iterations, mesh.DefaultLambda, mesh.DefaultMu)
	}
	if t.maxFaces > 0 && m.NumFaces() > t.maxFaces {
		before := m.NumFaces()
		m = mesh.Decimate(m, t.maxFaces)
		r.logger.Debug("mesh decimated", logging.Int("from", before), logging.Int("to", m.NumFaces()))
	}
	if t.fixNormals {
		m = mesh.FixNormals(m)
	}

	// Step 6: final cleanup
	m = mesh.Clean(m)

	r.logger.Info("mesh reconstructed",
		logging.String("quality", r.quality.String()),
		logging.Int("vertices", m.NumVertices()),
		logging.Int("faces", m.NumFaces()),
		logging.Duration("elapsed", time.Since(start)))
	return m, nil
}

// stackField casts v to float occupancy; a 2D slice is repeated three times along Z
func stackField(v *models.Volume) ([]float64, int, int, int) {
	data := v.Float64()
	if !v.Is2D() {
		return data, v.Width, v.Height, v.Depth
	}
	stacked := make([]float64, 0, len(data)*3)
	for i := 0; i < 3; i++ {
		stacked = append(stacked, data...)
	}
	return stacked, v.Width, v.Height, 3
}

// extract runs marching cubes over the field and welds the resulting
// triangle soup into an indexed, outward-facing mesh in µm. Vertices land at
// voxel index times voxel size.
func (r *Reconstructor) extract(data []float64, w, h, d, step int) *mesh.Mesh {
	field := newVoxelField(data, w, h, d, IsoLevel, step)
	renderer := render.NewMarchingCubesUniform(field.cells())
	triangles := render.ToTriangles(field, renderer)

	soup := make([][3]r3.Vec, 0, len(triangles))
	for _, tri := range triangles {
		var corners [3]r3.Vec
		for j := 0; j < 3; j++ {
			p := field.toVoxel(tri[j])
			corners[j] = r3.Vec{X: p.X * r.voxelSizeUM, Y: p.Y * r.voxelSizeUM, Z: p.Z * r.voxelSizeUM}
		}
		soup = append(soup, corners)
	}

	// corners shared by neighbouring cubes agree to rounding error only
	m := mesh.Weld(soup, r.voxelSizeUM*1e-3)
	if m.Volume() < 0 {
		for i, f := range m.Faces {
			m.Faces[i] = [3]int{f[0], f[2], f[1]}
		}
	}
	return m
}
