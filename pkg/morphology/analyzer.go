// Package morphology measures the pore structure of binary scaffold volumes:
// porosity, distance-transform pore size, pore interconnectivity and an
// analytic tortuosity estimate.
package morphology

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
)

// Analyzer computes Metrics for volumes sampled at a fixed voxel size
type Analyzer struct {
	voxelSizeUM float64
}

// NewAnalyzer creates an analyzer for voxels of the given edge length (µm)
func NewAnalyzer(voxelSizeUM float64) (*Analyzer, error) {
	if voxelSizeUM <= 0 {
		return nil, apperrors.InvalidParam("voxel size must be positive").
			WithDetail(fmt.Sprintf("got %g", voxelSizeUM))
	}
	return &Analyzer{voxelSizeUM: voxelSizeUM}, nil
}

// VoxelSizeUM returns the configured voxel edge length
func (a *Analyzer) VoxelSizeUM() float64 {
	return a.voxelSizeUM
}

// Analyze computes all four metrics for v
func (a *Analyzer) Analyze(v *models.Volume) (models.Metrics, error) {
	if err := CheckVolume(v); err != nil {
		return models.Metrics{}, err
	}
	pores := v.PoreMask()
	return models.Metrics{
		Porosity:          Porosity(v),
		MeanPoreSizeUM:    poreSize(pores, v, a.voxelSizeUM),
		Interconnectivity: interconnectivity(pores, v),
		Tortuosity:        Tortuosity(v),
	}, nil
}

// CheckVolume rejects empty volumes and volumes whose data does not match their shape
func CheckVolume(v *models.Volume) error {
	if v == nil {
		return apperrors.InvalidParam("volume is nil")
	}
	if v.Width <= 0 || v.Height <= 0 || v.Depth <= 0 {
		return apperrors.InvalidParam("volume has an empty dimension").
			WithDetail(fmt.Sprintf("%dx%dx%d", v.Width, v.Height, v.Depth))
	}
	if len(v.Data) != v.Len() {
		return apperrors.InvalidParam("volume data does not match its shape").
			WithDetail(fmt.Sprintf("%d voxels for %dx%dx%d", len(v.Data), v.Width, v.Height, v.Depth))
	}
	return nil
}

// Porosity is 1 minus the solid fraction
func Porosity(v *models.Volume) float64 {
	return 1 - v.SolidFraction()
}

// Tortuosity is the analytic estimate 1 + 0.5 * solid fraction. It is a
// proxy, not a path-length measurement.
func Tortuosity(v *models.Volume) float64 {
	return 1 + 0.5*v.SolidFraction()
}

// PoreSize returns the mean pore diameter in µm: twice the mean
// distance-to-solid over pore voxels. It is 0 without pores, and also 0
// without any solid since the distance is then unbounded.
func PoreSize(v *models.Volume, voxelSizeUM float64) float64 {
	return poreSize(v.PoreMask(), v, voxelSizeUM)
}

func poreSize(pores []bool, v *models.Volume, voxelSizeUM float64) float64 {
	dist, ok := DistanceTransform(pores, v.Width, v.Height, v.Depth)
	if !ok {
		return 0
	}
	positive := make([]float64, 0, len(dist)/2)
	for _, d := range dist {
		if d > 0 {
			positive = append(positive, d)
		}
	}
	if len(positive) == 0 {
		return 0
	}
	return 2 * stat.Mean(positive, nil) * voxelSizeUM
}

// Interconnectivity is the share of pore voxels that belong to the largest
// fully-connected pore region (8-neighbour in 2D, 26-neighbour in 3D)
func Interconnectivity(v *models.Volume) float64 {
	return interconnectivity(v.PoreMask(), v)
}

func interconnectivity(pores []bool, v *models.Volume) float64 {
	_, sizes := Label(pores, v.Width, v.Height, v.Depth, Full)
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total == 0 {
		return 0
	}
	return float64(LargestComponent(sizes)) / float64(total)
}
