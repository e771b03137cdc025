package models

import (
	"fmt"
	"math"

	apperrors "scaffoldstudio/pkg/errors"
)

// MaxGridVoxels is the hard upper bound on a generated grid
const MaxGridVoxels int64 = 1 << 31

// DefaultMaxVoxels is the configurable grid limit used when none is set, 512³
const DefaultMaxVoxels int64 = 512 * 512 * 512

// ScaffoldParams are the design targets handed to a generator
type ScaffoldParams struct {
	// PorosityTarget is the desired pore fraction, exclusive range (0, 1)
	PorosityTarget float64 `json:"porosity_target" yaml:"porosityTarget" mapstructure:"porosityTarget"`

	// PoreSizeTargetUM is the desired pore diameter in micrometres
	PoreSizeTargetUM float64 `json:"pore_size_target_um" yaml:"poreSizeTargetUm" mapstructure:"poreSizeTargetUm"`

	// InterconnectivityTarget is the desired interconnected pore fraction
	InterconnectivityTarget float64 `json:"interconnectivity_target" yaml:"interconnectivityTarget" mapstructure:"interconnectivityTarget"`

	// TortuosityTarget is the desired tortuosity, at least 1
	TortuosityTarget float64 `json:"tortuosity_target" yaml:"tortuosityTarget" mapstructure:"tortuosityTarget"`

	// VolumeMM is the physical extent (x, y, z) in millimetres
	VolumeMM [3]float64 `json:"volume_mm3" yaml:"volumeMm" mapstructure:"volumeMm"`

	// ResolutionUM is the voxel edge length of generated volumes
	ResolutionUM float64 `json:"resolution_um" yaml:"resolutionUm" mapstructure:"resolutionUm"`
}

// DefaultScaffoldParams returns the bone-tissue targets used when none are given
func DefaultScaffoldParams() ScaffoldParams {
	return ScaffoldParams{
		PorosityTarget:          0.92,
		PoreSizeTargetUM:        150,
		InterconnectivityTarget: 0.95,
		TortuosityTarget:        1.1,
		VolumeMM:                [3]float64{2, 2, 2},
		ResolutionUM:            10,
	}
}

// Validate checks the targets before any generator runs
func (p ScaffoldParams) Validate() error {
	for _, f := range []struct {
		name string
		val  float64
	}{
		{"porosity target", p.PorosityTarget},
		{"pore size target", p.PoreSizeTargetUM},
		{"interconnectivity target", p.InterconnectivityTarget},
		{"tortuosity target", p.TortuosityTarget},
		{"resolution", p.ResolutionUM},
		{"volume x", p.VolumeMM[0]},
		{"volume y", p.VolumeMM[1]},
		{"volume z", p.VolumeMM[2]},
	} {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
			return apperrors.InvalidParam(f.name + " must be a finite number").
				WithDetail(fmt.Sprintf("got %g", f.val))
		}
	}

	switch {
	case p.PorosityTarget <= 0 || p.PorosityTarget >= 1:
		return apperrors.InvalidParam("porosity target must lie in (0, 1)").
			WithDetail(fmt.Sprintf("got %g", p.PorosityTarget))
	case p.PoreSizeTargetUM <= 0:
		return apperrors.InvalidParam("pore size target must be positive").
			WithDetail(fmt.Sprintf("got %g", p.PoreSizeTargetUM))
	case p.InterconnectivityTarget < 0 || p.InterconnectivityTarget > 1:
		return apperrors.InvalidParam("interconnectivity target must lie in [0, 1]").
			WithDetail(fmt.Sprintf("got %g", p.InterconnectivityTarget))
	case p.TortuosityTarget < 1:
		return apperrors.InvalidParam("tortuosity target must be at least 1").
			WithDetail(fmt.Sprintf("got %g", p.TortuosityTarget))
	case p.ResolutionUM <= 0:
		return apperrors.InvalidParam("resolution must be positive").
			WithDetail(fmt.Sprintf("got %g", p.ResolutionUM))
	}
	for i, d := range p.VolumeMM {
		if d <= 0 {
			return apperrors.InvalidParam("volume dimensions must be positive").
				WithDetail(fmt.Sprintf("axis %d = %g", i, d))
		}
	}
	for i, d := range p.VolumeMM {
		if d*1000/p.ResolutionUM > float64(MaxGridVoxels) {
			return apperrors.InvalidParam("volume is too large for the resolution").
				WithDetail(fmt.Sprintf("axis %d spans %g voxels", i, d*1000/p.ResolutionUM))
		}
	}
	nx, ny, nz := p.GridSize()
	if nx < 1 || ny < 1 || nz < 1 {
		return apperrors.InvalidParam("volume is smaller than one voxel").
			WithDetail(fmt.Sprintf("grid %dx%dx%d", nx, ny, nz))
	}
	return p.CheckVoxelLimit(MaxGridVoxels)
}

// CheckVoxelLimit rejects targets whose grid holds more than limit voxels.
// A non-positive limit disables the check.
func (p ScaffoldParams) CheckVoxelLimit(limit int64) error {
	if limit <= 0 {
		return nil
	}
	nx, ny, nz := p.GridSize()
	if gridExceeds(limit, nx, ny, nz) {
		return apperrors.InvalidParam("scaffold grid exceeds the voxel limit").
			WithDetail(fmt.Sprintf("grid %dx%dx%d, limit %d voxels", nx, ny, nz, limit))
	}
	return nil
}

// gridExceeds reports whether the product of dims is above limit without
// overflowing
func gridExceeds(limit int64, dims ...int) bool {
	total := int64(1)
	for _, n := range dims {
		if n <= 0 {
			return false
		}
		if total > limit/int64(n) {
			return true
		}
		total *= int64(n)
	}
	return false
}

// GridSize converts the physical extent to voxel counts, truncating
func (p ScaffoldParams) GridSize() (nx, ny, nz int) {
	nx = int(p.VolumeMM[0] * 1000 / p.ResolutionUM)
	ny = int(p.VolumeMM[1] * 1000 / p.ResolutionUM)
	nz = int(p.VolumeMM[2] * 1000 / p.ResolutionUM)
	return nx, ny, nz
}

// PoreDiameterVoxels is the target pore diameter expressed in voxels
func (p ScaffoldParams) PoreDiameterVoxels() float64 {
	return p.PoreSizeTargetUM / p.ResolutionUM
}
