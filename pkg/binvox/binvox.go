// Package binvox writes voxel volumes in the binvox format read by
// slicers and voxel viewers.
package binvox

import (
	"os"
	"path/filepath"

	"github.com/gmlewis/stldice/v4/binvox"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
)

// Write stores the solid voxels of v in filename. Coordinates are in
// millimetres with the origin at the volume corner; the binvox scale is
// the longest edge of the volume.
func Write(filename string, v *models.Volume, voxelSizeUM float64) error {
	if v == nil || v.Len() == 0 {
		return apperrors.InvalidParam("volume is empty")
	}
	if voxelSizeUM <= 0 {
		return apperrors.Newf(apperrors.CodeInvalidParam, "voxel size must be positive, got %g", voxelSizeUM)
	}

	b := New(v, voxelSizeUM)

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeIO, "failed to create output directory")
	}
	if err := b.Write(filename, 0, 0, 0, b.NX, b.NY, b.NZ); err != nil {
		return apperrors.Wrap(err, apperrors.CodeIO, "failed to write binvox").WithDetail(filename)
	}
	return nil
}

// New converts v to an in-memory binvox model
func New(v *models.Volume, voxelSizeUM float64) *binvox.BinVOX {
	longest := max(v.Width, v.Height, v.Depth)
	scale := float64(longest) * voxelSizeUM / 1000

	b := binvox.New(v.Width, v.Height, v.Depth, 0, 0, 0, scale, false)
	for z := 0; z < v.Depth; z++ {
		for y := 0; y < v.Height; y++ {
			for x := 0; x < v.Width; x++ {
				if v.At(x, y, z) {
					b.Add(x, y, z)
				}
			}
		}
	}
	return b
}
