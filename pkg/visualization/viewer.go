// Package visualization renders orthogonal slice previews of scaffold
// volumes for quick inspection outside a mesh viewer.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
)

// Axes are the slicing directions in output order
var Axes = []string{"x", "y", "z"}

// Grey levels used for rendered voxels
var (
	SolidColor = color.Gray{Y: 255}
	PoreColor  = color.Gray{Y: 0}
)

// Viewer extracts 2D slices and sub-regions from a binary volume
type Viewer struct {
	volume *models.Volume

	// voxelSizeUM is the edge length of one voxel in micrometres
	voxelSizeUM float64
}

// NewViewer creates a viewer over v. The volume is read, never modified.
func NewViewer(v *models.Volume, voxelSizeUM float64) *Viewer {
	return &Viewer{volume: v, voxelSizeUM: voxelSizeUM}
}

// VoxelSizeUM returns the voxel edge length the viewer was created with
func (v *Viewer) VoxelSizeUM() float64 {
	return v.voxelSizeUM
}

// axisLength returns the number of slices along axis
func (v *Viewer) axisLength(axis string) (int, error) {
	switch strings.ToLower(axis) {
	case "x":
		return v.volume.Width, nil
	case "y":
		return v.volume.Height, nil
	case "z":
		return v.volume.Depth, nil
	}
	return 0, apperrors.Newf(apperrors.CodeInvalidParam, "invalid axis: %s (must be x, y, or z)", axis)
}

// ExtractSlice extracts a 2D slice along the specified axis. An x slice is
// depth wide and height tall, a y slice is width by depth and a z slice is
// width by height.
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray, error) {
	n, err := v.axisLength(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= n {
		return nil, apperrors.Newf(apperrors.CodeInvalidParam, "position %d outside [0, %d) along %s", position, n, axis)
	}

	vol := v.volume
	var img *image.Gray

	switch strings.ToLower(axis) {
	case "x":
		// YZ plane
		img = image.NewGray(image.Rect(0, 0, vol.Depth, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for z := 0; z < vol.Depth; z++ {
				img.SetGray(z, y, voxelColor(vol.At(position, y, z)))
			}
		}
	case "y":
		// XZ plane
		img = image.NewGray(image.Rect(0, 0, vol.Width, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray(x, z, voxelColor(vol.At(x, position, z)))
			}
		}
	default:
		img = image.NewGray(image.Rect(0, 0, vol.Width, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray(x, y, voxelColor(vol.At(x, y, position)))
			}
		}
	}

	return img, nil
}

func voxelColor(solid bool) color.Gray {
	if solid {
		return SolidColor
	}
	return PoreColor
}

// ExtractRegion copies a box of the volume into a new volume
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) (*models.Volume, error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, apperrors.InvalidParam("start coordinates must be non-negative")
	}
	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, apperrors.InvalidParam("size dimensions must be positive")
	}
	vol := v.volume
	if startX+sizeX > vol.Width || startY+sizeY > vol.Height || startZ+sizeZ > vol.Depth {
		return nil, apperrors.InvalidParam("region extends beyond volume boundaries")
	}

	region := models.NewVolume(sizeX, sizeY, sizeZ)
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				region.Set(x, y, z, vol.At(startX+x, startY+y, startZ+z))
			}
		}
	}
	return region, nil
}

// SaveSlice writes an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeIO, "failed to create slice image")
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return apperrors.Wrap(err, apperrors.CodeIO, "failed to encode slice image")
	}
	return file.Close()
}

// SaveSliceSequence extracts and saves every slice along axis to
// outputDir and returns the number of images written
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) (int, error) {
	n, err := v.axisLength(axis)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeIO, "failed to create slice directory")
	}

	for pos := 0; pos < n; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return pos, err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", strings.ToLower(axis), pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return pos, err
		}
	}
	return n, nil
}

// SaveAllAxes writes slice sequences for x, y and z into per-axis
// subdirectories of outputDir
func (v *Viewer) SaveAllAxes(outputDir string) (int, error) {
	total := 0
	for _, axis := range Axes {
		n, err := v.SaveSliceSequence(axis, filepath.Join(outputDir, axis))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
