package imaging

import (
	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
	"scaffoldstudio/pkg/morphology"
)

// SegmentOptions controls grey-level to binary conversion
type SegmentOptions struct {
	// Sigma is the Gaussian denoising width in voxels; 0 disables it
	Sigma float64 `yaml:"sigma" mapstructure:"sigma" json:"sigma"`

	// MinObjectSize removes solid components with fewer voxels
	MinObjectSize int `yaml:"minObjectSize" mapstructure:"minObjectSize" json:"min_object_size"`

	// Invert treats dark pixels as solid
	Invert bool `yaml:"invert" mapstructure:"invert" json:"invert"`
}

// DefaultSegmentOptions matches common micro-CT preprocessing
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{Sigma: 1.5, MinObjectSize: 50}
}

// Normalize rescales samples linearly onto [0, 1]. Constant data maps to 0.
func Normalize(data []float64) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		return out
	}
	for i, v := range data {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// Segment converts a grey stack to a binary volume: normalise, blur,
// Otsu-threshold (bright is solid unless Invert) and drop solid debris.
// It returns the volume and the threshold used on the blurred data.
func Segment(stack *GrayStack, opts SegmentOptions) (*models.Volume, float64, error) {
	if stack == nil || len(stack.Data) == 0 || len(stack.Data) != stack.Width*stack.Height*stack.Depth {
		return nil, 0, apperrors.InvalidParam("grey stack is empty or malformed")
	}

	data := Normalize(stack.Data)
	data = GaussianFilter(data, stack.Width, stack.Height, stack.Depth, opts.Sigma)
	threshold := OtsuThreshold(data)

	v := models.NewVolume(stack.Width, stack.Height, stack.Depth)
	for i, g := range data {
		if opts.Invert {
			v.Data[i] = g <= threshold
		} else {
			v.Data[i] = g > threshold
		}
	}

	if opts.MinObjectSize > 1 {
		RemoveSmallObjects(v, opts.MinObjectSize)
	}
	return v, threshold, nil
}

// RemoveSmallObjects clears face-connected solid components smaller than
// minSize voxels, in place. It returns the number of voxels cleared.
func RemoveSmallObjects(v *models.Volume, minSize int) int {
	labels, sizes := morphology.Label(v.Data, v.Width, v.Height, v.Depth, morphology.Face)
	cleared := 0
	for i, l := range labels {
		if l != 0 && sizes[l] < minSize {
			v.Data[i] = false
			cleared++
		}
	}
	return cleared
}
