package reconstruction

import (
	"fmt"
	"strings"

	apperrors "scaffoldstudio/pkg/errors"
)

// Quality selects a mesh reconstruction tier
type Quality int

const (
	Draft Quality = iota
	Standard
	High
	Ultra
)

var qualityNames = []string{"draft", "standard", "high", "ultra"}

func (q Quality) String() string {
	if q >= 0 && int(q) < len(qualityNames) {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality resolves a tier name, case-insensitively
func ParseQuality(s string) (Quality, error) {
	for i, name := range qualityNames {
		if strings.EqualFold(s, name) {
			return Quality(i), nil
		}
	}
	return 0, apperrors.InvalidParam("unknown mesh quality").
		WithDetail(fmt.Sprintf("%q (want one of %s)", s, strings.Join(qualityNames, ", ")))
}

type smoothing int

const (
	noSmoothing smoothing = iota
	laplacianSmoothing
	taubinSmoothing
)

// tier holds the processing settings of one quality level
type tier struct {
	// sigma of the Gaussian pre-smoothing, 0 for none
	sigma float64
	// marching cubes step in voxels
	step       int
	smoothing  smoothing
	iterations int
	// decimate when the mesh has more faces than this, 0 for never
	maxFaces   int
	fixNormals bool
}

var tiers = map[Quality]tier{
	Draft:    {step: 2},
	Standard: {step: 1, smoothing: laplacianSmoothing, iterations: 2, maxFaces: 50000},
	High:     {sigma: 0.5, step: 1, smoothing: taubinSmoothing, iterations: 5, maxFaces: 100000},
	Ultra:    {sigma: 0.8, step: 1, smoothing: taubinSmoothing, iterations: 10, maxFaces: 150000, fixNormals: true},
}
