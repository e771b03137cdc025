package morphology

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
)

// randomVolume returns a volume where each voxel is solid with probability p
func randomVolume(w, h, d int, p float64, seed int64) *models.Volume {
	rng := rand.New(rand.NewSource(seed))
	v := models.NewVolume(w, h, d)
	for i := range v.Data {
		v.Data[i] = rng.Float64() < p
	}
	return v
}

func TestNewAnalyzer(t *testing.T) {
	_, err := NewAnalyzer(0)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))

	a, err := NewAnalyzer(10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, a.VoxelSizeUM())
}

func TestAnalyzeRejectsBadVolumes(t *testing.T) {
	a, _ := NewAnalyzer(10)

	_, err := a.Analyze(nil)
	assert.Error(t, err)

	_, err = a.Analyze(&models.Volume{Width: 0, Height: 4, Depth: 4})
	assert.Error(t, err)

	_, err = a.Analyze(&models.Volume{Data: make([]bool, 3), Width: 2, Height: 2, Depth: 1})
	assert.Error(t, err)
}

func TestAnalyzeFullySolid(t *testing.T) {
	a, _ := NewAnalyzer(10)
	m, err := a.Analyze(models.NewFilledVolume(8, 8, 8, true))
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.Porosity)
	assert.Equal(t, 0.0, m.MeanPoreSizeUM)
	assert.Equal(t, 0.0, m.Interconnectivity)
	assert.Equal(t, 1.5, m.Tortuosity)
}

func TestAnalyzeFullyEmpty(t *testing.T) {
	a, _ := NewAnalyzer(10)
	m, err := a.Analyze(models.NewVolume(8, 8, 8))
	require.NoError(t, err)

	assert.Equal(t, 1.0, m.Porosity)
	assert.Equal(t, 1.0, m.Interconnectivity)
	assert.Equal(t, 1.0, m.Tortuosity)
	assert.Equal(t, 0.0, m.MeanPoreSizeUM)
}

func TestAnalyzeRandomVolume(t *testing.T) {
	a, _ := NewAnalyzer(10)
	v := randomVolume(64, 64, 64, 0.42, 42)
	m, err := a.Analyze(v)
	require.NoError(t, err)

	assert.InDelta(t, 0.58, m.Porosity, 0.01)
	assert.InDelta(t, 1+0.5*(1-m.Porosity), m.Tortuosity, 1e-12)
	// at 58% pore fraction 26-connected pores percolate
	assert.Greater(t, m.Interconnectivity, 0.95)
	assert.LessOrEqual(t, m.Interconnectivity, 1.0)
	// almost every pore voxel touches solid, so the mean distance is just over 1
	assert.GreaterOrEqual(t, m.MeanPoreSizeUM, 20.0)
	assert.Less(t, m.MeanPoreSizeUM, 25.0)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a, _ := NewAnalyzer(7.5)
	v := randomVolume(20, 20, 20, 0.3, 7)
	m1, err := a.Analyze(v)
	require.NoError(t, err)
	m2, err := a.Analyze(v.Clone())
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
}

func TestInterconnectivity2D(t *testing.T) {
	// two pore regions: a 3x3 block and a single voxel, joined only diagonally
	v := models.NewFilledVolume(6, 6, 1, true)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			v.Set(x, y, 0, false)
		}
	}
	v.Set(3, 3, 0, false)
	v.Set(5, 5, 0, false)

	// the diagonal voxel joins the block under 8-connectivity, (5,5) does not
	assert.InDelta(t, 10.0/11.0, Interconnectivity(v), 1e-12)
}

func TestPoreSizeSquareChannel(t *testing.T) {
	// a 1-voxel-wide pore line in a solid slab: every pore is 1 voxel from solid
	v := models.NewFilledVolume(9, 9, 1, true)
	for x := 0; x < 9; x++ {
		v.Set(x, 4, 0, false)
	}
	assert.InDelta(t, 2*1*5.0, PoreSize(v, 5), 1e-12)

	// a 3-voxel-wide band: distances 1, 2, 1
	w := models.NewFilledVolume(9, 9, 1, true)
	for y := 3; y <= 5; y++ {
		for x := 0; x < 9; x++ {
			w.Set(x, y, 0, false)
		}
	}
	assert.InDelta(t, 2*(4.0/3.0)*10, PoreSize(w, 10), 1e-9)
}

func TestDistanceTransformMatchesBruteForce(t *testing.T) {
	w, h, d := 9, 7, 5
	v := randomVolume(w, h, d, 0.15, 3)
	mask := v.PoreMask()
	dist, ok := DistanceTransform(mask, w, h, d)
	require.True(t, ok)

	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := v.Index(x, y, z)
				if !mask[i] {
					assert.Equal(t, 0.0, dist[i])
					continue
				}
				best := math.Inf(1)
				for zz := 0; zz < d; zz++ {
					for yy := 0; yy < h; yy++ {
						for xx := 0; xx < w; xx++ {
							if mask[v.Index(xx, yy, zz)] {
								continue
							}
							dd := float64((x-xx)*(x-xx) + (y-yy)*(y-yy) + (z-zz)*(z-zz))
							if dd < best {
								best = dd
							}
						}
					}
				}
				assert.InDelta(t, math.Sqrt(best), dist[i], 1e-9, "voxel (%d,%d,%d)", x, y, z)
			}
		}
	}
}

func TestDistanceTransformNoBackground(t *testing.T) {
	mask := []bool{true, true, true, true}
	_, ok := DistanceTransform(mask, 2, 2, 1)
	assert.False(t, ok)
}
