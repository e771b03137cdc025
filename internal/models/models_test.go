package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scaffoldstudio/pkg/errors"
)

func TestVolumeIndexing(t *testing.T) {
	v := NewVolume(4, 3, 2)
	require.Equal(t, 24, v.Len())
	assert.False(t, v.Is2D())

	v.Set(3, 2, 1, true)
	assert.True(t, v.At(3, 2, 1))
	assert.Equal(t, 23, v.Index(3, 2, 1))
	assert.Equal(t, 1, v.SolidCount())
	assert.InDelta(t, 1.0/24.0, v.SolidFraction(), 1e-12)

	c := v.Clone()
	c.Set(0, 0, 0, true)
	assert.False(t, v.At(0, 0, 0), "clone must not share storage")

	mask := v.PoreMask()
	assert.False(t, mask[23])
	assert.True(t, mask[0])

	f := v.Float64()
	assert.Equal(t, 1.0, f[23])
	assert.Equal(t, 0.0, f[0])
}

func TestNewFilledVolume(t *testing.T) {
	v := NewFilledVolume(5, 5, 1, true)
	assert.True(t, v.Is2D())
	assert.Equal(t, 25, v.SolidCount())
	assert.Equal(t, 0, NewFilledVolume(5, 5, 1, false).SolidCount())
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods() {
		parsed, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	_, err := ParseMethod("electrospinning")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidMethod))
	assert.Contains(t, err.Error(), "electrospinning")
}

func TestMethodText(t *testing.T) {
	b, err := json.Marshal(map[string]Method{"m": Bioprinting})
	require.NoError(t, err)
	assert.JSONEq(t, `{"m":"3d-bioprinting"}`, string(b))

	var out map[string]Method
	require.NoError(t, json.Unmarshal([]byte(`{"m":"salt-leaching"}`), &out))
	assert.Equal(t, SaltLeaching, out["m"])

	assert.Error(t, json.Unmarshal([]byte(`{"m":"lyophilized"}`), &out))
	_, err = Method(7).MarshalText()
	assert.Error(t, err)
}

func TestScaffoldParams(t *testing.T) {
	p := DefaultScaffoldParams()
	require.NoError(t, p.Validate())

	nx, ny, nz := p.GridSize()
	assert.Equal(t, []int{200, 200, 200}, []int{nx, ny, nz})
	assert.InDelta(t, 15.0, p.PoreDiameterVoxels(), 1e-12)

	tests := []struct {
		name   string
		mutate func(*ScaffoldParams)
	}{
		{"porosity zero", func(p *ScaffoldParams) { p.PorosityTarget = 0 }},
		{"porosity one", func(p *ScaffoldParams) { p.PorosityTarget = 1 }},
		{"pore size", func(p *ScaffoldParams) { p.PoreSizeTargetUM = -5 }},
		{"interconnectivity", func(p *ScaffoldParams) { p.InterconnectivityTarget = 1.2 }},
		{"tortuosity", func(p *ScaffoldParams) { p.TortuosityTarget = 0.9 }},
		{"resolution", func(p *ScaffoldParams) { p.ResolutionUM = 0 }},
		{"volume", func(p *ScaffoldParams) { p.VolumeMM[2] = 0 }},
		{"sub-voxel", func(p *ScaffoldParams) { p.VolumeMM[1] = 0.001 }},
		{"porosity NaN", func(p *ScaffoldParams) { p.PorosityTarget = math.NaN() }},
		{"pore size NaN", func(p *ScaffoldParams) { p.PoreSizeTargetUM = math.NaN() }},
		{"volume infinite", func(p *ScaffoldParams) { p.VolumeMM[0] = math.Inf(1) }},
		{"axis overflow", func(p *ScaffoldParams) { p.VolumeMM[0] = 1e300 }},
		{"grid too large", func(p *ScaffoldParams) {
			p.VolumeMM = [3]float64{20, 20, 20}
			p.ResolutionUM = 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := DefaultScaffoldParams()
			tt.mutate(&bad)
			err := bad.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
		})
	}
}

func TestMetricsJSONKeys(t *testing.T) {
	b, err := json.Marshal(Metrics{Porosity: 0.9, MeanPoreSizeUM: 120, Interconnectivity: 1, Tortuosity: 1.05})
	require.NoError(t, err)
	assert.JSONEq(t, `{"porosity":0.9,"mean_pore_size_um":120,"interconnectivity":1,"tortuosity":1.05}`, string(b))
}

func TestCheckVoxelLimit(t *testing.T) {
	p := DefaultScaffoldParams()
	// 200^3 voxels
	assert.NoError(t, p.CheckVoxelLimit(8_000_000))
	assert.NoError(t, p.CheckVoxelLimit(0), "non-positive limit disables the check")

	err := p.CheckVoxelLimit(7_999_999)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))

	// 20000^3 = 8e12 voxels
	p.VolumeMM = [3]float64{20, 20, 20}
	p.ResolutionUM = 1
	assert.Error(t, p.CheckVoxelLimit(DefaultMaxVoxels))
	assert.Error(t, p.CheckVoxelLimit(MaxGridVoxels))
	assert.NoError(t, p.CheckVoxelLimit(8_000_000_000_000))
}

func TestGridExceeds(t *testing.T) {
	assert.False(t, gridExceeds(27, 3, 3, 3))
	assert.True(t, gridExceeds(26, 3, 3, 3))
	assert.True(t, gridExceeds(math.MaxInt64, math.MaxInt32, math.MaxInt32, math.MaxInt32))
	assert.False(t, gridExceeds(10, 0, 100, 100))
}
