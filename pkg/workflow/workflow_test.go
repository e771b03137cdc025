package workflow

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scaffoldstudio/internal/models"
	apperrors "scaffoldstudio/pkg/errors"
	"scaffoldstudio/pkg/imaging"
	"scaffoldstudio/pkg/mechanics"
	"scaffoldstudio/pkg/reconstruction"
	"scaffoldstudio/pkg/report"
	"scaffoldstudio/pkg/stl"
)

// writeStack writes depth PNG slices of a bright block with a dark square
// channel of side hole through its centre
func writeStack(t *testing.T, dir string, size, depth, hole int) {
	t.Helper()
	lo := (size - hole) / 2
	for z := 0; z < depth; z++ {
		img := image.NewGray(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				g := uint8(230)
				if x >= lo && x < lo+hole && y >= lo && y < lo+hole {
					g = 20
				}
				img.SetGray(x, y, color.Gray{Y: g})
			}
		}
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("slice_%02d.png", z)))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
}

func testParams(t *testing.T) *Params {
	t.Helper()
	input := t.TempDir()
	writeStack(t, input, 20, 6, 8)

	target := models.DefaultScaffoldParams()
	target.VolumeMM = [3]float64{0.3, 0.3, 0.3}

	return &Params{
		InputPath:   input,
		OutputDir:   filepath.Join(t.TempDir(), "out"),
		VoxelSizeUM: 10,
		Quality:     reconstruction.Draft,
		Method:      models.FreezeCasting,
		Target:      target,
		Segment:     imaging.SegmentOptions{},
		Material:    mechanics.PCL,
		Seed:        42,
	}
}

func TestLoadVolume(t *testing.T) {
	dir := t.TempDir()
	writeStack(t, dir, 20, 4, 8)

	v, threshold, err := LoadVolume(dir, imaging.SegmentOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, v.Width)
	assert.Equal(t, 4, v.Depth)
	assert.Greater(t, threshold, 0.0)
	assert.InDelta(t, 1-64.0/400, v.SolidFraction(), 1e-12)
	assert.False(t, v.At(10, 10, 0))
	assert.True(t, v.At(0, 0, 3))
}

func TestProcess(t *testing.T) {
	p := testParams(t)
	p.WriteBinvox = true
	p.SaveSlices = true

	var mu sync.Mutex
	seen := map[string]bool{}
	w := New(p, WithStageObserver(func(stage string, _ time.Duration) {
		mu.Lock()
		seen[stage] = true
		mu.Unlock()
	}))

	res, err := w.Process()
	require.NoError(t, err)

	// report
	require.NotNil(t, res.Report)
	loaded, err := report.Load(res.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, models.FreezeCasting, loaded.FabricationMethod)
	assert.InDelta(t, 64.0/400, loaded.OriginalMetrics.Porosity, 1e-12)
	assert.Contains(t, loaded.Problems, "porosity")
	assert.InDelta(t, 0.92, loaded.OptimizedMetrics.Porosity, 0.01)
	assert.NotNil(t, loaded.Mechanics.Optimized)

	// meshes
	require.NotNil(t, res.Original)
	require.NotNil(t, res.Optimized)
	assert.Greater(t, res.Optimized.Faces, 0)
	assert.Greater(t, res.Optimized.VolumeUM3, 0.0)
	assert.Greater(t, res.Original.SurfaceAreaUM2, 0.0)

	tris, err := stl.LoadSTL(filepath.Join(p.OutputDir, OptimizedSTLName))
	require.NoError(t, err)
	assert.Len(t, tris, res.Optimized.Faces)
	assert.Equal(t, filepath.Join(p.OutputDir, OriginalSTLName), loaded.Files.OriginalSTL)

	// extras
	assert.FileExists(t, filepath.Join(p.OutputDir, BinvoxName))
	assert.Equal(t, filepath.Join(p.OutputDir, BinvoxName), loaded.Files.Binvox)
	assert.Equal(t, 90, res.SliceCount)
	assert.FileExists(t, filepath.Join(p.OutputDir, SlicesDirName, "z", "slice_z_000.png"))

	for _, stage := range []string{StageLoad, StageSegment, "generate", StageMeshOptimized, StageReport} {
		assert.True(t, seen[stage], "stage %s not observed", stage)
	}
}

func TestProcessSkipsOptionalOutputs(t *testing.T) {
	p := testParams(t)
	p.SkipOriginalMesh = true

	res, err := New(p).Process()
	require.NoError(t, err)
	assert.Nil(t, res.Original)
	assert.Empty(t, res.Report.Files.OriginalSTL)
	assert.Empty(t, res.Report.Files.Binvox)
	assert.NoFileExists(t, filepath.Join(p.OutputDir, OriginalSTLName))
	assert.NoDirExists(t, filepath.Join(p.OutputDir, SlicesDirName))
}

func TestProcessErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		p := testParams(t)
		p.InputPath = filepath.Join(t.TempDir(), "absent")

		_, err := New(p).Process()
		require.Error(t, err)
		assert.Equal(t, StageLoad, apperrors.GetStage(err))
		assert.True(t, apperrors.IsCode(err, apperrors.CodeIO))
	})

	t.Run("invalid method", func(t *testing.T) {
		p := testParams(t)
		p.Method = models.Method(99)

		_, err := New(p).Process()
		require.Error(t, err)
		assert.Equal(t, "validate", apperrors.GetStage(err))
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidMethod))
		assert.NoDirExists(t, p.OutputDir)
	})

	t.Run("invalid target", func(t *testing.T) {
		p := testParams(t)
		p.Target.PorosityTarget = 1.2

		_, err := New(p).Process()
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
	})
}
