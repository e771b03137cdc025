package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scaffoldstudio/internal/models"
	"scaffoldstudio/pkg/reconstruction"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	q, err := cfg.MeshQuality()
	require.NoError(t, err)
	assert.Equal(t, reconstruction.Standard, q)

	m, err := cfg.FabricationMethod()
	require.NoError(t, err)
	assert.Equal(t, models.FreezeCasting, m)
	assert.Equal(t, models.DefaultScaffoldParams(), cfg.Target)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "scaffold.yaml")

	cfg := DefaultConfig()
	cfg.Processing.VoxelSizeUM = 2.5
	cfg.Processing.Method = models.SaltLeaching.String()
	cfg.Processing.Seed = 7
	cfg.Target.VolumeMM = [3]float64{1, 1, 0.5}
	cfg.Segment.Invert = true
	cfg.Output.SaveSlices = true
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaffold.yaml")
	content := "processing:\n  quality: high\ntarget:\n  poreSizeTargetUm: 180\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "high", cfg.Processing.Quality)
	assert.Equal(t, 180.0, cfg.Target.PoreSizeTargetUM)
	// untouched keys keep their defaults
	assert.Equal(t, 0.92, cfg.Target.PorosityTarget)
	assert.Equal(t, 10.0, cfg.Processing.VoxelSizeUM)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SCAFFOLD_PROCESSING_VOXELSIZEUM", "4")
	t.Setenv("SCAFFOLD_SERVER_ADDR", ":9090")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Processing.VoxelSizeUM)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad method", "processing:\n  method: casting\n"},
		{"bad quality", "processing:\n  quality: best\n"},
		{"bad voxel", "processing:\n  voxelSizeUm: 0\n"},
		{"bad porosity", "target:\n  porosityTarget: 1.5\n"},
		{"bad yaml", "processing: [\n"},
		{"nan porosity", "target:\n  porosityTarget: .nan\n"},
		{"bad max voxels", "processing:\n  maxVoxels: 0\n"},
		{"target over voxel limit", "processing:\n  maxVoxels: 1000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scaffold.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaffold.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "voxelSizeUm: 10")
	assert.Contains(t, string(data), "method: freeze-casting")
}
