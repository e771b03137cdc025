// Package config provides configuration loading and management for scaffoldstudio.
// Defaults are overlaid by an optional YAML file and then by SCAFFOLD_*
// environment variables.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"scaffoldstudio/internal/models"
	"scaffoldstudio/pkg/generator"
	"scaffoldstudio/pkg/imaging"
	"scaffoldstudio/pkg/logging"
	"scaffoldstudio/pkg/mechanics"
	"scaffoldstudio/pkg/reconstruction"
)

// EnvPrefix is prepended to environment overrides, e.g.
// SCAFFOLD_PROCESSING_VOXELSIZEUM=5
const EnvPrefix = "SCAFFOLD"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// VoxelSizeUM is the edge length of one input voxel in micrometres
		VoxelSizeUM float64 `yaml:"voxelSizeUm" mapstructure:"voxelSizeUm"`

		// Quality is the mesh reconstruction tier: draft, standard, high or ultra
		Quality string `yaml:"quality" mapstructure:"quality"`

		// Method is the fabrication method used to generate the optimized scaffold
		Method string `yaml:"method" mapstructure:"method"`

		// Seed drives the salt-leaching pore placement
		Seed uint64 `yaml:"seed" mapstructure:"seed"`

		// MaxVoxels caps the grid a generation target may request
		MaxVoxels int64 `yaml:"maxVoxels" mapstructure:"maxVoxels"`
	} `yaml:"processing" mapstructure:"processing"`

	// Target design parameters
	Target models.ScaffoldParams `yaml:"target" mapstructure:"target"`

	// Segment controls image binarization
	Segment imaging.SegmentOptions `yaml:"segment" mapstructure:"segment"`

	// Material is the bulk solid used for mechanical estimates
	Material mechanics.Material `yaml:"material" mapstructure:"material"`

	// Output parameters
	Output struct {
		// Dir receives meshes, reports and previews
		Dir string `yaml:"dir" mapstructure:"dir"`

		// SaveSlices writes PNG slice previews of the optimized volume
		SaveSlices bool `yaml:"saveSlices" mapstructure:"saveSlices"`

		// WriteBinvox exports the optimized volume as binvox
		WriteBinvox bool `yaml:"writeBinvox" mapstructure:"writeBinvox"`
	} `yaml:"output" mapstructure:"output"`

	Log logging.LogConfig `yaml:"log" mapstructure:"log"`

	// HTTP server parameters
	Server struct {
		Addr      string `yaml:"addr" mapstructure:"addr"`
		UploadDir string `yaml:"uploadDir" mapstructure:"uploadDir"`
		OutputDir string `yaml:"outputDir" mapstructure:"outputDir"`

		// MaxUploadMB limits the size of a single uploaded file
		MaxUploadMB int64 `yaml:"maxUploadMb" mapstructure:"maxUploadMb"`
	} `yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.VoxelSizeUM = 10
	cfg.Processing.Quality = reconstruction.Standard.String()
	cfg.Processing.Method = models.FreezeCasting.String()
	cfg.Processing.Seed = generator.DefaultSeed
	cfg.Processing.MaxVoxels = models.DefaultMaxVoxels

	cfg.Target = models.DefaultScaffoldParams()
	cfg.Segment = imaging.DefaultSegmentOptions()
	cfg.Material = mechanics.DefaultMaterial()

	cfg.Output.Dir = "output"
	cfg.Output.SaveSlices = false
	cfg.Output.WriteBinvox = true

	cfg.Log = logging.LogConfig{Level: "info", Format: "console"}

	cfg.Server.Addr = ":8080"
	cfg.Server.UploadDir = "uploads"
	cfg.Server.OutputDir = "results"
	cfg.Server.MaxUploadMB = 64

	return cfg
}

// LoadConfig loads configuration from a YAML file and the environment.
// If the file doesn't exist, defaults plus environment overrides are returned.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Seed viper with the defaults so every key is known to AutomaticEnv
	defaults, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("error marshaling defaults: %w", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("error reading defaults: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be caught by decoding
func (c *Config) Validate() error {
	if c.Processing.VoxelSizeUM <= 0 {
		return fmt.Errorf("processing.voxelSizeUm must be positive, got %g", c.Processing.VoxelSizeUM)
	}
	if c.Processing.MaxVoxels <= 0 {
		return fmt.Errorf("processing.maxVoxels must be positive, got %d", c.Processing.MaxVoxels)
	}
	if _, err := c.MeshQuality(); err != nil {
		return err
	}
	if _, err := c.FabricationMethod(); err != nil {
		return err
	}
	if err := c.Target.Validate(); err != nil {
		return err
	}
	return c.Target.CheckVoxelLimit(c.Processing.MaxVoxels)
}

// MeshQuality parses Processing.Quality
func (c *Config) MeshQuality() (reconstruction.Quality, error) {
	return reconstruction.ParseQuality(c.Processing.Quality)
}

// FabricationMethod parses Processing.Method
func (c *Config) FabricationMethod() (models.Method, error) {
	return models.ParseMethod(c.Processing.Method)
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
