// Package config provides configuration loading and management for modalflow.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"modalflow/internal/models"
	"modalflow/pkg/modal"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Modal analysis parameters
	Analysis struct {
		// Modes is the number of harmonics K kept above the DC term
		Modes int `yaml:"modes"`

		// SamplingPeriod is the time between flow frames in seconds
		SamplingPeriod float64 `yaml:"samplingPeriod"`

		// NumCores specifies how many CPU cores to use for the spectral transform
		NumCores int `yaml:"numCores"`

		// FrequencyScaling is "corrected" or "legacy"
		FrequencyScaling string `yaml:"frequencyScaling"`
	} `yaml:"analysis"`

	// Excitation describes the reference displacement
	Excitation struct {
		// Pixel is the reference location as [row, col]
		Pixel [2]int `yaml:"pixel"`

		// Displacement has one component per flow axis
		Displacement []float64 `yaml:"displacement"`

		// Alpha is the gain applied to the modal magnitude
		Alpha float64 `yaml:"alpha"`

		// Maximize is "disp" or "velocity"
		Maximize string `yaml:"maximize"`
	} `yaml:"excitation"`

	// Input parameters
	Input struct {
		// FlowDir is the directory holding the .flo sequence
		FlowDir string `yaml:"flowDir"`

		// VideoType is "mono" or "stereo"
		VideoType string `yaml:"videoType"`

		// StartFrame and EndFrame select [start, end); an end of 0 means the last frame
		StartFrame int `yaml:"startFrame"`
		EndFrame   int `yaml:"endFrame"`

		// Timesteps is the batch length; 0 keeps the whole range as one batch
		Timesteps int `yaml:"timesteps"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		Dir string `yaml:"dir"`

		// SaveModeShapes writes one magnitude image per mode
		SaveModeShapes bool `yaml:"saveModeShapes"`

		// SaveCoordinates writes the modal coordinate record and spectrum chart
		SaveCoordinates bool `yaml:"saveCoordinates"`

		// CompareFrame compares the prediction against this observed frame; -1 disables
		CompareFrame int `yaml:"compareFrame"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Analysis.Modes = 16
	cfg.Analysis.SamplingPeriod = 1.0 / 30.0
	cfg.Analysis.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Analysis.FrequencyScaling = modal.ScalingCorrected.String()

	cfg.Excitation.Pixel = [2]int{64, 64}
	cfg.Excitation.Displacement = []float64{1.0, 0.0}
	cfg.Excitation.Alpha = 1.0
	cfg.Excitation.Maximize = modal.MaximizeDisplacement.String()

	cfg.Input.VideoType = models.Mono.String()

	cfg.Output.Dir = "spectrums"
	cfg.Output.SaveModeShapes = true
	cfg.Output.SaveCoordinates = true
	cfg.Output.CompareFrame = -1
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks the enumerated fields and numeric ranges that can be
// checked without reading the input.
func (c *Config) Validate() error {
	if _, err := modal.ParseFrequencyScaling(c.Analysis.FrequencyScaling); err != nil {
		return err
	}
	if _, err := modal.ParseMaximizeMode(c.Excitation.Maximize); err != nil {
		return err
	}
	if _, err := models.ParseViewKind(c.Input.VideoType); err != nil {
		return err
	}
	if c.Analysis.Modes < 1 {
		return fmt.Errorf("modes must be at least 1, got %d", c.Analysis.Modes)
	}
	if !(c.Analysis.SamplingPeriod > 0) {
		return fmt.Errorf("sampling period must be positive, got %v", c.Analysis.SamplingPeriod)
	}
	if c.Excitation.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative, got %v", c.Excitation.Alpha)
	}
	if c.Input.Timesteps < 0 {
		return fmt.Errorf("timesteps must be non-negative, got %d", c.Input.Timesteps)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
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
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
