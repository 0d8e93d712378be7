// Package config loads the YAML configuration of the atmos command.
//
// Every field has a default, so a partial file (or no file at all) is valid.
// Command-line flags override file values after loading.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const maxFileSize = 1 << 20 // 1MB

// Config is the root configuration.
type Config struct {
	Log           LogConfig           `yaml:"log"`
	Differencing  DifferencingConfig  `yaml:"differencing"`
	Concentration ConcentrationConfig `yaml:"concentration"`
	Output        OutputConfig        `yaml:"output"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// DifferencingConfig tunes the double-difference processor.
type DifferencingConfig struct {
	MinElevation    float64 `yaml:"min_elevation_deg"`
	ReferencePolicy string  `yaml:"reference_policy"` // elevation | signal | fixed
	Reference       string  `yaml:"reference"`
	EpochTolerance  string  `yaml:"epoch_tolerance"` // duration string like "50ms"
	Concurrency     int     `yaml:"concurrency"`
}

// ConcentrationConfig tunes the spectral estimator.
type ConcentrationConfig struct {
	Profile        string  `yaml:"profile"` // gaussian | lorentzian | rectangular
	WindowScale    float64 `yaml:"window_scale"`
	PressurePa     float64 `yaml:"pressure_pa"`
	TemperatureK   float64 `yaml:"temperature_k"`
	Smooth         float64 `yaml:"smooth_sigma"`
	BaselineDegree int     `yaml:"baseline_degree"` // < 0 disables
	Concurrency    int     `yaml:"concurrency"`
}

// OutputConfig names result sinks. Empty paths disable a sink.
type OutputConfig struct {
	Database    string `yaml:"database"`
	MetricsFile string `yaml:"metrics_file"`
	Trace       bool   `yaml:"trace"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Differencing: DifferencingConfig{
			MinElevation:    10,
			ReferencePolicy: "elevation",
		},
		Concentration: ConcentrationConfig{
			Profile:        "gaussian",
			WindowScale:    1,
			BaselineDegree: -1,
		},
	}
}

// Load reads a YAML file on top of Default. The file must have a .yaml or
// .yml extension and be under 1MB.
func Load(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := strings.ToLower(filepath.Ext(cleanPath)); ext != ".yaml" && ext != ".yml" {
		return Config{}, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	d := c.Differencing
	if d.MinElevation < -90 || d.MinElevation > 90 {
		return fmt.Errorf("differencing.min_elevation_deg must be within [-90, 90], got %g", d.MinElevation)
	}
	switch strings.ToLower(d.ReferencePolicy) {
	case "elevation", "signal":
	case "fixed":
		if strings.TrimSpace(d.Reference) == "" {
			return errors.New("differencing.reference is required with the fixed reference policy")
		}
	default:
		return fmt.Errorf("differencing.reference_policy must be elevation, signal or fixed, got %q", d.ReferencePolicy)
	}
	if d.EpochTolerance != "" {
		if tol, err := time.ParseDuration(d.EpochTolerance); err != nil || tol < 0 {
			return fmt.Errorf("invalid differencing.epoch_tolerance %q", d.EpochTolerance)
		}
	}
	if d.Concurrency < 0 {
		return fmt.Errorf("differencing.concurrency must be non-negative, got %d", d.Concurrency)
	}

	s := c.Concentration
	switch strings.ToLower(s.Profile) {
	case "gaussian", "lorentzian", "rectangular":
	default:
		return fmt.Errorf("concentration.profile must be gaussian, lorentzian or rectangular, got %q", s.Profile)
	}
	if !(s.WindowScale > 0) {
		return fmt.Errorf("concentration.window_scale must be > 0, got %g", s.WindowScale)
	}
	if s.PressurePa < 0 || s.TemperatureK < 0 {
		return fmt.Errorf("concentration pressure and temperature must be non-negative, got %g Pa, %g K",
			s.PressurePa, s.TemperatureK)
	}
	if (s.PressurePa > 0) != (s.TemperatureK > 0) {
		return errors.New("concentration.pressure_pa and concentration.temperature_k must be set together")
	}
	if s.Smooth < 0 {
		return fmt.Errorf("concentration.smooth_sigma must be non-negative, got %g", s.Smooth)
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concentration.concurrency must be non-negative, got %d", s.Concurrency)
	}

	return nil
}

// GetEpochTolerance parses Differencing.EpochTolerance, returning 0 when
// unset.
func (c Config) GetEpochTolerance() time.Duration {
	if c.Differencing.EpochTolerance == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Differencing.EpochTolerance)
	if err != nil {
		return 0
	}
	return d
}
