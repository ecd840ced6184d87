package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/tapfocus/internal/pick"
)

// DefaultConfigPath is the path to the canonical pick defaults file.
const DefaultConfigPath = "config/pick.defaults.json"

// PickConfig holds the tap-to-focus parameters. Nil fields fall back to the
// defaults returned by the Get* methods, so partial configs are safe.
type PickConfig struct {
	// Sampling
	TargetSampleCount *int    `json:"target_sample_count,omitempty"`
	AxisConvention    *string `json:"axis_convention,omitempty"` // "identity", "flip_yz", ...

	// Matching. A nil max distance is unbounded.
	MaxDistanceSquared *float64 `json:"max_distance_squared,omitempty"`

	// Marker placement
	MarkerTolerancePx *float64 `json:"marker_tolerance_px,omitempty"`

	// Camera
	FovYDeg *float64 `json:"fov_y_deg,omitempty"`
	Near    *float64 `json:"near,omitempty"`
	Far     *float64 `json:"far,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPickConfig returns a PickConfig with all fields set to nil.
func EmptyPickConfig() *PickConfig {
	return &PickConfig{}
}

// DefaultPickConfig returns a PickConfig with every field set to its default.
func DefaultPickConfig() *PickConfig {
	return &PickConfig{
		TargetSampleCount: ptrInt(50000),
		AxisConvention:    ptrString("flip_yz"),
		MarkerTolerancePx: ptrFloat64(4),
		FovYDeg:           ptrFloat64(60),
		Near:              ptrFloat64(0.1),
		Far:               ptrFloat64(1000),
	}
}

// LoadPickConfig loads a PickConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadPickConfig(path string) (*PickConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPickConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical pick defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *PickConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadPickConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *PickConfig) Validate() error {
	if c.TargetSampleCount != nil && *c.TargetSampleCount < 1 {
		return fmt.Errorf("target_sample_count must be at least 1, got %d", *c.TargetSampleCount)
	}

	if c.AxisConvention != nil {
		if _, err := pick.ParseAxisConvention(*c.AxisConvention); err != nil {
			return fmt.Errorf("axis_convention: %w", err)
		}
	}

	if c.MaxDistanceSquared != nil {
		if v := *c.MaxDistanceSquared; math.IsNaN(v) || v < 0 {
			return fmt.Errorf("max_distance_squared must be non-negative, got %f", v)
		}
	}

	if c.MarkerTolerancePx != nil && *c.MarkerTolerancePx < 0 {
		return fmt.Errorf("marker_tolerance_px must be non-negative, got %f", *c.MarkerTolerancePx)
	}

	if c.FovYDeg != nil && (*c.FovYDeg <= 0 || *c.FovYDeg >= 180) {
		return fmt.Errorf("fov_y_deg must be in (0, 180), got %f", *c.FovYDeg)
	}

	near, far := c.GetNear(), c.GetFar()
	if near <= 0 {
		return fmt.Errorf("near must be positive, got %f", near)
	}
	if far <= near {
		return fmt.Errorf("far (%f) must be greater than near (%f)", far, near)
	}

	return nil
}

// GetTargetSampleCount returns the target_sample_count value or the default.
func (c *PickConfig) GetTargetSampleCount() int {
	if c.TargetSampleCount == nil {
		return 50000
	}
	return *c.TargetSampleCount
}

// GetAxisConvention returns the parsed axis convention, defaulting to flip_yz.
// An unparseable value also falls back to the default.
func (c *PickConfig) GetAxisConvention() pick.AxisConvention {
	if c.AxisConvention == nil {
		return pick.ConventionFlipYZ
	}
	conv, err := pick.ParseAxisConvention(*c.AxisConvention)
	if err != nil {
		return pick.ConventionFlipYZ
	}
	return conv
}

// GetMaxDistanceSquared returns max_distance_squared, or pick.Unbounded when unset.
func (c *PickConfig) GetMaxDistanceSquared() float64 {
	if c.MaxDistanceSquared == nil {
		return pick.Unbounded
	}
	return *c.MaxDistanceSquared
}

// GetMarkerTolerancePx returns the marker_tolerance_px value or the default.
func (c *PickConfig) GetMarkerTolerancePx() float64 {
	if c.MarkerTolerancePx == nil {
		return 4
	}
	return *c.MarkerTolerancePx
}

// GetFovYDeg returns the fov_y_deg value or the default.
func (c *PickConfig) GetFovYDeg() float64 {
	if c.FovYDeg == nil {
		return 60
	}
	return *c.FovYDeg
}

// GetNear returns the near value or the default.
func (c *PickConfig) GetNear() float64 {
	if c.Near == nil {
		return 0.1
	}
	return *c.Near
}

// GetFar returns the far value or the default.
func (c *PickConfig) GetFar() float64 {
	if c.Far == nil {
		return 1000
	}
	return *c.Far
}
