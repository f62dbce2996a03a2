package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/voxelize/internal/voxel"
)

// DefaultConfigPath is the path to the canonical voxelization defaults file.
const DefaultConfigPath = "config/voxelize.defaults.json"

// Built-in defaults used by the Get* accessors when a field is omitted.
// These match the PointPillars KITTI car setup.
var (
	defaultVoxelSize = []float64{0.16, 0.16, 4.0}
	defaultGridRange = []float64{0, -39.68, -3, 69.12, 39.68, 1}
)

const (
	defaultMaxPointsPerVoxel = 60
	defaultMaxVoxels         = 20000
	defaultLookup            = "auto"
	defaultOverflow          = "skip"
	defaultPointFeatures     = 4
	defaultBatchConcurrency  = 4
)

// VoxelConfig is the JSON configuration for voxelization runs.
// All fields are optional; omitted fields fall back to built-in defaults,
// so partial configs are safe.
type VoxelConfig struct {
	// Grid geometry
	VoxelSize []float64 `json:"voxel_size,omitempty"` // [sx, sy, sz] meters
	GridRange []float64 `json:"grid_range,omitempty"` // [min_x, min_y, min_z, max_x, max_y, max_z]

	// Capacities
	MaxPointsPerVoxel *int `json:"max_points_per_voxel,omitempty"`
	MaxVoxels         *int `json:"max_voxels,omitempty"`

	// Algorithm choices
	Lookup   *string `json:"lookup,omitempty"`   // "auto", "dense", "sparse"
	Overflow *string `json:"overflow,omitempty"` // "skip", "stop"

	// Input handling
	PointFeatures    *int `json:"point_features,omitempty"`    // fields per record in .bin inputs
	BatchConcurrency *int `json:"batch_concurrency,omitempty"` // parallel clouds in batch mode
}

// Helper functions to create pointers
func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// EmptyVoxelConfig returns a VoxelConfig with all fields unset.
func EmptyVoxelConfig() *VoxelConfig {
	return &VoxelConfig{}
}

// DefaultVoxelConfig returns a VoxelConfig with every field populated from
// the built-in defaults.
func DefaultVoxelConfig() *VoxelConfig {
	return &VoxelConfig{
		VoxelSize:         append([]float64(nil), defaultVoxelSize...),
		GridRange:         append([]float64(nil), defaultGridRange...),
		MaxPointsPerVoxel: ptrInt(defaultMaxPointsPerVoxel),
		MaxVoxels:         ptrInt(defaultMaxVoxels),
		Lookup:            ptrString(defaultLookup),
		Overflow:          ptrString(defaultOverflow),
		PointFeatures:     ptrInt(defaultPointFeatures),
		BatchConcurrency:  ptrInt(defaultBatchConcurrency),
	}
}

// LoadVoxelConfig loads a VoxelConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadVoxelConfig(path string) (*VoxelConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	cfg := EmptyVoxelConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *VoxelConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/voxelize/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadVoxelConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
// Geometry and capacities are checked together through voxel.Params so
// that a config never passes here and fails later in the voxelizer.
func (c *VoxelConfig) Validate() error {
	if c.VoxelSize != nil && len(c.VoxelSize) != 3 {
		return fmt.Errorf("voxel_size must have 3 values, got %d", len(c.VoxelSize))
	}
	if c.GridRange != nil && len(c.GridRange) != 6 {
		return fmt.Errorf("grid_range must have 6 values, got %d", len(c.GridRange))
	}
	if c.PointFeatures != nil && *c.PointFeatures < 3 {
		return fmt.Errorf("point_features must be at least 3, got %d", *c.PointFeatures)
	}
	if c.BatchConcurrency != nil && *c.BatchConcurrency < 0 {
		return fmt.Errorf("batch_concurrency must be non-negative, got %d", *c.BatchConcurrency)
	}
	if _, err := c.ToParams(); err != nil {
		return err
	}
	return nil
}

// ToParams converts the config into validated voxelizer parameters.
func (c *VoxelConfig) ToParams() (voxel.Params, error) {
	p, err := voxel.ParamsFromSlices(c.GetVoxelSize(), c.GetGridRange(), c.GetMaxPointsPerVoxel(), c.GetMaxVoxels())
	if err != nil {
		return voxel.Params{}, err
	}
	if p.Lookup, err = voxel.ParseLookupStrategy(c.GetLookup()); err != nil {
		return voxel.Params{}, err
	}
	if p.Overflow, err = voxel.ParseOverflowPolicy(c.GetOverflow()); err != nil {
		return voxel.Params{}, err
	}
	return p, nil
}

// GetVoxelSize returns the voxel_size value or the default.
func (c *VoxelConfig) GetVoxelSize() []float64 {
	if c.VoxelSize == nil {
		return append([]float64(nil), defaultVoxelSize...)
	}
	return c.VoxelSize
}

// GetGridRange returns the grid_range value or the default.
func (c *VoxelConfig) GetGridRange() []float64 {
	if c.GridRange == nil {
		return append([]float64(nil), defaultGridRange...)
	}
	return c.GridRange
}

// GetMaxPointsPerVoxel returns the max_points_per_voxel value or the default.
func (c *VoxelConfig) GetMaxPointsPerVoxel() int {
	if c.MaxPointsPerVoxel == nil {
		return defaultMaxPointsPerVoxel
	}
	return *c.MaxPointsPerVoxel
}

// GetMaxVoxels returns the max_voxels value or the default.
func (c *VoxelConfig) GetMaxVoxels() int {
	if c.MaxVoxels == nil {
		return defaultMaxVoxels
	}
	return *c.MaxVoxels
}

// GetLookup returns the lookup value or the default.
func (c *VoxelConfig) GetLookup() string {
	if c.Lookup == nil {
		return defaultLookup
	}
	return *c.Lookup
}

// GetOverflow returns the overflow value or the default.
func (c *VoxelConfig) GetOverflow() string {
	if c.Overflow == nil {
		return defaultOverflow
	}
	return *c.Overflow
}

// GetPointFeatures returns the point_features value or the default.
func (c *VoxelConfig) GetPointFeatures() int {
	if c.PointFeatures == nil {
		return defaultPointFeatures
	}
	return *c.PointFeatures
}

// GetBatchConcurrency returns the batch_concurrency value or the default.
func (c *VoxelConfig) GetBatchConcurrency() int {
	if c.BatchConcurrency == nil {
		return defaultBatchConcurrency
	}
	return *c.BatchConcurrency
}
