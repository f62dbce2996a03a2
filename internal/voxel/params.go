package voxel

import (
	"fmt"
	"math"
	"strings"
)

// LookupStrategy selects the structure used to map a voxel index to its slot.
type LookupStrategy int

const (
	// LookupAuto uses a dense table when the grid volume is at most
	// DenseLookupLimit cells, and a hash map otherwise.
	LookupAuto LookupStrategy = iota
	// LookupDense always uses a flat table sized to the full grid volume.
	LookupDense
	// LookupSparse always uses a map keyed by Coord.
	LookupSparse
)

// DenseLookupLimit is the largest grid volume LookupAuto serves with a dense
// table (256 MiB of int32 slots).
const DenseLookupLimit = 1 << 26

func (s LookupStrategy) String() string {
	switch s {
	case LookupAuto:
		return "auto"
	case LookupDense:
		return "dense"
	case LookupSparse:
		return "sparse"
	default:
		return fmt.Sprintf("LookupStrategy(%d)", int(s))
	}
}

// ParseLookupStrategy parses "auto", "dense" or "sparse". Empty means auto.
func ParseLookupStrategy(s string) (LookupStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LookupAuto, nil
	case "dense":
		return LookupDense, nil
	case "sparse":
		return LookupSparse, nil
	}
	return LookupAuto, fmt.Errorf("%w: %q", ErrInvalidLookup, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s LookupStrategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LookupStrategy) UnmarshalText(b []byte) error {
	v, err := ParseLookupStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// OverflowPolicy decides what happens once max voxels cells are registered
// and a point lands in a new cell.
type OverflowPolicy int

const (
	// OverflowSkip drops the point and keeps scanning; registered cells keep
	// accepting points.
	OverflowSkip OverflowPolicy = iota
	// OverflowStop ends the scan at the first point that would need a new
	// cell. Matches the legacy compiled voxelizer bit for bit.
	OverflowStop
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowSkip:
		return "skip"
	case OverflowStop:
		return "stop"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy parses "skip" or "stop". Empty means skip.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OverflowSkip, nil
	case "stop":
		return OverflowStop, nil
	}
	return OverflowSkip, fmt.Errorf("%w: %q", ErrInvalidOverflow, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p OverflowPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *OverflowPolicy) UnmarshalText(b []byte) error {
	v, err := ParseOverflowPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Params configures a voxelization call.
type Params struct {
	// VoxelSize is the cell extent per axis (x, y, z).
	VoxelSize [3]float64 `json:"voxel_size"`
	// GridRange is (min_x, min_y, min_z, max_x, max_y, max_z).
	GridRange         [6]float64     `json:"grid_range"`
	MaxPointsPerVoxel int            `json:"max_points_per_voxel"`
	MaxVoxels         int            `json:"max_voxels"`
	Lookup            LookupStrategy `json:"lookup"`
	Overflow          OverflowPolicy `json:"overflow"`
}

// ParamsFromSlices builds Params from loosely typed inputs, rejecting wrong
// lengths before anything else is checked.
func ParamsFromSlices(voxelSize, gridRange []float64, maxPointsPerVoxel, maxVoxels int) (Params, error) {
	if len(voxelSize) != 3 {
		return Params{}, fmt.Errorf("%w: voxel size needs 3 values, got %d", ErrShape, len(voxelSize))
	}
	if len(gridRange) != 6 {
		return Params{}, fmt.Errorf("%w: grid range needs 6 values, got %d", ErrShape, len(gridRange))
	}
	p := Params{MaxPointsPerVoxel: maxPointsPerVoxel, MaxVoxels: maxVoxels}
	copy(p.VoxelSize[:], voxelSize)
	copy(p.GridRange[:], gridRange)
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate rejects configurations that would produce a degenerate grid.
func (p Params) Validate() error {
	for a, s := range p.VoxelSize {
		if !(s > 0) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: axis %d = %v", ErrInvalidVoxelSize, a, s)
		}
	}
	for a := 0; a < 3; a++ {
		lo, hi := p.GridRange[a], p.GridRange[a+3]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || !(hi > lo) {
			return fmt.Errorf("%w: axis %d [%v, %v]", ErrInvalidGridRange, a, lo, hi)
		}
	}
	if p.MaxPointsPerVoxel <= 0 {
		return fmt.Errorf("%w: max points per voxel = %d", ErrInvalidCapacity, p.MaxPointsPerVoxel)
	}
	if p.MaxVoxels <= 0 {
		return fmt.Errorf("%w: max voxels = %d", ErrInvalidCapacity, p.MaxVoxels)
	}
	if p.Lookup < LookupAuto || p.Lookup > LookupSparse {
		return fmt.Errorf("%w: %d", ErrInvalidLookup, int(p.Lookup))
	}
	if p.Overflow < OverflowSkip || p.Overflow > OverflowStop {
		return fmt.Errorf("%w: %d", ErrInvalidOverflow, int(p.Overflow))
	}
	for a := 0; a < 3; a++ {
		n := p.extent(a)
		if n < 1 {
			return fmt.Errorf("%w: axis %d has %v cells", ErrEmptyGrid, a, n)
		}
		if n > math.MaxInt32 {
			return fmt.Errorf("%w: axis %d has %v cells", ErrGridTooLarge, a, n)
		}
	}
	return nil
}

func (p Params) extent(a int) float64 {
	return math.Floor((p.GridRange[a+3] - p.GridRange[a]) / p.VoxelSize[a])
}

// GridShape returns the cell count per axis in (x, y, z) order.
// Only meaningful for validated Params.
func (p Params) GridShape() [3]int {
	return [3]int{int(p.extent(0)), int(p.extent(1)), int(p.extent(2))}
}

// Volume returns the total number of cells in the grid, saturating at
// math.MaxInt64.
func (p Params) Volume() int64 {
	s := p.GridShape()
	if float64(s[0])*float64(s[1])*float64(s[2]) >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(s[0]) * int64(s[1]) * int64(s[2])
}

// UseDense reports whether the lookup will be a dense table.
func (p Params) UseDense() bool {
	switch p.Lookup {
	case LookupDense:
		return true
	case LookupSparse:
		return false
	}
	return p.Volume() <= DenseLookupLimit
}

// MemoryEstimate returns the worst-case bytes one call allocates for a
// cloud of n points with the given feature count and value width.
func (p Params) MemoryEstimate(n, features, valueBytes int) int64 {
	slots := int64(p.MaxVoxels)
	if int64(n) < slots {
		slots = int64(n)
	}
	var total int64
	if p.UseDense() {
		total += p.Volume() * 4
	}
	total += slots * int64(p.MaxPointsPerVoxel) * int64(features) * int64(valueBytes) // voxel buffer
	total += slots * (3*4 + 4)                                                        // coordinates + counts
	total += int64(n) * 3 * 4                                                         // quantized indices
	total += (int64(n) + 63) / 64 * 8                                                 // retained mask
	return total
}
