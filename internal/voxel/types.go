package voxel

import "fmt"

// Float is the set of point precisions the voxelizer accepts.
type Float interface {
	~float32 | ~float64
}

// PointCloud is an ordered set of N points stored row-major in Data.
// Each row has Features values; fields 0..2 are x, y, z (meters) and the
// remaining fields are payload copied verbatim into the grid.
type PointCloud[T Float] struct {
	Data     []T
	Features int
}

// NewPointCloud wraps a row-major buffer and validates its shape.
func NewPointCloud[T Float](data []T, features int) (PointCloud[T], error) {
	pc := PointCloud[T]{Data: data, Features: features}
	if err := pc.Validate(); err != nil {
		return PointCloud[T]{}, err
	}
	return pc, nil
}

// Validate checks the feature count and that Data holds whole rows.
func (pc PointCloud[T]) Validate() error {
	if pc.Features < 3 {
		return fmt.Errorf("%w: got %d", ErrTooFewFeatures, pc.Features)
	}
	if len(pc.Data)%pc.Features != 0 {
		return fmt.Errorf("%w: %d values, %d features", ErrRaggedPoints, len(pc.Data), pc.Features)
	}
	return nil
}

// Len returns the number of points.
func (pc PointCloud[T]) Len() int {
	if pc.Features <= 0 {
		return 0
	}
	return len(pc.Data) / pc.Features
}

// Point returns the i-th point record. The slice aliases Data.
func (pc PointCloud[T]) Point(i int) []T {
	off := i * pc.Features
	return pc.Data[off : off+pc.Features : off+pc.Features]
}

// Coord is a voxel index in reversed axis order: (iz, iy, ix).
type Coord [3]int32

// XYZ returns the index in (ix, iy, iz) order.
func (c Coord) XYZ() [3]int32 {
	return [3]int32{c[2], c[1], c[0]}
}

// Stats describes what happened to every input point during one call.
// StoredPoints + DroppedVoxelCapacity + DroppedPointCapacity == RetainedPoints.
type Stats struct {
	InputPoints    int
	RetainedPoints int
	OutOfRange     int
	StoredPoints   int

	// DroppedVoxelCapacity counts points whose cell could not be registered
	// because max voxels was reached.
	DroppedVoxelCapacity int
	// DroppedPointCapacity counts points arriving at a cell that was full.
	DroppedPointCapacity int
	// RejectedCells is the number of distinct cells refused at max voxels.
	RejectedCells uint64
}

// Dropped returns the number of in-range points lost to either capacity limit.
func (s Stats) Dropped() int {
	return s.DroppedVoxelCapacity + s.DroppedPointCapacity
}

// Saturated reports whether any capacity limit truncated the output.
func (s Stats) Saturated() bool {
	return s.Dropped() > 0
}
