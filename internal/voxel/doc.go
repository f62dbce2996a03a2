// Package voxel buckets point clouds into a sparse, fixed-capacity voxel grid.
//
// Responsibilities: coordinate quantization, range filtering, first-seen
// voxel slot assignment and per-slot point storage.
// Key types: PointCloud, Params, Voxelizer, Grid.
//
// Coordinates are emitted in reversed axis order (iz, iy, ix) to match the
// layout expected by downstream feature extractors.
//
// No I/O, logging sinks or configuration files live here; callers in
// internal/config, internal/pointio and cmd/voxelize supply validated inputs.
package voxel
