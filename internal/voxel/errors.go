package voxel

import "errors"

var (
	// ErrInvalidVoxelSize is returned when a voxel size component is not a
	// positive finite number.
	ErrInvalidVoxelSize = errors.New("voxel size must be positive and finite")
	// ErrInvalidGridRange is returned when a grid range has max <= min on an axis
	// or contains non-finite values.
	ErrInvalidGridRange = errors.New("grid range max must exceed min on every axis")
	// ErrEmptyGrid is returned when the derived grid shape has a zero extent.
	ErrEmptyGrid = errors.New("grid shape is empty")
	// ErrGridTooLarge is returned when the grid shape does not fit int32 coordinates.
	ErrGridTooLarge = errors.New("grid shape exceeds int32 coordinate range")
	// ErrInvalidCapacity is returned for non-positive max points or max voxels.
	ErrInvalidCapacity = errors.New("capacity must be positive")
	// ErrInvalidLookup is returned for an unknown lookup strategy.
	ErrInvalidLookup = errors.New("unknown lookup strategy")
	// ErrInvalidOverflow is returned for an unknown overflow policy.
	ErrInvalidOverflow = errors.New("unknown overflow policy")
	// ErrTooFewFeatures is returned when points carry fewer than 3 fields.
	ErrTooFewFeatures = errors.New("points need at least 3 feature columns")
	// ErrRaggedPoints is returned when the point buffer is not a whole number of rows.
	ErrRaggedPoints = errors.New("point buffer length is not a multiple of the feature count")
	// ErrShape is returned when voxel size or grid range slices have the wrong length.
	ErrShape = errors.New("wrong parameter length")
)
