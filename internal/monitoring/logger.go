// Package monitoring holds the process-wide log sink and Prometheus metrics
// for voxelization runs.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LogRun writes a one-line summary of a voxelization run.
func LogRun(source string, r RunSummary) {
	Logf("voxelized %s: points=%d retained=%d out_of_range=%d voxels=%d stored=%d dropped_voxel=%d dropped_point=%d in %v",
		source, r.Stats.InputPoints, r.Stats.RetainedPoints, r.Stats.OutOfRange, r.Voxels,
		r.Stats.StoredPoints, r.Stats.DroppedVoxelCapacity, r.Stats.DroppedPointCapacity, r.Duration)
	if r.Stats.Saturated() {
		Logf("warning: %s saturated capacity, %d points dropped (%d cells rejected)",
			source, r.Stats.Dropped(), r.Stats.RejectedCells)
	}
}
