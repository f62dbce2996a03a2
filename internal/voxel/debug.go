package voxel

import (
	"io"
	"log"
	"sync/atomic"
)

var debugLogger atomic.Pointer[log.Logger]

// SetDebugLogger installs a logger that receives per-call voxelization
// diagnostics. Pass nil to disable debug logging. Safe to call while
// voxelizers are running.
func SetDebugLogger(w io.Writer) {
	if w == nil {
		debugLogger.Store(nil)
		return
	}
	debugLogger.Store(log.New(w, "[voxel] ", log.LstdFlags|log.Lmicroseconds))
}

// debugf logs formatted debug messages when a debug logger is configured.
func debugf(format string, args ...interface{}) {
	if l := debugLogger.Load(); l != nil {
		l.Printf(format, args...)
	}
}
