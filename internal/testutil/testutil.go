// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"errors"
	"math/rand"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorIs fails the test unless errors.Is(err, target).
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// RandomPoints returns n row-major records of the given width. Positions are
// uniform in [lo, hi) per axis; payload fields hold the record index so
// tests can trace where each point ended up. The same seed always yields the
// same cloud.
func RandomPoints(seed int64, n, features int, lo, hi [3]float32) []float32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float32, n*features)
	for i := 0; i < n; i++ {
		row := out[i*features : (i+1)*features]
		for a := 0; a < 3; a++ {
			row[a] = lo[a] + rng.Float32()*(hi[a]-lo[a])
		}
		for f := 3; f < features; f++ {
			row[f] = float32(i)
		}
	}
	return out
}
