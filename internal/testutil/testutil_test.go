package testutil

import (
	"errors"
	"fmt"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	// Verify nil error doesn't cause issues
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()

	AssertError(t, errors.New("test error"))
}

func TestAssertErrorIs_Wrapped(t *testing.T) {
	t.Parallel()

	base := errors.New("base")
	AssertErrorIs(t, fmt.Errorf("context: %w", base), base)
}

func TestRandomPoints_Deterministic(t *testing.T) {
	t.Parallel()

	lo := [3]float32{-1, -2, -3}
	hi := [3]float32{1, 2, 3}
	a := RandomPoints(7, 50, 4, lo, hi)
	b := RandomPoints(7, 50, 4, lo, hi)
	if len(a) != 200 {
		t.Fatalf("len = %d, want 200", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("value %d differs between identical seeds: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRandomPoints_BoundsAndPayload(t *testing.T) {
	t.Parallel()

	lo := [3]float32{0, 10, -5}
	hi := [3]float32{1, 20, 5}
	pts := RandomPoints(1, 100, 5, lo, hi)
	for i := 0; i < 100; i++ {
		row := pts[i*5 : (i+1)*5]
		for a := 0; a < 3; a++ {
			if row[a] < lo[a] || row[a] > hi[a] {
				t.Errorf("point %d axis %d = %v outside [%v, %v]", i, a, row[a], lo[a], hi[a])
			}
		}
		if row[3] != float32(i) || row[4] != float32(i) {
			t.Errorf("point %d payload = %v, want index", i, row[3:])
		}
	}
}
