package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/voxelize/internal/testutil"
	"github.com/banshee-data/voxelize/internal/voxel"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testParams() voxel.Params {
	return voxel.Params{
		VoxelSize:         [3]float64{0.5, 0.5, 0.5},
		GridRange:         [6]float64{0, 0, 0, 8, 8, 8},
		MaxPointsPerVoxel: 4,
		MaxVoxels:         300,
		Lookup:            voxel.LookupSparse,
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestMigrateDown(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.MigrateDown())
	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	err = s.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='voxel_run_grids'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInsertGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := &Run{
		Source: "scan-0001.bin",
		Params: testParams(),
		Stats: voxel.Stats{
			InputPoints:          100,
			RetainedPoints:       90,
			OutOfRange:           10,
			StoredPoints:         80,
			DroppedPointCapacity: 10,
			RejectedCells:        3,
		},
		Voxels:   25,
		Duration: 1500 * time.Microsecond,
	}
	require.NoError(t, s.Insert(ctx, r, nil, 0))
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt = r.CreatedAt
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	_, _, err = s.Grid(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	for i, src := range []string{"a", "b", "c"} {
		r := &Run{Source: src, Params: testParams(), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, s.Insert(ctx, r, nil, 0))
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].Source)
	assert.Equal(t, "a", runs[2].Source)

	runs, err = s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[1].Source)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := &Run{Source: "x", Params: testParams()}
	require.NoError(t, s.Insert(ctx, r, []byte{1, 2, 3}, 4))

	require.NoError(t, s.Delete(ctx, r.ID))
	_, err := s.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, _, err = s.Grid(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, s.Delete(ctx, r.ID), ErrRunNotFound)
}

func TestSaveLoadGrid(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	data := testutil.RandomPoints(7, 500, 4, [3]float32{-1, -1, -1}, [3]float32{9, 9, 9})
	pc, err := voxel.NewPointCloud(data, 4)
	require.NoError(t, err)
	g, err := voxel.Voxelize(pc, testParams())
	require.NoError(t, err)
	require.Greater(t, g.Len(), 0)

	r, err := SaveGrid(ctx, s, "random", g, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, g.Len(), r.Voxels)

	_, valueBytes, err := s.Grid(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, valueBytes)

	back, err := LoadGrid[float32](ctx, s, r.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(g, back); diff != "" {
		t.Errorf("LoadGrid() mismatch (-want +got):\n%s", diff)
	}
}
