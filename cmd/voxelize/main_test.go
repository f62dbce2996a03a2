package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/voxelize/internal/config"
	"github.com/banshee-data/voxelize/internal/gridcodec"
	"github.com/banshee-data/voxelize/internal/monitoring"
	"github.com/banshee-data/voxelize/internal/runstore"
)

func TestSplitInputs(t *testing.T) {
	assert.Equal(t, []string{"a.bin", "b.csv", "c.bin"}, splitInputs(" a.bin, ,b.csv", []string{"c.bin"}))
	assert.Empty(t, splitInputs("", nil))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "000001.vox.zst", outputName("/data/velodyne/000001.bin", ".vox.zst"))
	assert.Equal(t, "scan_occupancy.png", outputName("scan.csv", "_occupancy.png"))
}

func TestRun(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	dir := t.TempDir()
	input := filepath.Join(dir, "scan.csv")
	csv := "# x,y,z,intensity\n1.0,0.5,0.5,0.1\n1.05,0.55,0.5,0.2\n3.0,2.0,0.5,0.3\n-50,0,0,0.4\n"
	require.NoError(t, os.WriteFile(input, []byte(csv), 0644))

	cfg := config.DefaultVoxelConfig()
	cfg.VoxelSize = []float64{0.5, 0.5, 1}
	cfg.GridRange = []float64{0, 0, 0, 10, 10, 2}
	opts := options{
		cfg:     cfg,
		inputs:  []string{input},
		dbFile:  filepath.Join(dir, "runs.db"),
		plotDir: filepath.Join(dir, "plots"),
		outDir:  filepath.Join(dir, "grids"),
	}
	require.NoError(t, run(context.Background(), opts))

	blob, err := os.ReadFile(filepath.Join(dir, "grids", "scan.vox.zst"))
	require.NoError(t, err)
	g, err := gridcodec.Decode[float32](blob)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []int32{2, 1}, g.Counts)

	_, err = os.Stat(filepath.Join(dir, "plots", "scan_occupancy.png"))
	assert.NoError(t, err)

	store, err := runstore.Open(opts.dbFile)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, input, runs[0].Source)
	assert.Equal(t, 1, runs[0].Stats.OutOfRange)
	assert.Equal(t, 3, runs[0].Stats.StoredPoints)
}

func TestRun_MissingInput(t *testing.T) {
	monitoring.SetLogger(nil)
	opts := options{cfg: config.DefaultVoxelConfig(), inputs: []string{"/nonexistent/scan.bin"}}
	assert.Error(t, run(context.Background(), opts))
}

func TestCheckOutputNames(t *testing.T) {
	assert.NoError(t, checkOutputNames([]string{"a/000001.bin", "a/000002.bin"}))
	assert.Error(t, checkOutputNames([]string{"a/000001.bin", "b/000001.bin"}))
	assert.Error(t, checkOutputNames([]string{"scan.bin", "scan.csv"}))
}

func TestRun_DuplicateOutputNames(t *testing.T) {
	monitoring.SetLogger(nil)
	dir := t.TempDir()
	var inputs []string
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0755))
		path := filepath.Join(dir, sub, "000001.csv")
		require.NoError(t, os.WriteFile(path, []byte("1,1,1\n"), 0644))
		inputs = append(inputs, path)
	}

	opts := options{cfg: config.DefaultVoxelConfig(), inputs: inputs, outDir: filepath.Join(dir, "grids")}
	err := run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same output files")

	// Without file outputs the same inputs are fine.
	opts.outDir = ""
	assert.NoError(t, run(context.Background(), opts))
}
