package pointio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/voxelize/internal/testutil"
	"github.com/banshee-data/voxelize/internal/voxel"
)

func TestBinRoundTrip(t *testing.T) {
	data := testutil.RandomPoints(3, 25, 4, [3]float32{-50, -50, -3}, [3]float32{50, 50, 1})
	pc, err := voxel.NewPointCloud(data, 4)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBin(&buf, pc))
	assert.Equal(t, 25*4*4, buf.Len())

	back, err := ReadBin(&buf, 4)
	require.NoError(t, err)
	assert.Equal(t, pc, back)
}

func TestReadBin_Errors(t *testing.T) {
	_, err := ReadBin(bytes.NewReader(make([]byte, 12)), 2)
	assert.ErrorIs(t, err, voxel.ErrTooFewFeatures)

	_, err = ReadBin(bytes.NewReader(make([]byte, 20)), 4)
	assert.ErrorIs(t, err, voxel.ErrRaggedPoints)
}

func TestReadBin_Empty(t *testing.T) {
	pc, err := ReadBin(bytes.NewReader(nil), 4)
	require.NoError(t, err)
	assert.Equal(t, 0, pc.Len())
	assert.Equal(t, 4, pc.Features)
}

func TestReadCSV(t *testing.T) {
	in := `# x, y, z, intensity
1.0, 2.0, 3.0, 0.5
-1.5,0,7e-1,1
`
	pc, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 4, pc.Features)
	assert.Equal(t, []float64{1, 2, 3, 0.5, -1.5, 0, 0.7, 1}, pc.Data)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("1,2,3\n4,5\n"))
	assert.Error(t, err, "ragged rows")

	_, err = ReadCSV(strings.NewReader("1,2,abc\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("1,2\n"))
	assert.ErrorIs(t, err, voxel.ErrTooFewFeatures)
}

func TestReadCSV_Empty(t *testing.T) {
	pc, err := ReadCSV(strings.NewReader("# header only\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, pc.Len())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "cloud.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("0.5,0.5,0.5\n1.5,1.5,1.5\n"), 0644))
	pc, err := LoadFile(csvPath, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, pc.Features, "csv width comes from the file")
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 1.5, 1.5, 1.5}, pc.Data)

	binPath := filepath.Join(dir, "cloud.bin")
	var buf bytes.Buffer
	require.NoError(t, WriteBin(&buf, voxel.PointCloud[float32]{Data: []float32{1, 2, 3, 4}, Features: 4}))
	require.NoError(t, os.WriteFile(binPath, buf.Bytes(), 0644))
	pc, err = LoadFile(binPath, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, pc.Len())

	_, err = LoadFile(filepath.Join(dir, "cloud.pcd"), 4)
	assert.Error(t, err)

	pcdPath := filepath.Join(dir, "real.pcd")
	require.NoError(t, os.WriteFile(pcdPath, nil, 0644))
	_, err = LoadFile(pcdPath, 4)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
