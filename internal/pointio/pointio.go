// Package pointio reads point clouds from disk into voxel.PointCloud values.
//
// Supported formats: raw little-endian float32 records (.bin, as written by
// KITTI-style velodyne dumps) and comma-separated text (.csv, .txt).
package pointio

import (
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/voxelize/internal/voxel"
)

// ErrUnknownFormat is returned by LoadFile for unsupported extensions.
var ErrUnknownFormat = errors.New("unknown point file format")

// maxFileSize caps a single input file at 2 GiB.
const maxFileSize = 2 << 30

// ReadBin decodes little-endian float32 records of the given width.
func ReadBin(r io.Reader, features int) (voxel.PointCloud[float32], error) {
	if features < 3 {
		return voxel.PointCloud[float32]{}, fmt.Errorf("%w: got %d", voxel.ErrTooFewFeatures, features)
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxFileSize+1))
	if err != nil {
		return voxel.PointCloud[float32]{}, fmt.Errorf("failed to read points: %w", err)
	}
	if len(raw) > maxFileSize {
		return voxel.PointCloud[float32]{}, fmt.Errorf("point file too large (max %d bytes)", maxFileSize)
	}
	recordBytes := 4 * features
	if len(raw)%recordBytes != 0 {
		return voxel.PointCloud[float32]{}, fmt.Errorf("%w: %d bytes is not a multiple of %d-byte records",
			voxel.ErrRaggedPoints, len(raw), recordBytes)
	}
	data := make([]float32, len(raw)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return voxel.NewPointCloud(data, features)
}

// WriteBin encodes a float32 cloud in the format ReadBin expects.
func WriteBin(w io.Writer, pc voxel.PointCloud[float32]) error {
	buf := make([]byte, 4*len(pc.Data))
	for i, v := range pc.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	_, err := w.Write(buf)
	return err
}

// ReadCSV parses one point per line. Lines starting with '#' are comments.
// Every record must have the same number of columns, at least 3.
func ReadCSV(r io.Reader) (voxel.PointCloud[float64], error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var data []float64
	features := 0
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return voxel.PointCloud[float64]{}, fmt.Errorf("failed to parse csv: %w", err)
		}
		line++
		if features == 0 {
			features = len(rec)
		}
		for col, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return voxel.PointCloud[float64]{}, fmt.Errorf("record %d column %d: %w", line, col, err)
			}
			data = append(data, v)
		}
	}
	if features == 0 {
		// No records: an empty xyz cloud.
		features = 3
	}
	return voxel.NewPointCloud(data, features)
}

// LoadFile opens path and decodes it by extension. Binary files are
// returned as float32 with the given feature count; text files are widened
// to float32 as well so callers handle one precision.
func LoadFile(path string, features int) (voxel.PointCloud[float32], error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return voxel.PointCloud[float32]{}, fmt.Errorf("failed to open point file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return ReadBin(f, features)
	case ".csv", ".txt":
		pc, err := ReadCSV(f)
		if err != nil {
			return voxel.PointCloud[float32]{}, err
		}
		return Narrow(pc), nil
	}
	return voxel.PointCloud[float32]{}, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Narrow converts a float64 cloud to float32.
func Narrow(pc voxel.PointCloud[float64]) voxel.PointCloud[float32] {
	data := make([]float32, len(pc.Data))
	for i, v := range pc.Data {
		data[i] = float32(v)
	}
	return voxel.PointCloud[float32]{Data: data, Features: pc.Features}
}
