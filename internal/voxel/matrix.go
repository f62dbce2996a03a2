package voxel

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FromMatrix copies an N x F matrix into a float64 point cloud.
func FromMatrix(m mat.Matrix) (PointCloud[float64], error) {
	if m == nil {
		return PointCloud[float64]{}, errors.New("nil matrix")
	}
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		data = append(data, row...)
	}
	return NewPointCloud(data, c)
}

// VoxelMatrix returns the occupied rows of slot i as a Counts[i] x Features
// matrix. Values are copied and widened to float64.
func VoxelMatrix[T Float](g *Grid[T], i int) *mat.Dense {
	pts := g.Points(i)
	data := make([]float64, len(pts))
	for k, v := range pts {
		data[k] = float64(v)
	}
	return mat.NewDense(int(g.Counts[i]), g.Features, data)
}

// CoordinateMatrix returns the slot coordinates as a Len() x 3 matrix in
// (iz, iy, ix) column order. Nil for an empty grid.
func CoordinateMatrix[T Float](g *Grid[T]) *mat.Dense {
	if g.Len() == 0 {
		return nil
	}
	data := make([]float64, 0, 3*g.Len())
	for _, c := range g.Coordinates {
		data = append(data, float64(c[0]), float64(c[1]), float64(c[2]))
	}
	return mat.NewDense(g.Len(), 3, data)
}

// Occupancy summarises per-voxel point counts.
type Occupancy struct {
	Voxels int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	// Full is the number of voxels at MaxPointsPerVoxel.
	Full int
	// FillRatio is stored points over total slot capacity.
	FillRatio float64
}

// Summarize computes occupancy statistics for a grid.
func Summarize[T Float](g *Grid[T]) Occupancy {
	o := Occupancy{Voxels: g.Len()}
	if o.Voxels == 0 {
		return o
	}
	counts := make([]float64, len(g.Counts))
	for i, c := range g.Counts {
		counts[i] = float64(c)
		if int(c) == g.MaxPointsPerVoxel {
			o.Full++
		}
	}
	o.Mean, o.StdDev = stat.MeanStdDev(counts, nil)
	if len(counts) == 1 {
		o.StdDev = 0
	}
	o.Min = floats.Min(counts)
	o.Max = floats.Max(counts)
	o.FillRatio = floats.Sum(counts) / float64(o.Voxels*g.MaxPointsPerVoxel)
	return o
}
