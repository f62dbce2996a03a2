package voxel

import (
	"github.com/golang/geo/r3"
)

// Grid is the result of one Voxelize call.
//
// Voxels is row-major [Len()][MaxPointsPerVoxel][Features]; slot i holds
// Counts[i] points followed by zero rows. Coordinates[i] is the slot's voxel
// index in (iz, iy, ix) order.
type Grid[T Float] struct {
	Voxels            []T
	Coordinates       []Coord
	Counts            []int32
	MaxPointsPerVoxel int
	Features          int
	Params            Params
	Stats             Stats
}

// Len returns the number of populated voxels.
func (g *Grid[T]) Len() int { return len(g.Counts) }

// Voxel returns the full MaxPointsPerVoxel x Features block of slot i,
// including zero padding. The slice aliases Voxels.
func (g *Grid[T]) Voxel(i int) []T {
	stride := g.MaxPointsPerVoxel * g.Features
	return g.Voxels[i*stride : (i+1)*stride : (i+1)*stride]
}

// Points returns only the occupied rows of slot i.
func (g *Grid[T]) Points(i int) []T {
	return g.Voxel(i)[:int(g.Counts[i])*g.Features]
}

// Point returns row j of slot i.
func (g *Grid[T]) Point(i, j int) []T {
	off := (i*g.MaxPointsPerVoxel + j) * g.Features
	return g.Voxels[off : off+g.Features : off+g.Features]
}

// CellBounds returns the world-space box covered by slot i:
// min + index*voxel_size up to one voxel further on every axis.
func (g *Grid[T]) CellBounds(i int) (lo, hi r3.Vector) {
	xyz := g.Coordinates[i].XYZ()
	r := g.Params.GridRange
	s := g.Params.VoxelSize
	lo = r3.Vector{
		X: r[0] + float64(xyz[0])*s[0],
		Y: r[1] + float64(xyz[1])*s[1],
		Z: r[2] + float64(xyz[2])*s[2],
	}
	hi = lo.Add(r3.Vector{X: s[0], Y: s[1], Z: s[2]})
	return lo, hi
}

// Center returns the world-space center of slot i.
func (g *Grid[T]) Center(i int) r3.Vector {
	lo, hi := g.CellBounds(i)
	return lo.Add(hi).Mul(0.5)
}
