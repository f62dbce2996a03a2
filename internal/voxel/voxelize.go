package voxel

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bits-and-blooms/bitset"
)

// maxDenseCells bounds a forced dense lookup (8 GiB of int32 slots).
const maxDenseCells = 1 << 31

// Voxelizer buckets point clouds with a fixed set of Params. It is safe for
// concurrent use; every call gets its own output buffers.
type Voxelizer[T Float] struct {
	params Params
	shape  [3]int
	dense  bool
	tables *tablePool
	// wide grids have more cells than an int64 cell number can address.
	wide bool
}

// New validates p and returns a Voxelizer for it.
func New[T Float](p Params) (*Voxelizer[T], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	v := &Voxelizer[T]{
		params: p,
		shape:  p.GridShape(),
		dense:  p.UseDense(),
		wide:   p.Volume() == math.MaxInt64,
	}
	if v.dense {
		vol := p.Volume()
		if vol > maxDenseCells {
			return nil, fmt.Errorf("%w: dense lookup of %d cells", ErrGridTooLarge, vol)
		}
		v.tables = newTablePool(int(vol))
	}
	return v, nil
}

// Voxelize is a one-shot helper equivalent to New(p) followed by Voxelize(pc).
func Voxelize[T Float](pc PointCloud[T], p Params) (*Grid[T], error) {
	v, err := New[T](p)
	if err != nil {
		return nil, err
	}
	return v.Voxelize(pc)
}

// Params returns the validated parameters.
func (v *Voxelizer[T]) Params() Params { return v.params }

// GridShape returns the cell count per axis in (x, y, z) order.
func (v *Voxelizer[T]) GridShape() [3]int { return v.shape }

// Voxelize assigns every in-range point of pc to a voxel slot.
//
// Slots are numbered in order of the first point seen in each cell. A cell
// holds at most MaxPointsPerVoxel points (first come, first kept) and at most
// MaxVoxels cells are registered; points beyond either limit are dropped and
// counted in Grid.Stats.
func (v *Voxelizer[T]) Voxelize(pc PointCloud[T]) (*Grid[T], error) {
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	n := pc.Len()
	coords, mask := v.quantize(pc)
	retained := int(mask.Count())

	stats := Stats{
		InputPoints:    n,
		RetainedPoints: retained,
		OutOfRange:     n - retained,
	}

	var lookup slotLookup
	if v.dense {
		t := v.tables.get()
		defer v.tables.put(t)
		lookup = &denseLookup{table: *t, sy: v.shape[1], sx: v.shape[0]}
	} else {
		lookup = make(sparseLookup)
	}

	maxPts := v.params.MaxPointsPerVoxel
	features := pc.Features
	slots := min(v.params.MaxVoxels, retained)
	stride := maxPts * features

	grid := &Grid[T]{
		Voxels:            make([]T, slots*stride),
		Coordinates:       make([]Coord, slots),
		Counts:            make([]int32, slots),
		MaxPointsPerVoxel: maxPts,
		Features:          features,
		Params:            v.params,
	}

	rejected := v.newCellSet()
	count := 0
	scanned := 0
	for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
		scanned++
		c := coords[i]
		id := lookup.get(c)
		if id == unassigned {
			if count >= v.params.MaxVoxels {
				rejected.add(c)
				if v.params.Overflow == OverflowStop {
					stats.DroppedVoxelCapacity += retained - scanned + 1
					break
				}
				stats.DroppedVoxelCapacity++
				continue
			}
			id = int32(count)
			count++
			lookup.set(c, id)
			grid.Coordinates[id] = c
		}
		k := int(grid.Counts[id])
		if k >= maxPts {
			stats.DroppedPointCapacity++
			continue
		}
		copy(grid.Voxels[int(id)*stride+k*features:], pc.Point(int(i)))
		grid.Counts[id]++
		stats.StoredPoints++
	}
	stats.RejectedCells = rejected.len()

	grid.Voxels = grid.Voxels[:count*stride]
	grid.Coordinates = grid.Coordinates[:count]
	grid.Counts = grid.Counts[:count]
	grid.Stats = stats

	debugf("points=%d retained=%d voxels=%d stored=%d dropped_voxel=%d dropped_point=%d rejected_cells=%d",
		n, retained, count, stats.StoredPoints, stats.DroppedVoxelCapacity, stats.DroppedPointCapacity, stats.RejectedCells)
	return grid, nil
}

// quantize computes the reversed voxel index of every point and marks the
// points whose index lies inside the grid on all three axes.
func (v *Voxelizer[T]) quantize(pc PointCloud[T]) ([]Coord, *bitset.BitSet) {
	n := pc.Len()
	coords := make([]Coord, n)
	mask := bitset.New(uint(n))
	lo := v.params.GridRange
	size := v.params.VoxelSize

	for i := 0; i < n; i++ {
		p := pc.Data[i*pc.Features : i*pc.Features+3]
		var c Coord
		in := true
		for a := 0; a < 3; a++ {
			f := math.Floor((float64(p[a]) - lo[a]) / size[a])
			// NaN fails both comparisons and is filtered here.
			if !(f >= 0 && f < float64(v.shape[a])) {
				in = false
				break
			}
			c[2-a] = int32(f)
		}
		if in {
			coords[i] = c
			mask.Set(uint(i))
		}
	}
	return coords, mask
}

// newCellSet returns a bitmap keyed by cell number, or a map when the grid
// is too wide for cell numbers to stay distinct.
func (v *Voxelizer[T]) newCellSet() cellSet {
	if v.wide {
		return make(mapCells)
	}
	return &bitmapCells{bm: roaring64.New(), sy: uint64(v.shape[1]), sx: uint64(v.shape[0])}
}
