package voxel

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// unassigned marks a cell with no slot yet.
const unassigned int32 = -1

// slotLookup maps a voxel index to its slot id, or unassigned.
type slotLookup interface {
	get(c Coord) int32
	set(c Coord, id int32)
}

// denseLookup is a flat [iz][iy][ix] table covering the whole grid.
type denseLookup struct {
	table  []int32
	sy, sx int
}

func (d *denseLookup) offset(c Coord) int {
	return (int(c[0])*d.sy+int(c[1]))*d.sx + int(c[2])
}

func (d *denseLookup) get(c Coord) int32     { return d.table[d.offset(c)] }
func (d *denseLookup) set(c Coord, id int32) { d.table[d.offset(c)] = id }

// sparseLookup only stores occupied cells.
type sparseLookup map[Coord]int32

func (s sparseLookup) get(c Coord) int32 {
	if id, ok := s[c]; ok {
		return id
	}
	return unassigned
}

func (s sparseLookup) set(c Coord, id int32) { s[c] = id }

// tablePool reuses dense lookup tables between calls with the same grid.
// Tables are refilled with unassigned on every checkout, so reuse never
// leaks slot ids across calls.
type tablePool struct {
	size int
	pool sync.Pool
}

func newTablePool(size int) *tablePool {
	tp := &tablePool{size: size}
	tp.pool.New = func() interface{} {
		t := make([]int32, size)
		return &t
	}
	return tp
}

// get returns a table of tp.size entries, all set to unassigned.
func (tp *tablePool) get() *[]int32 {
	t := tp.pool.Get().(*[]int32)
	if len(*t) != tp.size {
		// Foreign or resized slice, allocate fresh
		s := make([]int32, tp.size)
		t = &s
	}
	table := *t
	for i := range table {
		table[i] = unassigned
	}
	return t
}

// put hands a table back. Oversized tables are left to the GC.
func (tp *tablePool) put(t *[]int32) {
	if t == nil || len(*t) != tp.size || tp.size > maxPooledTable {
		return
	}
	tp.pool.Put(t)
}

// maxPooledTable caps pooled tables at 64 MiB to avoid pinning huge grids.
const maxPooledTable = 1 << 24

// cellSet counts distinct cells.
type cellSet interface {
	add(c Coord)
	len() uint64
}

// bitmapCells stores row-major cell numbers. Only valid while the grid
// volume fits in a uint64.
type bitmapCells struct {
	bm     *roaring64.Bitmap
	sy, sx uint64
}

func (b *bitmapCells) add(c Coord) {
	b.bm.Add((uint64(c[0])*b.sy+uint64(c[1]))*b.sx + uint64(c[2]))
}

func (b *bitmapCells) len() uint64 { return b.bm.GetCardinality() }

type mapCells map[Coord]struct{}

func (m mapCells) add(c Coord)  { m[c] = struct{}{} }
func (m mapCells) len() uint64 { return uint64(len(m)) }
