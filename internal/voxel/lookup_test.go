package voxel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenseLookup_Offset(t *testing.T) {
	d := &denseLookup{table: make([]int32, 2*3*4), sy: 3, sx: 4}
	for i := range d.table {
		d.table[i] = unassigned
	}

	c := Coord{1, 2, 3} // iz=1, iy=2, ix=3
	assert.Equal(t, (1*3+2)*4+3, d.offset(c))
	assert.Equal(t, unassigned, d.get(c))

	d.set(c, 5)
	assert.Equal(t, int32(5), d.get(c))
	assert.Equal(t, unassigned, d.get(Coord{0, 0, 0}))
}

func TestSparseLookup(t *testing.T) {
	s := make(sparseLookup)
	assert.Equal(t, unassigned, s.get(Coord{7, 8, 9}))
	s.set(Coord{7, 8, 9}, 0)
	assert.Equal(t, int32(0), s.get(Coord{7, 8, 9}))
}

func TestTablePool_ResetsOnCheckout(t *testing.T) {
	tp := newTablePool(16)

	tab := tp.get()
	assert.Len(t, *tab, 16)
	for i := range *tab {
		(*tab)[i] = int32(i)
	}
	tp.put(tab)

	again := tp.get()
	for i, v := range *again {
		assert.Equal(t, unassigned, v, "entry %d leaked from previous use", i)
	}
}

func TestTablePool_RejectsForeignSizes(t *testing.T) {
	tp := newTablePool(8)
	wrong := make([]int32, 3)
	tp.put(&wrong)
	tp.put(nil)

	got := tp.get()
	assert.Len(t, *got, 8)
}

func TestVoxelizer_ReusesTablesAcrossCalls(t *testing.T) {
	v, err := New[float64](unitParams(2, 4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	first, err := v.Voxelize(cloud(t, 3, []float64{1, 1, 1}))
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	second, err := v.Voxelize(cloud(t, 3, []float64{5, 5, 5}, []float64{1, 1, 1}))
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}

	assert.Equal(t, []Coord{{1, 1, 1}}, first.Coordinates)
	// Cell (1,1,1) must not keep slot 0 from the previous call.
	assert.Equal(t, []Coord{{5, 5, 5}, {1, 1, 1}}, second.Coordinates)
	assert.Equal(t, []int32{1, 1}, second.Counts)
}

func TestNew_DenseTooLarge(t *testing.T) {
	p := Params{
		VoxelSize:         [3]float64{0.001, 0.001, 0.001},
		GridRange:         [6]float64{0, 0, 0, 10, 10, 10},
		MaxPointsPerVoxel: 1,
		MaxVoxels:         1,
		Lookup:            LookupDense,
	}
	_, err := New[float32](p)
	assert.ErrorIs(t, err, ErrGridTooLarge)

	p.Lookup = LookupAuto
	v, err := New[float32](p)
	assert.NoError(t, err)
	assert.Equal(t, [3]int{10000, 10000, 10000}, v.GridShape())
}
