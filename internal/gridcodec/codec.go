// Package gridcodec serialises voxel grids for storage and transfer.
//
// The payload is the VoxelGrid message of voxel_grid.proto, encoded by hand
// with protowire so grids of either float width stream without a copy into
// generated structs. Unknown fields are skipped so older readers tolerate
// additions.
package gridcodec

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/banshee-data/voxelize/internal/voxel"
)

const (
	fieldFeatures  protowire.Number = 1
	fieldMaxPoints protowire.Number = 2
	fieldMaxVoxels protowire.Number = 3
	fieldVoxelSize protowire.Number = 4
	fieldGridRange protowire.Number = 5
	fieldCoords    protowire.Number = 6
	fieldCounts    protowire.Number = 7
	fieldValues32  protowire.Number = 8
	fieldValues64  protowire.Number = 9
)

// ErrCorrupt is returned when a payload decodes but is internally inconsistent.
var ErrCorrupt = errors.New("corrupt voxel grid payload")

func is32[T voxel.Float]() bool {
	var zero T
	return unsafe.Sizeof(zero) == 4
}

// Marshal encodes g. Stats are not part of the payload.
func Marshal[T voxel.Float](g *voxel.Grid[T]) []byte {
	var b []byte
	b = appendVarintField(b, fieldFeatures, uint64(g.Features))
	b = appendVarintField(b, fieldMaxPoints, uint64(g.MaxPointsPerVoxel))
	b = appendVarintField(b, fieldMaxVoxels, uint64(g.Params.MaxVoxels))

	b = appendPackedFloat64(b, fieldVoxelSize, g.Params.VoxelSize[:])
	b = appendPackedFloat64(b, fieldGridRange, g.Params.GridRange[:])

	var packed []byte
	for _, c := range g.Coordinates {
		packed = protowire.AppendVarint(packed, uint64(c[0]))
		packed = protowire.AppendVarint(packed, uint64(c[1]))
		packed = protowire.AppendVarint(packed, uint64(c[2]))
	}
	b = appendBytesField(b, fieldCoords, packed)

	packed = packed[:0]
	for _, n := range g.Counts {
		packed = protowire.AppendVarint(packed, uint64(n))
	}
	b = appendBytesField(b, fieldCounts, packed)

	packed = packed[:0]
	if is32[T]() {
		for _, v := range g.Voxels {
			packed = protowire.AppendFixed32(packed, math.Float32bits(float32(v)))
		}
		b = appendBytesField(b, fieldValues32, packed)
	} else {
		for _, v := range g.Voxels {
			packed = protowire.AppendFixed64(packed, math.Float64bits(float64(v)))
		}
		b = appendBytesField(b, fieldValues64, packed)
	}
	return b
}

// Unmarshal decodes a payload produced by Marshal. Values are converted to T
// whichever precision they were written in.
func Unmarshal[T voxel.Float](b []byte) (*voxel.Grid[T], error) {
	g := &voxel.Grid[T]{}
	var coords, counts []uint64
	var voxelSize, gridRange []float64

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldFeatures && typ == protowire.VarintType,
			num == fieldMaxPoints && typ == protowire.VarintType,
			num == fieldMaxVoxels && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			if v > math.MaxInt32 {
				return nil, fmt.Errorf("%w: field %d = %d", ErrCorrupt, num, v)
			}
			switch num {
			case fieldFeatures:
				g.Features = int(v)
			case fieldMaxPoints:
				g.MaxPointsPerVoxel = int(v)
			case fieldMaxVoxels:
				g.Params.MaxVoxels = int(v)
			}

		case typ == protowire.BytesType && num >= fieldVoxelSize && num <= fieldValues64:
			payload, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			var err error
			switch num {
			case fieldVoxelSize:
				voxelSize, err = consumeFloat64s(payload)
			case fieldGridRange:
				gridRange, err = consumeFloat64s(payload)
			case fieldCoords:
				coords, err = consumeVarints(payload)
			case fieldCounts:
				counts, err = consumeVarints(payload)
			case fieldValues32:
				g.Voxels, err = consumeValues32[T](payload)
			case fieldValues64:
				g.Voxels, err = consumeValues64[T](payload)
			}
			if err != nil {
				return nil, err
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	if len(voxelSize) != 3 || len(gridRange) != 6 {
		return nil, fmt.Errorf("%w: voxel size has %d values, grid range %d", ErrCorrupt, len(voxelSize), len(gridRange))
	}
	copy(g.Params.VoxelSize[:], voxelSize)
	copy(g.Params.GridRange[:], gridRange)
	g.Params.MaxPointsPerVoxel = g.MaxPointsPerVoxel

	if len(coords) != 3*len(counts) {
		return nil, fmt.Errorf("%w: %d coordinate values for %d voxels", ErrCorrupt, len(coords), len(counts))
	}
	if len(counts) > 0 {
		if g.Features < 3 || g.MaxPointsPerVoxel < 1 {
			return nil, fmt.Errorf("%w: %d features, %d points per voxel", ErrCorrupt, g.Features, g.MaxPointsPerVoxel)
		}
		stride := g.MaxPointsPerVoxel * g.Features
		if len(g.Voxels)%stride != 0 || len(g.Voxels)/stride != len(counts) {
			return nil, fmt.Errorf("%w: %d voxel values for %d voxels of %d x %d",
				ErrCorrupt, len(g.Voxels), len(counts), g.MaxPointsPerVoxel, g.Features)
		}
	} else if len(g.Voxels) != 0 {
		return nil, fmt.Errorf("%w: %d voxel values without voxels", ErrCorrupt, len(g.Voxels))
	}
	g.Coordinates = make([]voxel.Coord, len(counts))
	g.Counts = make([]int32, len(counts))
	for i := range counts {
		if counts[i] == 0 || counts[i] > uint64(g.MaxPointsPerVoxel) {
			return nil, fmt.Errorf("%w: voxel %d count %d", ErrCorrupt, i, counts[i])
		}
		g.Counts[i] = int32(counts[i])
		for a := 0; a < 3; a++ {
			v := coords[3*i+a]
			if v > math.MaxInt32 {
				return nil, fmt.Errorf("%w: voxel %d coordinate %d", ErrCorrupt, i, v)
			}
			g.Coordinates[i][a] = int32(v)
		}
	}
	if g.Voxels == nil {
		g.Voxels = []T{}
	}
	return g, nil
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, payload []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

func appendPackedFloat64(b []byte, num protowire.Number, vs []float64) []byte {
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	return appendBytesField(b, num, packed)
}

func consumeVarints(b []byte) ([]uint64, error) {
	var out []uint64
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, v)
		b = b[n:]
	}
	return out, nil
}

func consumeFloat64s(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: packed fixed64 length %d", ErrCorrupt, len(b))
	}
	out := make([]float64, 0, len(b)/8)
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, math.Float64frombits(v))
		b = b[n:]
	}
	return out, nil
}

func consumeValues32[T voxel.Float](b []byte) ([]T, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: packed fixed32 length %d", ErrCorrupt, len(b))
	}
	out := make([]T, 0, len(b)/4)
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, T(math.Float32frombits(v)))
		b = b[n:]
	}
	return out, nil
}

func consumeValues64[T voxel.Float](b []byte) ([]T, error) {
	vs, err := consumeFloat64s(b)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(vs))
	for i, v := range vs {
		out[i] = T(v)
	}
	return out, nil
}
