package gridcodec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/banshee-data/voxelize/internal/voxel"
)

// ZSTD encoder/decoder pools; both are safe to reuse for EncodeAll/DecodeAll.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Compress zstd-compresses an encoded grid.
func Compress(b []byte) ([]byte, error) {
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

// Decompress reverses Compress.
func Decompress(b []byte) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer zstdDecoderPool.Put(dec)
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// Encode marshals and compresses g in one step.
func Encode[T voxel.Float](g *voxel.Grid[T]) ([]byte, error) {
	return Compress(Marshal(g))
}

// Decode decompresses and unmarshals a blob produced by Encode.
func Decode[T voxel.Float](b []byte) (*voxel.Grid[T], error) {
	raw, err := Decompress(b)
	if err != nil {
		return nil, err
	}
	return Unmarshal[T](raw)
}
