package runstore

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"github.com/banshee-data/voxelize/internal/gridcodec"
	"github.com/banshee-data/voxelize/internal/voxel"
)

// SaveGrid records g as a new run together with its compressed payload and
// returns the stored run.
func SaveGrid[T voxel.Float](ctx context.Context, s *Store, source string, g *voxel.Grid[T], elapsed time.Duration) (*Run, error) {
	blob, err := gridcodec.Encode(g)
	if err != nil {
		return nil, err
	}
	var zero T
	r := &Run{
		Source:   source,
		Params:   g.Params,
		Stats:    g.Stats,
		Voxels:   g.Len(),
		Duration: elapsed,
	}
	if err := s.Insert(ctx, r, blob, int(unsafe.Sizeof(zero))); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadGrid decodes the stored grid of run id. Stats are restored from the
// run row since the payload does not carry them.
func LoadGrid[T voxel.Float](ctx context.Context, s *Store, id string) (*voxel.Grid[T], error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	blob, _, err := s.Grid(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := gridcodec.Decode[T](blob)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	g.Params.Lookup = r.Params.Lookup
	g.Params.Overflow = r.Params.Overflow
	g.Stats = r.Stats
	return g, nil
}
