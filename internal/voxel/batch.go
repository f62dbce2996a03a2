package voxel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// VoxelizeBatch voxelizes independent clouds concurrently with at most limit
// calls in flight (limit <= 0 means unbounded). Results keep input order.
// The first error cancels clouds that have not started yet.
func VoxelizeBatch[T Float](ctx context.Context, v *Voxelizer[T], clouds []PointCloud[T], limit int) ([]*Grid[T], error) {
	out := make([]*Grid[T], len(clouds))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, pc := range clouds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			grid, err := v.Voxelize(pc)
			if err != nil {
				return fmt.Errorf("cloud %d: %w", i, err)
			}
			out[i] = grid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
