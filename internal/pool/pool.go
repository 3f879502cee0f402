// Package pool runs network tasks on a fixed number of workers.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for every index in [0, n) with at most workers calls in flight.
// Tasks never fail the pool: fn reports its own outcome. Remaining tasks are
// skipped once ctx is done. Run returns after every started task has returned.
func Run(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) error {
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			fn(gctx, i)
			return nil
		})
	}
	g.Wait()
	return ctx.Err()
}
