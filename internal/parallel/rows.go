// Package parallel splits per-row image work into bands run concurrently.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MinBand is the smallest number of rows handed to a single worker.
const MinBand = 16

// Rows calls fn for consecutive, non-overlapping bands [y0, y1) covering
// [0, height). Bands run concurrently, at most GOMAXPROCS at a time. The
// first error cancels the remaining bands and is returned.
func Rows(ctx context.Context, height int, fn func(y0, y1 int) error) error {
	if height <= 0 {
		return ctx.Err()
	}
	workers := runtime.GOMAXPROCS(0)
	band := (height + workers - 1) / workers
	if band < MinBand {
		band = MinBand
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y0 := 0; y0 < height; y0 += band {
		y1 := min(y0+band, height)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(y0, y1)
		})
	}
	return g.Wait()
}
