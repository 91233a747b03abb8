// Package square squares integer sequences sequentially, on a worker pool
// with one task per element, and in contiguous chunks.
package square

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/initlevel5/squarebench/internal/workerpool"
)

func Square(x int64) int64 {
	return x * x
}

// Numbers returns 1 .. n-1.
func Numbers(n int) []int64 {
	if n <= 1 {
		return []int64{}
	}

	out := make([]int64, n-1)
	for i := range out {
		out[i] = int64(i + 1)
	}

	return out
}

func Sequential(in []int64) []int64 {
	out := make([]int64, len(in))
	for i, x := range in {
		out[i] = Square(x)
	}

	return out
}

// Threaded dispatches one pool task per element. workers <= 0 selects
// workerpool.DefaultNumWorkers.
func Threaded(ctx context.Context, in []int64, workers int, opts ...workerpool.Option) ([]int64, error) {
	return workerpool.Map(ctx, workers, in, Square, opts...)
}

// Chunked splits in into one contiguous chunk per worker.
func Chunked(ctx context.Context, in []int64, workers int) ([]int64, error) {
	if workers <= 0 {
		workers = workerpool.DefaultNumWorkers()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]int64, len(in))
	if len(in) == 0 {
		return out, nil
	}

	chunk := (len(in) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for lo := 0; lo < len(in); lo += chunk {
		lo := lo
		hi := min(lo+chunk, len(in))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				out[i] = Square(in[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
