package workerpool

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Map applies f to every element of in on a pool of numWorkers and returns
// the results in input order. The pool lives for the duration of the call
// and all of its workers have exited when Map returns.
func Map[T, R any](ctx context.Context, numWorkers int, in []T, f func(T) R, opts ...Option) ([]R, error) {
	var err error

	out := make([]R, len(in))

	pool := New(numWorkers, queueLenDefault, opts...)
	pool.Run(ctx)

	apply := func(_ context.Context, id int, data any) error {
		v, ok := data.(T)
		if !ok {
			return fmt.Errorf("task %d: unexpected payload %T", id, data)
		}
		out[id] = f(v)
		return nil
	}

	for i := range in {
		if err = pool.AddTask(NewTask(ctx, i, in[i], apply)); err != nil {
			break
		}
	}

	pool.Stop()

	err = multierr.Append(err, pool.Wait())

	// Workers drop queued tasks once ctx ends, so out may be partial.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}
