package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// OrderedMap applies fn to every element of in using at most workers
// goroutines and returns the results in input order. The first error cancels
// the derived context and is returned once all started calls have finished.
// A workers value below 1 runs with one worker per element.
func OrderedMap[T any, R any](ctx context.Context, in []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	if len(in) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for idx, val := range in {
		idx, val := idx, val
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, val)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
