package flowroute

import (
	"context"
	"fmt"
	"time"

	"github.com/ridge/flowroute/retry"
	"github.com/ridge/parallel"
)

// All runs steps concurrently on the same input and returns their outputs in
// order. The first failure cancels the others and is returned.
func All(steps ...Step) Step {
	steps = append([]Step(nil), steps...)
	return func(ctx context.Context, in any) (any, error) {
		out := make([]any, len(steps))
		err := parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
			for i, step := range steps {
				spawn(fmt.Sprintf("step%d", i), parallel.Continue, func(ctx context.Context) error {
					v, err := invoke(ctx, step, in)
					if err != nil {
						return err
					}
					out[i] = v
					return nil
				})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Timeout fails with context.DeadlineExceeded if step does not finish within
// d. The step's context is canceled at that point.
func Timeout(d time.Duration, step Step) Step {
	return func(ctx context.Context, in any) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type result struct {
			v   any
			err error
		}
		done := make(chan result, 1)
		go func() {
			v, err := invoke(ctx, step, in)
			done <- result{v: v, err: err}
		}()

		select {
		case r := <-done:
			return r.v, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Retry reruns step while it fails with an error marked retry.Retriable
func Retry(c retry.Config, step Step) Step {
	return func(ctx context.Context, in any) (any, error) {
		var out any
		err := retry.Do(ctx, c, func(ctx context.Context) error {
			v, err := invoke(ctx, step, in)
			if err != nil {
				return err
			}
			out = v
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}
