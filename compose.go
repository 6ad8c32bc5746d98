package flowroute

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ridge/flowroute/tlog"
	"github.com/ridge/parallel"
	"go.uber.org/zap"
)

// Step is a unit of a pipeline: it transforms the previous step's output.
// Blocking steps should honor ctx.
type Step func(ctx context.Context, in any) (any, error)

// Compose chains steps into a single step. Each step receives the output of
// the previous one, the first step receives the pipeline input. The first
// failing step stops the pipeline and its error is returned as is. Composing
// no steps gives the identity.
//
// A started pipeline runs to completion: closing ctx does not skip the
// remaining steps. Steps that block observe ctx themselves; wrap a step with
// Timeout to bound it.
func Compose(steps ...Step) Step {
	steps = append([]Step(nil), steps...)
	return func(ctx context.Context, in any) (any, error) {
		logger := tlog.Get(ctx)
		v := in
		for i, step := range steps {
			started := time.Now()
			out, err := invoke(ctx, step, v)
			logger.Debug("Pipeline step done", zap.Int("step", i), zap.Duration("elapsed", time.Since(started)), zap.Bool("ok", err == nil))
			if err != nil {
				return nil, err
			}
			v = out
		}
		return v, nil
	}
}

// invoke runs a step, converting a panic into parallel.ErrPanic
func invoke(ctx context.Context, step Step, in any) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = parallel.ErrPanic{Value: p, Stack: debug.Stack()}
		}
	}()
	return step(ctx, in)
}

// Pure lifts a function that cannot fail into a Step
func Pure(f func(in any) any) Step {
	return func(_ context.Context, in any) (any, error) {
		return f(in), nil
	}
}

// Func lifts a fallible function into a Step
func Func(f func(in any) (any, error)) Step {
	return func(_ context.Context, in any) (any, error) {
		return f(in)
	}
}

// Typed lifts a typed function into a Step. The step fails if its input is
// not an In.
func Typed[In, Out any](f func(ctx context.Context, in In) (Out, error)) Step {
	return func(ctx context.Context, in any) (any, error) {
		v, ok := in.(In)
		if !ok {
			var zero In
			return nil, fmt.Errorf("unexpected step input: got %T, want %T", in, zero)
		}
		return f(ctx, v)
	}
}

// Compute lifts a function of the request into a Step. Use it as the first
// step of a Flow.
func Compute(f func(c *Context) (any, error)) Step {
	return Typed(func(_ context.Context, c *Context) (any, error) {
		return f(c)
	})
}

// Extract is a Step returning the value at path, or nil if absent
func Extract(path string) Step {
	p := ParsePath(path)
	return func(_ context.Context, in any) (any, error) {
		v, _ := p.Extract(in)
		return v, nil
	}
}
