package retry

import (
	"context"
	"errors"
	"time"

	"github.com/ridge/flowroute/tlog"
	"go.uber.org/zap"
)

// ErrRetriable means the operation that caused the error should be retried
type ErrRetriable struct {
	err error
}

func (r ErrRetriable) Error() string {
	return r.err.Error()
}

// Unwrap returns the next error in the error chain
func (r ErrRetriable) Unwrap() error {
	return r.err
}

// Retriable marks an error as worth another attempt. Returns nil if err is nil.
func Retriable(err error) error {
	if err == nil {
		return nil
	}
	return ErrRetriable{err: err}
}

// Do calls f until it succeeds, fails with an error not marked with
// Retriable, the delays of c run out or ctx is closed.
//
// When the attempts run out, the last error is returned with the Retriable
// mark removed.
func Do(ctx context.Context, c Config, f func(ctx context.Context) error) error {
	started := time.Now()
	delays := c.Delays()
	var r ErrRetriable
	for attempt := 1; ; attempt++ {
		logger := tlog.Get(ctx).With(zap.Int("attempt", attempt))

		delay, ok := delays()
		if !ok {
			if attempt == 1 {
				panic("retry: delay sequence ended before the first attempt")
			}
			logger.Debug("Giving up", zap.Error(r.err), zap.Duration("elapsed", time.Since(started)))
			return r.err
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}

		err := f(ctx)
		if !errors.As(err, &r) {
			return err
		}
		if ctx.Err() != nil {
			return r.err
		}
		logger.Debug("Will retry", zap.Error(r.err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
