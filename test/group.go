package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ridge/parallel"
	"github.com/stretchr/testify/require"
)

// Group returns a parallel.Group with a testing context, typically used to run
// a thttp.Server for the duration of a test.
//
// When the test finishes the group is told to exit. If it finishes with an
// error other than context.Canceled, the test is failed.
func Group(t *testing.T) *parallel.Group {
	return group(t, Context(t))
}

// GroupWithTimeout is a version of Group with a timeout.
//
// If the timeout expires, the test context is closed with
// context.DeadlineExceeded.
func GroupWithTimeout(t *testing.T, timeout time.Duration) *parallel.Group {
	return group(t, ContextWithTimeout(t, timeout))
}

func group(t *testing.T, ctx context.Context) *parallel.Group {
	g := parallel.NewGroup(ctx)
	t.Cleanup(func() {
		g.Exit(nil)
		if err := g.Wait(); !errors.Is(err, context.Canceled) {
			require.NoError(t, err)
		}
	})
	return g
}
