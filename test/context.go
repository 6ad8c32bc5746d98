package test

import (
	"context"
	"testing"
	"time"

	"github.com/ridge/flowroute/tlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Context returns a new testing context carrying a verbose logger named after
// the test.
//
// Request handling code picks its logger from the context, so handlers
// exercised with thttp.TestCtx(test.Context(t), ...) log the same way they do
// under a running server.
func Context(t *testing.T) context.Context {
	return tlog.WithLogger(context.Background(), tlog.NewForTesting(t))
}

// ContextWithTimeout is a version of Context with a timeout.
//
// If the timeout expires, the test context is closed with
// context.DeadlineExceeded.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(Context(t), timeout)
	t.Cleanup(cancel)
	return ctx
}

// ContextWithLogs returns a testing context whose logger records every entry
// at Debug level and above, for tests asserting on log output
func ContextWithLogs(t *testing.T) (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return tlog.WithLogger(context.Background(), zap.New(core).Named(t.Name())), logs
}
