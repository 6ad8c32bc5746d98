package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ridge/flowroute/tlog"
	"github.com/ridge/parallel"
	"go.uber.org/zap"
)

// terminationSignals close the context of the top-level task
var terminationSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP}

// waitForSignal returns a task that finishes successfully when one of sigs
// arrives. Spawned with parallel.Exit, it closes the task group.
func waitForSignal(sigs ...os.Signal) parallel.Task {
	return func(ctx context.Context) error {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, sigs...)
		defer signal.Stop(ch)

		select {
		case sig := <-ch:
			tlog.Get(ctx).Info("Received signal, shutting down", zap.Stringer("signal", sig))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
