package thttp

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/ridge/flowroute/tlog"
	"github.com/ridge/parallel"
	"go.uber.org/zap"
)

// runTask executes the task in the current goroutine, recovering from panics.
// A panic is returned as ErrPanic.
func runTask(ctx context.Context, task parallel.Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = parallel.ErrPanic{Value: p, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}

// Recover is a middleware that catches panics from HTTP handlers. The client
// gets a bare 500 response.
//
// Under Server, the panic is then reported as the server's error, which shuts
// it down. Elsewhere it is only logged.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := runTask(r.Context(), func(ctx context.Context) error {
			next.ServeHTTP(w, r)
			return nil
		})
		if err == nil {
			return
		}
		w.WriteHeader(http.StatusInternalServerError)

		panics, ok := r.Context().Value(panicKey).(chan error)
		if !ok {
			tlog.Get(r.Context()).Error("Panic in HTTP handler", zap.Error(err))
			return
		}
		select {
		case panics <- err:
		default:
		}
	})
}
