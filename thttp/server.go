package thttp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ridge/flowroute/tlog"
	"github.com/ridge/must/v2"
	"github.com/ridge/parallel"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout is how long Server waits for running requests on
// shutdown unless configured otherwise
const DefaultShutdownTimeout = 5 * time.Second

// Server wraps an HTTP server
type Server struct {
	listener        net.Listener
	handler         http.Handler
	shutdownTimeout time.Duration

	running sync.WaitGroup
}

// NewServer creates a Server
func NewServer(listener net.Listener, handler http.Handler) *Server {
	return &Server{
		listener:        listener,
		handler:         handler,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

type panicKeyType int

const panicKey panicKeyType = iota

// Run serves requests until the context is closed, then shuts down
// gracefully, waiting for running requests up to the shutdown timeout.
//
// A panic caught by the Recover middleware terminates Run with the panic as
// the error.
func (s *Server) Run(ctx context.Context) error {
	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		panics := make(chan error, 1)
		ctx = context.WithValue(ctx, panicKey, panics)
		ctx = tlog.With(ctx, zap.Stringer("httpServer", s.listener.Addr()))
		logger := tlog.Get(ctx)

		// Requests outlive ctx by the shutdown timeout
		reqCtx, reqCancel := context.WithCancel(context.WithoutCancel(ctx))

		server := &http.Server{
			Handler:     s.track(s.handler),
			ErrorLog:    must.OK1(zap.NewStdLogAt(logger, zap.WarnLevel)),
			BaseContext: func(net.Listener) context.Context { return reqCtx },
			ConnContext: func(ctx context.Context, conn net.Conn) context.Context {
				return tlog.With(ctx, zap.Stringer("remoteAddr", conn.RemoteAddr()))
			},
		}

		spawn("serve", parallel.Fail, func(ctx context.Context) error {
			logger.Info("Serving requests")
			err := server.Serve(s.listener)
			// ErrServerClosed is the normal outcome of Shutdown
			if errors.Is(err, http.ErrServerClosed) && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		})

		spawn("panics", parallel.Fail, func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-panics:
				return err
			}
		})

		spawn("shutdown", parallel.Fail, func(ctx context.Context) error {
			<-ctx.Done()
			return s.shutdown(ctx, server, reqCtx, reqCancel)
		})

		return nil
	})
}

func (s *Server) shutdown(ctx context.Context, server *http.Server, reqCtx context.Context, reqCancel context.CancelFunc) error {
	logger := tlog.Get(ctx)
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(reqCtx, s.shutdownTimeout)
	defer cancel()
	defer reqCancel()
	defer server.Close()

	// Errors other than the timeout come from closing the listener and are
	// irrelevant at this point
	if err := server.Shutdown(shutdownCtx); err != nil && shutdownCtx.Err() != nil {
		logger.Info("Shutdown timed out", zap.Error(err))
		return err
	}

	// Hijacked connections are not covered by Shutdown
	reqCancel()
	s.running.Wait()

	logger.Info("Shutdown complete")
	return ctx.Err()
}

// ListenAddr returns the local address of the server's listener
func (s *Server) ListenAddr() net.Addr {
	return s.listener.Addr()
}

// track keeps Run from returning while handlers, including those of hijacked
// connections, are still running
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.running.Add(1)
		defer s.running.Done()
		next.ServeHTTP(w, r)
	})
}

// Middleware wraps an http.Handler
type Middleware = func(http.Handler) http.Handler

// Wrap installs a number of middleware on HTTP handler. The first
// middleware listed will be the first one to see the request.
func Wrap(handler http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// StandardMiddleware is a composition of typically used middleware, in the
// recommended order:
//
// 1. Log (log before and after the request, assign a request ID)
// 2. Recover (catch and log panic, then shut down the server)
// 3. CORS (allow cross-origin requests)
func StandardMiddleware(next http.Handler) http.Handler {
	return Log(Recover(CORS(next)))
}
