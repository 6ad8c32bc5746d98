package example

import (
	"context"
	"fmt"

	"github.com/ridge/flowroute"
	"github.com/ridge/flowroute/run"
	"github.com/ridge/flowroute/thttp"
	"github.com/ridge/flowroute/tlog"
	"github.com/ridge/flowroute/tnet"
	"github.com/ridge/flowroute/validate"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// NewApp builds the demo application on top of store
func NewApp(store *Store, cfg Config) (*flowroute.App, error) {
	app := flowroute.New(flowroute.WithValidator(validate.New()))
	if err := app.AddRoutes(Routes(store, cfg)...); err != nil {
		return nil, err
	}
	app.Table().InstallErrorHandler(renderAuthErrors)
	return app, nil
}

// Middleware returns the optional HTTP middleware enabled by cfg
func Middleware(cfg Config) []thttp.Middleware {
	mw := []thttp.Middleware{thttp.CORSWithOrigins(cfg.CORSOrigins)}
	if cfg.LogBodies {
		mw = append(mw, thttp.LogBodies)
	}
	if cfg.Compress {
		mw = append(mw, thttp.Compress)
	}
	return mw
}

// Serve runs the demo server until ctx is closed
func Serve(ctx context.Context, cfg Config) error {
	logger := tlog.Get(ctx)

	store := NewStore()
	if cfg.Seed {
		if err := store.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed the store: %w", err)
		}
	}

	app, err := NewApp(store, cfg)
	if err != nil {
		return err
	}

	listener, err := tnet.Listen(cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	logger.Info("Serving", zap.Stringer("addr", listener.Addr()), zap.Duration("requestTimeout", cfg.RequestTimeout))

	return app.Run(ctx, listener, Middleware(cfg)...)
}

// Main is the entry point of the flowdemo command
func Main(args []string) {
	fs := pflag.NewFlagSet("flowdemo", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to the YAML configuration file")
	addr := fs.String("addr", "", "Listening address, overrides the configuration")
	fs.AddFlagSet(run.Flags())

	run.Server(args, func(ctx context.Context) error {
		if err := fs.Parse(args); err != nil {
			return usageError{err}
		}

		overrides := map[string]any{}
		if *addr != "" {
			overrides["addr"] = *addr
		}
		cfg, err := LoadConfig(*configPath, overrides)
		if err != nil {
			return err
		}
		return Serve(ctx, cfg)
	})
}

type usageError struct {
	error
}

func (usageError) ExitCode() int {
	return 2
}
