package flowroute

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ridge/flowroute/thttp"
)

// App bundles a routing table, a validator and a registrar
type App struct {
	table     *MuxTable
	registrar *Registrar
}

// Option configures an App
type Option func(a *appConfig)

type appConfig struct {
	router    *mux.Router
	validator Validator
}

// WithValidator sets the validator used for route validation schemas
func WithValidator(v Validator) Option {
	return func(a *appConfig) {
		a.validator = v
	}
}

// WithRouter makes the App register routes on an existing router
func WithRouter(router *mux.Router) Option {
	return func(a *appConfig) {
		a.router = router
	}
}

// New creates an App
func New(opts ...Option) *App {
	var cfg appConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	table := NewMuxTable(cfg.router)
	return &App{
		table:     table,
		registrar: NewRegistrar(table, cfg.validator),
	}
}

// AddRoutes registers routes and makes sure the validation error handler is
// installed
func (a *App) AddRoutes(routes ...Route) error {
	if err := a.registrar.Register(routes...); err != nil {
		return err
	}
	a.registrar.InstallValidationErrors()
	return nil
}

// Table returns the routing table
func (a *App) Table() *MuxTable {
	return a.table
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.table.ServeHTTP(w, r)
}

// Run serves the app on the listener until ctx is closed.
//
// Requests are logged and panics recovered by thttp.Log and thttp.Recover,
// then pass through mw. Without mw, thttp.CORS is installed, which makes it
// equivalent to thttp.StandardMiddleware.
func (a *App) Run(ctx context.Context, listener net.Listener, mw ...thttp.Middleware) error {
	if len(mw) == 0 {
		mw = []thttp.Middleware{thttp.CORS}
	}
	mw = append([]thttp.Middleware{thttp.Log, thttp.Recover}, mw...)
	return thttp.NewServer(listener, thttp.Wrap(a, mw...)).Run(ctx)
}

// NewRouter builds a standalone handler serving the routes, suitable for
// mounting under a prefix of another router
func NewRouter(validator Validator, routes ...Route) (http.Handler, error) {
	table := NewMuxTable(nil)
	if err := RegisterRoutes(table, validator, routes...); err != nil {
		return nil, err
	}
	return table, nil
}
