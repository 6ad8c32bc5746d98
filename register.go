package flowroute

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// RouteHandler is the handler part of a route descriptor: either a Handler,
// used for the descriptor's Method, or Keyed, one Handler per method
type RouteHandler interface {
	routeHandler()
}

// Keyed maps HTTP methods to handlers sharing the same path, validation and
// middleware
type Keyed map[string]Handler

func (Handler) routeHandler() {}
func (Keyed) routeHandler()   {}

// Schema is a set of validation rules for the fields of one request
// section. Values are rule strings or nested Schemas.
type Schema map[string]any

// Validation holds per-section schemas of a route. Nil sections are not
// validated.
type Validation struct {
	Params Schema
	Query  Schema
	Body   Schema
}

// Empty reports whether no section has a schema
func (v Validation) Empty() bool {
	return v.Params == nil && v.Query == nil && v.Body == nil
}

// Validator turns route schemas into request handlers
type Validator interface {
	// Compile returns a handler that fails with a validation error if the
	// request does not satisfy the schemas
	Compile(v Validation) Handler

	// ErrorHandler returns the handler that converts validation errors into
	// client responses and passes other errors through
	ErrorHandler() ErrorHandler
}

// Route is a route descriptor
type Route struct {
	Method     string
	Path       string
	Handler    RouteHandler
	Validation *Validation
	Middleware []Link
}

// RouteError describes an invalid route descriptor
type RouteError struct {
	Index  int
	Method string
	Path   string
	Reason string
}

func (e RouteError) Error() string {
	return fmt.Sprintf("route #%d (%s %q): %s", e.Index, e.Method, e.Path, e.Reason)
}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Registrar installs route descriptors into a Table
type Registrar struct {
	table     Table
	validator Validator

	installOnce sync.Once
}

// NewRegistrar creates a Registrar. validator may be nil if no route carries a
// Validation.
func NewRegistrar(table Table, validator Validator) *Registrar {
	return &Registrar{table: table, validator: validator}
}

type registration struct {
	method string
	path   string
	chain  []Link
}

// Register installs the routes in order. Each route is installed as its
// validation handler (if any), then its middleware, then its handler.
//
// All descriptors are checked before anything is installed: on error the
// table is left untouched. Registering is additive; calling Register again
// adds more routes.
func (r *Registrar) Register(routes ...Route) error {
	var regs []registration
	var errs []error
	for i, route := range routes {
		rs, err := r.prepare(i, route)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		regs = append(regs, rs...)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, reg := range regs {
		r.table.Register(reg.method, reg.path, reg.chain...)
	}
	return nil
}

func (r *Registrar) prepare(i int, route Route) ([]registration, error) {
	fail := func(method, reason string) error {
		return RouteError{Index: i, Method: method, Path: route.Path, Reason: reason}
	}

	if route.Path == "" {
		return nil, fail(route.Method, "missing path")
	}

	var prefix []Link
	if route.Validation != nil && !route.Validation.Empty() {
		if r.validator == nil {
			return nil, fail(route.Method, "route has validation but no validator is configured")
		}
		prefix = append(prefix, r.validator.Compile(*route.Validation))
	}
	for _, mw := range route.Middleware {
		if mw == nil {
			return nil, fail(route.Method, "nil middleware")
		}
	}
	prefix = append(prefix, route.Middleware...)

	chain := func(h Handler) []Link {
		return append(append([]Link(nil), prefix...), h)
	}

	switch h := route.Handler.(type) {
	case Handler:
		method := strings.ToUpper(route.Method)
		if !knownMethods[method] {
			return nil, fail(route.Method, "unknown method")
		}
		if h == nil {
			return nil, fail(route.Method, "missing handler")
		}
		return []registration{{method: method, path: route.Path, chain: chain(h)}}, nil
	case Keyed:
		if len(h) == 0 {
			return nil, fail(route.Method, "empty keyed handler")
		}
		regs := make([]registration, 0, len(h))
		for _, m := range sortedKeys(h) {
			method := strings.ToUpper(m)
			if !knownMethods[method] {
				return nil, fail(m, "unknown method")
			}
			if h[m] == nil {
				return nil, fail(m, "missing handler")
			}
			regs = append(regs, registration{method: method, path: route.Path, chain: chain(h[m])})
		}
		return regs, nil
	default:
		return nil, fail(route.Method, "missing handler")
	}
}

const validationErrorsKey = "validation"

// InstallValidationErrors installs the validator's error handler into the
// table. Only the first call has effect. A MuxTable also remembers the
// installation across Registrars, so RegisterRoutes may be called repeatedly
// on it; other tables should be fed through a single Registrar.
func (r *Registrar) InstallValidationErrors() {
	if r.validator == nil {
		return
	}
	r.installOnce.Do(func() {
		if t, ok := r.table.(onceInstaller); ok {
			t.installErrorHandlerOnce(validationErrorsKey, r.validator.ErrorHandler())
			return
		}
		r.table.InstallErrorHandler(r.validator.ErrorHandler())
	})
}

// RegisterRoutes registers the routes and installs the validation error
// handler, see InstallValidationErrors
func RegisterRoutes(table Table, validator Validator, routes ...Route) error {
	r := NewRegistrar(table, validator)
	if err := r.Register(routes...); err != nil {
		return err
	}
	r.InstallValidationErrors()
	return nil
}

func sortedKeys(h Keyed) []string {
	keys := maps.Keys(h)
	slices.Sort(keys)
	return keys
}
