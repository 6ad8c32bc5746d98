package flowroute

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/ridge/parallel"
	"go.uber.org/zap"
)

// Table is a routing table: the host framework's registration surface
type Table interface {
	// Register adds a route. Paths use ":name" placeholders for route
	// parameters.
	Register(method, path string, chain ...Link)

	// InstallErrorHandler adds an error handler that runs after the chain of
	// any route when an error is left unhandled
	InstallErrorHandler(h ErrorHandler)
}

// MuxTable is a Table on top of a gorilla/mux router
type MuxTable struct {
	router *mux.Router

	mu            sync.RWMutex
	errorHandlers Chain
	installed     map[string]bool
}

// NewMuxTable creates a MuxTable. If router is nil, a new one is created.
func NewMuxTable(router *mux.Router) *MuxTable {
	if router == nil {
		router = mux.NewRouter()
	}
	return &MuxTable{router: router}
}

// Router returns the underlying router
func (t *MuxTable) Router() *mux.Router {
	return t.router
}

// Register implements Table
func (t *MuxTable) Register(method, path string, chain ...Link) {
	t.router.Path(muxPath(path)).Methods(method).Handler(t.handler(append(Chain(nil), chain...)))
}

// InstallErrorHandler implements Table
func (t *MuxTable) InstallErrorHandler(h ErrorHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorHandlers = append(t.errorHandlers, h)
}

// installErrorHandlerOnce installs h unless a handler was already installed
// under key
func (t *MuxTable) installErrorHandlerOnce(key string, h ErrorHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.installed[key] {
		return
	}
	if t.installed == nil {
		t.installed = map[string]bool{}
	}
	t.installed[key] = true
	t.errorHandlers = append(t.errorHandlers, h)
}

// onceInstaller is implemented by tables that remember installed handlers
type onceInstaller interface {
	installErrorHandlerOnce(key string, h ErrorHandler)
}

// ServeHTTP implements http.Handler
func (t *MuxTable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.router.ServeHTTP(w, r)
}

func (t *MuxTable) handler(chain Chain) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := NewContext(w, r, mux.Vars(r))
		err := chain.Run(c)
		if err != nil && !c.Written() {
			t.mu.RLock()
			errorHandlers := t.errorHandlers
			t.mu.RUnlock()
			err = errorHandlers.run(c, err)
		}
		if c.Written() {
			return
		}
		if err == nil {
			c.Send(http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
			return
		}

		logFailure(c.Logger(), "Panic in handler chain", "Unhandled error", err)
		c.Send(http.StatusInternalServerError, err.Error())
	})
}

// logFailure logs a panic at Error with its stack and any other failure at
// Info
func logFailure(logger *zap.Logger, panicMsg, msg string, err error) {
	var errPanic parallel.ErrPanic
	if errors.As(err, &errPanic) {
		logger.Error(panicMsg, zap.Error(err), zap.ByteString("stack", errPanic.Stack))
		return
	}
	logger.Info(msg, zap.Error(err))
}

// muxPath converts "/users/:id" into "/users/{id}"
func muxPath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if name, ok := strings.CutPrefix(seg, ":"); ok && name != "" {
			segments[i] = "{" + name + "}"
		}
	}
	return strings.Join(segments, "/")
}
