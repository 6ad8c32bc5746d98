package flowroute

import (
	"runtime/debug"

	"github.com/ridge/parallel"
	"go.uber.org/zap"
)

// Link is an element of a handler chain: either a Handler or an
// ErrorHandler
type Link interface {
	link()
}

// Handler processes a request. Returning an error forwards it to the error
// handlers further down the chain; the remaining Handlers are skipped.
type Handler func(c *Context) error

// ErrorHandler processes an error raised earlier in the chain. Returning nil
// marks the error as handled, and the chain resumes with the next Handler.
// Returning an error (usually the same one) passes it on.
type ErrorHandler func(c *Context, err error) error

func (Handler) link()      {}
func (ErrorHandler) link() {}

// Chain is an ordered list of links
type Chain []Link

// Run executes the chain. Once an error is raised only ErrorHandlers run until
// one of them handles it. The chain stops as soon as a response is written.
//
// The returned error is the one left unhandled at the end of the chain.
func (ch Chain) Run(c *Context) error {
	return ch.run(c, nil)
}

// run executes the chain starting in error mode if err is not nil
func (ch Chain) run(c *Context, err error) error {
	for i, l := range ch {
		if c.Written() {
			return err
		}
		switch l := l.(type) {
		case Handler:
			if err != nil {
				continue
			}
			err = protect(func() error { return l(c) })
		case ErrorHandler:
			if err == nil {
				continue
			}
			err = protect(func() error { return l(c, err) })
		}
		if err != nil {
			c.Logger().Debug("Chain link failed", zap.Int("link", i), zap.Error(err))
		}
	}
	return err
}

// protect runs f, converting a panic into parallel.ErrPanic
func protect(f func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = parallel.ErrPanic{Value: p, Stack: debug.Stack()}
		}
	}()
	return f()
}
