package example

import (
	"context"
	"errors"
	"net/http"

	"github.com/ridge/flowroute"
	"github.com/ridge/flowroute/thttp"
)

// userKey is where Authenticate stores the user name
const userKey = "user"

// ErrUnauthorized wraps authentication failures
var ErrUnauthorized = errors.New("unauthorized")

type authError struct {
	err error
}

func (e authError) Error() string {
	return ErrUnauthorized.Error() + ": " + e.err.Error()
}

func (e authError) Is(target error) bool {
	return target == ErrUnauthorized
}

func (e authError) Unwrap() error {
	return e.err
}

// Authenticate is a middleware that resolves the bearer token of the request
// into a user name, stored under "user"
func Authenticate(tokens map[string]string) flowroute.Handler {
	return flowroute.Inject(flowroute.Injection{
		Getter: func(c *flowroute.Context) any { return c.Header() },
		Handler: flowroute.Typed(func(_ context.Context, h http.Header) (string, error) {
			token, err := thttp.BearerToken(h)
			if err != nil {
				return "", authError{err}
			}
			user, ok := tokens[token]
			if !ok {
				return "", authError{errors.New("unknown token")}
			}
			return user, nil
		}),
		Target: userKey,
	})
}

// renderAuthErrors turns authentication failures into 401 responses
func renderAuthErrors(c *flowroute.Context, err error) error {
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}
	c.Writer.Header().Set("WWW-Authenticate", `Bearer realm="flowdemo"`)
	c.Send(http.StatusUnauthorized, map[string]any{
		"statusCode": http.StatusUnauthorized,
		"error":      http.StatusText(http.StatusUnauthorized),
		"message":    err.Error(),
	})
	return nil
}
