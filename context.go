package flowroute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ridge/flowroute/thttp"
	"github.com/ridge/flowroute/tlog"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

// Section names a part of the request that can be validated
type Section string

// Request sections
const (
	SectionParams Section = "params"
	SectionQuery  Section = "query"
	SectionBody   Section = "body"
)

// ErrBodyTooLarge is returned by Context.Body when the request body exceeds
// the size limit
var ErrBodyTooLarge = errors.New("request body too large")

// Context is the per-request state shared by all links of a chain: the
// request, the response writer, route parameters, the decoded body and values
// stored by earlier links.
//
// Context is not safe for concurrent use except for Set and Get.
type Context struct {
	Request *http.Request
	Writer  http.ResponseWriter

	params map[string]string

	mu     sync.Mutex
	values map[string]any

	bodyOnce sync.Once
	body     any
	bodyErr  error

	status  int
	written bool
}

// NewContext creates a Context for the request. params are route parameters
// extracted by the routing table.
func NewContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	if params == nil {
		params = map[string]string{}
	}
	c := &Context{
		Request: r,
		params:  params,
		values:  map[string]any{},
	}
	c.Writer = thttp.CaptureStatus(w, &c.status)
	return c
}

// Context returns the request context
func (c *Context) Context() context.Context {
	return c.Request.Context()
}

// Logger returns the logger of the request context
func (c *Context) Logger() *zap.Logger {
	return tlog.Get(c.Context())
}

// Params returns the route parameters
func (c *Context) Params() map[string]string {
	return c.params
}

// Param returns a single route parameter, or "" if absent
func (c *Context) Param(name string) string {
	return c.params[name]
}

// Query returns the parsed query string
func (c *Context) Query() url.Values {
	return c.Request.URL.Query()
}

// Header returns the request headers
func (c *Context) Header() http.Header {
	return c.Request.Header
}

// Body returns the request body decoded from JSON. The body is read on first
// use. Requests without a JSON content type have a nil body.
func (c *Context) Body() (any, error) {
	c.bodyOnce.Do(func() {
		c.body, c.bodyErr = decodeBody(c.Request)
	})
	return c.body, c.bodyErr
}

// SetBody replaces the request body as seen by later links
func (c *Context) SetBody(body any) {
	c.bodyOnce.Do(func() {})
	c.body = body
	c.bodyErr = nil
}

func decodeBody(r *http.Request) (any, error) {
	if r.Body == nil || r.Body == http.NoBody || !isJSON(r.Header.Get("Content-Type")) {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) > maxBodySize {
		return nil, ErrBodyTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return body, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Set stores a value under key for later links
func (c *Context) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = v
}

// Get returns a value stored with Set
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// MustGet is like Get but panics if the key was never set
func (c *Context) MustGet(key string) any {
	v, ok := c.Get(key)
	if !ok {
		panic(fmt.Errorf("context value %q is not set", key))
	}
	return v
}

// requestRoots are the keys Lookup resolves against the request itself
var requestRoots = map[string]bool{
	"body":    true,
	"params":  true,
	"query":   true,
	"headers": true,
	"method":  true,
	"path":    true,
}

// Lookup resolves the first segment of a path against the request. Stored
// values take precedence, followed by "body", "params", "query", "headers",
// "method" and "path".
func (c *Context) Lookup(key string) (any, bool) {
	if v, ok := c.Get(key); ok {
		return v, true
	}
	switch key {
	case "body":
		body, err := c.Body()
		if err != nil {
			return nil, false
		}
		return body, true
	case "params":
		return stringMap(c.params), true
	case "query":
		return flatten(c.Query()), true
	case "headers":
		return flatten(url.Values(c.Request.Header)), true
	case "method":
		return c.Request.Method, true
	case "path":
		return c.Request.URL.Path, true
	}
	return nil, false
}

// Fields returns a request section as a record
func (c *Context) Fields(s Section) (map[string]any, error) {
	switch s {
	case SectionParams:
		return stringMap(c.params), nil
	case SectionQuery:
		return flatten(c.Query()), nil
	case SectionBody:
		body, err := c.Body()
		if err != nil {
			return nil, err
		}
		if body == nil {
			return map[string]any{}, nil
		}
		m, ok := body.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("request body is not a JSON object")
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown request section %q", s)
}

func stringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// flatten turns single-valued entries into plain strings
func flatten(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[k] = list
	}
	return out
}

// Send writes the response. Strings are sent as text, byte slices as binary
// data, nil as an empty body and everything else as JSON. Only the first call
// has effect.
func (c *Context) Send(status int, v any) {
	if c.written {
		c.Logger().Warn("Response already sent", zap.Int("status", status))
		return
	}
	c.written = true

	if t, ok := v.(Tagged); ok {
		v = t.data
	}

	var data []byte
	switch v := v.(type) {
	case nil:
	case string:
		c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		data = []byte(v)
	case []byte:
		c.Writer.Header().Set("Content-Type", "application/octet-stream")
		data = v
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			c.Logger().Error("Failed to encode response", zap.Error(err))
			status = http.StatusInternalServerError
			c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
			data = []byte(err.Error())
			break
		}
		c.Writer.Header().Set("Content-Type", "application/json")
	}

	c.Writer.WriteHeader(status)
	if len(data) > 0 {
		if _, err := c.Writer.Write(data); err != nil {
			c.Logger().Debug("Failed to write response", zap.Error(err))
		}
	}
}

// Written reports whether a response has been sent
func (c *Context) Written() bool {
	return c.written || c.status != 0
}

// Status returns the status code of the response sent so far, or 0
func (c *Context) Status() int {
	return c.status
}
