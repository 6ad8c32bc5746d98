package flowroute

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ridge/flowroute/test"
	"github.com/ridge/flowroute/thttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func newTestContext(t *testing.T, r *http.Request) (*Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	return NewContext(w, r.WithContext(test.Context(t)), nil), w
}

func TestChainErrorMode(t *testing.T) {
	c, _ := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
	var trace []string

	chain := Chain{
		Handler(func(c *Context) error { trace = append(trace, "h1"); return errors.New("e1") }),
		Handler(func(c *Context) error { trace = append(trace, "skipped"); return nil }),
		ErrorHandler(func(c *Context, err error) error { trace = append(trace, "eh1:"+err.Error()); return nil }),
		ErrorHandler(func(c *Context, err error) error { trace = append(trace, "skipped"); return nil }),
		Handler(func(c *Context) error { trace = append(trace, "h2"); return errors.New("e2") }),
		ErrorHandler(func(c *Context, err error) error { trace = append(trace, "eh2:"+err.Error()); return err }),
	}

	err := chain.Run(c)
	assert.EqualError(t, err, "e2")
	assert.Equal(t, []string{"h1", "eh1:e1", "h2", "eh2:e2"}, trace)
}

func TestChainStopsAfterWrite(t *testing.T) {
	c, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
	var calls int

	err := Chain{
		Handler(func(c *Context) error { c.Send(http.StatusAccepted, "done"); return nil }),
		Handler(func(c *Context) error { calls++; return nil }),
	}.Run(c)
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "done", w.Body.String())
	assert.Equal(t, http.StatusAccepted, c.Status())
}

func TestChainPanic(t *testing.T) {
	c, _ := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))

	err := Chain{Handler(func(c *Context) error { panic(errors.New("oops")) })}.Run(c)
	assert.EqualError(t, err, "panic: oops")
}

func TestMuxTable(t *testing.T) {
	ctx := test.Context(t)
	table := NewMuxTable(nil)
	table.Register(http.MethodGet, "/users/:id/posts/:post", Handler(func(c *Context) error {
		c.Send(http.StatusOK, c.Param("id")+"/"+c.Param("post"))
		return nil
	}))

	res := thttp.TestCtx(ctx, table, httptest.NewRequest(http.MethodGet, "/users/7/posts/9", nil))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "7/9", readBody(t, res))

	res = thttp.TestCtx(ctx, table, httptest.NewRequest(http.MethodPost, "/users/7/posts/9", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	res.Body.Close()
}

func TestMuxTableErrors(t *testing.T) {
	ctx := test.Context(t)
	table := NewMuxTable(nil)
	errHandled := errors.New("handled")

	table.Register(http.MethodGet, "/handled", Handler(func(c *Context) error { return errHandled }))
	table.Register(http.MethodGet, "/unhandled", Handler(func(c *Context) error { return errors.New("unhandled") }))
	table.Register(http.MethodGet, "/silent", Handler(func(c *Context) error { return nil }))
	table.InstallErrorHandler(func(c *Context, err error) error {
		if errors.Is(err, errHandled) {
			c.Send(http.StatusConflict, map[string]string{"error": err.Error()})
			return nil
		}
		return err
	})

	res := thttp.TestCtx(ctx, table, httptest.NewRequest(http.MethodGet, "/handled", nil))
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.JSONEq(t, `{"error":"handled"}`, readBody(t, res))

	res = thttp.TestCtx(ctx, table, httptest.NewRequest(http.MethodGet, "/unhandled", nil))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "unhandled", readBody(t, res))

	res = thttp.TestCtx(ctx, table, httptest.NewRequest(http.MethodGet, "/silent", nil))
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Cannot GET /silent", readBody(t, res))
}

func TestMuxPath(t *testing.T) {
	assert.Equal(t, "/users/{id}/posts", muxPath("/users/:id/posts"))
	assert.Equal(t, "/a/{b}", muxPath("/a/{b}"))
	assert.Equal(t, "/a/:", muxPath("/a/:"))
}

func TestContextBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/?q=1&tag=a&tag=b", strings.NewReader(`{"title":"hello","tags":["go"]}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Header.Set("X-Trace", "abc")
	c, _ := newTestContext(t, r)

	body, err := c.Body()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "hello", "tags": []any{"go"}}, body)

	v, ok := Get(P("body.tags.0"), c)
	require.True(t, ok)
	assert.Equal(t, "go", v)

	v, ok = Get(P("query.q"), c)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = Get(P("query.tag"), c)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, v)

	v, ok = Get(P("headers.X-Trace"), c)
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok = Get(P("method"), c)
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, v)

	c.Set("body", "shadowed")
	v, ok = Get(P("body"), c)
	require.True(t, ok)
	assert.Equal(t, "shadowed", v)

	_, ok = Get(P("nothing"), c)
	assert.False(t, ok)
}

func TestContextBodyInvalid(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	r.Header.Set("Content-Type", "application/json")
	c, _ := newTestContext(t, r)

	_, err := c.Body()
	assert.Error(t, err)
	_, err = c.Fields(SectionBody)
	assert.Error(t, err)

	c.SetBody(map[string]any{"fixed": true})
	fields, err := c.Fields(SectionBody)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fixed": true}, fields)
}

func TestContextBodyNotJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`title=hello`))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c, _ := newTestContext(t, r)

	body, err := c.Body()
	require.NoError(t, err)
	assert.Nil(t, body)

	fields, err := c.Fields(SectionBody)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestContextSend(t *testing.T) {
	c, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
	c.Send(http.StatusCreated, Tagged{data: map[string]int{"id": 1}, status: http.StatusTeapot})
	c.Send(http.StatusOK, "ignored")

	assert.True(t, c.Written())
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":1}`, w.Body.String())

	c, w = newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
	c.Send(http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestContextMustGet(t *testing.T) {
	c, _ := newTestContext(t, httptest.NewRequest(http.MethodGet, "/", nil))
	c.Set("user", "ann")
	assert.Equal(t, "ann", c.MustGet("user"))
	assert.Panics(t, func() { c.MustGet("missing") })
}
