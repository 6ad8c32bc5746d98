package validate

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ridge/flowroute"
	"github.com/ridge/flowroute/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, target, body string, params map[string]string) *flowroute.Context {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(http.MethodPost, target, nil)
	} else {
		r = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	r = r.WithContext(test.Context(t))
	return flowroute.NewContext(httptest.NewRecorder(), r, params)
}

func TestCompileValid(t *testing.T) {
	check := New().Compile(flowroute.Validation{
		Params: flowroute.Schema{"id": "required,numeric"},
		Query:  flowroute.Schema{"sort": "omitempty,oneof=asc desc"},
		Body: flowroute.Schema{
			"title":  "required,min=3",
			"author": flowroute.Schema{"name": "required"},
		},
	})
	c := newContext(t, "/?sort=asc", `{"title":"Hello","author":{"name":"alice"},"extra":1}`, map[string]string{"id": "42"})
	require.NoError(t, check(c))
}

func TestCompileFailure(t *testing.T) {
	check := New().Compile(flowroute.Validation{
		Params: flowroute.Schema{"id": "required,numeric"},
		Body: flowroute.Schema{
			"title":  "required,min=3",
			"author": flowroute.Schema{"name": "required"},
		},
	})

	err := check(newContext(t, "/", `{"title":"Hello"}`, map[string]string{"id": "x"}))
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, flowroute.SectionParams, verr.Source)
	assert.Equal(t, []string{"id"}, verr.Keys)
	assert.Equal(t, `"id" failed on the "numeric" rule`, verr.Message)

	err = check(newContext(t, "/", `{"title":"Hi","author":{}}`, map[string]string{"id": "1"}))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, flowroute.SectionBody, verr.Source)
	assert.Equal(t, []string{"author.name", "title"}, verr.Keys)
	assert.Equal(t, `"author.name" failed on the "required" rule. "title" failed on the "min" rule with parameter "3"`, verr.Message)
}

func TestCompileBodyNotObject(t *testing.T) {
	check := New().Compile(flowroute.Validation{Body: flowroute.Schema{"title": "required"}})
	err := check(newContext(t, "/", `[1,2]`, nil))
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, flowroute.SectionBody, verr.Source)
	assert.Empty(t, verr.Keys)
}

func TestInvalidRulePanics(t *testing.T) {
	assert.Panics(t, func() {
		New().Compile(flowroute.Validation{Body: flowroute.Schema{"title": 42}})
	})
}

func TestErrorHandler(t *testing.T) {
	w := httptest.NewRecorder()
	c := flowroute.NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(test.Context(t)), nil)

	other := errors.New("other")
	assert.Equal(t, other, ErrorHandler(c, other))
	assert.False(t, c.Written())

	require.NoError(t, ErrorHandler(c, &Error{Source: flowroute.SectionQuery, Keys: []string{"q"}, Message: "bad q"}))
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, map[string]any{
		"statusCode": float64(400),
		"error":      "Bad Request",
		"message":    "bad q",
		"validation": map[string]any{"source": "query", "keys": []any{"q"}},
	}, body)
}
