package flowroute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Karma int
	age   int
}

type post struct {
	Title  string   `json:"title"`
	Author *author  `json:"author"`
	Tags   []string `json:"tags"`
}

func TestPathMaps(t *testing.T) {
	src := map[string]any{
		"a": map[string]any{"b": "one"},
		"b": []any{map[string]any{"a": "two"}, 2},
		"c": "tree",
	}

	v, ok := ParsePath("a.b").Extract(src)
	require.True(t, ok)
	assert.Equal(t, "one", v)

	v, ok = Get(Path{"b", "0", "a"}, src)
	require.True(t, ok)
	assert.Equal(t, "two", v)

	v, ok = Get(P("b.1"), src)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = Get(P(""), src)
	require.True(t, ok)
	assert.Equal(t, src, v)
}

func TestPathAbsent(t *testing.T) {
	src := map[string]any{
		"a": map[string]any{"b": "one"},
		"b": []any{1},
		"n": nil,
	}

	for _, p := range []string{"x", "a.x", "a.b.c", "b.1", "b.-1", "b.x", "n.x"} {
		v, ok := Get(P(p), src)
		assert.False(t, ok, p)
		assert.Nil(t, v, p)
	}

	_, ok := Get(P("a"), nil)
	assert.False(t, ok)

	var ctx *Context
	_, ok = Get(P("body"), ctx)
	assert.False(t, ok)
}

func TestPathPresentNil(t *testing.T) {
	v, ok := Get(P("n"), map[string]any{"n": nil})
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestPathReflection(t *testing.T) {
	src := &post{
		Title:  "hello",
		Author: &author{Name: "ann", Karma: 7, age: 30},
		Tags:   []string{"go", "http"},
	}

	v, ok := Get(P("title"), src)
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	v, ok = Get(P("Title"), src)
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	v, ok = Get(P("author.name"), src)
	require.True(t, ok)
	assert.Equal(t, "ann", v)

	v, ok = Get(P("author.Karma"), src)
	require.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = Get(P("author.email"), src)
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = Get(P("author.age"), src)
	assert.False(t, ok)

	v, ok = Get(P("tags.1"), src)
	require.True(t, ok)
	assert.Equal(t, "http", v)

	_, ok = Get(P("tags.2"), src)
	assert.False(t, ok)

	_, ok = Get(P("author.name"), &post{})
	assert.False(t, ok)

	v, ok = Get(P("b"), map[string]int{"a": 1, "b": 2})
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = Get(P("1"), [2]string{"x", "y"})
	require.True(t, ok)
	assert.Equal(t, "y", v)

	_, ok = Get(P("1"), map[int]string{1: "x"})
	assert.False(t, ok)
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, Path{"a", "b", "0"}, ParsePath("a.b.0"))
	assert.Equal(t, Path{}, ParsePath(""))
	assert.Equal(t, "a.b.0", Path{"a", "b", "0"}.String())
}
