package flowroute

import (
	"reflect"
	"strconv"
	"strings"
)

// Lookuper is implemented by nodes that resolve path segments themselves
// instead of being walked by reflection. *Context is one.
type Lookuper interface {
	Lookup(key string) (any, bool)
}

// Path is a sequence of segments leading from a source value to a nested
// value. Numeric segments index slices and arrays.
type Path []string

// ParsePath splits a dot-delimited path such as "a.b.0.c" into segments.
// The empty string is the empty path, which resolves to the source itself.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return strings.Split(s, ".")
}

// P is a shorthand for ParsePath, handy in projection descriptors
func P(s string) Path {
	return ParsePath(s)
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Extract follows the path from src. The second return value is false if any
// segment is missing; this is not an error.
func (p Path) Extract(src any) (any, bool) {
	node := src
	for _, seg := range p {
		next, ok := segment(node, seg)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Get resolves path against src, see Path.Extract
func Get(path Path, src any) (any, bool) {
	return path.Extract(src)
}

func segment(node any, key string) (any, bool) {
	switch n := node.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := n[key]
		return v, ok
	case []any:
		i, ok := index(key, len(n))
		if !ok {
			return nil, false
		}
		return n[i], true
	case Lookuper:
		if v := reflect.ValueOf(n); v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, false
		}
		return n.Lookup(key)
	}
	return reflectSegment(reflect.ValueOf(node), key)
}

func reflectSegment(v reflect.Value, key string) (any, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		kt := v.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		e := v.MapIndex(reflect.ValueOf(key).Convert(kt))
		if !e.IsValid() {
			return nil, false
		}
		return e.Interface(), true
	case reflect.Slice, reflect.Array:
		i, ok := index(key, v.Len())
		if !ok {
			return nil, false
		}
		return v.Index(i).Interface(), true
	case reflect.Struct:
		return structField(v, key)
	default:
		return nil, false
	}
}

// structField matches an exported field by name or by its JSON name
func structField(v reflect.Value, key string) (any, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if f.Name == key || name == key {
			return v.Field(i).Interface(), true
		}
	}
	return nil, false
}

func index(key string, length int) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= length {
		return 0, false
	}
	return i, true
}
