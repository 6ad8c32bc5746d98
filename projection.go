package flowroute

import (
	"context"

	"golang.org/x/exp/maps"
)

// Field describes how one output field of a Projection is obtained from the
// source. Implemented by Path and FieldFunc.
type Field interface {
	Extract(src any) (any, bool)
}

// FieldFunc computes an output field from the whole source
type FieldFunc func(src any) any

// Extract implements Field
func (f FieldFunc) Extract(src any) (any, bool) {
	return f(src), true
}

// Projection maps output field names to the way each field is obtained.
//
//	flowroute.Projection{
//	    "one":  flowroute.P("a.b"),
//	    "two":  flowroute.P("b.0.a"),
//	    "tree": flowroute.FieldFunc(func(src any) any { return src.(Source).C }),
//	}
type Projection map[string]Field

// Project builds a record with exactly the keys of p. Fields whose path is
// absent in src are present with a nil value.
func Project(p Projection, src any) map[string]any {
	out := make(map[string]any, len(p))
	for name, field := range p {
		var v any
		if field != nil {
			v, _ = field.Extract(src)
		}
		out[name] = v
	}
	return out
}

// Projector binds a projection for repeated use on different sources
func Projector(p Projection) func(src any) map[string]any {
	p = maps.Clone(p)
	return func(src any) map[string]any {
		return Project(p, src)
	}
}

// Step returns the projection as a pipeline step
func (p Projection) Step() Step {
	project := Projector(p)
	return func(_ context.Context, in any) (any, error) {
		return project(in), nil
	}
}
