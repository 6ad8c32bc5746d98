package flowroute

import "fmt"

// Getter selects the input of an injected computation from the request
type Getter func(c *Context) any

// At returns a Getter resolving path against the *Context, e.g. "body.title"
// or "params.id". See Context.Lookup for the available roots.
func At(path string) Getter {
	p := ParsePath(path)
	return func(c *Context) any {
		v, _ := p.Extract(c)
		return v
	}
}

// Injection describes a middleware that computes a value and stores it in
// the request context for later links
type Injection struct {
	// Handler computes the value
	Handler Step

	// Getter selects the input of Handler. Defaults to the *Context itself.
	Getter Getter

	// Target is the key the value is stored under, see Context.Get. It must
	// not be one of the request roots resolved by Context.Lookup ("body",
	// "params", "query", "headers", "method", "path").
	Target string
}

// Inject turns an Injection into a middleware link. On success the value is
// stored under Target and the chain continues. On failure the error is
// passed down the chain to the error handlers; nothing is stored and no
// response is written.
//
// Inject panics if Target is a request root.
func Inject(inj Injection) Handler {
	if requestRoots[inj.Target] {
		panic(fmt.Errorf("injection target %q shadows a request root", inj.Target))
	}
	getter := inj.Getter
	if getter == nil {
		getter = func(c *Context) any { return c }
	}
	return func(c *Context) error {
		out, err := invoke(c.Context(), inj.Handler, getter(c))
		if err != nil {
			return err
		}
		c.Set(inj.Target, out)
		return nil
	}
}
