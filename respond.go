package flowroute

import "net/http"

// Respond turns a computation over the request into a terminal handler.
//
// The computation receives the *Context. A Tagged result is sent with its
// status, any other result with 200 OK. If the computation fails, the client
// gets 500 with the error message as the body.
//
// The returned handler always writes a response and never passes an error
// down the chain.
func Respond(comp Step) Handler {
	return func(c *Context) error {
		result, err := invoke(c.Context(), comp, c)
		if err != nil {
			logFailure(c.Logger(), "Panic in computation", "Computation failed", err)
			c.Send(http.StatusInternalServerError, err.Error())
			return nil
		}
		if t, ok := result.(Tagged); ok {
			c.Send(t.Status(), t.Data())
			return nil
		}
		c.Send(http.StatusOK, result)
		return nil
	}
}

// Flow composes the steps and responds with the result, see Compose and
// Respond. The first step receives the *Context.
func Flow(steps ...Step) Handler {
	return Respond(Compose(steps...))
}

// Return makes a handler out of a function computing the response from the
// request, see Respond
func Return(f func(c *Context) (any, error)) Handler {
	return Respond(Compute(f))
}
