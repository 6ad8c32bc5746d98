// Package flowroute builds HTTP handlers declaratively out of small
// composable steps.
//
// # Steps and flows
//
// A Step transforms a value, possibly blocking. Compose chains steps into a
// pipeline that stops at the first failure. Flow turns a pipeline into a
// request handler: the first step receives the request *Context, and the
// final value becomes the response.
//
//	flowroute.Flow(
//	    flowroute.Extract("params.id"),
//	    loadPost,
//	    flowroute.SelectStatus(
//	        flowroute.Status(http.StatusNotFound, isNil),
//	        flowroute.Status(http.StatusOK, flowroute.Always),
//	    ),
//	)
//
// A plain result is sent with 200 OK. A result tagged by SelectStatus is sent
// with the selected status. A failure anywhere in the pipeline is sent as 500
// with the error message as the body.
//
// # Paths and projections
//
// Path addresses nested values inside maps, slices, structs and the request
// itself ("body.tags.0", "params.id"). Missing values are reported as absent,
// never as errors. Projection builds a new record out of paths and functions.
//
// # Middleware
//
// Inject runs a step as a middleware and stores its result in the *Context
// under a key for the following links. A failure is passed down the chain to
// error handlers instead of producing a response.
//
// # Routes
//
// Routes are described as data (Route) and installed into a Table by a
// Registrar, which puts the validation handler first, then the route's
// middleware, then its handler. The validator's error handler, turning
// validation failures into 400 responses, is installed once per table.
//
//	app := flowroute.New(flowroute.WithValidator(validate.New()))
//	err := app.AddRoutes(flowroute.Route{
//	    Method: http.MethodPost,
//	    Path:   "/posts",
//	    Validation: &flowroute.Validation{
//	        Body: flowroute.Schema{"title": "required,min=3"},
//	    },
//	    Handler: flowroute.Flow(createPost),
//	})
package flowroute
