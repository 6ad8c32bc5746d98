// Package thttp contains HTTP server utilities and middleware.
//
// # HTTP Server
//
// thttp.Server is controlled with a context passed to its Run method instead
// of the start-and-stop paradigm of http.Server. When the context is closed,
// the server shuts down gracefully: running requests get some time to finish,
// and Run returns once they are done. This fits hierarchies of components
// started and stopped as a whole with parallel.Run.
//
// Every request context is inherited from the context passed to Run, so it
// carries the logger installed there.
//
//	func RunAPI(ctx context.Context, addr string, handler http.Handler) error {
//	    listener, err := tnet.Listen(addr)
//	    if err != nil {
//	        return fmt.Errorf("failed to run API: %w", err)
//	    }
//	    server := thttp.NewServer(listener,
//	        thttp.Wrap(handler, thttp.StandardMiddleware, thttp.Compress))
//	    return server.Run(ctx)
//	}
//
// # Middleware
//
// A middleware takes an http.Handler and returns an http.Handler wrapping it.
// thttp.Wrap applies several middleware so that the first one listed is the
// first to see the request.
//
// It is recommended to include at least thttp.StandardMiddleware, and put it
// first. It is equivalent to thttp.Log, thttp.Recover and thttp.CORS, in this
// order. LogBodies and Compress are opt-in.
//
// # Logging guidelines
//
// For all logging in HTTP handlers, use the logger embedded in the request
// context:
//
//	logger := tlog.Get(r.Context())
//
// This logger contains the fields httpServer (local listening address) and
// remoteAddr. With thttp.Log installed it also has requestID, method,
// hostname and url. Don't log these explicitly, and don't add unconditional
// log messages at the beginning and end of handlers: thttp.Log already logs
// them.
package thttp
