package thttp

import (
	"net/http"

	"github.com/gorilla/handlers"
)

var (
	allowedMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
		http.MethodPut,
		http.MethodDelete,
		http.MethodPatch,
	}
	allowedHeaders = []string{
		"Authorization",
		"Cache-Control",
		"Content-Type",
		"DNT",
		"If-Modified-Since",
		"Range",
		"User-Agent",
		"X-Requested-With",
		RequestIDHeader,
	}
	exposedHeaders = []string{
		"Content-Length",
		"Content-Range",
		RequestIDHeader,
	}
)

// CORSWithOrigins is a middleware that allows cross-origin requests from the
// given origins. "*" allows any origin.
func CORSWithOrigins(origins []string) Middleware {
	return handlers.CORS(
		handlers.AllowedMethods(allowedMethods),
		handlers.AllowedHeaders(allowedHeaders),
		handlers.ExposedHeaders(exposedHeaders),
		handlers.AllowedOrigins(origins),
	)
}

// CORS is a middleware that allows cross-origin requests from any origin
var CORS = CORSWithOrigins([]string{"*"})
