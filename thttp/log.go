package thttp

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ridge/flowroute/tlog"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID. An incoming value is reused,
// otherwise a new one is generated. The ID is echoed in the response.
const RequestIDHeader = "X-Request-ID"

// Log is a middleware that logs before and after handling of each request.
// Does not include logging of request and response bodies, see LogBodies.
//
// Every request gets a request ID, added to the logger in the request
// context.
func Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := tlog.With(r.Context(),
			zap.String("requestID", requestID),
			zap.String("method", r.Method),
			zap.String("hostname", r.Host),
			zap.String("url", r.URL.String()),
		)
		logger := tlog.Get(ctx)
		logger.Debug("HTTP request handling started")

		var status int
		next.ServeHTTP(CaptureStatus(w, &status), r.WithContext(ctx))
		logger.Debug("HTTP request handling ended", zap.Int("statusCode", status), zap.Duration("elapsed", time.Since(started)))
	})
}
