package thttp

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ridge/flowroute/tlog"
	"go.uber.org/zap"
)

const maxLoggedBody = 1024

// LogBodies is a middleware that logs request and response bodies at Debug
// level, truncated to maxLoggedBody bytes. Binary bodies are not logged.
//
// Does nothing unless debug logging is enabled.
func LogBodies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := tlog.Get(r.Context())
		if !logger.Core().Enabled(zap.DebugLevel) {
			next.ServeHTTP(w, r)
			return
		}

		if loggable(r.Header) {
			r.Body = newBodyTap(r.Body, func(p []byte, complete bool) {
				logger.Debug("HTTP request body", zap.String("contentType", contentType(r.Header)),
					zap.ByteString("body", p), zap.Bool("complete", complete))
			})
		}

		tw := &tapResponseWriter{ResponseWriter: w}
		next.ServeHTTP(tw, r)
		if loggable(w.Header()) {
			logger.Debug("HTTP response body", zap.String("contentType", contentType(w.Header())), zap.ByteString("body", tw.buf.Bytes()))
		}
	})
}

func contentType(header http.Header) string {
	return strings.TrimSpace(strings.ToLower(header.Get("Content-Type")))
}

func loggable(header http.Header) bool {
	return contentType(header) != "application/octet-stream"
}

// keep appends the beginning of p to buf while buf is below the limit
func keep(buf *bytes.Buffer, p []byte) {
	room := maxLoggedBody - buf.Len()
	if room <= 0 {
		return
	}
	if len(p) > room {
		buf.Write(p[:room])
		buf.WriteString("...")
		return
	}
	buf.Write(p)
}

// bodyTap records what is read from a body and reports it once, on EOF or
// on Close, whichever happens first
type bodyTap struct {
	rc     io.ReadCloser
	buf    bytes.Buffer
	report func(p []byte, complete bool)
}

func newBodyTap(rc io.ReadCloser, report func(p []byte, complete bool)) *bodyTap {
	if rc == nil {
		rc = http.NoBody
	}
	return &bodyTap{rc: rc, report: report}
}

func (t *bodyTap) done(complete bool) {
	if t.report == nil {
		return
	}
	report := t.report
	t.report = nil
	var p []byte
	if t.buf.Len() > 0 {
		p = t.buf.Bytes()
	}
	report(p, complete)
}

func (t *bodyTap) Read(p []byte) (int, error) {
	n, err := t.rc.Read(p)
	keep(&t.buf, p[:n])
	if errors.Is(err, io.EOF) {
		t.done(true)
	}
	return n, err
}

func (t *bodyTap) Close() error {
	t.done(false)
	return t.rc.Close()
}

type tapResponseWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *tapResponseWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	keep(&w.buf, p[:n])
	return n, err
}

func (w *tapResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
