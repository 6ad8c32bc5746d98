package thttp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// scheme honors X-Forwarded-Proto set by a reverse proxy
func scheme(r *http.Request) (string, error) {
	switch p := r.Header.Get("X-Forwarded-Proto"); p {
	case "http", "https":
		return p, nil
	case "":
		if r.TLS != nil {
			return "https", nil
		}
		return "http", nil
	default:
		return "", fmt.Errorf("unexpected X-Forwarded-Proto %q", p)
	}
}

// Origin returns the origin of HTTP request, e.g. "https://example.com"
func Origin(r *http.Request) (string, error) {
	s, err := scheme(r)
	if err != nil {
		return "", err
	}
	if r.Host == "" {
		return "", errors.New("missing Host header")
	}
	return s + "://" + r.Host, nil
}

// AbsoluteURL resolves path against the origin of the request, as needed for
// a Location header
func AbsoluteURL(r *http.Request, path string) (string, error) {
	origin, err := Origin(r)
	if err != nil {
		return "", err
	}
	return origin + "/" + strings.TrimPrefix(path, "/"), nil
}
