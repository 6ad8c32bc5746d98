package thttp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMissingAuthToken is returned by BearerToken if there is no Authorization
// header
var ErrMissingAuthToken = errors.New("missing authentication token")

// ErrMalformedAuthHeader is returned by BearerToken if the Authorization
// header is not of the form "Bearer <token>"
type ErrMalformedAuthHeader struct {
	header string
}

func (e ErrMalformedAuthHeader) Error() string {
	return fmt.Sprintf("malformed authentication header: %q", e.header)
}

// BearerToken extracts a bearer token from the Authorization header. The
// scheme name is case-insensitive.
func BearerToken(header http.Header) (string, error) {
	h := header.Get("Authorization")
	if h == "" {
		return "", ErrMissingAuthToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrMalformedAuthHeader{h}
	}
	return token, nil
}
