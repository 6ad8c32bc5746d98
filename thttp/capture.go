package thttp

import "net/http"

// CaptureStatus wraps a http.ResponseWriter to record the response status
// code into *status. A body written without an explicit status records 200.
//
// Flush is passed through. Other optional interfaces such as http.Hijacker
// are reachable with http.ResponseController, which follows Unwrap.
func CaptureStatus(w http.ResponseWriter, status *int) http.ResponseWriter {
	return &captureStatus{ResponseWriter: w, status: status}
}

type captureStatus struct {
	http.ResponseWriter
	status *int
}

func (cs *captureStatus) Write(b []byte) (int, error) {
	if *cs.status == 0 {
		*cs.status = http.StatusOK
	}
	return cs.ResponseWriter.Write(b)
}

func (cs *captureStatus) WriteHeader(statusCode int) {
	if *cs.status == 0 {
		*cs.status = statusCode
	}
	cs.ResponseWriter.WriteHeader(statusCode)
}

func (cs *captureStatus) Flush() {
	if *cs.status == 0 {
		*cs.status = http.StatusOK
	}
	if f, ok := cs.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cs *captureStatus) Unwrap() http.ResponseWriter {
	return cs.ResponseWriter
}
