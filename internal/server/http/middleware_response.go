package http

import "net/http"

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

// Unwrap exposes the underlying ResponseWriter so http.ResponseController
// can reach optional interfaces.
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	if r == nil {
		return nil
	}
	return r.ResponseWriter
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	if n > 0 {
		r.bytes += int64(n)
	}
	return n, err
}

func wrapResponseWriter(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}
