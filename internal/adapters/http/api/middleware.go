package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/nameswap/pkg/metrics"
)

// MetricsMiddleware counts and times every request under the endpoint label.
// Responses with a 4xx or 5xx status also count as endpoint errors.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		began := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := float64(time.Since(began).Microseconds()) / 1000

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, elapsed)
		if kind, failed := failureKind(rec.status); failed {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
		}
	}
}

// failureKind buckets error statuses into a small label set.
func failureKind(status int) (string, bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", false
	case status >= http.StatusInternalServerError:
		return "server_error", true
	case status == http.StatusNotFound:
		return "not_found", true
	case status == http.StatusForbidden:
		return "forbidden", true
	case status == http.StatusConflict:
		return "conflict", true
	case status == http.StatusUnprocessableEntity:
		return "unprocessable", true
	default:
		return "client_error", true
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
