package httpmetrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AlibekovAA/community-board/internal/observability/metrics"
)

type Collector struct {
	prefix string
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func New(prefix string) *Collector {
	return &Collector{prefix: prefix}
}

func (c *Collector) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		method := r.Method
		path := NormalizePath(r.URL.Path)

		metrics.AuthRequestsTotal.WithLabelValues(method, path).Inc()
		metrics.AuthRequestsInFlight.Inc()
		defer metrics.AuthRequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		statusClass := fmt.Sprintf("%dxx", rec.status/100)
		metrics.AuthRequestDurationSeconds.WithLabelValues(method, path, statusClass).Observe(time.Since(start).Seconds())
	})
}
