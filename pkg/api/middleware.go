package api

import (
	"net/http"
	"time"

	"github.com/vctlabs/vct/pkg/logging"
)

// CorrelationIDHeader carries the correlation ID on requests and responses.
const CorrelationIDHeader = "X-Correlation-ID"

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// correlationMiddleware tags every request with a correlation ID. An inbound
// X-Correlation-ID is honored so callers can trace across services; otherwise
// a fresh one is generated. The ID is echoed on the response and placed in
// the request context for the logging layer.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = logging.NewCorrelationID()
		}
		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
	})
}

// metricsMiddleware records request counts per endpoint. Latency is only
// observed for the command endpoint; probes and metric scrapes would drown
// the histogram otherwise.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.metricsRegistry.RecordAPIRequest(r.URL.Path, r.Method, rec.status)
		if r.URL.Path == actPath {
			s.metricsRegistry.ObserveCommandLatency(r.URL.Path, time.Since(start))
		}
	})
}
