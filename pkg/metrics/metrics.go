// Package metrics holds the Prometheus metrics recorded during a crawl and
// an optional HTTP endpoint exposing them.
//
// Metrics:
//   - roparse_requests_total{status} (Counter): page requests by status class (2xx, 4xx, 5xx, error)
//   - roparse_request_duration_seconds (Histogram): page request latency
//   - roparse_fetch_errors_total{type} (Counter): fetch failures by error type
//   - roparse_pages_total (Counter): pages applied to the result set
//   - roparse_members_processed_total (Counter): member entries seen
//   - roparse_unique_users (Gauge): unique usernames collected by the current run
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every roparse metric. It is separate from the default
// registry so /metrics only exposes crawl metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	requestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "roparse_requests_total",
		Help: "Total group member page requests by status class",
	}, []string{"status"})

	requestDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "roparse_request_duration_seconds",
		Help:    "Group member page request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	fetchErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "roparse_fetch_errors_total",
		Help: "Total fetch failures by error type",
	}, []string{"type"})

	pagesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "roparse_pages_total",
		Help: "Total pages applied to the result set",
	})

	membersProcessedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "roparse_members_processed_total",
		Help: "Total member entries processed",
	})

	uniqueUsers = factory.NewGauge(prometheus.GaugeOpts{
		Name: "roparse_unique_users",
		Help: "Unique usernames collected by the current run",
	})
)

// StatusClass maps an HTTP status code to its metric label. A zero code
// means the request never produced a response.
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// ObserveRequest records one page request
func ObserveRequest(code int, d time.Duration) {
	requestsTotal.WithLabelValues(StatusClass(code)).Inc()
	requestDuration.Observe(d.Seconds())
}

// ObserveFetchError records a fetch failure of the given type
func ObserveFetchError(errType string) {
	if errType == "" {
		errType = "unknown"
	}
	fetchErrorsTotal.WithLabelValues(errType).Inc()
}

// ObservePage records one applied page
func ObservePage(entries, unique int) {
	pagesTotal.Inc()
	membersProcessedTotal.Add(float64(entries))
	uniqueUsers.Set(float64(unique))
}

// ResetRun clears the per-run gauge
func ResetRun() {
	uniqueUsers.Set(0)
}

// Handler returns the HTTP handler exposing all registered metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Server exposes /metrics until its context is cancelled
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server listening on addr
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Serve blocks until ctx is cancelled or the listener fails
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
