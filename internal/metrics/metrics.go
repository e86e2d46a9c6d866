// Package metrics holds the Prometheus collectors for the ingest pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_parsed_total",
			Help: "Data rows read from extracts",
		},
		[]string{"dataset"},
	)

	RowsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_rejected_total",
			Help: "Data rows rejected by validation",
		},
		[]string{"dataset"},
	)

	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_loaded_total",
			Help: "Rows committed to storage",
		},
		[]string{"dataset"},
	)

	RowsSampledOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_sampled_out_total",
			Help: "Rows dropped by category reduction",
		},
		[]string{"dataset"},
	)

	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Multi-row INSERT statements issued",
		},
		[]string{"dataset"},
	)

	BatchReductions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batch_size_reductions_total",
			Help: "Loads whose preferred batch size exceeded the parameter ceiling",
		},
		[]string{"dataset"},
	)

	LoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_loads_total",
			Help: "Import attempts by outcome",
		},
		[]string{"dataset", "status"},
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_load_duration_seconds",
			Help:    "Duration of the transactional load step",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~82s
		},
		[]string{"dataset"},
	)

	ImportsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_imports_in_flight",
			Help: "Imports currently holding a limiter slot",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Middleware records request counts and durations by route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
