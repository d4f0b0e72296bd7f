package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operational counters for the ingest pipeline and the HTTP surface.
var (
	IngestBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adpulse",
		Name:      "ingest_batches_total",
		Help:      "Ingested batches by outcome status.",
	}, []string{"status"})

	IngestRowsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "adpulse",
		Name:      "ingest_rows_accepted_total",
		Help:      "Rows accepted across all batches.",
	})

	IngestRowsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "adpulse",
		Name:      "ingest_rows_rejected_total",
		Help:      "Rows rejected across all batches.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adpulse",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "adpulse",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status for labeling.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request with a counter and latency histogram.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// ObserveIngest records one batch outcome in the pipeline counters.
func ObserveIngest(status string, accepted, rejected int) {
	IngestBatches.WithLabelValues(status).Inc()
	IngestRowsAccepted.Add(float64(accepted))
	IngestRowsRejected.Add(float64(rejected))
}
