// Package monitoring exposes prometheus metrics. Every failure the service
// absorbs (upstream outages, per-candidate persist errors, failed sync
// locations) is counted here so silent degradation stays observable.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests.",
	}, []string{"path"})

	// UpstreamFailures counts places-directory calls that failed and were
	// degraded to an empty result set.
	UpstreamFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "places_upstream_failures_total",
		Help: "Total number of swallowed upstream places API failures.",
	})

	// BackfillRuns counts searches whose local result count fell below the
	// threshold and triggered a gateway backfill.
	BackfillRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_backfill_runs_total",
		Help: "Total number of search backfills triggered.",
	})

	// CandidatePersistFailures counts backfill candidates that could not be
	// persisted and were skipped.
	CandidatePersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_candidate_persist_failures_total",
		Help: "Total number of backfill candidates dropped on persist error.",
	})

	// SyncLocationFailures counts locations excluded from a sync report.
	SyncLocationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_location_failures_total",
		Help: "Total number of sync locations that failed entirely.",
	})

	// RestaurantsCreated / RestaurantsUpdated track ingestion volume.
	RestaurantsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurants_created_total",
		Help: "Total number of restaurants created from upstream data.",
	})
	RestaurantsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurants_updated_total",
		Help: "Total number of restaurants updated from upstream data.",
	})
)

// Middleware records request counts and durations per path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(sw.status)).Inc()
		httpDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
