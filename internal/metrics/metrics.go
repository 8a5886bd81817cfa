// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mintOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storymint",
		Name:      "mint_outcomes_total",
		Help:      "Mint workflow runs by terminal outcome.",
	}, []string{"outcome"})

	uploadSizeBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storymint",
		Name:      "upload_size_bytes",
		Help:      "Size distribution of accepted file uploads.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
	})

	publishDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storymint",
		Name:      "metadata_publish_duration_seconds",
		Help:      "Latency of content-addressed metadata publishes.",
		Buckets:   prometheus.DefBuckets,
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storymint",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})
)

func IncMintOutcome(outcome string) {
	mintOutcomes.WithLabelValues(outcome).Inc()
}

func ObserveUploadSize(sizeBytes int64) {
	uploadSizeBytes.Observe(float64(sizeBytes))
}

func ObservePublishDuration(seconds float64) {
	publishDurationSeconds.Observe(seconds)
}

func IncHTTPRequest(method, path, status string) {
	httpRequests.WithLabelValues(method, path, status).Inc()
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
