// Package metrics exposes the resolver's Prometheus instrumentation:
// query counters by qtype, answer counters by rcode, upstream error
// counters by stage, and a resolve-duration histogram.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resolverd_queries_total", Help: "Total inbound queries received"},
		[]string{"qtype"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resolverd_answers_total", Help: "Total responses sent, by rcode"},
		[]string{"rcode"},
	)

	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resolverd_upstream_errors_total", Help: "Upstream query failures during iterative resolution"},
		[]string{"stage"},
	)

	ResolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolverd_resolve_duration_seconds",
			Help:    "End-to-end resolve() latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"qtype"},
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal, AnswersTotal, UpstreamErrorsTotal, ResolveDuration)
}

// Handler returns the HTTP handler that serves the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
