package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats holds the server's Prometheus instruments on a private
// registry, so tests can run many servers without collector collisions.
type Stats struct {
	registry *prometheus.Registry

	Comparisons  prometheus.Counter
	LiveSessions prometheus.Counter
	Similarity   prometheus.Histogram
	Requests     *prometheus.HistogramVec
}

func NewStats() *Stats {
	s := &Stats{
		registry: prometheus.NewRegistry(),
		Comparisons: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etude_comparisons_total",
			Help: "Number of performance comparisons scored.",
		}),
		LiveSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etude_live_sessions_total",
			Help: "Number of live websocket sessions opened.",
		}),
		Similarity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "etude_overall_similarity",
			Help:    "Distribution of overall similarity scores.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "etude_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
	}
	s.registry.MustRegister(s.Comparisons, s.LiveSessions, s.Similarity, s.Requests)
	return s
}

// Handler exposes the registry in Prometheus text format.
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
