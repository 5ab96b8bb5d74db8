package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathweaver_generations_total",
		Help: "Generation attempts by backend, category and outcome.",
	}, []string{"backend", "category", "status"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathweaver_generation_duration_seconds",
		Help:    "Backend dispatch latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
)

// ObserveGeneration records one dispatch outcome.
func ObserveGeneration(backend, category, status string, d time.Duration) {
	generationsTotal.With(prometheus.Labels{"backend": backend, "category": category, "status": status}).Inc()
	generationDuration.With(prometheus.Labels{"backend": backend}).Observe(d.Seconds())
}
