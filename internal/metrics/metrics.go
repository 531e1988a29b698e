// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collectors struct {
	registry *prometheus.Registry

	generations *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	sessions    prometheus.Gauge
	rejected    prometheus.Counter
}

// New registers the collectors on a private registry, along with the Go
// runtime and process collectors.
func New() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		registry: reg,
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumidecor_generation_requests_total",
			Help: "Generation calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lumidecor_generation_duration_seconds",
			Help:    "Latency of generation calls.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"op"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lumidecor_active_sessions",
			Help: "Live studio sessions.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumidecor_rejected_submissions_total",
			Help: "Submissions refused because a generation was already running.",
		}),
	}

	reg.MustRegister(
		c.generations,
		c.durations,
		c.sessions,
		c.rejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collectors) ObserveGeneration(op, outcome string, d time.Duration) {
	c.generations.WithLabelValues(op, outcome).Inc()
	c.durations.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collectors) RejectedSubmission() {
	c.rejected.Inc()
}

func (c *Collectors) SetActiveSessions(n int) {
	c.sessions.Set(float64(n))
}

func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}
