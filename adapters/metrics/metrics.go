// Package metrics provides Prometheus metrics for the Attio client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the client's Prometheus metrics.
type Collector struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RetriesTotal     prometheus.Counter
	RateLimitedTotal prometheus.Counter
}

// New registers the client metrics on reg. Pass prometheus.DefaultRegisterer
// to expose them on the global registry.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "attio",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of Attio API requests by method and status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "attio",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Attio API request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		RetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "attio",
				Subsystem: "client",
				Name:      "retries_total",
				Help:      "Total number of requests retried after a rate limit",
			},
		),
		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "attio",
				Subsystem: "client",
				Name:      "rate_limited_total",
				Help:      "Total number of rate limit responses",
			},
		),
	}
}

// ObserveRequest records one completed HTTP exchange. Status 0 means the
// request never got a response.
func (c *Collector) ObserveRequest(method string, status int, d time.Duration) {
	c.RequestsTotal.WithLabelValues(method, StatusClass(status)).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Retried counts one retry.
func (c *Collector) Retried() { c.RetriesTotal.Inc() }

// RateLimited counts one 429 response.
func (c *Collector) RateLimited() { c.RateLimitedTotal.Inc() }

// StatusClass reduces a status code to its class, e.g. 404 -> "4xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
