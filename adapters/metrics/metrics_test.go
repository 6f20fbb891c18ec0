package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/artpar/attio/adapters/metrics"
	"github.com/artpar/attio/ports"
)

var _ ports.Metrics = (*metrics.Collector)(nil)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	if m.RequestsTotal == nil || m.RequestDuration == nil {
		t.Fatal("request metrics not initialized")
	}
	if m.RetriesTotal == nil || m.RateLimitedTotal == nil {
		t.Fatal("retry metrics not initialized")
	}
}

func TestNew_TwoRegistries(t *testing.T) {
	// Separate registries must not collide.
	metrics.New(prometheus.NewRegistry())
	metrics.New(prometheus.NewRegistry())
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRequest("GET", 200, 50*time.Millisecond)
	m.ObserveRequest("GET", 204, 10*time.Millisecond)
	m.ObserveRequest("POST", 429, 5*time.Millisecond)
	m.ObserveRequest("POST", 0, time.Second)

	families := gather(t, reg)

	requests, ok := families["attio_client_requests_total"]
	if !ok {
		t.Fatal("attio_client_requests_total metric not found")
	}
	// GET/2xx, POST/4xx, POST/error
	if len(requests.GetMetric()) != 3 {
		t.Errorf("expected 3 request series, got %d", len(requests.GetMetric()))
	}

	duration, ok := families["attio_client_request_duration_seconds"]
	if !ok {
		t.Fatal("attio_client_request_duration_seconds metric not found")
	}
	var samples uint64
	for _, metric := range duration.GetMetric() {
		samples += metric.GetHistogram().GetSampleCount()
	}
	if samples != 4 {
		t.Errorf("histogram sample count = %d, want 4", samples)
	}
}

func TestRetryCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RateLimited()
	m.RateLimited()
	m.Retried()

	families := gather(t, reg)

	if got := families["attio_client_rate_limited_total"].GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("rate_limited_total = %v, want 2", got)
	}
	if got := families["attio_client_retries_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("retries_total = %v, want 1", got)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{404, "4xx"},
		{429, "4xx"},
		{503, "5xx"},
		{0, "error"},
		{700, "error"},
	}

	for _, tt := range tests {
		if got := metrics.StatusClass(tt.status); got != tt.want {
			t.Errorf("StatusClass(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
