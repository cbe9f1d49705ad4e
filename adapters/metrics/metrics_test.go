package metrics_test

import (
	"testing"

	"github.com/artpar/hoops/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]int {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	series := map[string]int{}
	for _, f := range families {
		series[f.GetName()] = len(f.GetMetric())
	}
	return series
}

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RequestsTotal.WithLabelValues("notes", "list", "1000").Inc()
	m.RequestsTotal.WithLabelValues("notes", "create", "4100").Inc()
	m.RequestDuration.WithLabelValues("GET", "/notes", "2xx").Observe(0.02)
	m.AuthFailures.WithLabelValues("API_EXPIRED_TIMESTAMP").Inc()
	m.ValidationFailures.WithLabelValues("notes").Inc()
	m.ThrottledTotal.Inc()
	m.ConfigReloads.Inc()
	m.RequestsInFlight.Inc()

	series := gather(t, reg)
	want := map[string]int{
		"hoops_requests_total":            2,
		"hoops_request_duration_seconds":  1,
		"hoops_requests_in_flight":        1,
		"hoops_auth_failures_total":       1,
		"hoops_validation_failures_total": 1,
		"hoops_throttled_total":           1,
		"hoops_config_reloads_total":      1,
	}
	for name, n := range want {
		if series[name] != n {
			t.Errorf("%s series = %d, want %d", name, series[name], n)
		}
	}
}

func TestNew_TwoRegistries(t *testing.T) {
	// separate registries must not collide
	metrics.New(prometheus.NewRegistry())
	metrics.New(prometheus.NewRegistry())
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"}, {301, "3xx"}, {404, "4xx"}, {501, "5xx"}, {100, "other"},
	}
	for _, tt := range tests {
		if got := metrics.StatusLabel(tt.status); got != tt.want {
			t.Errorf("StatusLabel(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
