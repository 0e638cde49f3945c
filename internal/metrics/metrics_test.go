package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDetectorMetrics_Registered(t *testing.T) {
	TicksTotal.Inc()
	BansTotal.Inc()
	BannedHosts.Set(2)
	KnownHosts.Set(5)
	WriterErrors.WithLabelValues("console").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	expected := []string{
		"sentry_ticks_total",
		"sentry_bans_total",
		"sentry_banned_hosts",
		"sentry_known_hosts",
		"sentry_writer_errors_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestHandler(t *testing.T) {
	TicksTotal.Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sentry_ticks_total") {
		t.Error("sentry_ticks_total missing from exposition")
	}
}
