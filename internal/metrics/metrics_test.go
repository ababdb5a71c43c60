package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := New()
	m.ObserveCycle("accepted", 10*time.Millisecond)
	m.ObserveCycle("no_signal", time.Millisecond)
	m.ObserveCycle("no_signal", time.Millisecond)
	m.SignalAccepted("BUY")
	m.DeliveryFailed()
	m.SetActive(true)

	if got := testutil.ToFloat64(m.CyclesTotal.WithLabelValues("no_signal")); got != 2 {
		t.Fatalf("no_signal cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SignalsTotal.WithLabelValues("BUY")); got != 1 {
		t.Fatalf("BUY signals = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DeliveryFailures); got != 1 {
		t.Fatalf("delivery failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Active); got != 1 {
		t.Fatalf("active = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCycle("accepted", time.Second)
	m.SignalAccepted("SELL")
	m.DeliveryFailed()
	m.SetActive(true)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.SignalAccepted("SELL")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `signalbot_signals_total{side="SELL"} 1`) {
		t.Fatalf("metrics body missing signals counter:\n%s", rec.Body.String())
	}
}
