package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the signal bot.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal      *prometheus.CounterVec // labels: outcome
	SignalsTotal     *prometheus.CounterVec // labels: side
	DeliveryFailures prometheus.Counter
	CycleDuration    prometheus.Histogram
	Active           prometheus.Gauge // 0=inactive, 1=active
}

// New registers all collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_cycles_total",
			Help: "Analysis cycles by outcome",
		}, []string{"outcome"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_signals_total",
			Help: "Accepted crossover signals by side",
		}, []string{"side"}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalbot_delivery_failures_total",
			Help: "Signals whose notifier delivery failed",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalbot_cycle_duration_seconds",
			Help:    "Wall time of one analysis cycle including network calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_active",
			Help: "1 while the polling lifecycle is ACTIVE",
		}),
	}

	m.registry.MustRegister(
		m.CyclesTotal,
		m.SignalsTotal,
		m.DeliveryFailures,
		m.CycleDuration,
		m.Active,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCycle(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SignalAccepted(side string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(side).Inc()
}

func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.DeliveryFailures.Inc()
}

func (m *Metrics) SetActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.Active.Set(1)
		return
	}
	m.Active.Set(0)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
