package proxy

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/firebreak-sh/firebreak/internal/intercept"
)

// Metrics counts pipeline outcomes for Prometheus scraping.
//
// Metrics:
//   - firebreak_requests_total: prompts evaluated, labeled by decision
//   - firebreak_classifications_total: classifications, labeled by category
//   - firebreak_alerts_total: alert events, labeled by target
type Metrics struct {
	requestsTotal        *prometheus.CounterVec
	classificationsTotal *prometheus.CounterVec
	alertsTotal          *prometheus.CounterVec
}

// NewMetrics creates and registers pipeline metrics with the given registerer.
// Pass prometheus.DefaultRegisterer to serve them from the proxy's /metrics
// endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "firebreak",
				Name:      "requests_total",
				Help:      "Total prompts evaluated, by decision",
			},
			[]string{"decision"},
		),
		classificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "firebreak",
				Name:      "classifications_total",
				Help:      "Total intent classifications, by category",
			},
			[]string{"category"},
		),
		alertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "firebreak",
				Name:      "alerts_total",
				Help:      "Total alert events, by target",
			},
			[]string{"target"},
		),
	}

	reg.MustRegister(m.requestsTotal, m.classificationsTotal, m.alertsTotal)
	return m
}

// Register subscribes the metrics collector to pipeline events.
func (m *Metrics) Register(bus *intercept.Bus) {
	bus.Subscribe(intercept.EventClassified, m.handle)
	bus.Subscribe(intercept.EventEvaluated, m.handle)
	bus.Subscribe(intercept.EventAlert, m.handle)
}

func (m *Metrics) handle(e intercept.Event) {
	switch e.Type {
	case intercept.EventClassified:
		m.classificationsTotal.WithLabelValues(e.Classification.Category).Inc()
	case intercept.EventEvaluated:
		m.requestsTotal.WithLabelValues(string(e.Evaluation.Decision)).Inc()
	case intercept.EventAlert:
		m.alertsTotal.WithLabelValues(e.AlertTarget).Inc()
	}
}
