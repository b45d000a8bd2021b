package proxy

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/model"
)

func TestMetricsCountPipelineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	bus := intercept.NewBus()
	m.Register(bus)

	bus.Emit(intercept.Event{Type: intercept.EventClassified, Classification: model.NewClassification("defensive_analysis", 0.9, "p")})
	bus.Emit(intercept.Event{Type: intercept.EventEvaluated, Evaluation: &model.Evaluation{Decision: model.Allow}})
	bus.Emit(intercept.Event{Type: intercept.EventEvaluated, Evaluation: &model.Evaluation{Decision: model.Block}})
	bus.Emit(intercept.Event{Type: intercept.EventAlert, Evaluation: &model.Evaluation{}, AlertTarget: "trust_safety"})

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("ALLOW")); got != 1 {
		t.Errorf("requests_total{decision=ALLOW} = %v", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("BLOCK")); got != 1 {
		t.Errorf("requests_total{decision=BLOCK} = %v", got)
	}
	if got := testutil.ToFloat64(m.classificationsTotal.WithLabelValues("defensive_analysis")); got != 1 {
		t.Errorf("classifications_total = %v", got)
	}
	if got := testutil.ToFloat64(m.alertsTotal.WithLabelValues("trust_safety")); got != 1 {
		t.Errorf("alerts_total = %v", got)
	}
}
