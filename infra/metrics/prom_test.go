package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/sailq/rakeflow/core/metrics"
)

func TestPromSinkRecordRake(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink, got %T", sinkIf)
	}

	rec := coremetrics.RakeRecord{
		Code:           "RK-abc123",
		StockyardID:    "SY-ROU",
		Destination:    "Durgapur",
		WagonType:      "BCN",
		Wagons:         4,
		TotalTons:      240,
		UtilizationPct: 100,
		PlannedCost:    150000,
		SLAMet:         true,
		Time:           time.Now(),
	}
	if err := sink.RecordRake(rec); err != nil {
		t.Fatalf("record rake: %v", err)
	}

	expected := `
# HELP rakes_planned_total Total number of rakes planned
# TYPE rakes_planned_total counter
rakes_planned_total{destination="Durgapur",sla_met="true",stockyard="SY-ROU"} 1
`
	if err := testutil.CollectAndCompare(sink.rakes, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestPromSinkRecordConsolidation(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	if err := sink.RecordConsolidation(coremetrics.ConsolidationRecord{Orders: 5, Clubs: 1}); err != nil {
		t.Fatalf("record consolidation: %v", err)
	}
	if got := testutil.ToFloat64(sink.orders); got != 5 {
		t.Errorf("expected 5 consolidated orders, got %v", got)
	}
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
}
