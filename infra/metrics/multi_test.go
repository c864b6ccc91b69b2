package metrics

import (
	"testing"

	coremetrics "github.com/sailq/rakeflow/core/metrics"
)

type countingSink struct {
	plans, rakes, consolidations int
}

func (c *countingSink) RecordPlan(coremetrics.PlanRecord) error { c.plans++; return nil }
func (c *countingSink) RecordRake(coremetrics.RakeRecord) error { c.rakes++; return nil }
func (c *countingSink) RecordConsolidation(coremetrics.ConsolidationRecord) error {
	c.consolidations++
	return nil
}

func TestMultiSinkFanOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, b)

	if err := m.RecordPlan(coremetrics.PlanRecord{}); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := m.RecordRake(coremetrics.RakeRecord{}); err != nil {
		t.Fatalf("rake: %v", err)
	}
	if err := m.RecordConsolidation(coremetrics.ConsolidationRecord{}); err != nil {
		t.Fatalf("consolidation: %v", err)
	}

	for _, s := range []*countingSink{a, b} {
		if s.plans != 1 || s.rakes != 1 || s.consolidations != 1 {
			t.Fatalf("sink not forwarded to: %+v", s)
		}
	}
}
