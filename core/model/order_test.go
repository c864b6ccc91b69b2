package model

import "testing"

func TestOrderTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusAllocated, true},
		{StatusAllocated, StatusLoading, true},
		{StatusLoading, StatusEnRoute, true},
		{StatusEnRoute, StatusCompleted, true},
		{StatusApproved, StatusRejected, false},
		{StatusPending, StatusAllocated, false},
		{StatusCompleted, StatusLoading, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, c := range cases {
		o := Order{Status: c.from}
		if got := o.CanTransition(c.to); got != c.ok {
			t.Errorf("%s -> %s: expected %v got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestOrderValidate(t *testing.T) {
	o := Order{Cargo: "Plates", QuantityTons: 120, Destination: "Durgapur"}
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o.QuantityTons = 0
	err := o.Validate()
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Field != "quantityTons" {
		t.Errorf("expected offending field quantityTons, got %s", ve.Field)
	}
}

func TestWeightsNormalizedFallsBackToEqual(t *testing.T) {
	w := OptimizationWeights{}
	n := w.Normalized()
	if n.Cost != 0.25 || n.SLA != 0.25 || n.Utilization != 0.25 || n.Emissions != 0.25 {
		t.Fatalf("expected equal weighting, got %+v", n)
	}
}

func TestWeightsValidateRejectsNegative(t *testing.T) {
	w := OptimizationWeights{Cost: 1, SLA: -0.1}
	err := w.Validate()
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Field != "sla" {
		t.Errorf("expected field sla, got %s", ve.Field)
	}
}

func TestScenarioConfigValidateRanges(t *testing.T) {
	c := ScenarioConfig{
		SidingCapacityReduction:    map[string]float64{"LP-BHI-1": 0.5},
		WagonAvailabilityReduction: map[string]float64{"Bhilai": 0.6},
		DemandChange:               map[string]float64{"Plates": -0.3},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.WagonAvailabilityReduction["Bhilai"] = 0.7
	if err := c.Validate(); err == nil {
		t.Fatal("expected range error for wagon availability reduction")
	}
}
