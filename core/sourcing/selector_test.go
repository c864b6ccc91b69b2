package sourcing

import (
	"context"
	"errors"
	"testing"

	"github.com/sailq/rakeflow/core/geo"
	"github.com/sailq/rakeflow/core/logger"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/repository"
)

func testResolver() geo.Resolver {
	return geo.NewGazetteer(
		geo.Place{Name: "Durgapur", Region: "Durgapur", Lat: 23.54843, Lng: 87.245247},
		geo.Place{Name: "Bhilai", Region: "Bhilai", Lat: 21.185157, Lng: 81.394207},
	)
}

func testSnapshot() *repository.Snapshot {
	snap := &repository.Snapshot{
		Stockyards: map[string]model.Stockyard{
			"SY-ROU": {ID: "SY-ROU", Name: "Rourkela", Warehouse: "Rourkela Warehouse", Lat: 22.210804, Lng: 84.86895},
			"SY-BOK": {ID: "SY-BOK", Name: "Bokaro", Warehouse: "Bokaro Warehouse", Lat: 23.669296, Lng: 86.151115},
			"SY-DUR": {ID: "SY-DUR", Name: "Durgapur", Warehouse: "Durgapur Warehouse", Lat: 23.54843, Lng: 87.245247},
		},
		Points: []model.LoadingPoint{
			{ID: "LP-ROU-1", StockyardID: "SY-ROU", Material: "Iron Ore", CurrentTons: 500,
				LoadingCostPerTon: 49, DemurragePerDay: 2159, HoldingCostPerTonDay: 4, AvgWagonCapacityTons: 61},
			{ID: "LP-BOK-1", StockyardID: "SY-BOK", Material: "Iron Ore", CurrentTons: 150,
				LoadingCostPerTon: 47, DemurragePerDay: 2177, HoldingCostPerTonDay: 4, AvgWagonCapacityTons: 58},
			{ID: "LP-DUR-1", StockyardID: "SY-DUR", Material: "SAIL TMT BARS", CurrentTons: 2253,
				LoadingCostPerTon: 50, DemurragePerDay: 2095, HoldingCostPerTonDay: 4, AvgWagonCapacityTons: 58},
		},
		Reserved: map[string]float64{},
	}
	snap.Index()
	return snap
}

func newSelector() *Selector {
	return New(testResolver(), Params{}, logger.Nop{})
}

func TestSelectSkipsInfeasibleCheaperCandidate(t *testing.T) {
	// Bokaro is nearer to Durgapur and cheaper, but only 150t of the 200t
	// requested are on hand; Rourkela must win on lowest total cost among
	// feasible sources.
	sel, err := newSelector().Select(context.Background(), testSnapshot(), Request{
		Cargo: "Iron Ore", QuantityTons: 200, Destination: "Durgapur",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Selected.LoadingPointID != "LP-ROU-1" {
		t.Fatalf("expected LP-ROU-1 selected, got %s", sel.Selected.LoadingPointID)
	}
	if sel.Reason != model.ReasonLowestTotalCost {
		t.Errorf("expected reason lowest_total_cost, got %s", sel.Reason)
	}
	for _, c := range sel.Candidates {
		if c.LoadingPointID == "LP-BOK-1" && c.Feasible {
			t.Error("Bokaro candidate should be infeasible at 150t available")
		}
	}
}

func TestSelectCandidatesSortedByTotalCost(t *testing.T) {
	sel, err := newSelector().Select(context.Background(), testSnapshot(), Request{
		Cargo: "Iron Ore", QuantityTons: 100, Destination: "Durgapur",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var prev float64
	for i, c := range sel.Candidates {
		if i > 0 && c.Cost.Total < prev {
			t.Fatalf("candidates not sorted ascending at index %d", i)
		}
		prev = c.Cost.Total
	}
}

func TestSelectCheaperInfeasibleCandidateLeadsList(t *testing.T) {
	// Bokaro is the cheapest Iron Ore source for Durgapur but holds only
	// 150t. At 200t requested it must still lead the candidate list on
	// total cost; feasibility only constrains the selection.
	sel, err := newSelector().Select(context.Background(), testSnapshot(), Request{
		Cargo: "Iron Ore", QuantityTons: 200, Destination: "Durgapur",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.Candidates) < 2 {
		t.Fatalf("expected both Iron Ore candidates, got %d", len(sel.Candidates))
	}
	first := sel.Candidates[0]
	if first.LoadingPointID != "LP-BOK-1" || first.Feasible {
		t.Fatalf("expected infeasible LP-BOK-1 first, got %s (feasible=%v)",
			first.LoadingPointID, first.Feasible)
	}
	if sel.Selected.LoadingPointID != "LP-ROU-1" {
		t.Errorf("expected feasible LP-ROU-1 selected, got %s", sel.Selected.LoadingPointID)
	}
}

func TestSelectDestinationStockyardShortCircuit(t *testing.T) {
	sel, err := newSelector().Select(context.Background(), testSnapshot(), Request{
		Cargo: "SAIL TMT BARS", QuantityTons: 240, Destination: "Durgapur",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Reason != model.ReasonDestinationStockyard {
		t.Fatalf("expected destination_stockyard_available, got %s", sel.Reason)
	}
	if sel.Selected.LoadingPointID != "LP-DUR-1" {
		t.Errorf("expected LP-DUR-1, got %s", sel.Selected.LoadingPointID)
	}
}

func TestSelectRelaxesToNearestWhenNothingFeasible(t *testing.T) {
	sel, err := newSelector().Select(context.Background(), testSnapshot(), Request{
		Cargo: "Iron Ore", QuantityTons: 900, Destination: "Durgapur",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Reason != model.ReasonNearestFeasible {
		t.Fatalf("expected nearest_feasible_source, got %s", sel.Reason)
	}
	if sel.Selected.LoadingPointID != "LP-BOK-1" {
		t.Errorf("expected nearest point LP-BOK-1, got %s", sel.Selected.LoadingPointID)
	}
}

func TestSelectNoSupply(t *testing.T) {
	_, err := newSelector().Select(context.Background(), testSnapshot(), Request{
		Cargo: "Ferro Alloys", QuantityTons: 100, Destination: "Durgapur",
	})
	if !errors.Is(err, ErrNoSupply) {
		t.Fatalf("expected ErrNoSupply, got %v", err)
	}
}

func TestSelectInvalidFreightOverrideDefaults(t *testing.T) {
	s := newSelector()
	base, err := s.Select(context.Background(), testSnapshot(), Request{
		Cargo: "Iron Ore", QuantityTons: 100, Destination: "Durgapur",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	over, err := s.Select(context.Background(), testSnapshot(), Request{
		Cargo: "Iron Ore", QuantityTons: 100, Destination: "Durgapur", FreightRateOverride: 12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if over.Selected.Cost.Total != base.Selected.Cost.Total {
		t.Error("invalid override should fall back to the default rate")
	}
	if len(over.Selected.Notes) == 0 {
		t.Error("expected a note documenting the override fallback")
	}
}

func TestSelectRejectsNonPositiveTonnage(t *testing.T) {
	_, err := newSelector().Select(context.Background(), testSnapshot(), Request{
		Cargo: "Iron Ore", QuantityTons: -5, Destination: "Durgapur",
	})
	var ve model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
