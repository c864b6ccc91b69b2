package scenario

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailq/rakeflow/core/allocation"
	"github.com/sailq/rakeflow/core/consolidation"
	"github.com/sailq/rakeflow/core/geo"
	"github.com/sailq/rakeflow/core/logger"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/optimizer"
	"github.com/sailq/rakeflow/core/repository"
	"github.com/sailq/rakeflow/core/sourcing"
)

func wagonTable() model.WagonTable {
	return model.WagonTable{
		"SAIL TMT BARS": {{Code: "BCN", CapacityTons: 60, Materials: []string{"SAIL TMT BARS"}}},
	}
}

func newEngine(gaz *geo.Gazetteer, engineParams Params, sp sourcing.Params, ap allocation.Params) *Engine {
	sel := sourcing.New(gaz, sp, logger.Nop{})
	alloc := allocation.New(wagonTable(), ap, logger.Nop{})
	cons := consolidation.New(nil, nil, nil, sel, alloc, wagonTable(), gaz, consolidation.Params{}, logger.Nop{})
	opt := optimizer.New(nil, nil, nil, cons, sel, alloc, optimizer.Params{}, nil, logger.Nop{})
	return New(nil, nil, opt, engineParams, logger.Nop{})
}

func TestFixtures(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	base := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	for _, f := range files {
		fx, err := Load(f)
		require.NoError(t, err, f)
		t.Run(fx.Name, func(t *testing.T) {
			orders, snap, gaz := fx.Inputs(base)
			e := newEngine(gaz, Params{CostMaterialityINR: fx.MaterialityINR}, sourcing.Params{}, allocation.Params{})

			res, err := e.RunOnSnapshot(context.Background(), orders, snap, fx.Weights, fx.Scenario)
			require.NoError(t, err)

			if fx.Expected.ZeroImpact {
				assert.Zero(t, res.Impact.CostDelta)
				assert.Zero(t, res.Impact.SLADelta)
				assert.Zero(t, res.Impact.UtilizationDelta)
				assert.Empty(t, res.Recommendations)
			}
			if fx.Expected.UtilizationDeltaBelow != 0 {
				assert.Less(t, res.Impact.UtilizationDelta, fx.Expected.UtilizationDeltaBelow)
			}
			if fx.Expected.Recommendation != "" {
				found := false
				for _, r := range res.Recommendations {
					if r.Action == fx.Expected.Recommendation {
						found = true
						if fx.Expected.Priority != "" {
							assert.Equal(t, Priority(fx.Expected.Priority), r.Priority)
						}
					}
				}
				assert.True(t, found, "expected recommendation %q, got %+v", fx.Expected.Recommendation, res.Recommendations)
			}
		})
	}
}

func TestRunRejectsOutOfRangePerturbations(t *testing.T) {
	gaz := geo.NewGazetteer()
	e := newEngine(gaz, Params{}, sourcing.Params{}, allocation.Params{})

	var verr model.ValidationError
	_, err := e.RunOnSnapshot(context.Background(), nil, emptySnapshot(), model.OptimizationWeights{}, model.ScenarioConfig{
		SidingCapacityReduction: map[string]float64{"LP-X": 0.9},
	})
	require.ErrorAs(t, err, &verr)

	_, err = e.Run(context.Background(), Request{Config: model.ScenarioConfig{
		WagonAvailabilityReduction: map[string]float64{"Bhilai": 0.7},
	}})
	require.ErrorAs(t, err, &verr)
}

func TestAdvanceDepartureRecommendation(t *testing.T) {
	gaz := geo.NewGazetteer()
	gaz.Add(geo.Place{Name: "Durgapur", Region: "Durgapur", Lat: 23.52, Lng: 87.31})
	gaz.Add(geo.Place{Name: "Mumbai", Region: "Mumbai", Lat: 19.07, Lng: 72.87})

	// A 24h urgent window: the local point meets it trivially, the Mumbai
	// fallback (~1750 km at 45 kph) misses it by over 14 hours.
	promises := map[model.Priority]float64{model.PriorityNormal: 96, model.PriorityUrgent: 24}
	e := newEngine(gaz, Params{}, sourcing.Params{PromiseHours: promises}, allocation.Params{PromiseHours: promises})

	snap := emptySnapshot()
	snap.Stockyards["SY-DGP"] = model.Stockyard{ID: "SY-DGP", Name: "Durgapur", Lat: 23.52, Lng: 87.31}
	snap.Stockyards["SY-MUM"] = model.Stockyard{ID: "SY-MUM", Name: "Mumbai", Lat: 19.07, Lng: 72.87}
	snap.Points = []model.LoadingPoint{
		{ID: "LP-DGP-1", StockyardID: "SY-DGP", Material: "SAIL TMT BARS", CapacityTons: 500, CurrentTons: 300,
			LoadingCostPerTon: 48, DemurragePerDay: 2000, HoldingCostPerTonDay: 5, AvgWagonCapacityTons: 60},
		{ID: "LP-MUM-1", StockyardID: "SY-MUM", Material: "SAIL TMT BARS", CapacityTons: 2000, CurrentTons: 1500,
			LoadingCostPerTon: 52, DemurragePerDay: 2200, HoldingCostPerTonDay: 5, AvgWagonCapacityTons: 60},
	}
	snap.Index()

	orders := []model.Order{{
		ID: "o1", Cargo: "SAIL TMT BARS", QuantityTons: 240, Destination: "Durgapur",
		Priority: model.PriorityUrgent, Status: model.StatusApproved,
		CreatedAt: time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC),
	}}

	res, err := e.RunOnSnapshot(context.Background(), orders, snap, model.OptimizationWeights{}, model.ScenarioConfig{
		SidingCapacityReduction: map[string]float64{"LP-DGP-1": 0.8},
	})
	require.NoError(t, err)
	assert.Less(t, res.Impact.SLADelta, 0.0)

	found := false
	for _, r := range res.Recommendations {
		if r.Action == "Advance Departure" {
			found = true
			assert.NotEmpty(t, r.Target)
		}
	}
	assert.True(t, found, "expected an Advance Departure recommendation, got %+v", res.Recommendations)
}

func emptySnapshot() *repository.Snapshot {
	snap := &repository.Snapshot{
		Stockyards:     map[string]model.Stockyard{},
		Reserved:       map[string]float64{},
		WagonsByRegion: map[string]int{},
	}
	snap.Index()
	return snap
}
