package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailq/rakeflow/app"
	"github.com/sailq/rakeflow/config"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/optimizer"
)

var planDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newService(t *testing.T) *app.Service {
	t.Helper()
	svc, err := app.New(config.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func putOrders(t *testing.T, svc *app.Service, orders ...model.Order) {
	t.Helper()
	ctx := context.Background()
	for _, o := range orders {
		o.Status = model.StatusApproved
		require.NoError(t, svc.Store.Put(ctx, o))
	}
}

func TestServicePlanApplies(t *testing.T) {
	svc := newService(t)
	putOrders(t, svc,
		model.Order{ID: "ORD-1", Cargo: "Plates", QuantityTons: 120, Destination: "Durgapur", CreatedAt: planDay.Add(8 * time.Hour)},
		model.Order{ID: "ORD-2", Cargo: "Plates", QuantityTons: 140, Destination: "Durgapur", CreatedAt: planDay.Add(9 * time.Hour)},
		model.Order{ID: "ORD-3", Cargo: "SAIL TMT BARS", QuantityTons: 180, Destination: "Ranchi", Priority: model.PriorityUrgent, CreatedAt: planDay.Add(9*time.Hour + 30*time.Minute)},
	)

	ctx := context.Background()
	res, err := svc.Plan(ctx, optimizer.Request{Date: planDay, Apply: true})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	require.NotEmpty(t, res.Optimal.Rakes)

	rakes, err := svc.Store.ListRakes(ctx)
	require.NoError(t, err)
	assert.Len(t, rakes, len(res.Optimal.Rakes))

	o, err := svc.Store.Get(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAllocated, o.Status)

	// Applied tonnage shows up in the carbon ledger.
	var total float64
	for _, r := range res.Optimal.Rakes {
		kg, err := svc.StockyardEmissions(r.StockyardID, planDay.AddDate(0, 0, -1), planDay.AddDate(0, 0, 1))
		require.NoError(t, err)
		total += kg
	}
	assert.Greater(t, total, 0.0)
}

func TestServiceConsolidate(t *testing.T) {
	svc := newService(t)
	putOrders(t, svc,
		model.Order{ID: "ORD-1", Cargo: "Plates", QuantityTons: 90, Destination: "Durgapur", CreatedAt: planDay.Add(8 * time.Hour)},
		model.Order{ID: "ORD-2", Cargo: "Plates", QuantityTons: 110, Destination: "Durgapur", CreatedAt: planDay.Add(9 * time.Hour)},
	)

	ctx := context.Background()
	analysis, applied, err := svc.Consolidate(ctx, planDay, 80, false)
	require.NoError(t, err)
	assert.Nil(t, applied)
	assert.Equal(t, 2, analysis.ConfirmedCount)
	require.NotEmpty(t, analysis.Clubs)
	assert.Equal(t, "Durgapur", analysis.Clubs[0].Region)

	_, applied, err = svc.Consolidate(ctx, planDay, 80, true)
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Greater(t, applied.CreatedRakes, 0)
}

func TestLoadOrders(t *testing.T) {
	svc := newService(t)
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
orders:
  - id: ORD-1
    customer: JSW Infra
    cargo: Plates
    tons: 120
    destination: Durgapur
    priority: Urgent
  - cargo: Wire Rods
    tons: 60
    destination: Kolkata
`), 0o644))

	ctx := context.Background()
	n, err := svc.LoadOrders(ctx, path, planDay)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	listed, err := svc.Store.ListApproved(ctx, planDay)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, model.PriorityUrgent, listed[0].Priority)
	assert.Equal(t, "JSW Infra", listed[0].Customer)
	assert.Equal(t, "ORD-002", listed[1].ID)
}
