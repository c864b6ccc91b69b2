package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/repository"
)

func testInventory() ([]model.Stockyard, []model.LoadingPoint) {
	yards := []model.Stockyard{
		{ID: "SY-BHI", Name: "Bhilai", Lat: 21.185157, Lng: 81.394207},
		{ID: "SY-ROU", Name: "Rourkela", Lat: 22.210804, Lng: 84.86895},
	}
	points := []model.LoadingPoint{
		{
			ID: "LP-BHI-3-P005", StockyardID: "SY-BHI", Name: "LP-BHI-3",
			Material: "Plates", CapacityTons: 2847, CurrentTons: 500,
			LoadingCostPerTon: 57, AvgWagonCapacityTons: 58, PreferredWagonType: "BCN",
		},
		{
			ID: "LP-ROU-3-P006", StockyardID: "SY-ROU", Name: "LP-ROU-3",
			Material: "Wire Rods", CapacityTons: 4773, CurrentTons: 1200,
			LoadingCostPerTon: 63, AvgWagonCapacityTons: 58, PreferredWagonType: "BCN",
		},
	}
	return yards, points
}

func newTestStore() *MemoryStore {
	s := NewMemoryStore()
	yards, points := testInventory()
	s.LoadInventory(yards, points, map[string]int{"Bhilai": 8})
	return s
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	o := model.Order{
		ID: "ORD-1", Cargo: "Plates", QuantityTons: 120, Destination: "Durgapur",
		Status: model.StatusPending, CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	if err := s.Put(ctx, o); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "ORD-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cargo != "Plates" || got.Status != model.StatusPending {
		t.Fatalf("unexpected order: %+v", got)
	}

	if _, err := s.Get(ctx, "ORD-missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.UpdateStatus(ctx, "ORD-1", model.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// Approved orders cannot jump straight to Loading.
	err = s.UpdateStatus(ctx, "ORD-1", model.StatusLoading)
	var verr model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestListApprovedFiltersDayAndStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	put := func(id string, at time.Time, status model.OrderStatus) {
		t.Helper()
		o := model.Order{
			ID: id, Cargo: "Plates", QuantityTons: 60, Destination: "Durgapur",
			Status: status, CreatedAt: at,
		}
		if err := s.Put(ctx, o); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	put("ORD-b", day.Add(10*time.Hour), model.StatusApproved)
	put("ORD-a", day.Add(2*time.Hour), model.StatusApproved)
	put("ORD-pending", day.Add(3*time.Hour), model.StatusPending)
	put("ORD-yesterday", day.Add(-4*time.Hour), model.StatusApproved)

	got, err := s.ListApproved(ctx, day.Add(15*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "ORD-a" || got[1].ID != "ORD-b" {
		t.Fatalf("unexpected listing: %+v", got)
	}
}

func TestCommitReservesAndSnapshotReflects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	err := s.Commit(ctx, "plan-1", []repository.Reservation{
		{PointID: "LP-BHI-3-P005", Tons: 240},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := snap.Reserved["LP-BHI-3-P005"]; got != 240 {
		t.Fatalf("reserved = %v, want 240", got)
	}
	pts := snap.PointsFor("Plates")
	if len(pts) != 1 || snap.Available(pts[0]) != 260 {
		t.Fatalf("available = %v, want 260", snap.Available(pts[0]))
	}
	if snap.WagonsByRegion["Bhilai"] != 8 {
		t.Fatalf("wagon budget missing: %+v", snap.WagonsByRegion)
	}
}

func TestCommitDuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	res := []repository.Reservation{{PointID: "LP-BHI-3-P005", Tons: 100}}

	if err := s.Commit(ctx, "plan-1", res); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := s.Commit(ctx, "plan-1", res); !errors.Is(err, repository.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	snap, _ := s.Snapshot(ctx)
	if got := snap.Reserved["LP-BHI-3-P005"]; got != 100 {
		t.Fatalf("duplicate key must not double-reserve: %v", got)
	}
}

func TestCommitConflictIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	// Second line exceeds stock; the first must not be applied either.
	err := s.Commit(ctx, "plan-1", []repository.Reservation{
		{PointID: "LP-BHI-3-P005", Tons: 100},
		{PointID: "LP-ROU-3-P006", Tons: 5000},
	})
	var conflict repository.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.PointID != "LP-ROU-3-P006" || conflict.Available != 1200 {
		t.Fatalf("unexpected conflict detail: %+v", conflict)
	}

	snap, _ := s.Snapshot(ctx)
	if len(snap.Reserved) != 0 {
		t.Fatalf("conflicting commit left reservations: %+v", snap.Reserved)
	}

	// The key is released on conflict so the caller may retry.
	err = s.Commit(ctx, "plan-1", []repository.Reservation{
		{PointID: "LP-BHI-3-P005", Tons: 100},
	})
	if err != nil {
		t.Fatalf("retry after conflict: %v", err)
	}
}

func TestCommitUnknownPoint(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	err := s.Commit(ctx, "plan-1", []repository.Reservation{{PointID: "LP-nope", Tons: 10}})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentCommitsNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := newTestStore() // LP-BHI-3-P005 holds 500t

	const workers = 20
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Commit(ctx, fmt.Sprintf("worker-%d", i), []repository.Reservation{
				{PointID: "LP-BHI-3-P005", Tons: 100},
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		var conflict repository.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 5 {
		t.Fatalf("committed %d of %d, want exactly 5", ok, workers)
	}
	snap, _ := s.Snapshot(ctx)
	if got := snap.Reserved["LP-BHI-3-P005"]; got != 500 {
		t.Fatalf("reserved = %v, want 500", got)
	}
}

func TestRakeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for _, code := range []string{"RK-2", "RK-1"} {
		if err := s.PutRake(ctx, model.Rake{Code: code, StockyardID: "SY-BHI"}); err != nil {
			t.Fatalf("put rake: %v", err)
		}
	}
	// Replacing an existing rake keeps its slot.
	if err := s.PutRake(ctx, model.Rake{Code: "RK-2", StockyardID: "SY-ROU"}); err != nil {
		t.Fatalf("replace rake: %v", err)
	}

	rakes, err := s.ListRakes(ctx)
	if err != nil {
		t.Fatalf("list rakes: %v", err)
	}
	if len(rakes) != 2 || rakes[0].Code != "RK-2" || rakes[0].StockyardID != "SY-ROU" {
		t.Fatalf("unexpected rakes: %+v", rakes)
	}
}

func TestSeededStore(t *testing.T) {
	s := NewSeededStore()
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Stockyards) != 18 {
		t.Fatalf("stockyards = %d, want 18", len(snap.Stockyards))
	}
	if len(snap.Points) != 108 {
		t.Fatalf("points = %d, want 108", len(snap.Points))
	}
	if len(snap.PointsFor("Plates")) == 0 {
		t.Fatal("no Plates loading points in seed")
	}
	sy, ok := snap.Stockyards["SY-BOK"]
	if !ok || sy.Name != "Bokaro" {
		t.Fatalf("Bokaro stockyard missing: %+v", sy)
	}

	g := SeedGazetteer()
	place, err := g.Resolve("bokaro")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if place.Region != "Bokaro" || place.Lat != 23.669296 {
		t.Fatalf("unexpected place: %+v", place)
	}

	if wt := SeedWagonTable().TypeFor("Pig Iron"); wt.Code != "BOXN" || wt.CapacityTons != 61 {
		t.Fatalf("unexpected wagon type: %+v", wt)
	}
}
