package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/repository"
)

// pointState pairs a loading point with its outstanding reservations. Each
// point carries its own lock so commits against unrelated stockyards never
// serialize on each other.
type pointState struct {
	mu       sync.Mutex
	point    model.LoadingPoint
	reserved float64
}

// MemoryStore is an in-memory implementation of the order, inventory and
// rake repositories. It is the default backing store for the CLI and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	orders     map[string]model.Order
	rakes      map[string]model.Rake
	rakeOrder  []string
	stockyards map[string]model.Stockyard
	points     map[string]*pointState
	pointIDs   []string
	wagons     map[string]int

	keysMu    sync.Mutex
	committed map[string]struct{}
	inFlight  map[string]struct{}
}

var _ repository.OrderRepository = (*MemoryStore)(nil)
var _ repository.InventoryRepository = (*MemoryStore)(nil)
var _ repository.RakeRepository = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:     make(map[string]model.Order),
		rakes:      make(map[string]model.Rake),
		stockyards: make(map[string]model.Stockyard),
		points:     make(map[string]*pointState),
		wagons:     make(map[string]int),
		committed:  make(map[string]struct{}),
		inFlight:   make(map[string]struct{}),
	}
}

// LoadInventory replaces the stockyard and loading point tables. Intended for
// seeding at startup, before any commits are in flight.
func (s *MemoryStore) LoadInventory(stockyards []model.Stockyard, points []model.LoadingPoint, wagonsByRegion map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stockyards = make(map[string]model.Stockyard, len(stockyards))
	for _, sy := range stockyards {
		s.stockyards[sy.ID] = sy
	}
	s.points = make(map[string]*pointState, len(points))
	s.pointIDs = s.pointIDs[:0]
	for _, p := range points {
		s.points[p.ID] = &pointState{point: p}
		s.pointIDs = append(s.pointIDs, p.ID)
	}
	s.wagons = make(map[string]int, len(wagonsByRegion))
	for region, n := range wagonsByRegion {
		s.wagons[region] = n
	}
}

// Put stores an order, replacing any record with the same id.
func (s *MemoryStore) Put(_ context.Context, o model.Order) error {
	if o.ID == "" {
		return model.ValidationError{Field: "id", Reason: "order id is required"}
	}
	if err := o.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	return nil
}

// Get returns the order with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

// ListApproved returns the Approved orders submitted on the given UTC day,
// ordered by arrival.
func (s *MemoryStore) ListApproved(_ context.Context, date time.Time) ([]model.Order, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Order
	for _, o := range s.orders {
		if o.Status != model.StatusApproved {
			continue
		}
		if !o.CreatedAt.UTC().Truncate(24 * time.Hour).Equal(day) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateStatus applies a state transition, enforcing the order state machine.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, to model.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !o.CanTransition(to) {
		return model.ValidationError{
			Field:  "status",
			Reason: o.Status.String() + " cannot transition to " + to.String(),
		}
	}
	o.Status = to
	s.orders[id] = o
	return nil
}

// Snapshot returns an indexed point-in-time copy of inventory. Points are
// locked one at a time, so a snapshot never blocks commits for long.
func (s *MemoryStore) Snapshot(_ context.Context) (*repository.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &repository.Snapshot{
		Stockyards:     make(map[string]model.Stockyard, len(s.stockyards)),
		Points:         make([]model.LoadingPoint, 0, len(s.pointIDs)),
		Reserved:       make(map[string]float64, len(s.pointIDs)),
		WagonsByRegion: make(map[string]int, len(s.wagons)),
	}
	for id, sy := range s.stockyards {
		snap.Stockyards[id] = sy
	}
	for _, id := range s.pointIDs {
		ps := s.points[id]
		ps.mu.Lock()
		snap.Points = append(snap.Points, ps.point)
		if ps.reserved > 0 {
			snap.Reserved[id] = ps.reserved
		}
		ps.mu.Unlock()
	}
	for region, n := range s.wagons {
		snap.WagonsByRegion[region] = n
	}
	snap.Index()
	return snap, nil
}

// Commit reserves tonnage against the named loading points. The commit is
// all-or-nothing: every line must fit within the point's uncommitted stock or
// the whole request fails with a ConflictError and nothing is reserved. A key
// that already committed returns ErrDuplicateKey; a key that fails on
// conflict may be retried.
func (s *MemoryStore) Commit(_ context.Context, key string, reservations []repository.Reservation) error {
	if key == "" {
		return model.ValidationError{Field: "key", Reason: "idempotency key is required"}
	}
	if len(reservations) == 0 {
		return nil
	}

	// Aggregate per point; the same point may appear on several lines.
	want := make(map[string]float64, len(reservations))
	for _, r := range reservations {
		if r.Tons <= 0 {
			return model.ValidationError{Field: "tons", Reason: "reservation tonnage must be positive"}
		}
		want[r.PointID] += r.Tons
	}
	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if err := s.claimKey(key); err != nil {
		return err
	}

	s.mu.RLock()
	states := make([]*pointState, len(ids))
	for i, id := range ids {
		ps, ok := s.points[id]
		if !ok {
			s.mu.RUnlock()
			s.releaseKey(key)
			return repository.ErrNotFound
		}
		states[i] = ps
	}
	s.mu.RUnlock()

	// Lock in sorted id order so concurrent commits never deadlock.
	for _, ps := range states {
		ps.mu.Lock()
	}
	defer func() {
		for _, ps := range states {
			ps.mu.Unlock()
		}
	}()

	for i, ps := range states {
		avail := ps.point.AvailableTons(ps.reserved)
		if want[ids[i]] > avail {
			s.releaseKey(key)
			return repository.ConflictError{
				PointID:   ids[i],
				Requested: want[ids[i]],
				Available: avail,
			}
		}
	}
	for i, ps := range states {
		ps.reserved += want[ids[i]]
	}
	s.settleKey(key)
	return nil
}

// PutRake stores a rake, replacing any record with the same code.
func (s *MemoryStore) PutRake(_ context.Context, r model.Rake) error {
	if r.Code == "" {
		return model.ValidationError{Field: "code", Reason: "rake code is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rakes[r.Code]; !exists {
		s.rakeOrder = append(s.rakeOrder, r.Code)
	}
	s.rakes[r.Code] = r
	return nil
}

// ListRakes returns all rakes in insertion order.
func (s *MemoryStore) ListRakes(_ context.Context) ([]model.Rake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Rake, 0, len(s.rakeOrder))
	for _, code := range s.rakeOrder {
		out = append(out, s.rakes[code])
	}
	return out, nil
}

func (s *MemoryStore) claimKey(key string) error {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	if _, done := s.committed[key]; done {
		return repository.ErrDuplicateKey
	}
	if _, busy := s.inFlight[key]; busy {
		return repository.ErrDuplicateKey
	}
	s.inFlight[key] = struct{}{}
	return nil
}

func (s *MemoryStore) settleKey(key string) {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	delete(s.inFlight, key)
	s.committed[key] = struct{}{}
}

func (s *MemoryStore) releaseKey(key string) {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	delete(s.inFlight, key)
}
