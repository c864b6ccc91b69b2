package repository

import (
	"context"
	"time"

	"github.com/sailq/rakeflow/core/model"
)

// OrderRepository is the order persistence surface the planning core depends
// on. Record shapes beyond the fields used here are owned by the storage
// collaborator.
type OrderRepository interface {
	Put(ctx context.Context, o model.Order) error
	Get(ctx context.Context, id string) (model.Order, error)
	// ListApproved returns the Approved orders submitted on the given day,
	// in arrival order.
	ListApproved(ctx context.Context, date time.Time) ([]model.Order, error)
	// UpdateStatus applies a state transition, enforcing the order state
	// machine. Invalid transitions return a ValidationError.
	UpdateStatus(ctx context.Context, id string, to model.OrderStatus) error
}

// Reservation commits tonnage against one loading point.
type Reservation struct {
	PointID string
	Tons    float64
}

// InventoryRepository reads stock and commits reservations. Commit is a
// single transactional critical section scoped to the affected loading
// points; unrelated stockyards are never blocked. The idempotency key
// guarantees at-most-one successful commit per request.
type InventoryRepository interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Commit(ctx context.Context, key string, reservations []Reservation) error
}

// RakeRepository persists committed rakes.
type RakeRepository interface {
	PutRake(ctx context.Context, r model.Rake) error
	ListRakes(ctx context.Context) ([]model.Rake, error)
}

// Snapshot is a read-only, point-in-time view of inventory. Analysis
// operations work exclusively on snapshots so they can run in parallel
// without touching store locks.
type Snapshot struct {
	Stockyards     map[string]model.Stockyard
	Points         []model.LoadingPoint
	Reserved       map[string]float64 // point ID -> outstanding tons
	WagonsByRegion map[string]int

	byMaterial map[string][]int
}

// Index builds the material index. Stores call it once before handing the
// snapshot out; candidate enumeration is then proportional to the candidate
// count, not total inventory size.
func (s *Snapshot) Index() {
	s.byMaterial = make(map[string][]int, len(s.Points))
	for i, p := range s.Points {
		s.byMaterial[p.Material] = append(s.byMaterial[p.Material], i)
	}
}

// PointsFor returns the loading points carrying the material.
func (s *Snapshot) PointsFor(material string) []model.LoadingPoint {
	idx := s.byMaterial[material]
	out := make([]model.LoadingPoint, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.Points[i])
	}
	return out
}

// Available returns the uncommitted tons at the point.
func (s *Snapshot) Available(p model.LoadingPoint) float64 {
	return p.AvailableTons(s.Reserved[p.ID])
}

// Stockyard returns the stockyard owning the point.
func (s *Snapshot) Stockyard(p model.LoadingPoint) (model.Stockyard, bool) {
	sy, ok := s.Stockyards[p.StockyardID]
	return sy, ok
}
