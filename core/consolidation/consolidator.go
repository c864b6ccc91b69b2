package consolidation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sailq/rakeflow/core/allocation"
	"github.com/sailq/rakeflow/core/geo"
	"github.com/sailq/rakeflow/core/logger"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/repository"
	"github.com/sailq/rakeflow/core/sourcing"
)

// Params tune club sizing.
type Params struct {
	// ClubWagons is the number of wagons a club targets.
	ClubWagons int
	// MinTonnage is the floor below which a club is deferred to the
	// backlog instead of being materialized.
	MinTonnage float64
}

// SetDefaults applies sane defaults.
func (p *Params) SetDefaults() {
	if p.ClubWagons == 0 {
		p.ClubWagons = 4
	}
	if p.MinTonnage == 0 {
		p.MinTonnage = 50
	}
}

// Group summarizes one (region, cargo) bucket of a day's approved orders.
type Group struct {
	Region    string
	Cargo     string
	Orders    int
	TotalTons float64
}

// AnalyzeResult is the outcome of consolidation analysis. Analysis is pure:
// repeated calls over an unchanged order set produce identical clubs.
type AnalyzeResult struct {
	ConfirmedCount int
	Groups         []Group
	Clubs          []model.Club
	Backlog        []model.BacklogEntry
}

// ApplyResult reports what Apply materialized.
type ApplyResult struct {
	CreatedRakes  int
	UpdatedOrders int
	Skipped       int // clubs below the utilization threshold
}

// Consolidator groups a day's approved orders by region and cargo into
// rake-sized clubs and can materialize qualifying clubs into persisted rakes.
type Consolidator struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	rakes     repository.RakeRepository
	selector  *sourcing.Selector
	allocator *allocation.Allocator
	wagons    model.WagonTable
	resolver  geo.Resolver
	params    Params
	log       logger.Logger
}

// New creates a Consolidator.
func New(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	rakes repository.RakeRepository,
	selector *sourcing.Selector,
	allocator *allocation.Allocator,
	wagons model.WagonTable,
	resolver geo.Resolver,
	params Params,
	log logger.Logger,
) *Consolidator {
	params.SetDefaults()
	return &Consolidator{
		orders:    orders,
		inventory: inventory,
		rakes:     rakes,
		selector:  selector,
		allocator: allocator,
		wagons:    wagons,
		resolver:  resolver,
		params:    params,
		log:       log,
	}
}

// Analyze groups the day's approved orders into clubs.
func (c *Consolidator) Analyze(ctx context.Context, date time.Time) (AnalyzeResult, error) {
	orders, err := c.orders.ListApproved(ctx, date)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("list approved orders: %w", err)
	}
	return c.analyzeOrders(orders), nil
}

// Cluster groups an explicit order set without touching the repositories.
// The optimizer's clustering stage runs it over its own backlog view.
func (c *Consolidator) Cluster(orders []model.Order) AnalyzeResult {
	return c.analyzeOrders(orders)
}

// analyzeOrders is the pure grouping core shared by Analyze and Cluster.
func (c *Consolidator) analyzeOrders(orders []model.Order) AnalyzeResult {
	res := AnalyzeResult{ConfirmedCount: len(orders)}

	type key struct{ region, cargo string }
	buckets := make(map[key][]model.Order)
	for _, o := range orders {
		region := c.regionOf(o.Destination)
		k := key{region: region, cargo: o.Cargo}
		buckets[k] = append(buckets[k], o)
	}

	keys := make([]key, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].region != keys[j].region {
			return keys[i].region < keys[j].region
		}
		return keys[i].cargo < keys[j].cargo
	})

	for _, k := range keys {
		group := buckets[k]
		// Urgent first, then arrival order. The sort is stable so equal
		// orders keep their submission sequence.
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Priority != group[j].Priority {
				return group[i].Priority > group[j].Priority
			}
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})

		total := 0.0
		for _, o := range group {
			total += o.QuantityTons
		}
		res.Groups = append(res.Groups, Group{Region: k.region, Cargo: k.cargo, Orders: len(group), TotalTons: total})

		clubs, backlog := c.fill(k.region, k.cargo, group)
		res.Clubs = append(res.Clubs, clubs...)
		res.Backlog = append(res.Backlog, backlog...)
	}
	return res
}

// fill greedily accumulates the group into clubs of target capacity,
// splitting an order when it would overfill the running club.
func (c *Consolidator) fill(region, cargo string, group []model.Order) ([]model.Club, []model.BacklogEntry) {
	wt := c.wagons.TypeFor(cargo)
	target := float64(c.params.ClubWagons) * wt.CapacityTons

	var clubs []model.Club
	cur := model.Club{Region: region, Cargo: cargo, RakeIndex: 0, Wagons: c.params.ClubWagons, TargetCapacityTons: target}

	flush := func(overfill bool) {
		if len(cur.Lines) == 0 {
			return
		}
		cur.UtilizationPct = cur.TotalTons / cur.TargetCapacityTons * 100
		cur.Overfill = overfill
		clubs = append(clubs, cur)
		cur = model.Club{Region: region, Cargo: cargo, RakeIndex: cur.RakeIndex + 1, Wagons: c.params.ClubWagons, TargetCapacityTons: target}
	}

	for _, o := range group {
		remaining := o.QuantityTons
		for remaining > 0 {
			room := target - cur.TotalTons
			if room <= 0 {
				flush(true)
				continue
			}
			take := remaining
			if take > room {
				take = room
			}
			cur.Lines = append(cur.Lines, model.ClubLine{OrderID: o.ID, Tons: take})
			cur.TotalTons += take
			remaining -= take
			if remaining > 0 {
				// Overfill is capped at target; the excess defers to the
				// next club.
				flush(true)
			}
		}
	}
	flush(false)

	// Trailing clubs below the minimum tonnage stay in the backlog.
	var backlog []model.BacklogEntry
	kept := clubs[:0]
	for _, club := range clubs {
		if club.TotalTons >= c.params.MinTonnage {
			kept = append(kept, club)
			continue
		}
		for _, line := range club.Lines {
			backlog = append(backlog, model.BacklogEntry{
				OrderID: line.OrderID,
				Cargo:   cargo,
				Region:  region,
				Tons:    line.Tons,
			})
		}
	}
	return kept, backlog
}

// Apply materializes every club at or above the utilization threshold into a
// rake and transitions its member orders to Allocated. Each club commits its
// reservation atomically against the chosen loading point; on a conflict the
// selection is recomputed once before giving up.
func (c *Consolidator) Apply(ctx context.Context, date time.Time, minUtilizationPct float64) (ApplyResult, error) {
	analysis, err := c.Analyze(ctx, date)
	if err != nil {
		return ApplyResult{}, err
	}

	var res ApplyResult
	allocated := make(map[string]bool)
	for _, club := range analysis.Clubs {
		if club.UtilizationPct < minUtilizationPct {
			res.Skipped++
			continue
		}
		rakes, err := c.applyClub(ctx, date, club)
		if err != nil {
			return res, fmt.Errorf("club %s/%s[%d]: %w", club.Region, club.Cargo, club.RakeIndex, err)
		}
		res.CreatedRakes += rakes
		for _, id := range club.OrderIDs() {
			if allocated[id] {
				continue
			}
			if err := c.orders.UpdateStatus(ctx, id, model.StatusAllocated); err != nil {
				return res, fmt.Errorf("transition order %s: %w", id, err)
			}
			allocated[id] = true
			res.UpdatedOrders++
		}
	}
	return res, nil
}

func (c *Consolidator) applyClub(ctx context.Context, date time.Time, club model.Club) (int, error) {
	sel, err := c.selectSource(ctx, club)
	if err != nil {
		return 0, err
	}

	key := applyKey(date, club)
	err = c.inventory.Commit(ctx, key, []repository.Reservation{
		{PointID: sel.Selected.LoadingPointID, Tons: club.TotalTons},
	})
	var conflict repository.ConflictError
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		c.log.Warnf("duplicate apply for %s, skipping", key)
		return 0, nil
	case errors.As(err, &conflict):
		// Inventory moved between analyze and apply: recompute the source
		// once against fresh availability, then surface the conflict.
		c.log.Warnf("inventory conflict at %s, recomputing source", conflict.PointID)
		sel, err = c.selectSource(ctx, club)
		if err != nil {
			return 0, err
		}
		if err = c.inventory.Commit(ctx, key+":retry", []repository.Reservation{
			{PointID: sel.Selected.LoadingPointID, Tons: club.TotalTons},
		}); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	}

	orders, err := c.clubOrders(ctx, club)
	if err != nil {
		return 0, err
	}
	alloc, err := c.allocator.Allocate(ctx, allocation.Request{
		Orders:      orders,
		Source:      sel.Selected,
		Destination: club.Region,
		Cargo:       club.Cargo,
	})
	if err != nil {
		return 0, err
	}
	for _, rake := range alloc.Rakes {
		if err := c.rakes.PutRake(ctx, rake); err != nil {
			return 0, fmt.Errorf("persist rake %s: %w", rake.Code, err)
		}
		c.log.Infof("rake %s created: %.0ft to %s at %.1f%% utilization",
			rake.Code, rake.TotalTons, rake.Destination, rake.UtilizationPct)
	}
	return len(alloc.Rakes), nil
}

func (c *Consolidator) selectSource(ctx context.Context, club model.Club) (sourcing.Selection, error) {
	snap, err := c.inventory.Snapshot(ctx)
	if err != nil {
		return sourcing.Selection{}, fmt.Errorf("inventory snapshot: %w", err)
	}
	sel, err := c.selector.Select(ctx, snap, sourcing.Request{
		Cargo:        club.Cargo,
		QuantityTons: club.TotalTons,
		Destination:  club.Region,
	})
	if err != nil {
		return sourcing.Selection{}, fmt.Errorf("select source: %w", err)
	}
	return sel, nil
}

// clubOrders loads member orders, trimming each to the tonnage the club
// actually carries so split orders allocate only their club share.
func (c *Consolidator) clubOrders(ctx context.Context, club model.Club) ([]model.Order, error) {
	orders := make([]model.Order, 0, len(club.Lines))
	for _, line := range club.Lines {
		o, err := c.orders.Get(ctx, line.OrderID)
		if err != nil {
			return nil, fmt.Errorf("load order %s: %w", line.OrderID, err)
		}
		o.QuantityTons = line.Tons
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Consolidator) regionOf(destination string) string {
	place, err := c.resolver.Resolve(destination)
	if err != nil {
		// Unknown destinations fall back to their literal name so the
		// order still consolidates with its siblings.
		return destination
	}
	return place.Region
}

func applyKey(date time.Time, club model.Club) string {
	return fmt.Sprintf("apply:%s:%s:%s:%d", date.Format("2006-01-02"), club.Region, club.Cargo, club.RakeIndex)
}
