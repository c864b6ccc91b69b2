package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sailq/rakeflow/core/logger"
	"github.com/sailq/rakeflow/core/model"
)

// Params tune wagon packing and the transit model.
type Params struct {
	// WagonCapacityTons is the default capacity when the wagon table has no
	// entry for the material.
	WagonCapacityTons float64
	// MaxWagonsPerRake bounds a single consist; overflow splits into
	// further rakes with a partial allocation warning.
	MaxWagonsPerRake int
	// TrainSpeedKph drives the ETA estimate.
	TrainSpeedKph float64
	// PromiseHours is the SLA window per priority class.
	PromiseHours map[model.Priority]float64
}

// SetDefaults applies sane defaults. The 60t wagon default matches the
// planning defaults used operationally.
func (p *Params) SetDefaults() {
	if p.WagonCapacityTons == 0 {
		p.WagonCapacityTons = 60
	}
	if p.MaxWagonsPerRake == 0 {
		p.MaxWagonsPerRake = 59
	}
	if p.TrainSpeedKph == 0 {
		p.TrainSpeedKph = 45
	}
	if p.PromiseHours == nil {
		p.PromiseHours = map[model.Priority]float64{
			model.PriorityNormal: 96,
			model.PriorityUrgent: 48,
		}
	}
}

// Request carries the orders and the chosen source for one allocation.
type Request struct {
	Orders      []model.Order
	Source      model.AllocationCandidate
	Destination string
	Cargo       string
	// WagonBudget caps total wagons across all produced rakes; zero means
	// unlimited. Tonnage that does not fit comes back in Unplaced.
	WagonBudget int
}

// Result is the set of rakes produced for a request. Splitting across rakes
// is reported through warnings, never as an error.
type Result struct {
	Rakes    []model.Rake
	Unplaced []Line
	Warnings []string
}

// Allocator turns an order set into concrete wagon manifests respecting
// per-wagon capacity and material compatibility.
type Allocator struct {
	wagons model.WagonTable
	params Params
	log    logger.Logger
}

// New creates an Allocator.
func New(wagons model.WagonTable, params Params, log logger.Logger) *Allocator {
	params.SetDefaults()
	return &Allocator{wagons: wagons, params: params, log: log}
}

// Allocate packs the request into one or more rakes.
func (a *Allocator) Allocate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(req.Orders) == 0 {
		return Result{}, nil
	}

	wt := a.wagons.TypeFor(req.Cargo)
	wagonCap := wt.CapacityTons
	if wagonCap <= 0 {
		wagonCap = a.params.WagonCapacityTons
	}
	if !wt.Carries(req.Cargo) {
		return Result{}, model.ValidationError{
			Field:  "cargo",
			Reason: fmt.Sprintf("material %s incompatible with wagon type %s", req.Cargo, wt.Code),
		}
	}

	lines := make([]Line, 0, len(req.Orders))
	for _, o := range req.Orders {
		if err := o.Validate(); err != nil {
			return Result{}, err
		}
		lines = append(lines, Line{
			OrderID:  o.ID,
			Customer: o.Customer,
			Material: o.Cargo,
			Tons:     o.QuantityTons,
		})
	}

	var res Result
	remaining := lines
	used := 0
	for len(remaining) > 0 {
		perRake := a.params.MaxWagonsPerRake
		if req.WagonBudget > 0 {
			left := req.WagonBudget - used
			if left <= 0 {
				res.Unplaced = remaining
				res.Warnings = append(res.Warnings, fmt.Sprintf("wagon budget %d exhausted, %d lines unplaced", req.WagonBudget, len(remaining)))
				break
			}
			if left < perRake {
				perRake = left
			}
		}
		packing, leftover := PackWagons(remaining, wagonCap, perRake)
		if len(packing.Placements) == 0 {
			res.Unplaced = remaining
			break
		}
		used += packing.Wagons
		rake := a.buildRake(packing, wt, wagonCap, req)
		if len(leftover) > 0 {
			rake.Warnings = append(rake.Warnings, model.PartialAllocationWarning)
		}
		res.Rakes = append(res.Rakes, rake)
		remaining = leftover
	}
	if len(res.Rakes) > 1 {
		msg := fmt.Sprintf("order set exceeded %d wagons, split across %d rakes",
			a.params.MaxWagonsPerRake, len(res.Rakes))
		res.Warnings = append(res.Warnings, msg)
		a.log.Warnf("%s", msg)
	}
	return res, nil
}

func (a *Allocator) buildRake(packing Packing, wt model.WagonType, wagonCap float64, req Request) model.Rake {
	total := packing.TotalTons()
	etaHours := req.Source.DistanceKm / a.params.TrainSpeedKph

	rake := model.Rake{
		Code:             "RK-" + uuid.NewString()[:8],
		StockyardID:      req.Source.StockyardID,
		LoadingPointID:   req.Source.LoadingPointID,
		Destination:      req.Destination,
		WagonType:        wt.Code,
		Wagons:           packing.Wagons,
		CapacityPerWagon: wagonCap,
		TotalTons:        total,
		ETAHours:         etaHours,
		Status:           model.RakePlanned,
		CreatedAt:        time.Now().UTC(),
	}
	if packing.Wagons > 0 {
		rake.UtilizationPct = total / (float64(packing.Wagons) * wagonCap) * 100
	}

	// Planned cost scales with the share of the sourced tonnage this rake
	// actually carries.
	sourcedTons := 0.0
	for _, o := range req.Orders {
		sourcedTons += o.QuantityTons
	}
	if sourcedTons > 0 {
		rake.PlannedCost = req.Source.Cost.Total * total / sourcedTons
	}

	slaMet := true
	promiseByOrder := make(map[string]float64, len(req.Orders))
	for _, o := range req.Orders {
		promiseByOrder[o.ID] = a.params.PromiseHours[o.Priority]
	}

	for _, pl := range packing.Placements {
		lineTons := 0.0
		first, last := pl.Slices[0].Wagon, pl.Slices[0].Wagon
		for _, s := range pl.Slices {
			lineTons += s.Tons
			if s.Wagon < first {
				first = s.Wagon
			}
			if s.Wagon > last {
				last = s.Wagon
			}
		}
		line := model.ManifestLine{
			OrderID:      pl.Line.OrderID,
			Customer:     pl.Line.Customer,
			Material:     pl.Line.Material,
			QuantityTons: lineTons,
			WagonCount:   len(pl.Slices),
			FirstWagon:   first,
			LastWagon:    last,
		}
		if total > 0 {
			line.CostShare = lineTons / total
		}
		line.UtilizationPct = lineTons / (float64(len(pl.Slices)) * wagonCap) * 100
		rake.Manifest = append(rake.Manifest, line)

		if promise, ok := promiseByOrder[pl.Line.OrderID]; ok {
			if etaHours > promise {
				slaMet = false
			}
			if rake.PromiseHours == 0 || promise < rake.PromiseHours {
				rake.PromiseHours = promise
			}
		}
	}
	rake.SLAMet = slaMet
	return rake
}
