package scenario

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sailq/rakeflow/core/logger"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/optimizer"
	"github.com/sailq/rakeflow/core/repository"
)

// Params set the materiality thresholds that rank recommendations.
type Params struct {
	// CostMaterialityINR is the absolute cost swing above which a
	// recommendation is High priority.
	CostMaterialityINR float64
	// SLAMaterialityPts is the SLA compliance drop (fraction) above which a
	// recommendation is High priority.
	SLAMaterialityPts float64
	// WagonCapacityTons sizes the wagon shortfall estimate.
	WagonCapacityTons float64
}

// SetDefaults applies sane defaults.
func (p *Params) SetDefaults() {
	if p.CostMaterialityINR == 0 {
		p.CostMaterialityINR = 50000
	}
	if p.SLAMaterialityPts == 0 {
		p.SLAMaterialityPts = 0.05
	}
	if p.WagonCapacityTons == 0 {
		p.WagonCapacityTons = 60
	}
}

// Request describes one what-if run against a planning day.
type Request struct {
	Date    time.Time
	Weights model.OptimizationWeights
	Config  model.ScenarioConfig
}

// Impact is the perturbed-minus-baseline delta set.
type Impact struct {
	CostDelta        float64 `json:"costDelta"`
	SLADelta         float64 `json:"slaDelta"`
	UtilizationDelta float64 `json:"utilizationDelta"`
	EmissionsDelta   float64 `json:"emissionsDelta"`
}

// Priority ranks a recommendation by materiality.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
)

// Recommendation is one mitigation a planner can act on.
type Recommendation struct {
	Action   string
	Target   string
	Detail   string
	Priority Priority
}

// Result carries both plans, their deltas and the derived mitigations.
type Result struct {
	Baseline        optimizer.Summary
	Perturbed       optimizer.Summary
	Impact          Impact
	Recommendations []Recommendation
}

// Engine perturbs planning inputs, reruns the optimizer and reports deltas
// against the unperturbed baseline.
type Engine struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	opt       *optimizer.Optimizer
	params    Params
	log       logger.Logger
}

// New creates an Engine.
func New(orders repository.OrderRepository, inventory repository.InventoryRepository, opt *optimizer.Optimizer, params Params, log logger.Logger) *Engine {
	params.SetDefaults()
	return &Engine{orders: orders, inventory: inventory, opt: opt, params: params, log: log}
}

// Run evaluates the scenario. The optimizer is deterministic, so a zero
// perturbation yields an identical plan and all deltas are exactly zero.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Config.Validate(); err != nil {
		return Result{}, err
	}
	orders, err := e.orders.ListApproved(ctx, req.Date)
	if err != nil {
		return Result{}, fmt.Errorf("list approved orders: %w", err)
	}
	snap, err := e.inventory.Snapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("inventory snapshot: %w", err)
	}
	return e.RunOnSnapshot(ctx, orders, snap, req.Weights, req.Config)
}

// RunOnSnapshot evaluates the scenario over explicit inputs.
func (e *Engine) RunOnSnapshot(ctx context.Context, orders []model.Order, snap *repository.Snapshot, weights model.OptimizationWeights, cfg model.ScenarioConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	baseline, err := e.opt.RunOnSnapshot(ctx, orders, snap, weights)
	if err != nil {
		return Result{}, fmt.Errorf("baseline run: %w", err)
	}

	pOrders, pSnap := perturb(orders, snap, cfg)
	perturbed, err := e.opt.RunOnSnapshot(ctx, pOrders, pSnap, weights)
	if err != nil {
		return Result{}, fmt.Errorf("perturbed run: %w", err)
	}

	res := Result{
		Baseline:  baseline.Optimal.Summary,
		Perturbed: perturbed.Optimal.Summary,
		Impact: Impact{
			CostDelta:        perturbed.Optimal.Summary.TotalCost - baseline.Optimal.Summary.TotalCost,
			SLADelta:         perturbed.Optimal.Summary.SLACompliance - baseline.Optimal.Summary.SLACompliance,
			UtilizationDelta: perturbed.Optimal.Summary.AvgUtilizationPct - baseline.Optimal.Summary.AvgUtilizationPct,
			EmissionsDelta:   perturbed.Optimal.Summary.TotalEmissionsKg - baseline.Optimal.Summary.TotalEmissionsKg,
		},
	}
	res.Recommendations = e.recommend(res.Impact, baseline.Optimal, perturbed.Optimal)
	e.log.Debugw("scenario evaluated", map[string]any{
		"costDelta":        res.Impact.CostDelta,
		"slaDelta":         res.Impact.SLADelta,
		"utilizationDelta": res.Impact.UtilizationDelta,
	})
	return res, nil
}

// perturb applies the scenario to copies of the planning inputs.
func perturb(orders []model.Order, snap *repository.Snapshot, cfg model.ScenarioConfig) ([]model.Order, *repository.Snapshot) {
	pOrders := append([]model.Order(nil), orders...)
	for i := range pOrders {
		if change, ok := cfg.DemandChange[pOrders[i].Cargo]; ok {
			pOrders[i].QuantityTons *= 1 + change
		}
	}

	pSnap := &repository.Snapshot{
		Stockyards:     snap.Stockyards,
		Points:         append([]model.LoadingPoint(nil), snap.Points...),
		Reserved:       make(map[string]float64, len(snap.Reserved)),
		WagonsByRegion: make(map[string]int, len(snap.WagonsByRegion)),
	}
	for k, v := range snap.Reserved {
		pSnap.Reserved[k] = v
	}
	for i := range pSnap.Points {
		if red, ok := cfg.SidingCapacityReduction[pSnap.Points[i].ID]; ok {
			pSnap.Points[i].CurrentTons *= 1 - red
		}
	}
	for region, n := range snap.WagonsByRegion {
		wagons := n
		if red, ok := cfg.WagonAvailabilityReduction[region]; ok {
			wagons = int(math.Floor(float64(n) * (1 - red)))
		}
		pSnap.WagonsByRegion[region] = wagons
	}
	pSnap.Index()
	return pOrders, pSnap
}

func (e *Engine) recommend(impact Impact, baseline, perturbed optimizer.Plan) []Recommendation {
	var recs []Recommendation
	priority := func() Priority {
		if math.Abs(impact.CostDelta) >= e.params.CostMaterialityINR ||
			math.Abs(impact.SLADelta) >= e.params.SLAMaterialityPts {
			return PriorityHigh
		}
		return PriorityMedium
	}

	if impact.UtilizationDelta < -1e-9 {
		region, shortTons := worstRegionDrop(baseline, perturbed)
		wagons := int(math.Ceil(shortTons / e.params.WagonCapacityTons))
		if wagons < 1 {
			wagons = 1
		}
		recs = append(recs, Recommendation{
			Action:   "Reallocate Wagons",
			Target:   region,
			Detail:   fmt.Sprintf("move %d wagons toward %s to recover %.0f t of routed tonnage", wagons, region, shortTons),
			Priority: priority(),
		})
	}

	if impact.SLADelta < -1e-9 {
		if rake, gap := worstSLAGap(perturbed); rake != "" {
			recs = append(recs, Recommendation{
				Action:   "Advance Departure",
				Target:   rake,
				Detail:   fmt.Sprintf("advance departure of %s by %.0f h to restore the promised window", rake, math.Ceil(gap)),
				Priority: priority(),
			})
		}
	}
	return recs
}

// worstRegionDrop finds the region losing the most routed tonnage.
func worstRegionDrop(baseline, perturbed optimizer.Plan) (string, float64) {
	byRegion := func(p optimizer.Plan) map[string]float64 {
		out := make(map[string]float64)
		for _, r := range p.Rakes {
			out[r.Destination] += r.TotalTons
		}
		return out
	}
	base, pert := byRegion(baseline), byRegion(perturbed)

	regions := make([]string, 0, len(base))
	for region := range base {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	worst, drop := "", 0.0
	for _, region := range regions {
		if d := base[region] - pert[region]; d > drop {
			worst, drop = region, d
		}
	}
	return worst, drop
}

// worstSLAGap finds the perturbed rake missing its window by the most and
// returns the minimal advance needed.
func worstSLAGap(p optimizer.Plan) (string, float64) {
	code, gap := "", 0.0
	for _, r := range p.Rakes {
		if r.SLAMet || r.PromiseHours <= 0 {
			continue
		}
		if g := r.ETAHours - r.PromiseHours; g > gap {
			code, gap = r.Code, g
		}
	}
	return code, gap
}
