package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sailq/rakeflow/core/allocation"
	"github.com/sailq/rakeflow/core/consolidation"
	"github.com/sailq/rakeflow/core/events"
	"github.com/sailq/rakeflow/core/logger"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/repository"
	"github.com/sailq/rakeflow/core/sourcing"
)

// Params tune the optimization heuristic.
type Params struct {
	// Alternatives is how many perturbed weight vectors are sampled beyond
	// the requested one.
	Alternatives int
	// SwapBudget caps accepted swaps during local refinement.
	SwapBudget int
	// Seed drives the weight perturbation so runs reproduce exactly.
	Seed int64
	// WeightJitter is the relative noise applied to alternative vectors.
	WeightJitter float64
	// EmissionsKgPerTonKm converts routed ton-km into CO2 kilograms.
	EmissionsKgPerTonKm float64
}

// SetDefaults applies sane defaults. The emissions factor is the usual
// rail-freight figure of 22 g CO2 per ton-km.
func (p *Params) SetDefaults() {
	if p.Alternatives == 0 {
		p.Alternatives = 4
	}
	if p.SwapBudget == 0 {
		p.SwapBudget = 64
	}
	if p.Seed == 0 {
		p.Seed = 1
	}
	if p.WeightJitter == 0 {
		p.WeightJitter = 0.05
	}
	if p.EmissionsKgPerTonKm == 0 {
		p.EmissionsKgPerTonKm = 0.022
	}
}

// Request describes one optimization run.
type Request struct {
	Date    time.Time
	Weights model.OptimizationWeights
	// MinUtilizationPct defers clubs filled below the floor to the backlog
	// instead of routing them. Zero disables the floor.
	MinUtilizationPct float64
	// Apply commits the optimal plan through the reservation path.
	Apply bool
}

// Summary condenses a plan for ranking and reporting.
type Summary struct {
	TotalCost         float64 `json:"totalCost"`
	SLACompliance     float64 `json:"slaCompliance"`
	AvgUtilizationPct float64 `json:"avgUtilizationPct"`
	TotalEmissionsKg  float64 `json:"totalEmissionsKg"`
}

// Plan is one candidate outcome of a run.
type Plan struct {
	Label   string
	Weights model.OptimizationWeights
	Rakes   []model.Rake
	Backlog []model.BacklogEntry
	Summary Summary
	Score   float64
}

// StageLog is one structured entry of the decision log, in stage order.
type StageLog struct {
	Stage string
	Stats map[string]float64
}

// Decision is a human-readable audit record for the chosen plan.
type Decision struct {
	Statement string
	Reasoning string
	Impact    string
}

// Explanation carries the full decision trail of a run.
type Explanation struct {
	Stages    []StageLog
	Decisions []Decision
}

// Result is the outcome of a run: the optimal plan, ranked alternatives and
// the explanation a planner audits before committing.
type Result struct {
	Optimal      Plan
	Alternatives []Plan
	Explanation  Explanation
	Applied      bool
}

// Optimizer runs the multi-stage planning heuristic over the order backlog.
type Optimizer struct {
	orders       repository.OrderRepository
	inventory    repository.InventoryRepository
	rakes        repository.RakeRepository
	consolidator *consolidation.Consolidator
	selector     *sourcing.Selector
	allocator    *allocation.Allocator
	params       Params
	bus          events.Publisher
	log          logger.Logger
}

// New creates an Optimizer. bus may be events.Nop{}.
func New(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	rakes repository.RakeRepository,
	consolidator *consolidation.Consolidator,
	selector *sourcing.Selector,
	allocator *allocation.Allocator,
	params Params,
	bus events.Publisher,
	log logger.Logger,
) *Optimizer {
	params.SetDefaults()
	if bus == nil {
		bus = events.Nop{}
	}
	return &Optimizer{
		orders:       orders,
		inventory:    inventory,
		rakes:        rakes,
		consolidator: consolidator,
		selector:     selector,
		allocator:    allocator,
		params:       params,
		bus:          bus,
		log:          log,
	}
}

// Run loads the day's backlog, optimizes it and optionally commits the
// optimal plan.
func (o *Optimizer) Run(ctx context.Context, req Request) (Result, error) {
	orders, err := o.orders.ListApproved(ctx, req.Date)
	if err != nil {
		return Result{}, fmt.Errorf("list approved orders: %w", err)
	}
	snap, err := o.inventory.Snapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("inventory snapshot: %w", err)
	}

	res, err := o.runOnSnapshot(ctx, orders, snap, req.Weights, req.MinUtilizationPct)
	if err != nil {
		return Result{}, err
	}

	if req.Apply && len(res.Optimal.Rakes) > 0 {
		applied, err := o.apply(ctx, req, res.Optimal)
		if err != nil {
			return res, err
		}
		res.Optimal = applied
		res.Applied = true
	}
	o.bus.Publish(events.PlanEvent{
		Run:               res.Optimal.Label,
		Label:             res.Optimal.Label,
		TotalCost:         res.Optimal.Summary.TotalCost,
		SLACompliance:     res.Optimal.Summary.SLACompliance,
		AvgUtilizationPct: res.Optimal.Summary.AvgUtilizationPct,
		TotalEmissionsKg:  res.Optimal.Summary.TotalEmissionsKg,
		Applied:           res.Applied,
		At:                time.Now().UTC(),
	})
	return res, nil
}

// RunOnSnapshot optimizes an explicit backlog over a read-only inventory
// view. It is pure: the scenario engine reruns it on perturbed snapshots.
func (o *Optimizer) RunOnSnapshot(ctx context.Context, orders []model.Order, snap *repository.Snapshot, weights model.OptimizationWeights) (Result, error) {
	return o.runOnSnapshot(ctx, orders, snap, weights, 0)
}

func (o *Optimizer) runOnSnapshot(ctx context.Context, orders []model.Order, snap *repository.Snapshot, weights model.OptimizationWeights, minUtilizationPct float64) (Result, error) {
	if err := weights.Validate(); err != nil {
		return Result{}, err
	}
	base := weights.Normalized()

	if len(orders) == 0 {
		return Result{
			Optimal: Plan{Label: "requested", Weights: base},
			Explanation: Explanation{Decisions: []Decision{{
				Statement: "No plan produced",
				Reasoning: "the backlog holds no approved orders",
				Impact:    "zero cost, zero rakes",
			}}},
		}, nil
	}

	rng := rand.New(rand.NewSource(o.params.Seed))
	vectors := o.weightVectors(base, rng)

	plans := make([]Plan, len(vectors))
	stages := make([][]StageLog, len(vectors))
	errs := make([]error, len(vectors))
	var wg sync.WaitGroup
	for i := range vectors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plans[i], stages[i], errs[i] = o.buildPlan(ctx, orders, snap, vectors[i], minUtilizationPct)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return Result{}, err
		}
	}

	scorePlans(plans, base)
	best := 0
	for i := range plans {
		if plans[i].Score > plans[best].Score {
			best = i
		}
	}

	res := Result{Optimal: plans[best]}
	for i := range plans {
		if i != best {
			res.Alternatives = append(res.Alternatives, plans[i])
		}
	}
	sortPlansByScore(res.Alternatives)

	res.Explanation.Stages = append(res.Explanation.Stages, stages[best]...)
	res.Explanation.Stages = append(res.Explanation.Stages, StageLog{
		Stage: "pareto",
		Stats: map[string]float64{
			"plans":     float64(len(plans)),
			"bestScore": plans[best].Score,
		},
	})
	res.Explanation.Decisions = o.decisions(plans[best], stages[best], len(plans))

	run := uuid.NewString()[:8]
	for _, st := range res.Explanation.Stages {
		o.bus.Publish(events.StageEvent{Run: run, Stage: st.Stage, Stats: st.Stats, At: time.Now().UTC()})
	}
	return res, nil
}

type weightVector struct {
	label string
	w     model.OptimizationWeights
}

// weightVectors builds the requested vector plus up to Alternatives
// canonical favorites, jittered with seeded noise so runs reproduce.
func (o *Optimizer) weightVectors(base model.OptimizationWeights, rng *rand.Rand) []weightVector {
	favorites := []weightVector{
		{"cost-favoring", model.OptimizationWeights{Cost: 0.7, SLA: 0.1, Utilization: 0.1, Emissions: 0.1}},
		{"sla-favoring", model.OptimizationWeights{Cost: 0.1, SLA: 0.7, Utilization: 0.1, Emissions: 0.1}},
		{"utilization-favoring", model.OptimizationWeights{Cost: 0.1, SLA: 0.1, Utilization: 0.7, Emissions: 0.1}},
		{"emissions-favoring", model.OptimizationWeights{Cost: 0.1, SLA: 0.1, Utilization: 0.1, Emissions: 0.7}},
		{"balanced", model.OptimizationWeights{Cost: 0.25, SLA: 0.25, Utilization: 0.25, Emissions: 0.25}},
	}
	out := []weightVector{{"requested", base}}
	for i := 0; i < o.params.Alternatives && i < len(favorites); i++ {
		v := favorites[i]
		v.w = jitter(v.w, o.params.WeightJitter, rng).Normalized()
		out = append(out, v)
	}
	return out
}

func jitter(w model.OptimizationWeights, amount float64, rng *rand.Rand) model.OptimizationWeights {
	n := func(x float64) float64 {
		x += (rng.Float64()*2 - 1) * amount * x
		if x < 0 {
			return 0
		}
		return x
	}
	return model.OptimizationWeights{Cost: n(w.Cost), SLA: n(w.SLA), Utilization: n(w.Utilization), Emissions: n(w.Emissions)}
}

// scorePlans assigns each plan a weighted score with min-max normalization
// across the plan set. Cost and emissions contribute inverted: lower is
// better.
func scorePlans(plans []Plan, w model.OptimizationWeights) {
	if len(plans) == 0 {
		return
	}
	minC, maxC := plans[0].Summary.TotalCost, plans[0].Summary.TotalCost
	minU, maxU := plans[0].Summary.AvgUtilizationPct, plans[0].Summary.AvgUtilizationPct
	minE, maxE := plans[0].Summary.TotalEmissionsKg, plans[0].Summary.TotalEmissionsKg
	for _, p := range plans[1:] {
		minC, maxC = minMax(minC, maxC, p.Summary.TotalCost)
		minU, maxU = minMax(minU, maxU, p.Summary.AvgUtilizationPct)
		minE, maxE = minMax(minE, maxE, p.Summary.TotalEmissionsKg)
	}
	norm := func(x, lo, hi float64) float64 {
		if hi-lo < 1e-9 {
			return 0.5
		}
		return (x - lo) / (hi - lo)
	}
	for i := range plans {
		s := &plans[i].Summary
		plans[i].Score = w.Cost*(1-norm(s.TotalCost, minC, maxC)) +
			w.SLA*s.SLACompliance +
			w.Utilization*norm(s.AvgUtilizationPct, minU, maxU) +
			w.Emissions*(1-norm(s.TotalEmissionsKg, minE, maxE))
	}
}

func minMax(lo, hi, x float64) (float64, float64) {
	if x < lo {
		lo = x
	}
	if x > hi {
		hi = x
	}
	return lo, hi
}

func sortPlansByScore(plans []Plan) {
	for i := 1; i < len(plans); i++ {
		for j := i; j > 0 && plans[j].Score > plans[j-1].Score; j-- {
			plans[j], plans[j-1] = plans[j-1], plans[j]
		}
	}
}

func (o *Optimizer) decisions(p Plan, stages []StageLog, planCount int) []Decision {
	stats := func(stage, key string) float64 {
		for _, st := range stages {
			if st.Stage == stage {
				return st.Stats[key]
			}
		}
		return 0
	}
	return []Decision{
		{
			Statement: fmt.Sprintf("Clustered the backlog into %.0f clubs across %.0f region-cargo groups", stats("cluster", "clubs"), stats("cluster", "groups")),
			Reasoning: "orders sharing a destination region and cargo fill rakes together instead of fragmenting",
			Impact:    fmt.Sprintf("%.0f t consolidated, %.0f t deferred to backlog", stats("cluster", "clubbedTons"), stats("cluster", "backlogTons")),
		},
		{
			Statement: fmt.Sprintf("Routed tonnage to %.0f loading points", stats("seed", "points")),
			Reasoning: "tonnage apportioned by linear program toward the lowest landed cost within available stock, urgent orders first",
			Impact:    fmt.Sprintf("planned cost ₹%.0f", stats("seed", "cost")),
		},
		{
			Statement: fmt.Sprintf("Accepted %.0f improving swaps during refinement", stats("refine", "swaps")),
			Reasoning: "pairwise reassignments kept only when the weighted score improves and every capacity bound holds",
			Impact:    fmt.Sprintf("cost ₹%.0f after refinement", p.Summary.TotalCost),
		},
		{
			Statement: fmt.Sprintf("Selected the %s plan out of %d candidates", p.Label, planCount),
			Reasoning: "highest weighted score across the sampled weight vectors",
			Impact: fmt.Sprintf("₹%.0f total cost, %.0f%% SLA compliance, %.1f%% average utilization, %.0f kg CO2",
				p.Summary.TotalCost, p.Summary.SLACompliance*100, p.Summary.AvgUtilizationPct, p.Summary.TotalEmissionsKg),
		},
	}
}

// apply commits the optimal plan: one reservation batch under an idempotency
// key, rakes persisted, member orders transitioned to Allocated. On an
// inventory conflict the plan is rebuilt once against fresh availability
// before a persistent conflict is surfaced.
func (o *Optimizer) apply(ctx context.Context, req Request, plan Plan) (Plan, error) {
	key := "optimize:" + req.Date.Format("2006-01-02")
	err := o.commitPlan(ctx, key, plan)
	var conflict repository.ConflictError
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		o.log.Warnf("duplicate apply for %s, skipping", key)
		return plan, nil
	case errors.As(err, &conflict):
		o.log.Warnf("inventory conflict at %s, replanning on fresh availability", conflict.PointID)
		replanned, rerr := o.replan(ctx, req)
		if rerr != nil {
			return plan, rerr
		}
		plan = replanned
		if err = o.commitPlan(ctx, key+":retry", plan); err != nil {
			return plan, fmt.Errorf("commit plan reservations: %w", err)
		}
	case err != nil:
		return plan, fmt.Errorf("commit plan reservations: %w", err)
	}

	seen := make(map[string]bool)
	for _, r := range plan.Rakes {
		if err := o.rakes.PutRake(ctx, r); err != nil {
			return plan, fmt.Errorf("persist rake %s: %w", r.Code, err)
		}
		for _, line := range r.Manifest {
			if seen[line.OrderID] {
				continue
			}
			if err := o.orders.UpdateStatus(ctx, line.OrderID, model.StatusAllocated); err != nil {
				return plan, fmt.Errorf("transition order %s: %w", line.OrderID, err)
			}
			seen[line.OrderID] = true
		}
	}
	o.log.Infof("applied plan %s: %d rakes, %d orders allocated", plan.Label, len(plan.Rakes), len(seen))
	return plan, nil
}

func (o *Optimizer) commitPlan(ctx context.Context, key string, plan Plan) error {
	perPoint := make(map[string]float64)
	for _, r := range plan.Rakes {
		perPoint[r.LoadingPointID] += r.TotalTons
	}
	reservations := make([]repository.Reservation, 0, len(perPoint))
	for id, tons := range perPoint {
		reservations = append(reservations, repository.Reservation{PointID: id, Tons: tons})
	}
	return o.inventory.Commit(ctx, key, reservations)
}

// replan reruns the optimization over a fresh snapshot after a conflict.
func (o *Optimizer) replan(ctx context.Context, req Request) (Plan, error) {
	orders, err := o.orders.ListApproved(ctx, req.Date)
	if err != nil {
		return Plan{}, fmt.Errorf("list approved orders: %w", err)
	}
	snap, err := o.inventory.Snapshot(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("inventory snapshot: %w", err)
	}
	res, err := o.runOnSnapshot(ctx, orders, snap, req.Weights, req.MinUtilizationPct)
	if err != nil {
		return Plan{}, err
	}
	return res.Optimal, nil
}
