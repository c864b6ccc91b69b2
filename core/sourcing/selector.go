package sourcing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sailq/rakeflow/core/geo"
	"github.com/sailq/rakeflow/core/logger"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/repository"
)

// ErrNoSupply is returned when no loading point anywhere stocks the cargo.
// It is terminal for the order and is not retried automatically.
var ErrNoSupply = errors.New("no_supply")

// Params tune the landed-cost model.
type Params struct {
	// DefaultFreightRate is the INR per ton-km applied when no valid
	// override is supplied.
	DefaultFreightRate float64
	// MaxFreightRate bounds an acceptable override; rates outside
	// (0, MaxFreightRate) fall back to the default.
	MaxFreightRate float64
	// TrainSpeedKph drives the transit time estimate.
	TrainSpeedKph float64
	// TopN limits how many ranked candidates are returned.
	TopN int
	// PromiseHours is the SLA window per priority class.
	PromiseHours map[model.Priority]float64
}

// SetDefaults applies sane defaults.
func (p *Params) SetDefaults() {
	if p.DefaultFreightRate == 0 {
		p.DefaultFreightRate = 1.5
	}
	if p.MaxFreightRate == 0 {
		p.MaxFreightRate = 3
	}
	if p.TrainSpeedKph == 0 {
		p.TrainSpeedKph = 45
	}
	if p.TopN == 0 {
		p.TopN = 5
	}
	if p.PromiseHours == nil {
		p.PromiseHours = map[model.Priority]float64{
			model.PriorityNormal: 96,
			model.PriorityUrgent: 48,
		}
	}
}

// Request describes a single order to source.
type Request struct {
	Cargo        string
	QuantityTons float64
	Destination  string
	Priority     model.Priority
	// FreightRateOverride replaces the default rate when within the valid
	// range; zero means no override.
	FreightRateOverride float64
}

// Selection is the ranked sourcing decision for an order.
type Selection struct {
	Selected                model.AllocationCandidate
	Reason                  model.SelectionReason
	DistanceKm              float64
	TotalTransportationCost float64
	Candidates              []model.AllocationCandidate
}

// Selector ranks feasible supply points for an order by total landed cost.
// Select is pure over the snapshot: it may run pre-approval as advice and
// again at allocation time without side effects.
type Selector struct {
	resolver geo.Resolver
	params   Params
	log      logger.Logger
}

// New creates a Selector.
func New(resolver geo.Resolver, params Params, log logger.Logger) *Selector {
	params.SetDefaults()
	return &Selector{resolver: resolver, params: params, log: log}
}

// Select ranks the loading points carrying the cargo and picks a source.
func (s *Selector) Select(ctx context.Context, snap *repository.Snapshot, req Request) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}
	if req.QuantityTons <= 0 {
		return Selection{}, model.ValidationError{Field: "quantityTons", Reason: "tonnage must be positive"}
	}
	if req.Cargo == "" {
		return Selection{}, model.ValidationError{Field: "cargo", Reason: "cargo is required"}
	}

	rate, rateNote := s.freightRate(req.FreightRateOverride)

	dest, err := s.resolver.Resolve(req.Destination)
	if err != nil {
		return Selection{}, fmt.Errorf("resolve destination: %w", err)
	}

	points := snap.PointsFor(req.Cargo)
	if len(points) == 0 {
		return Selection{}, fmt.Errorf("cargo %s: %w", req.Cargo, ErrNoSupply)
	}

	candidates := make([]model.AllocationCandidate, 0, len(points))
	local := -1
	for _, lp := range points {
		sy, ok := snap.Stockyard(lp)
		if !ok {
			continue
		}
		c := s.buildCandidate(snap, lp, sy, dest, req, rate)
		if rateNote != "" {
			c.Notes = append(c.Notes, rateNote)
		}
		candidates = append(candidates, c)
		if local < 0 && matchesLocality(sy, dest) && c.AvailableTons >= req.QuantityTons {
			local = len(candidates) - 1
		}
	}
	if len(candidates) == 0 {
		return Selection{}, fmt.Errorf("cargo %s: %w", req.Cargo, ErrNoSupply)
	}

	ranked := s.rank(candidates, req.QuantityTons)

	// An order destined for a stockyard's own locality with enough stock on
	// hand short-circuits the cost ranking.
	if local >= 0 {
		c := candidates[local]
		s.log.Debugf("destination stockyard serves %s directly from %s", req.Destination, c.LoadingPointID)
		return Selection{
			Selected:                c,
			Reason:                  model.ReasonDestinationStockyard,
			DistanceKm:              c.DistanceKm,
			TotalTransportationCost: c.Cost.Total,
			Candidates:              s.top(ranked),
		}, nil
	}

	for _, c := range ranked {
		if c.Feasible {
			return Selection{
				Selected:                c,
				Reason:                  model.ReasonLowestTotalCost,
				DistanceKm:              c.DistanceKm,
				TotalTransportationCost: c.Cost.Total,
				Candidates:              s.top(ranked),
			}, nil
		}
	}

	// No point can cover the full tonnage: relax the constraint and pick
	// the nearest source, leaving the shortfall to a later split.
	nearest := ranked[0]
	for _, c := range ranked[1:] {
		if c.DistanceKm < nearest.DistanceKm {
			nearest = c
		}
	}
	s.log.Warnf("no feasible source for %.0ft of %s, relaxing to nearest point %s",
		req.QuantityTons, req.Cargo, nearest.LoadingPointID)
	return Selection{
		Selected:                nearest,
		Reason:                  model.ReasonNearestFeasible,
		DistanceKm:              nearest.DistanceKm,
		TotalTransportationCost: nearest.Cost.Total,
		Candidates:              s.top(ranked),
	}, nil
}

func (s *Selector) freightRate(override float64) (float64, string) {
	if override == 0 {
		return s.params.DefaultFreightRate, ""
	}
	if override > 0 && override < s.params.MaxFreightRate {
		return override, ""
	}
	// Documented fallback: invalid overrides default rather than erroring.
	return s.params.DefaultFreightRate,
		fmt.Sprintf("freight rate override %.2f outside (0, %.0f), default applied", override, s.params.MaxFreightRate)
}

func (s *Selector) buildCandidate(snap *repository.Snapshot, lp model.LoadingPoint, sy model.Stockyard, dest geo.Place, req Request, rate float64) model.AllocationCandidate {
	dist := geo.DistanceKm(sy.Lat, sy.Lng, dest.Lat, dest.Lng)
	etaHours := dist / s.params.TrainSpeedKph
	transitDays := math.Ceil(etaHours / 24)
	if transitDays < 1 {
		transitDays = 1
	}

	transport := dist * req.QuantityTons * rate
	loading := req.QuantityTons * lp.LoadingCostPerTon
	demurrage := transitDays * lp.DemurragePerDay
	holding := transitDays * lp.HoldingCostPerTonDay * req.QuantityTons

	avail := snap.Available(lp)
	wagonCap := lp.AvgWagonCapacityTons
	if wagonCap <= 0 {
		wagonCap = 58
	}
	wagons := math.Ceil(req.QuantityTons / wagonCap)
	utilPotential := 0.0
	if wagons > 0 {
		utilPotential = req.QuantityTons / (wagons * wagonCap) * 100
	}

	c := model.AllocationCandidate{
		StockyardID:    sy.ID,
		LoadingPointID: lp.ID,
		DistanceKm:     dist,
		Cost: model.CostBreakdown{
			Transport: transport,
			Loading:   loading,
			Demurrage: demurrage,
			Holding:   holding,
			Total:     transport + loading + demurrage + holding,
		},
		AvailableTons:           avail,
		UtilizationPotentialPct: utilPotential,
		ETAHours:                etaHours,
		MeetsSLA:                etaHours <= s.params.PromiseHours[req.Priority],
		Feasible:                avail >= req.QuantityTons,
	}
	if !c.Feasible {
		c.Notes = append(c.Notes, fmt.Sprintf("insufficient stock: %.0ft available, %.0ft requested", avail, req.QuantityTons))
	}
	return c
}

// rank orders candidates by ascending total cost. Feasibility does not
// reorder the list; it only constrains which candidate gets selected.
func (s *Selector) rank(candidates []model.AllocationCandidate, _ float64) []model.AllocationCandidate {
	ranked := append([]model.AllocationCandidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Cost.Total < ranked[j].Cost.Total
	})
	return ranked
}

// top trims the ranked list to the configured top N for reporting.
func (s *Selector) top(ranked []model.AllocationCandidate) []model.AllocationCandidate {
	if len(ranked) > s.params.TopN {
		return ranked[:s.params.TopN]
	}
	return ranked
}

func matchesLocality(sy model.Stockyard, dest geo.Place) bool {
	name := strings.ToLower(dest.Name)
	return strings.ToLower(sy.Name) == name || strings.ToLower(sy.Warehouse) == name
}
