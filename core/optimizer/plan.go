package optimizer

import (
	"context"
	"fmt"

	"github.com/sailq/rakeflow/core/allocation"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/repository"
	"github.com/sailq/rakeflow/core/sourcing"
)

// pointInfo caches one candidate's per-ton economics for a club.
type pointInfo struct {
	cand       model.AllocationCandidate
	costPerTon float64
}

// route is a contiguous slice of one club's tonnage bound for one loading
// point. Seeding creates routes; refinement swaps their points.
type route struct {
	club  int
	point string
	lines []model.ClubLine
	tons  float64
}

// buildPlan runs stages 1-3 under one weight vector and prices the result.
// Clubs filled below minUtilizationPct are deferred to the backlog before
// seeding.
func (o *Optimizer) buildPlan(ctx context.Context, orders []model.Order, snap *repository.Snapshot, vec weightVector, minUtilizationPct float64) (Plan, []StageLog, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, nil, err
	}

	byID := make(map[string]model.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}

	cluster := o.consolidator.Cluster(orders)
	backlog := append([]model.BacklogEntry(nil), cluster.Backlog...)
	clubs := cluster.Clubs
	if minUtilizationPct > 0 {
		kept := make([]model.Club, 0, len(clubs))
		for _, c := range clubs {
			if c.UtilizationPct < minUtilizationPct {
				for _, l := range c.Lines {
					backlog = append(backlog, model.BacklogEntry{OrderID: l.OrderID, Cargo: c.Cargo, Region: c.Region, Tons: l.Tons})
				}
				continue
			}
			kept = append(kept, c)
		}
		clubs = kept
	}

	clubbedTons, backlogTons := 0.0, 0.0
	for _, c := range clubs {
		clubbedTons += c.TotalTons
	}
	for _, b := range backlog {
		backlogTons += b.Tons
	}
	stages := []StageLog{{
		Stage: "cluster",
		Stats: map[string]float64{
			"groups":      float64(len(cluster.Groups)),
			"clubs":       float64(len(clubs)),
			"clubbedTons": clubbedTons,
			"backlogTons": backlogTons,
		},
	}}

	view := cloneView(snap)
	pointByID := make(map[string]model.LoadingPoint, len(view.Points))
	for _, p := range view.Points {
		pointByID[p.ID] = p
	}

	info := make([]map[string]pointInfo, len(clubs))
	var routes []route
	for ci, club := range clubs {
		sel, err := o.selector.Select(ctx, view, sourcing.Request{
			Cargo:        club.Cargo,
			QuantityTons: club.TotalTons,
			Destination:  club.Region,
		})
		if err != nil {
			if ctx.Err() != nil {
				return Plan{}, nil, ctx.Err()
			}
			o.log.Warnf("club %s/%s unroutable: %v", club.Region, club.Cargo, err)
			for _, l := range club.Lines {
				backlog = append(backlog, model.BacklogEntry{OrderID: l.OrderID, Cargo: club.Cargo, Region: club.Region, Tons: l.Tons})
			}
			continue
		}

		info[ci] = make(map[string]pointInfo, len(sel.Candidates))
		scores := make([]float64, len(sel.Candidates))
		caps := make([]float64, len(sel.Candidates))
		minCpt, maxCpt := 0.0, 0.0
		for i, cand := range sel.Candidates {
			cpt := cand.Cost.Total / club.TotalTons
			info[ci][cand.LoadingPointID] = pointInfo{cand: cand, costPerTon: cpt}
			caps[i] = cand.AvailableTons
			if i == 0 || cpt < minCpt {
				minCpt = cpt
			}
			if cpt > maxCpt {
				maxCpt = cpt
			}
		}
		for i, cand := range sel.Candidates {
			cpt := info[ci][cand.LoadingPointID].costPerTon
			scores[i] = 1 + (maxCpt-cpt)/(maxCpt-minCpt+1e-9)
		}

		tons, err := lpApportion(scores, caps, club.TotalTons)
		if err != nil {
			o.log.Debugf("apportionment LP fell back to greedy for %s/%s: %v", club.Region, club.Cargo, err)
			tons = greedyApportion(caps, club.TotalTons)
		}

		clubRoutes, left := splitRoutes(ci, club, sel.Candidates, tons)
		for _, r := range clubRoutes {
			view.Reserved[r.point] += r.tons
		}
		routes = append(routes, clubRoutes...)
		for _, l := range left {
			backlog = append(backlog, model.BacklogEntry{OrderID: l.OrderID, Cargo: club.Cargo, Region: club.Region, Tons: l.Tons})
		}
	}

	seedCost, seedPoints := 0.0, map[string]bool{}
	for _, r := range routes {
		seedCost += info[r.club][r.point].costPerTon * r.tons
		seedPoints[r.point] = true
	}
	stages = append(stages, StageLog{
		Stage: "seed",
		Stats: map[string]float64{
			"routes": float64(len(routes)),
			"points": float64(len(seedPoints)),
			"cost":   seedCost,
		},
	})

	swaps := o.refine(routes, info, pointByID, view, vec.w)
	refinedCost := 0.0
	for _, r := range routes {
		refinedCost += info[r.club][r.point].costPerTon * r.tons
	}
	stages = append(stages, StageLog{
		Stage: "refine",
		Stats: map[string]float64{"swaps": float64(swaps), "cost": refinedCost},
	})

	plan, err := o.price(ctx, clubs, routes, info, byID, view, backlog, vec)
	if err != nil {
		return Plan{}, nil, err
	}
	return plan, stages, nil
}

// splitRoutes distributes the club's lines over the apportioned tonnage,
// candidate by candidate in ranked order, splitting lines at boundaries.
func splitRoutes(ci int, club model.Club, cands []model.AllocationCandidate, tons []float64) ([]route, []model.ClubLine) {
	var routes []route
	li, lineLeft := 0, 0.0
	if len(club.Lines) > 0 {
		lineLeft = club.Lines[0].Tons
	}
	for i, cand := range cands {
		room := tons[i]
		if room < 1e-9 {
			continue
		}
		r := route{club: ci, point: cand.LoadingPointID}
		for room > 1e-9 && li < len(club.Lines) {
			take := lineLeft
			if take > room {
				take = room
			}
			r.lines = append(r.lines, model.ClubLine{OrderID: club.Lines[li].OrderID, Tons: take})
			r.tons += take
			room -= take
			lineLeft -= take
			if lineLeft < 1e-9 {
				li++
				if li < len(club.Lines) {
					lineLeft = club.Lines[li].Tons
				}
			}
		}
		if len(r.lines) > 0 {
			routes = append(routes, r)
		}
	}

	var left []model.ClubLine
	for li < len(club.Lines) {
		left = append(left, model.ClubLine{OrderID: club.Lines[li].OrderID, Tons: lineLeft})
		li++
		if li < len(club.Lines) {
			lineLeft = club.Lines[li].Tons
		}
	}
	return routes, left
}

// refine attempts pairwise point swaps between routes, accepting only swaps
// that improve the weighted score and respect every capacity bound. It
// returns the number of accepted swaps.
func (o *Optimizer) refine(routes []route, info []map[string]pointInfo, points map[string]model.LoadingPoint, view *repository.Snapshot, w model.OptimizationWeights) int {
	if len(routes) < 2 {
		return 0
	}

	totalTons, costScale, emisScale := 0.0, 0.0, 0.0
	for _, r := range routes {
		inf := info[r.club][r.point]
		totalTons += r.tons
		costScale += inf.costPerTon * r.tons
		emisScale += r.tons * inf.cand.DistanceKm * o.params.EmissionsKgPerTonKm
	}
	if costScale <= 0 {
		costScale = 1
	}
	if emisScale <= 0 {
		emisScale = 1
	}
	if totalTons <= 0 {
		return 0
	}

	budget := o.params.SwapBudget
	swaps := 0
	improved := true
	for improved && budget > 0 {
		improved = false
		for i := 0; i < len(routes) && budget > 0; i++ {
			for j := i + 1; j < len(routes) && budget > 0; j++ {
				a, b := &routes[i], &routes[j]
				if a.point == b.point {
					continue
				}
				ai, aOK := info[a.club][b.point]
				bi, bOK := info[b.club][a.point]
				if !aOK || !bOK {
					continue
				}
				curA, curB := info[a.club][a.point], info[b.club][b.point]

				// Tonnage moves with the route, so both points must absorb
				// the difference.
				dA := b.tons - a.tons
				if view.Reserved[a.point]+dA > points[a.point].CurrentTons ||
					view.Reserved[b.point]-dA > points[b.point].CurrentTons {
					continue
				}

				curCost := curA.costPerTon*a.tons + curB.costPerTon*b.tons
				newCost := ai.costPerTon*a.tons + bi.costPerTon*b.tons
				curSLA := slaTons(curA, a.tons) + slaTons(curB, b.tons)
				newSLA := slaTons(ai, a.tons) + slaTons(bi, b.tons)
				curEmis := (a.tons*curA.cand.DistanceKm + b.tons*curB.cand.DistanceKm) * o.params.EmissionsKgPerTonKm
				newEmis := (a.tons*ai.cand.DistanceKm + b.tons*bi.cand.DistanceKm) * o.params.EmissionsKgPerTonKm

				delta := w.Cost*(curCost-newCost)/costScale +
					w.SLA*(newSLA-curSLA)/totalTons +
					w.Emissions*(curEmis-newEmis)/emisScale
				if delta <= 1e-9 {
					continue
				}

				view.Reserved[a.point] += dA
				view.Reserved[b.point] -= dA
				a.point, b.point = b.point, a.point
				swaps++
				budget--
				improved = true
			}
		}
	}
	return swaps
}

func slaTons(inf pointInfo, tons float64) float64 {
	if inf.cand.MeetsSLA {
		return tons
	}
	return 0
}

// price materializes routes into rakes and computes the plan summary.
// Average utilization is measured against the planned consists, so tonnage
// lost to wagon shortages shows up as a drop.
func (o *Optimizer) price(ctx context.Context, clubs []model.Club, routes []route, info []map[string]pointInfo, byID map[string]model.Order, view *repository.Snapshot, backlog []model.BacklogEntry, vec weightVector) (Plan, error) {
	plan := Plan{Label: vec.label, Weights: vec.w}

	wagonsLeft := make(map[string]int, len(view.WagonsByRegion))
	for region, n := range view.WagonsByRegion {
		wagonsLeft[region] = n
	}

	var totalCost, emissions, slaMetTons, routedTons, plannedCapacity float64
	counted := make(map[int]bool)
	for _, r := range routes {
		club := clubs[r.club]
		inf := info[r.club][r.point]
		if !counted[r.club] {
			plannedCapacity += club.TargetCapacityTons
			counted[r.club] = true
		}

		budget := 0
		if n, ok := wagonsLeft[club.Region]; ok {
			if n <= 0 {
				for _, l := range r.lines {
					backlog = append(backlog, model.BacklogEntry{OrderID: l.OrderID, Cargo: club.Cargo, Region: club.Region, Tons: l.Tons})
				}
				continue
			}
			budget = n
		}

		orders := make([]model.Order, 0, len(r.lines))
		for _, l := range r.lines {
			ord, ok := byID[l.OrderID]
			if !ok {
				return Plan{}, fmt.Errorf("route references unknown order %s", l.OrderID)
			}
			ord.QuantityTons = l.Tons
			orders = append(orders, ord)
		}

		// Candidate costs were priced for the whole club; scale down to
		// the tonnage this route actually carries.
		src := inf.cand
		src.Cost = scaleCost(src.Cost, r.tons/club.TotalTons)

		res, err := o.allocator.Allocate(ctx, allocation.Request{
			Orders:      orders,
			Source:      src,
			Destination: club.Region,
			Cargo:       club.Cargo,
			WagonBudget: budget,
		})
		if err != nil {
			return Plan{}, fmt.Errorf("allocate %s/%s: %w", club.Region, club.Cargo, err)
		}

		for _, rake := range res.Rakes {
			plan.Rakes = append(plan.Rakes, rake)
			totalCost += rake.PlannedCost
			emissions += rake.TotalTons * src.DistanceKm * o.params.EmissionsKgPerTonKm
			routedTons += rake.TotalTons
			if rake.SLAMet {
				slaMetTons += rake.TotalTons
			}
			if budget > 0 {
				wagonsLeft[club.Region] -= rake.Wagons
			}
		}
		for _, l := range res.Unplaced {
			backlog = append(backlog, model.BacklogEntry{OrderID: l.OrderID, Cargo: club.Cargo, Region: club.Region, Tons: l.Tons})
		}
	}

	plan.Backlog = backlog
	plan.Summary = Summary{
		TotalCost:        totalCost,
		TotalEmissionsKg: emissions,
	}
	if routedTons > 0 {
		plan.Summary.SLACompliance = slaMetTons / routedTons
	}
	if plannedCapacity > 0 {
		plan.Summary.AvgUtilizationPct = routedTons / plannedCapacity * 100
	}
	return plan, nil
}

func scaleCost(c model.CostBreakdown, f float64) model.CostBreakdown {
	return model.CostBreakdown{
		Transport: c.Transport * f,
		Loading:   c.Loading * f,
		Demurrage: c.Demurrage * f,
		Holding:   c.Holding * f,
		Total:     c.Total * f,
	}
}

// cloneView copies the mutable parts of a snapshot so seeding can layer its
// own reservations without touching the caller's view.
func cloneView(snap *repository.Snapshot) *repository.Snapshot {
	v := &repository.Snapshot{
		Stockyards:     snap.Stockyards,
		Points:         snap.Points,
		Reserved:       make(map[string]float64, len(snap.Reserved)),
		WagonsByRegion: snap.WagonsByRegion,
	}
	for k, t := range snap.Reserved {
		v.Reserved[k] = t
	}
	v.Index()
	return v
}
