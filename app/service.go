package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sailq/rakeflow/config"
	"github.com/sailq/rakeflow/core/allocation"
	"github.com/sailq/rakeflow/core/consolidation"
	"github.com/sailq/rakeflow/core/events"
	"github.com/sailq/rakeflow/core/geo"
	coremetrics "github.com/sailq/rakeflow/core/metrics"
	"github.com/sailq/rakeflow/core/metrics/emissions"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/optimizer"
	"github.com/sailq/rakeflow/core/scenario"
	"github.com/sailq/rakeflow/core/sourcing"
	"github.com/sailq/rakeflow/infra/logger"
	"github.com/sailq/rakeflow/infra/metrics"
	"github.com/sailq/rakeflow/infra/store"
	"github.com/sailq/rakeflow/internal/eventbus"
)

// Service wires the planning components over the seeded in-memory store and
// fans planning outcomes out to the configured metrics sinks.
type Service struct {
	Store        *store.MemoryStore
	Resolver     *geo.Gazetteer
	Selector     *sourcing.Selector
	Allocator    *allocation.Allocator
	Consolidator *consolidation.Consolidator
	Optimizer    *optimizer.Optimizer
	Scenarios    *scenario.Engine

	bus      *eventbus.Bus
	sink     coremetrics.Sink
	influx   *metrics.InfluxSink
	ledger   *emissions.Ledger
	log      logger.Logger
	promAddr string // empty when the scrape endpoint is disabled
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	newLog := func(component string) logger.Logger {
		return logger.NewZerologLoggerWith(component, cfg.Logging.Level, cfg.Logging.Format)
	}
	logg := newLog("service")

	st := store.NewSeededStore()
	gaz := store.SeedGazetteer()
	wagons := store.SeedWagonTable()

	sel := sourcing.New(gaz, cfg.Sourcing.Params(), newLog("sourcing"))
	alloc := allocation.New(wagons, cfg.Allocation.Params(), newLog("allocation"))
	cons := consolidation.New(st, st, st, sel, alloc, wagons, gaz, cfg.Consolidation.Params(), newLog("consolidation"))

	bus := eventbus.New()
	opt := optimizer.New(st, st, st, cons, sel, alloc, cfg.Optimizer.Params(), bus, newLog("optimizer"))
	eng := scenario.New(st, st, opt, cfg.Scenario.Params(), newLog("scenario"))

	svc := &Service{
		Store:        st,
		Resolver:     gaz,
		Selector:     sel,
		Allocator:    alloc,
		Consolidator: cons,
		Optimizer:    opt,
		Scenarios:    eng,
		bus:          bus,
		sink:         coremetrics.NopSink{},
		ledger:       emissions.NewLedger(emissions.NewMemoryStore(), cfg.Metrics.EmissionFactorKgPerTonKm),
		log:          logg,
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.Prometheus {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
		svc.promAddr = cfg.Metrics.PrometheusAddr
	}
	if cfg.Metrics.InfluxURL != "" {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		if influx, ok := sink.(*metrics.InfluxSink); ok {
			svc.influx = influx
		}
		sinks = append(sinks, sink)
	}
	if len(sinks) == 1 {
		svc.sink = sinks[0]
	} else if len(sinks) > 1 {
		svc.sink = metrics.NewMultiSink(sinks...)
	}
	return svc, nil
}

// Start launches the event consumer and, when enabled, the Prometheus scrape
// endpoint. It returns immediately.
func (s *Service) Start(ctx context.Context) {
	go s.consume(ctx)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

func (s *Service) consume(ctx context.Context) {
	sub := s.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			s.bus.Unsubscribe(sub)
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			switch ev := e.(type) {
			case events.StageEvent:
				s.log.Debugw("stage complete", map[string]any{
					"run": ev.Run, "stage": ev.Stage, "stats": ev.Stats,
				})
			case events.PlanEvent:
				s.log.Infof("plan %s: cost %.0f INR, SLA %.1f%%, utilization %.1f%%, CO2 %.0f kg",
					ev.Label, ev.TotalCost, 100*ev.SLACompliance, ev.AvgUtilizationPct, ev.TotalEmissionsKg)
			}
		}
	}
}

// Consolidate analyzes the day's approved orders and optionally materializes
// qualifying clubs into rakes.
func (s *Service) Consolidate(ctx context.Context, date time.Time, minUtilizationPct float64, apply bool) (consolidation.AnalyzeResult, *consolidation.ApplyResult, error) {
	analysis, err := s.Consolidator.Analyze(ctx, date)
	if err != nil {
		return consolidation.AnalyzeResult{}, nil, err
	}
	var applied *consolidation.ApplyResult
	if apply {
		res, err := s.Consolidator.Apply(ctx, date, minUtilizationPct)
		if err != nil {
			return analysis, nil, err
		}
		applied = &res
	}

	rec := coremetrics.ConsolidationRecord{
		Date:   date,
		Orders: analysis.ConfirmedCount,
		Clubs:  len(analysis.Clubs),
		Time:   time.Now(),
	}
	if applied != nil {
		rec.CreatedRakes = applied.CreatedRakes
		rec.UpdatedOrders = applied.UpdatedOrders
	}
	if err := s.sink.RecordConsolidation(rec); err != nil {
		s.log.Warnf("record consolidation: %v", err)
	}
	return analysis, applied, nil
}

// Plan runs the optimizer for the day and records the outcome.
func (s *Service) Plan(ctx context.Context, req optimizer.Request) (optimizer.Result, error) {
	res, err := s.Optimizer.Run(ctx, req)
	if err != nil {
		return res, err
	}

	now := time.Now()
	if err := s.sink.RecordPlan(coremetrics.PlanRecord{
		Label:             res.Optimal.Label,
		TotalCost:         res.Optimal.Summary.TotalCost,
		SLACompliance:     res.Optimal.Summary.SLACompliance,
		AvgUtilizationPct: res.Optimal.Summary.AvgUtilizationPct,
		TotalEmissionsKg:  res.Optimal.Summary.TotalEmissionsKg,
		Rakes:             len(res.Optimal.Rakes),
		Applied:           res.Applied,
		Time:              now,
	}); err != nil {
		s.log.Warnf("record plan: %v", err)
	}
	for _, r := range res.Optimal.Rakes {
		if err := s.sink.RecordRake(coremetrics.RakeRecord{
			Code:           r.Code,
			StockyardID:    r.StockyardID,
			Destination:    r.Destination,
			WagonType:      r.WagonType,
			Wagons:         r.Wagons,
			TotalTons:      r.TotalTons,
			UtilizationPct: r.UtilizationPct,
			PlannedCost:    r.PlannedCost,
			SLAMet:         r.SLAMet,
			Time:           now,
		}); err != nil {
			s.log.Warnf("record rake %s: %v", r.Code, err)
		}
		if res.Applied {
			s.bookEmissions(ctx, req.Date, r)
		}
	}
	return res, nil
}

// bookEmissions writes the rake's ton-km into the carbon ledger. The ledger
// keeps its own daily aggregates, so a failed lookup only loses this rake.
func (s *Service) bookEmissions(ctx context.Context, date time.Time, r model.Rake) {
	place, err := s.Resolver.Resolve(r.Destination)
	if err != nil {
		s.log.Warnf("emissions for %s: %v", r.Code, err)
		return
	}
	snap, err := s.Store.Snapshot(ctx)
	if err != nil {
		s.log.Warnf("emissions for %s: %v", r.Code, err)
		return
	}
	sy, ok := snap.Stockyards[r.StockyardID]
	if !ok {
		s.log.Warnf("emissions for %s: unknown stockyard %s", r.Code, r.StockyardID)
		return
	}
	dist := geo.DistanceKm(sy.Lat, sy.Lng, place.Lat, place.Lng)
	if err := s.ledger.RecordDispatch(r.StockyardID, date, r.TotalTons, dist); err != nil {
		s.log.Warnf("emissions for %s: %v", r.Code, err)
	}
}

// WhatIf evaluates a perturbation scenario for the day.
func (s *Service) WhatIf(ctx context.Context, req scenario.Request) (scenario.Result, error) {
	return s.Scenarios.Run(ctx, req)
}

// Sources ranks supply points for a single prospective order.
func (s *Service) Sources(ctx context.Context, req sourcing.Request) (sourcing.Selection, error) {
	snap, err := s.Store.Snapshot(ctx)
	if err != nil {
		return sourcing.Selection{}, fmt.Errorf("inventory snapshot: %w", err)
	}
	return s.Selector.Select(ctx, snap, req)
}

// StockyardEmissions sums booked CO2 kilograms for a stockyard over the
// inclusive day range.
func (s *Service) StockyardEmissions(stockyardID string, start, end time.Time) (float64, error) {
	return s.ledger.Total(stockyardID, start, end)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.influx != nil {
		s.influx.Close()
	}
	return nil
}
