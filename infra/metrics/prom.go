package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/sailq/rakeflow/core/metrics"
)

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	rakes       *prometheus.CounterVec
	orders      prometheus.Counter
	utilization prometheus.Histogram
	planCost    prometheus.Histogram
}

// NewPromSink registers planning metrics on the default Prometheus
// registerer. Serving the metrics endpoint is the caller's concern.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rakes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rakes_planned_total",
		Help: "Total number of rakes planned",
	}, []string{"stockyard", "destination", "sla_met"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_consolidated_total",
		Help: "Total number of orders consolidated into clubs",
	})
	utilization := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rake_utilization_pct",
		Help:    "Utilization percentage of planned rakes",
		Buckets: prometheus.LinearBuckets(50, 10, 6),
	})
	planCost := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plan_cost_inr",
		Help:    "Total planned cost of optimization runs in INR",
		Buckets: prometheus.ExponentialBuckets(10000, 4, 8),
	})

	s := &PromSink{rakes: rakes, orders: orders, utilization: utilization, planCost: planCost}
	if err := reg.Register(rakes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.rakes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(orders); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.orders = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(utilization); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.utilization = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(planCost); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.planCost = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	return s, nil
}

// RecordPlan observes the plan cost histogram.
func (s *PromSink) RecordPlan(r coremetrics.PlanRecord) error {
	s.planCost.Observe(r.TotalCost)
	return nil
}

// RecordRake counts the rake and observes its utilization.
func (s *PromSink) RecordRake(r coremetrics.RakeRecord) error {
	s.rakes.WithLabelValues(r.StockyardID, r.Destination, strconv.FormatBool(r.SLAMet)).Inc()
	s.utilization.Observe(r.UtilizationPct)
	return nil
}

// RecordConsolidation counts the orders folded into clubs.
func (s *PromSink) RecordConsolidation(r coremetrics.ConsolidationRecord) error {
	s.orders.Add(float64(r.Orders))
	return nil
}
