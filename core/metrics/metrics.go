package metrics

import "time"

// PlanRecord summarizes one optimization run.
type PlanRecord struct {
	Label             string
	TotalCost         float64
	SLACompliance     float64
	AvgUtilizationPct float64
	TotalEmissionsKg  float64
	Rakes             int
	Applied           bool
	Time              time.Time
}

// RakeRecord captures one planned rake.
type RakeRecord struct {
	Code           string
	StockyardID    string
	Destination    string
	WagonType      string
	Wagons         int
	TotalTons      float64
	UtilizationPct float64
	PlannedCost    float64
	SLAMet         bool
	Time           time.Time
}

// ConsolidationRecord captures one analyze or apply pass.
type ConsolidationRecord struct {
	Date          time.Time
	Orders        int
	Clubs         int
	CreatedRakes  int
	UpdatedOrders int
	Time          time.Time
}

// PlanRecorder records optimization outcomes.
type PlanRecorder interface {
	RecordPlan(PlanRecord) error
}

// RakeRecorder records planned rakes.
type RakeRecorder interface {
	RecordRake(RakeRecord) error
}

// ConsolidationRecorder records consolidation passes.
type ConsolidationRecorder interface {
	RecordConsolidation(ConsolidationRecord) error
}

// Sink is the full observability surface the planner writes to.
type Sink interface {
	PlanRecorder
	RakeRecorder
	ConsolidationRecorder
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordPlan(PlanRecord) error                   { return nil }
func (NopSink) RecordRake(RakeRecord) error                   { return nil }
func (NopSink) RecordConsolidation(ConsolidationRecord) error { return nil }
