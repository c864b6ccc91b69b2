package events

import "time"

// StageEvent is published after each optimizer stage completes.
type StageEvent struct {
	Run   string
	Stage string
	Stats map[string]float64
	At    time.Time
}

// PlanEvent is published when an optimization run settles on a plan.
type PlanEvent struct {
	Run               string
	Label             string
	TotalCost         float64
	SLACompliance     float64
	AvgUtilizationPct float64
	TotalEmissionsKg  float64
	Applied           bool
	At                time.Time
}

// Publisher is the minimal fan-out surface planning code publishes to.
// The event bus satisfies it; a nil-safe no-op is available for callers
// that do not care.
type Publisher interface {
	Publish(e any)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(any) {}
