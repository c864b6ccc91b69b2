package model

import "time"

// RakeStatus tracks a rake through dispatch.
type RakeStatus int

const (
	RakePlanned RakeStatus = iota
	RakeLoading
	RakeEnRoute
	RakeCompleted
)

// String returns a human-readable representation of the rake status.
func (s RakeStatus) String() string {
	switch s {
	case RakePlanned:
		return "Planned"
	case RakeLoading:
		return "Loading"
	case RakeEnRoute:
		return "EnRoute"
	case RakeCompleted:
		return "Completed"
	default:
		return "unknown"
	}
}

// ManifestLine records one order's share of a rake.
type ManifestLine struct {
	OrderID        string
	Customer       string
	Material       string
	QuantityTons   float64
	WagonCount     int
	FirstWagon     int
	LastWagon      int
	CostShare      float64 // fraction of rake cost proportional to tonnage
	UtilizationPct float64
}

// Rake is a train consist of wagons dispatched as a single consignment.
type Rake struct {
	Code             string
	StockyardID      string
	LoadingPointID   string
	Destination      string
	WagonType        string
	Wagons           int
	CapacityPerWagon float64
	Manifest         []ManifestLine
	TotalTons        float64
	PlannedCost      float64
	UtilizationPct   float64
	SLAMet           bool
	ETAHours         float64
	// PromiseHours is the tightest SLA window among member orders; the gap
	// to ETAHours tells how far a departure must move to restore compliance.
	PromiseHours float64
	Status       RakeStatus
	Warnings     []string
	CreatedAt    time.Time
}

// PartialAllocationWarning marks a manifest whose tonnage had to be split
// across sources or wagons. It is recorded on the rake, never returned as an
// error.
const PartialAllocationWarning = "partial_allocation"
