package model

// CostBreakdown itemizes the landed cost of serving an order from one
// loading point. All figures are INR.
type CostBreakdown struct {
	Transport float64 `json:"transport"`
	Loading   float64 `json:"loading"`
	Demurrage float64 `json:"demurrage"`
	Holding   float64 `json:"holding"`
	Total     float64 `json:"total"`
}

// SelectionReason is the closed set of reasons a source can be chosen.
type SelectionReason string

const (
	ReasonDestinationStockyard SelectionReason = "destination_stockyard_available"
	ReasonLowestTotalCost      SelectionReason = "lowest_total_cost"
	ReasonNearestFeasible      SelectionReason = "nearest_feasible_source"
)

// AllocationCandidate is one ranked supply option for an order.
type AllocationCandidate struct {
	StockyardID             string
	LoadingPointID          string
	DistanceKm              float64
	Cost                    CostBreakdown
	AvailableTons           float64
	UtilizationPotentialPct float64
	ETAHours                float64
	MeetsSLA                bool
	Feasible                bool
	Notes                   []string
}
