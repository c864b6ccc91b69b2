package model

// Stockyard is a supply location holding one or more loading points.
type Stockyard struct {
	ID        string
	Name      string
	Warehouse string
	Lat       float64
	Lng       float64
}

// LoadingPoint is a dispatch point within a stockyard holding stock of a
// single material, together with the cost coefficients used for landed-cost
// ranking.
type LoadingPoint struct {
	ID           string
	StockyardID  string
	Name         string
	Material     string
	CapacityTons float64
	CurrentTons  float64

	LoadingCostPerTon    float64 // INR per ton
	DemurragePerDay      float64 // INR per day
	HoldingCostPerTonDay float64 // INR per ton per day
	PreferredWagonType   string
	AvgWagonCapacityTons float64
}

// AvailableTons returns the stock not yet committed, given the tons reserved
// against this point.
func (lp LoadingPoint) AvailableTons(reserved float64) float64 {
	avail := lp.CurrentTons - reserved
	if avail < 0 {
		return 0
	}
	return avail
}
