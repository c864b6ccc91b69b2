package model

// ClubLine is one order's tonnage inside a club. An order that overflows a
// club's target capacity is split, so its tonnage here may be less than the
// order total.
type ClubLine struct {
	OrderID string
	Tons    float64
}

// Club is a provisional grouping of same-region, same-cargo orders sized
// toward one rake. Clubs are produced by consolidation analysis and become
// rakes only on apply.
type Club struct {
	Region             string
	Cargo              string
	RakeIndex          int
	Wagons             int
	TargetCapacityTons float64
	TotalTons          float64
	UtilizationPct     float64
	Lines              []ClubLine
	Overfill           bool // running total hit the target and excess was deferred
}

// OrderIDs returns the member order ids in line order.
func (c Club) OrderIDs() []string {
	ids := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		ids[i] = l.OrderID
	}
	return ids
}

// BacklogEntry is an order fragment that did not reach the minimum tonnage
// for any club.
type BacklogEntry struct {
	OrderID string
	Cargo   string
	Region  string
	Tons    float64
}
