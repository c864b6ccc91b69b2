package allocation

import (
	"math"
	"sort"
)

// Line is one order's tonnage to place into wagons.
type Line struct {
	OrderID  string
	Customer string
	Material string
	Tons     float64
}

// WagonSlice is a contiguous share of one wagon assigned to a line.
type WagonSlice struct {
	Wagon int
	Tons  float64
}

// Placement records where a line's tonnage ended up.
type Placement struct {
	Line   Line
	Slices []WagonSlice
}

// Packing is the wagon-level assignment for one rake.
type Packing struct {
	Placements []Placement
	Wagons     int
	Free       []float64 // remaining capacity per wagon
}

// TotalTons sums the placed tonnage.
func (p Packing) TotalTons() float64 {
	total := 0.0
	for _, pl := range p.Placements {
		for _, s := range pl.Slices {
			total += s.Tons
		}
	}
	return total
}

// PackWagons places lines into wagons first-fit-decreasing: lines are sorted
// by descending tonnage and each goes to the wagon with the most remaining
// free capacity, splitting across wagons when one would overflow. The
// function is pure and deterministic; tonnage that cannot fit within
// maxWagons is returned as leftover.
func PackWagons(lines []Line, wagonCap float64, maxWagons int) (Packing, []Line) {
	if wagonCap <= 0 {
		wagonCap = 60
	}
	total := 0.0
	for _, l := range lines {
		total += l.Tons
	}
	if total <= 0 {
		return Packing{}, nil
	}

	wagons := int(math.Ceil(total / wagonCap))
	if maxWagons > 0 && wagons > maxWagons {
		wagons = maxWagons
	}

	sorted := append([]Line(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Tons > sorted[j].Tons })

	free := make([]float64, wagons)
	for i := range free {
		free[i] = wagonCap
	}

	packing := Packing{Wagons: wagons, Free: free}
	var leftover []Line
	for _, line := range sorted {
		remaining := line.Tons
		pl := Placement{Line: line}
		for remaining > 1e-9 {
			w := mostFree(free)
			if w < 0 || free[w] <= 1e-9 {
				break
			}
			take := remaining
			if take > free[w] {
				take = free[w]
			}
			free[w] -= take
			remaining -= take
			pl.Slices = append(pl.Slices, WagonSlice{Wagon: w, Tons: take})
		}
		if len(pl.Slices) > 0 {
			packing.Placements = append(packing.Placements, pl)
		}
		if remaining > 1e-9 {
			left := line
			left.Tons = remaining
			leftover = append(leftover, left)
		}
	}
	return packing, leftover
}

func mostFree(free []float64) int {
	best := -1
	for i, f := range free {
		if best < 0 || f > free[best] {
			best = i
		}
	}
	return best
}
