package optimizer

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible indicates the apportionment LP could not meet the target
// tonnage within the candidate capacities.
var ErrInfeasible = errors.New("lp infeasible")

// apportion distributes target tons across candidate loading points by
// simplex: maximize the summed score of routed tonnage subject to per-point
// capacity and an exact-tonnage equality.
func apportion(scores, caps []float64, target float64) ([]float64, error) {
	c := make([]float64, len(scores))
	for i, s := range scores {
		c[i] = -s
	}

	g := mat.NewDense(len(caps), len(caps), nil)
	h := make([]float64, len(caps))
	for i, cp := range caps {
		g.Set(i, i, 1)
		h[i] = cp
	}

	A := mat.NewDense(1, len(caps), nil)
	for i := range caps {
		A.Set(0, i, 1)
	}
	b := []float64{target}

	cStd, AStd, bStd := lp.Convert(c, g, h, A, b)
	_, sol, err := lp.Simplex(cStd, AStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(caps))
	var sum float64
	for i := range caps {
		x := sol[i]
		if x < 0 {
			x = 0
		}
		if x > caps[i] {
			x = caps[i]
		}
		out[i] = x
		sum += x
	}
	if math.Abs(sum-target) > 1e-3 {
		return out, ErrInfeasible
	}
	return out, nil
}

// lpApportion points to the apportionment solver. Tests override it to
// simulate solver failures and exercise the greedy fallback.
var lpApportion = apportion

// greedyApportion fills candidates in ranked order up to their capacity. It
// backs the LP on infeasibility and never errors; any unroutable remainder
// is simply left out.
func greedyApportion(caps []float64, target float64) []float64 {
	out := make([]float64, len(caps))
	remaining := target
	for i, cp := range caps {
		if remaining <= 0 {
			break
		}
		take := math.Min(cp, remaining)
		out[i] = take
		remaining -= take
	}
	return out
}
