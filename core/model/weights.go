package model

// OptimizationWeights are the relative weights of the plan objectives. They
// must be non-negative and need not sum to one.
type OptimizationWeights struct {
	Cost        float64 `json:"cost"`
	SLA         float64 `json:"sla"`
	Utilization float64 `json:"utilization"`
	Emissions   float64 `json:"emissions"`
}

// Validate rejects negative weights, naming the offending field.
func (w OptimizationWeights) Validate() error {
	switch {
	case w.Cost < 0:
		return ValidationError{Field: "cost", Reason: "weight must be non-negative"}
	case w.SLA < 0:
		return ValidationError{Field: "sla", Reason: "weight must be non-negative"}
	case w.Utilization < 0:
		return ValidationError{Field: "utilization", Reason: "weight must be non-negative"}
	case w.Emissions < 0:
		return ValidationError{Field: "emissions", Reason: "weight must be non-negative"}
	}
	return nil
}

// IsZero reports whether every weight is zero.
func (w OptimizationWeights) IsZero() bool {
	return w.Cost == 0 && w.SLA == 0 && w.Utilization == 0 && w.Emissions == 0
}

// Normalized returns the weights scaled to sum to one. All-zero weights fall
// back to equal weighting so a caller who passes no preference still gets a
// deterministic plan.
func (w OptimizationWeights) Normalized() OptimizationWeights {
	if w.IsZero() {
		return OptimizationWeights{Cost: 0.25, SLA: 0.25, Utilization: 0.25, Emissions: 0.25}
	}
	sum := w.Cost + w.SLA + w.Utilization + w.Emissions
	return OptimizationWeights{
		Cost:        w.Cost / sum,
		SLA:         w.SLA / sum,
		Utilization: w.Utilization / sum,
		Emissions:   w.Emissions / sum,
	}
}
