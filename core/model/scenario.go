package model

// ScenarioConfig perturbs the planning inputs for what-if analysis. All
// fractions are bounded; out-of-range values are rejected, not clamped.
type ScenarioConfig struct {
	// SidingCapacityReduction reduces a loading point's usable stock,
	// keyed by loading point ID. Range [0, 0.8].
	SidingCapacityReduction map[string]float64 `json:"siding_capacity_reduction" yaml:"siding_capacity_reduction"`
	// WagonAvailabilityReduction reduces wagons available per region.
	// Range [0, 0.6].
	WagonAvailabilityReduction map[string]float64 `json:"wagon_availability_reduction" yaml:"wagon_availability_reduction"`
	// DemandChange scales order tonnage per product. Range [-0.3, 0.5].
	DemandChange map[string]float64 `json:"demand_change" yaml:"demand_change"`
}

// Validate checks every perturbation against its documented range.
func (c ScenarioConfig) Validate() error {
	for id, v := range c.SidingCapacityReduction {
		if v < 0 || v > 0.8 {
			return ValidationError{Field: "siding_capacity_reduction." + id, Reason: "must be within [0, 0.8]"}
		}
	}
	for region, v := range c.WagonAvailabilityReduction {
		if v < 0 || v > 0.6 {
			return ValidationError{Field: "wagon_availability_reduction." + region, Reason: "must be within [0, 0.6]"}
		}
	}
	for product, v := range c.DemandChange {
		if v < -0.3 || v > 0.5 {
			return ValidationError{Field: "demand_change." + product, Reason: "must be within [-0.3, 0.5]"}
		}
	}
	return nil
}

// IsZero reports whether the scenario perturbs nothing.
func (c ScenarioConfig) IsZero() bool {
	for _, v := range c.SidingCapacityReduction {
		if v != 0 {
			return false
		}
	}
	for _, v := range c.WagonAvailabilityReduction {
		if v != 0 {
			return false
		}
	}
	for _, v := range c.DemandChange {
		if v != 0 {
			return false
		}
	}
	return true
}
