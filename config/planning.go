package config

import (
	"fmt"

	"github.com/sailq/rakeflow/core/allocation"
	"github.com/sailq/rakeflow/core/consolidation"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/optimizer"
	"github.com/sailq/rakeflow/core/scenario"
	"github.com/sailq/rakeflow/core/sourcing"
)

// SourcingConfig tunes candidate ranking.
type SourcingConfig struct {
	// DefaultFreightRate is the INR per ton-km applied when no override is
	// supplied on a request.
	DefaultFreightRate float64 `json:"default_freight_rate"`
	// MaxFreightRate bounds an acceptable override.
	MaxFreightRate float64 `json:"max_freight_rate"`
	TrainSpeedKph  float64 `json:"train_speed_kph"`
	// TopN limits how many ranked candidates are returned.
	TopN int `json:"top_n"`
	// Promise hours per priority class.
	NormalPromiseHours float64 `json:"normal_promise_hours"`
	UrgentPromiseHours float64 `json:"urgent_promise_hours"`
}

// SetDefaults applies sane defaults.
func (c *SourcingConfig) SetDefaults() {
	if c.DefaultFreightRate == 0 {
		c.DefaultFreightRate = 1.5
	}
	if c.MaxFreightRate == 0 {
		c.MaxFreightRate = 3
	}
	if c.TrainSpeedKph == 0 {
		c.TrainSpeedKph = 45
	}
	if c.TopN == 0 {
		c.TopN = 5
	}
	if c.NormalPromiseHours == 0 {
		c.NormalPromiseHours = 96
	}
	if c.UrgentPromiseHours == 0 {
		c.UrgentPromiseHours = 48
	}
}

// Validate checks field ranges.
func (c SourcingConfig) Validate() error {
	if c.DefaultFreightRate <= 0 || c.DefaultFreightRate > c.MaxFreightRate {
		return fmt.Errorf("default_freight_rate %v outside (0, %v]", c.DefaultFreightRate, c.MaxFreightRate)
	}
	if c.TrainSpeedKph <= 0 {
		return fmt.Errorf("train_speed_kph must be positive")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive")
	}
	if c.NormalPromiseHours <= 0 || c.UrgentPromiseHours <= 0 {
		return fmt.Errorf("promise hours must be positive")
	}
	return nil
}

// Params converts to the sourcing parameters.
func (c SourcingConfig) Params() sourcing.Params {
	return sourcing.Params{
		DefaultFreightRate: c.DefaultFreightRate,
		MaxFreightRate:     c.MaxFreightRate,
		TrainSpeedKph:      c.TrainSpeedKph,
		TopN:               c.TopN,
		PromiseHours: map[model.Priority]float64{
			model.PriorityNormal: c.NormalPromiseHours,
			model.PriorityUrgent: c.UrgentPromiseHours,
		},
	}
}

// AllocationConfig tunes rake formation.
type AllocationConfig struct {
	// WagonCapacityTons is the fallback capacity when the wagon table has no
	// entry for a material.
	WagonCapacityTons  float64 `json:"wagon_capacity_tons"`
	MaxWagonsPerRake   int     `json:"max_wagons_per_rake"`
	TrainSpeedKph      float64 `json:"train_speed_kph"`
	NormalPromiseHours float64 `json:"normal_promise_hours"`
	UrgentPromiseHours float64 `json:"urgent_promise_hours"`
}

// SetDefaults applies sane defaults.
func (c *AllocationConfig) SetDefaults() {
	if c.WagonCapacityTons == 0 {
		c.WagonCapacityTons = 60
	}
	if c.MaxWagonsPerRake == 0 {
		c.MaxWagonsPerRake = 59
	}
	if c.TrainSpeedKph == 0 {
		c.TrainSpeedKph = 45
	}
	if c.NormalPromiseHours == 0 {
		c.NormalPromiseHours = 96
	}
	if c.UrgentPromiseHours == 0 {
		c.UrgentPromiseHours = 48
	}
}

// Validate checks field ranges.
func (c AllocationConfig) Validate() error {
	if c.WagonCapacityTons <= 0 {
		return fmt.Errorf("wagon_capacity_tons must be positive")
	}
	if c.MaxWagonsPerRake <= 0 {
		return fmt.Errorf("max_wagons_per_rake must be positive")
	}
	if c.TrainSpeedKph <= 0 {
		return fmt.Errorf("train_speed_kph must be positive")
	}
	return nil
}

// Params converts to the allocation parameters.
func (c AllocationConfig) Params() allocation.Params {
	return allocation.Params{
		WagonCapacityTons: c.WagonCapacityTons,
		MaxWagonsPerRake:  c.MaxWagonsPerRake,
		TrainSpeedKph:     c.TrainSpeedKph,
		PromiseHours: map[model.Priority]float64{
			model.PriorityNormal: c.NormalPromiseHours,
			model.PriorityUrgent: c.UrgentPromiseHours,
		},
	}
}

// ConsolidationConfig tunes order clubbing.
type ConsolidationConfig struct {
	ClubWagons int     `json:"club_wagons"`
	MinTonnage float64 `json:"min_tonnage"`
}

// SetDefaults applies sane defaults.
func (c *ConsolidationConfig) SetDefaults() {
	if c.ClubWagons == 0 {
		c.ClubWagons = 4
	}
	if c.MinTonnage == 0 {
		c.MinTonnage = 50
	}
}

// Validate checks field ranges.
func (c ConsolidationConfig) Validate() error {
	if c.ClubWagons <= 0 {
		return fmt.Errorf("club_wagons must be positive")
	}
	if c.MinTonnage <= 0 {
		return fmt.Errorf("min_tonnage must be positive")
	}
	return nil
}

// Params converts to the consolidation parameters.
func (c ConsolidationConfig) Params() consolidation.Params {
	return consolidation.Params{ClubWagons: c.ClubWagons, MinTonnage: c.MinTonnage}
}

// OptimizerConfig tunes the multi-objective search.
type OptimizerConfig struct {
	Alternatives        int     `json:"alternatives"`
	SwapBudget          int     `json:"swap_budget"`
	Seed                int64   `json:"seed"`
	WeightJitter        float64 `json:"weight_jitter"`
	EmissionsKgPerTonKm float64 `json:"emissions_kg_per_ton_km"`
	// Weights are the default objective weights when a request carries none.
	Weights model.OptimizationWeights `json:"weights"`
}

// SetDefaults applies sane defaults. Zero weights are left alone: the
// optimizer treats them as equal weighting.
func (c *OptimizerConfig) SetDefaults() {
	if c.Alternatives == 0 {
		c.Alternatives = 4
	}
	if c.SwapBudget == 0 {
		c.SwapBudget = 64
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.WeightJitter == 0 {
		c.WeightJitter = 0.05
	}
	if c.EmissionsKgPerTonKm == 0 {
		c.EmissionsKgPerTonKm = 0.022
	}
}

// Validate checks field ranges.
func (c OptimizerConfig) Validate() error {
	if c.Alternatives < 0 {
		return fmt.Errorf("alternatives must be non-negative")
	}
	if c.SwapBudget < 0 {
		return fmt.Errorf("swap_budget must be non-negative")
	}
	if c.WeightJitter < 0 || c.WeightJitter >= 1 {
		return fmt.Errorf("weight_jitter %v outside [0, 1)", c.WeightJitter)
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	return nil
}

// Params converts to the optimizer parameters.
func (c OptimizerConfig) Params() optimizer.Params {
	return optimizer.Params{
		Alternatives:        c.Alternatives,
		SwapBudget:          c.SwapBudget,
		Seed:                c.Seed,
		WeightJitter:        c.WeightJitter,
		EmissionsKgPerTonKm: c.EmissionsKgPerTonKm,
	}
}

// ScenarioConfig tunes what-if impact assessment.
type ScenarioConfig struct {
	CostMaterialityINR float64 `json:"cost_materiality_inr"`
	SLAMaterialityPts  float64 `json:"sla_materiality_pts"`
	WagonCapacityTons  float64 `json:"wagon_capacity_tons"`
}

// SetDefaults applies sane defaults.
func (c *ScenarioConfig) SetDefaults() {
	if c.CostMaterialityINR == 0 {
		c.CostMaterialityINR = 50000
	}
	if c.SLAMaterialityPts == 0 {
		c.SLAMaterialityPts = 0.05
	}
	if c.WagonCapacityTons == 0 {
		c.WagonCapacityTons = 60
	}
}

// Validate checks field ranges.
func (c ScenarioConfig) Validate() error {
	if c.CostMaterialityINR <= 0 {
		return fmt.Errorf("cost_materiality_inr must be positive")
	}
	if c.SLAMaterialityPts <= 0 || c.SLAMaterialityPts > 1 {
		return fmt.Errorf("sla_materiality_pts %v outside (0, 1]", c.SLAMaterialityPts)
	}
	return nil
}

// Params converts to the scenario engine parameters.
func (c ScenarioConfig) Params() scenario.Params {
	return scenario.Params{
		CostMaterialityINR: c.CostMaterialityINR,
		SLAMaterialityPts:  c.SLAMaterialityPts,
		WagonCapacityTons:  c.WagonCapacityTons,
	}
}
