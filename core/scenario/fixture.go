package scenario

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sailq/rakeflow/core/geo"
	"github.com/sailq/rakeflow/core/model"
	"github.com/sailq/rakeflow/core/repository"
)

// OrderDef is a backlog order in a fixture file.
type OrderDef struct {
	ID           string  `yaml:"id"`
	Cargo        string  `yaml:"cargo"`
	Tons         float64 `yaml:"tons"`
	Destination  string  `yaml:"destination"`
	Urgent       bool    `yaml:"urgent,omitempty"`
	MinutesAfter int     `yaml:"minutes_after,omitempty"`
}

// ToModel converts the definition into an approved order.
func (o OrderDef) ToModel(base time.Time) model.Order {
	priority := model.PriorityNormal
	if o.Urgent {
		priority = model.PriorityUrgent
	}
	return model.Order{
		ID:           o.ID,
		Cargo:        o.Cargo,
		QuantityTons: o.Tons,
		Destination:  o.Destination,
		Priority:     priority,
		Status:       model.StatusApproved,
		CreatedAt:    base.Add(time.Duration(o.MinutesAfter) * time.Minute),
	}
}

// StockyardDef is a supply location in a fixture file.
type StockyardDef struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Warehouse string  `yaml:"warehouse,omitempty"`
	Lat       float64 `yaml:"lat"`
	Lng       float64 `yaml:"lng"`
}

// PointDef is a loading point in a fixture file.
type PointDef struct {
	ID                   string  `yaml:"id"`
	Stockyard            string  `yaml:"stockyard"`
	Material             string  `yaml:"material"`
	CapacityTons         float64 `yaml:"capacity_tons"`
	CurrentTons          float64 `yaml:"current_tons"`
	LoadingCostPerTon    float64 `yaml:"loading_cost_per_ton"`
	DemurragePerDay      float64 `yaml:"demurrage_per_day"`
	HoldingCostPerTonDay float64 `yaml:"holding_cost_per_ton_day"`
	AvgWagonCapacityTons float64 `yaml:"avg_wagon_capacity_tons,omitempty"`
}

// Expected declares fixture assertions.
type Expected struct {
	ZeroImpact            bool    `yaml:"zero_impact,omitempty"`
	UtilizationDeltaBelow float64 `yaml:"utilization_delta_below,omitempty"`
	Recommendation        string  `yaml:"recommendation,omitempty"`
	Priority              string  `yaml:"priority,omitempty"`
}

// Fixture is a declarative what-if case.
type Fixture struct {
	Name           string                    `yaml:"name"`
	Description    string                    `yaml:"description,omitempty"`
	Weights        model.OptimizationWeights `yaml:"weights"`
	Orders         []OrderDef                `yaml:"orders"`
	Stockyards     []StockyardDef            `yaml:"stockyards"`
	Points         []PointDef                `yaml:"points"`
	WagonsByRegion map[string]int            `yaml:"wagons_by_region,omitempty"`
	MaterialityINR float64                   `yaml:"materiality_inr,omitempty"`
	Scenario       model.ScenarioConfig      `yaml:"scenario"`
	Expected       Expected                  `yaml:"expected"`
}

// Load reads one fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Inputs materializes the fixture into planning inputs. The gazetteer is
// derived from the stockyard locations, as destinations in these cases are
// stockyard cities.
func (f *Fixture) Inputs(base time.Time) ([]model.Order, *repository.Snapshot, *geo.Gazetteer) {
	orders := make([]model.Order, len(f.Orders))
	for i, o := range f.Orders {
		orders[i] = o.ToModel(base)
	}

	snap := &repository.Snapshot{
		Stockyards:     make(map[string]model.Stockyard, len(f.Stockyards)),
		Reserved:       map[string]float64{},
		WagonsByRegion: f.WagonsByRegion,
	}
	if snap.WagonsByRegion == nil {
		snap.WagonsByRegion = map[string]int{}
	}
	gaz := geo.NewGazetteer()
	for _, sy := range f.Stockyards {
		snap.Stockyards[sy.ID] = model.Stockyard{ID: sy.ID, Name: sy.Name, Warehouse: sy.Warehouse, Lat: sy.Lat, Lng: sy.Lng}
		gaz.Add(geo.Place{Name: sy.Name, Region: sy.Name, Lat: sy.Lat, Lng: sy.Lng})
	}
	for _, p := range f.Points {
		snap.Points = append(snap.Points, model.LoadingPoint{
			ID:                   p.ID,
			StockyardID:          p.Stockyard,
			Material:             p.Material,
			CapacityTons:         p.CapacityTons,
			CurrentTons:          p.CurrentTons,
			LoadingCostPerTon:    p.LoadingCostPerTon,
			DemurragePerDay:      p.DemurragePerDay,
			HoldingCostPerTonDay: p.HoldingCostPerTonDay,
			AvgWagonCapacityTons: p.AvgWagonCapacityTons,
		})
	}
	snap.Index()
	return orders, snap, gaz
}
