package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sailq/rakeflow/core/model"
)

// orderDef is one entry of the on-disk order book.
type orderDef struct {
	ID          string    `yaml:"id"`
	Customer    string    `yaml:"customer"`
	Cargo       string    `yaml:"cargo"`
	Tons        float64   `yaml:"tons"`
	Destination string    `yaml:"destination"`
	Priority    string    `yaml:"priority"`
	CreatedAt   time.Time `yaml:"created_at"`
}

type orderFile struct {
	Orders []orderDef `yaml:"orders"`
}

// LoadOrders reads a YAML order book and stores every entry as an approved
// order. Entries without a creation time are stamped onto the given planning
// day, preserving file order.
func (s *Service) LoadOrders(ctx context.Context, path string, date time.Time) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read order book: %w", err)
	}
	var book orderFile
	if err := yaml.Unmarshal(data, &book); err != nil {
		return 0, fmt.Errorf("parse order book: %w", err)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 8, 0, 0, 0, time.UTC)
	for i, def := range book.Orders {
		o := model.Order{
			ID:           def.ID,
			Customer:     def.Customer,
			Cargo:        def.Cargo,
			QuantityTons: def.Tons,
			Destination:  def.Destination,
			Status:       model.StatusApproved,
			CreatedAt:    def.CreatedAt,
		}
		if o.ID == "" {
			o.ID = fmt.Sprintf("ORD-%03d", i+1)
		}
		if strings.EqualFold(def.Priority, "urgent") {
			o.Priority = model.PriorityUrgent
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = day.Add(time.Duration(i) * time.Minute)
		}
		if err := s.Store.Put(ctx, o); err != nil {
			return 0, fmt.Errorf("order %s: %w", o.ID, err)
		}
	}
	return len(book.Orders), nil
}
