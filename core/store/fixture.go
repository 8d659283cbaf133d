package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/lineplan/core/model"
)

// Seeder loads reference data. MemoryStore and the sqlite store implement it.
type Seeder interface {
	PutOrder(ctx context.Context, o model.Order) error
	PutLine(ctx context.Context, l model.ProductionLine) error
	PutStaff(ctx context.Context, s model.Staff) error
}

// Fixture is a plant snapshot: lines, staff, open orders and schedules that
// are already committed.
type Fixture struct {
	Lines     []model.ProductionLine     `yaml:"lines" json:"lines"`
	Staff     []model.Staff              `yaml:"staff" json:"staff"`
	Orders    []model.Order              `yaml:"orders" json:"orders"`
	Schedules []model.ProductionSchedule `yaml:"schedules" json:"schedules"`
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (Fixture, error) {
	var fx Fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return fx, err
	}
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fx, fmt.Errorf("decode %s: %w", path, err)
	}
	return fx, nil
}

// SeedingStore is a Store that also accepts reference data.
type SeedingStore interface {
	Store
	Seeder
}

// Seed writes fx into st. Existing schedules go through CreateSchedule so the
// overlap check applies to them as well.
func (fx Fixture) Seed(ctx context.Context, st SeedingStore) error {
	for _, l := range fx.Lines {
		if err := st.PutLine(ctx, l); err != nil {
			return fmt.Errorf("line %d: %w", l.ID, err)
		}
	}
	for _, s := range fx.Staff {
		if err := st.PutStaff(ctx, s); err != nil {
			return fmt.Errorf("staff %d: %w", s.ID, err)
		}
	}
	for _, o := range fx.Orders {
		if err := st.PutOrder(ctx, o); err != nil {
			return fmt.Errorf("order %d: %w", o.ID, err)
		}
	}
	for _, ps := range fx.Schedules {
		ps.ID = 0
		if _, err := st.CreateSchedule(ctx, ps); err != nil {
			return fmt.Errorf("schedule for order %d: %w", ps.OrderID, err)
		}
	}
	return nil
}
