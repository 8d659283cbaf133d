package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/lineplan/core/store"
)

// Expected lists the outcome checks of a scenario. Nil counts are not checked.
type Expected struct {
	Status             string   `yaml:"status,omitempty"`
	Items              *int     `yaml:"items,omitempty"`
	Skipped            *int     `yaml:"skipped,omitempty"`
	Assignments        *int     `yaml:"assignments,omitempty"`
	StaffFailures      *int     `yaml:"staff_failures,omitempty"`
	MaxMakespanHours   float64  `yaml:"max_makespan_hours,omitempty"`
	ErrorKind          string   `yaml:"error_kind,omitempty"`
	ErrorContains      []string `yaml:"error_contains,omitempty"`
	NumProductionLines *int     `yaml:"num_production_lines,omitempty"`
}

// Window bounds the planning run. A zero end is left to the default window.
type Window struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end,omitempty"`
}

// Scenario is a plant snapshot, one fulfillment request and its expected outcome.
type Scenario struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description,omitempty"`
	Engine        string   `yaml:"engine,omitempty"`
	HoursPerUnit  float64  `yaml:"hours_per_unit,omitempty"`
	Window        Window   `yaml:"window"`
	OrderIDs      []int64  `yaml:"order_ids"`
	Expected      Expected `yaml:"expected"`
	store.Fixture `yaml:",inline"`
}

// Load reads one scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	return &sc, nil
}

// LoadDir reads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
