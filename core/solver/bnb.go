package solver

import (
	"github.com/kilianp07/lineplan/core/factory"
)

// BranchAndBound is the default exact Engine. It holds no state and may be
// shared between goroutines.
type BranchAndBound struct{}

func (BranchAndBound) Name() string { return "branch_and_bound" }

var registry = factory.NewRegistry[Engine]()

func init() {
	registry.MustRegister("branch_and_bound", func(map[string]any) (Engine, error) {
		return BranchAndBound{}, nil
	})
	registry.MustRegister("unavailable", func(map[string]any) (Engine, error) {
		return Unavailable{}, nil
	})
}

// Register adds an engine factory under name.
func Register(name string, f factory.Factory[Engine]) error {
	return registry.Register(name, f)
}

// New builds the engine described by cfg. An empty type selects branch and bound.
func New(cfg factory.ModuleConfig) (Engine, error) {
	if cfg.Type == "" {
		return BranchAndBound{}, nil
	}
	return registry.Create(cfg)
}

// Names lists the registered engine types.
func Names() []string { return registry.Names() }
