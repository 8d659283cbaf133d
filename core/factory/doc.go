// Package factory instantiates pluggable modules (solver engines, metrics
// sinks, plan log stores, publishers) from configuration. A module is named
// by a type string and configured by a raw map that its factory decodes with
// Decode.
//
//	reg := factory.NewRegistry[solver.Engine]()
//	reg.MustRegister("branch_and_bound", func(map[string]any) (solver.Engine, error) {
//	    return solver.BranchAndBound{}, nil
//	})
//	e, err := reg.Create(factory.ModuleConfig{Type: "branch_and_bound"})
package factory
