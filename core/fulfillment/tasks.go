package fulfillment

import (
	"math"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/staffing"
)

// DeriveTasks splits a schedule of durationHours into a setup task capped at
// cfg.SetupHours and a production task covering the rest, never shorter than
// cfg.MinProductionHours.
func DeriveTasks(durationHours float64, cfg Config) []staffing.Requirement {
	cfg.SetDefaults()
	setup := math.Min(cfg.SetupHours, durationHours)
	production := math.Max(cfg.MinProductionHours, durationHours-setup)
	return []staffing.Requirement{
		{
			TaskType:       model.TaskSetup,
			EstimatedHours: setup,
			RequiredSkill:  cfg.SetupSkill,
			RequiredLevel:  cfg.RequiredLevel,
		},
		{
			TaskType:       model.TaskProduction,
			EstimatedHours: production,
			RequiredSkill:  cfg.ProductionSkill,
			RequiredLevel:  cfg.RequiredLevel,
		},
	}
}
