package fulfillment

import (
	"fmt"

	"github.com/kilianp07/lineplan/core/model"
)

// Config tunes a fulfillment run.
type Config struct {
	// DefaultWindowDays is used when a request omits its end time.
	DefaultWindowDays int `json:"default_window_days" yaml:"default_window_days"`
	// MinWindowDays is the shortest window accepted.
	MinWindowDays int `json:"min_window_days" yaml:"min_window_days"`
	// SetupHours caps the setup task derived for every schedule.
	SetupHours float64 `json:"setup_hours" yaml:"setup_hours"`
	// MinProductionHours is the floor of the production task.
	MinProductionHours float64          `json:"min_production_hours" yaml:"min_production_hours"`
	SetupSkill         string           `json:"setup_skill" yaml:"setup_skill"`
	ProductionSkill    string           `json:"production_skill" yaml:"production_skill"`
	RequiredLevel      model.SkillLevel `json:"required_level" yaml:"required_level"`
	// HoursPerUnit feeds the order item duration estimate.
	HoursPerUnit float64 `json:"hours_per_unit" yaml:"hours_per_unit"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.DefaultWindowDays <= 0 {
		c.DefaultWindowDays = 30
	}
	if c.MinWindowDays <= 0 {
		c.MinWindowDays = 1
	}
	if c.SetupHours <= 0 {
		c.SetupHours = 2
	}
	if c.MinProductionHours <= 0 {
		c.MinProductionHours = 1
	}
	if c.SetupSkill == "" {
		c.SetupSkill = "assembly"
	}
	if c.ProductionSkill == "" {
		c.ProductionSkill = "production"
	}
	if c.RequiredLevel == "" {
		c.RequiredLevel = model.SkillIntermediate
	}
	if c.HoursPerUnit <= 0 {
		c.HoursPerUnit = model.DefaultHoursPerUnit
	}
}

// Validate rejects windows shorter than the minimum and unknown skill levels.
func (c Config) Validate() error {
	if c.DefaultWindowDays < c.MinWindowDays {
		return fmt.Errorf("default_window_days %d is below min_window_days %d", c.DefaultWindowDays, c.MinWindowDays)
	}
	switch c.RequiredLevel {
	case model.SkillJunior, model.SkillIntermediate, model.SkillSenior, model.SkillExpert:
	default:
		return fmt.Errorf("unknown required_level %q", c.RequiredLevel)
	}
	return nil
}
