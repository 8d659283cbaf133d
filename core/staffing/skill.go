package staffing

import (
	"math"
	"strings"

	"github.com/kilianp07/lineplan/core/model"
)

// SkillMatcher decides whether a staff member fits a requirement. A mismatch
// is never a hard constraint: it only raises the assignment cost.
type SkillMatcher func(req Requirement, s model.Staff) bool

// DefaultSkillMatcher matches when there is no requirement, when the
// requirement names the staff member's department, or when requirement and
// specialization (or department) contain one another.
func DefaultSkillMatcher(req Requirement, s model.Staff) bool {
	skill := strings.ToLower(strings.TrimSpace(req.RequiredSkill))
	if skill == "" {
		return true
	}
	dept := strings.ToLower(s.Department)
	spec := strings.ToLower(s.Specialization)
	if skill == dept {
		return true
	}
	if spec != "" && (strings.Contains(spec, skill) || strings.Contains(skill, spec)) {
		return true
	}
	return dept != "" && strings.Contains(dept, skill)
}

// Objective weights. A match scores matchWeight, anything else
// mismatchWeight; the penalty is (maxWeight-weight)*penaltyScale.
const (
	costScale      = 100
	matchWeight    = 100
	mismatchWeight = 1
	maxWeight      = 101
	penaltyScale   = 10
)

// Cost is the integer objective term for giving req to s.
func Cost(req Requirement, s model.Staff, matched bool) int64 {
	weight := mismatchWeight
	if matched {
		weight = matchWeight
	}
	labour := int64(math.Round(s.HourlyRate * req.EstimatedHours * costScale))
	return labour + int64((maxWeight-weight)*penaltyScale)
}
