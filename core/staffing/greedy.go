package staffing

import "github.com/kilianp07/lineplan/core/model"

// Greedy is the fallback assigner. For each requirement in order it picks the
// least loaded staff member that still fits under the weekly ceiling. Skill
// is ignored.
type Greedy struct{}

// Plan returns the staff index per requirement, -1 when nobody fits. Staff
// workloads are tracked locally and never mutated.
func (Greedy) Plan(reqs []Requirement, staff []model.Staff) []int {
	load := make([]float64, len(staff))
	for i, s := range staff {
		load[i] = s.CurrentWorkloadHours
	}
	out := make([]int, len(reqs))
	for t, r := range reqs {
		out[t] = -1
		for i, s := range staff {
			if load[i]+r.EstimatedHours > s.WeeklyCeiling()+1e-9 {
				continue
			}
			if out[t] < 0 || load[i] < load[out[t]] {
				out[t] = i
			}
		}
		if out[t] >= 0 {
			load[out[t]] += r.EstimatedHours
		}
	}
	return out
}
