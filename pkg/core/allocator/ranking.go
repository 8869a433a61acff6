package allocator

import (
	"fmt"
	"sort"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/scoring"
)

// TieBreak decides the order of candidates with identical scores
type TieBreak string

const (
	TieBreakEmployeeID TieBreak = "employee_id"
	// TieBreakSeniority prefers more years of service, then employee ID
	TieBreakSeniority TieBreak = "seniority"
)

func (t TieBreak) validate() error {
	switch t {
	case TieBreakEmployeeID, TieBreakSeniority:
		return nil
	}
	return fmt.Errorf("%w: unknown candidate tie-break %q", model.ErrInvalidInput, t)
}

// Candidate is a scored employee for one slot
type Candidate struct {
	Employee  model.Employee
	Breakdown scoring.Breakdown
}

// RankCandidates sorts candidates by score descending.
// Ties fall through to the tie-break rule and finally to employee ID so the order is total.
func RankCandidates(candidates []Candidate, tieBreak TieBreak) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Breakdown.Score != b.Breakdown.Score {
			return a.Breakdown.Score > b.Breakdown.Score
		}
		if tieBreak == TieBreakSeniority {
			sa, sb := seniorityOf(a.Employee), seniorityOf(b.Employee)
			if sa != sb {
				return sa > sb
			}
		}
		return a.Employee.ID < b.Employee.ID
	})
}

// seniorityOf ranks unknown seniority below every known value
func seniorityOf(e model.Employee) float64 {
	if e.SeniorityYears == nil {
		return -1
	}
	return *e.SeniorityYears
}
