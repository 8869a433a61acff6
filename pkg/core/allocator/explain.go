package allocator

import (
	"sort"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/eligibility"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/scoring"
)

// CandidateExplanation tells why an employee would or would not be picked for a slot
type CandidateExplanation struct {
	Employee  model.Employee
	Verdict   eligibility.Verdict
	Veto      *Veto
	Breakdown *scoring.Breakdown
	// Rank is 1-based among scored candidates, 0 when the employee was not scored
	Rank int
}

// Explain evaluates every employee against one slot, as if it were the first slot of a run.
// Scored candidates come first in rank order, then everyone else by ID.
func (a *Allocator) Explain(in AllocationInput, slot coverage.Slot) []CandidateExplanation {
	state := NewRunState()
	for _, e := range in.HistoricalEntries {
		state.SeedEntry(e, OriginHistory)
	}
	for _, e := range in.PreAllocations {
		state.SeedEntry(e, OriginBase)
	}

	active := activeEmployees(in.Employees)
	ids := make([]string, len(active))
	for i, e := range active {
		ids[i] = e.ID
	}
	var teamAverage *float64
	if avg, ok := in.History.TeamAverageWeeklyHours(ids); ok {
		teamAverage = &avg
	}

	var scored []Candidate
	var rest []CandidateExplanation
	for _, e := range in.Employees {
		verdict := in.Filter.Check(e, slot)
		if !verdict.Eligible {
			rest = append(rest, CandidateExplanation{Employee: e, Verdict: verdict})
			continue
		}
		if veto := checkCriteria(state, e.ID, slot, a.criteria); veto != nil {
			rest = append(rest, CandidateExplanation{Employee: e, Verdict: verdict, Veto: veto})
			continue
		}
		scored = append(scored, Candidate{
			Employee:  e,
			Breakdown: a.scorer.Explain(a.scoringInput(state, slot, e, in, teamAverage)),
		})
	}

	RankCandidates(scored, a.opts.CandidateTieBreak)
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Employee.ID < rest[j].Employee.ID })

	out := make([]CandidateExplanation, 0, len(scored)+len(rest))
	for i, c := range scored {
		breakdown := c.Breakdown
		out = append(out, CandidateExplanation{
			Employee:  c.Employee,
			Verdict:   eligibility.Verdict{EmployeeID: c.Employee.ID, Eligible: true},
			Breakdown: &breakdown,
			Rank:      i + 1,
		})
	}
	return append(out, rest...)
}
