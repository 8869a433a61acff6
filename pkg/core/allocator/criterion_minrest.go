package allocator

import (
	"fmt"
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// MinRestCriterion enforces a minimum rest period between two shifts of one employee,
// including the last published shift before the range.
//
// Validity:
//   - Returns false if the gap between the slot and any held window is shorter than the minimum
//
// Validation:
//   - Reports consecutive windows closer than the minimum where at least one was assigned by this run
type MinRestCriterion struct {
	minRest time.Duration
}

// NewMinRestCriterion creates the criterion; a zero duration disables it
func NewMinRestCriterion(minRest time.Duration) *MinRestCriterion {
	return &MinRestCriterion{minRest: minRest}
}

func (c *MinRestCriterion) Name() string {
	return "MinRest"
}

func (c *MinRestCriterion) IsAssignmentValid(state *RunState, employeeID string, slot coverage.Slot) (bool, string) {
	if c.minRest <= 0 {
		return true, ""
	}
	for _, o := range state.Occupied(employeeID) {
		gap, ok := restBetween(o.Window, slot.Window)
		if ok && gap < c.minRest {
			return false, fmt.Sprintf("only %s rest from shift at %s", gap, o.Window.Start.Format("2006-01-02 15:04"))
		}
	}
	return true, ""
}

func (c *MinRestCriterion) ValidateRunState(state *RunState) []ValidationError {
	if c.minRest <= 0 {
		return nil
	}
	var errors []ValidationError
	for _, employeeID := range state.Employees() {
		occ := state.Occupied(employeeID)
		for i := 1; i < len(occ); i++ {
			prev, next := occ[i-1], occ[i]
			if prev.Origin != OriginAssigned && next.Origin != OriginAssigned {
				continue
			}
			gap, ok := restBetween(prev.Window, next.Window)
			if !ok || gap >= c.minRest {
				continue
			}
			errors = append(errors, ValidationError{
				EmployeeID:    employeeID,
				Date:          model.FormatDate(next.Date),
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Employee '%s' has %s rest between %s and %s (minimum %s)", employeeID, gap, prev.Ref, next.Ref, c.minRest),
			})
		}
	}
	return errors
}

// restBetween returns the gap between two disjoint windows; overlapping windows have no gap
func restBetween(a, b model.Window) (time.Duration, bool) {
	switch {
	case !a.End.After(b.Start):
		return b.Start.Sub(a.End), true
	case !b.End.After(a.Start):
		return a.Start.Sub(b.End), true
	}
	return 0, false
}
