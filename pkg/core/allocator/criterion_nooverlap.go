package allocator

import (
	"fmt"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// NoOverlapCriterion stops an employee from holding two overlapping windows.
//
// Validity:
//   - Returns false if the slot window overlaps any window the employee already holds
//
// Validation:
//   - Reports every overlapping pair inside the version that involves a window assigned by this run
type NoOverlapCriterion struct{}

func NewNoOverlapCriterion() *NoOverlapCriterion {
	return &NoOverlapCriterion{}
}

func (c *NoOverlapCriterion) Name() string {
	return "NoOverlap"
}

func (c *NoOverlapCriterion) IsAssignmentValid(state *RunState, employeeID string, slot coverage.Slot) (bool, string) {
	for _, o := range state.Occupied(employeeID) {
		if o.Window.Overlaps(slot.Window) {
			return false, fmt.Sprintf("already working %s-%s", o.Window.Start.Format("2006-01-02 15:04"), o.Window.End.Format("15:04"))
		}
	}
	return true, ""
}

func (c *NoOverlapCriterion) ValidateRunState(state *RunState) []ValidationError {
	var errors []ValidationError
	for _, employeeID := range state.Employees() {
		var inVersion []Occupation
		for _, o := range state.Occupied(employeeID) {
			if o.Origin != OriginHistory {
				inVersion = append(inVersion, o)
			}
		}
		for i := 0; i < len(inVersion); i++ {
			for j := i + 1; j < len(inVersion); j++ {
				// sorted by start: nothing later can overlap i once j starts after i ends
				if !inVersion[j].Window.Start.Before(inVersion[i].Window.End) {
					break
				}
				if inVersion[i].Origin != OriginAssigned && inVersion[j].Origin != OriginAssigned {
					continue
				}
				errors = append(errors, ValidationError{
					EmployeeID:    employeeID,
					Date:          model.FormatDate(inVersion[j].Date),
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("Employee '%s' holds overlapping windows %s and %s", employeeID, inVersion[i].Ref, inVersion[j].Ref),
				})
			}
		}
	}
	return errors
}
