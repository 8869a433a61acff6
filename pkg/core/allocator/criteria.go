package allocator

import "github.com/jakechorley/shift-planner/pkg/core/coverage"

// Criterion is a hard constraint applied during allocation and re-checked afterwards
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// IsAssignmentValid determines if the employee may take the slot given the current state.
	// This acts as a veto - if ANY criterion returns false, the employee is skipped for the slot.
	// The returned string explains a veto.
	IsAssignmentValid(state *RunState, employeeID string, slot coverage.Slot) (bool, string)

	// ValidateRunState checks the final state and returns every violation (empty if valid)
	ValidateRunState(state *RunState) []ValidationError
}

// checkCriteria returns the first veto, if any
func checkCriteria(state *RunState, employeeID string, slot coverage.Slot, criteria []Criterion) *Veto {
	for _, c := range criteria {
		if ok, reason := c.IsAssignmentValid(state, employeeID, slot); !ok {
			return &Veto{EmployeeID: employeeID, CriterionName: c.Name(), Reason: reason}
		}
	}
	return nil
}

// ValidateRunState validates the final run state against all provided criteria.
// An empty slice indicates the state is valid.
func ValidateRunState(state *RunState, criteria []Criterion) []ValidationError {
	var errors []ValidationError
	for _, criterion := range criteria {
		errors = append(errors, criterion.ValidateRunState(state)...)
	}
	return errors
}
