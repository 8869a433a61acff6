package allocator

import (
	"fmt"
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// MaxConsecutiveDaysCriterion caps the number of consecutive worked days.
//
// Validity:
//   - Returns false if taking the slot would join worked days on either side into a streak past the cap
//   - A second slot on a day already worked never changes the streak
//
// Validation:
//   - Reports every streak longer than the cap that contains a day assigned by this run
type MaxConsecutiveDaysCriterion struct {
	maxDays int
}

// NewMaxConsecutiveDaysCriterion creates the criterion; zero disables it
func NewMaxConsecutiveDaysCriterion(maxDays int) *MaxConsecutiveDaysCriterion {
	return &MaxConsecutiveDaysCriterion{maxDays: maxDays}
}

func (c *MaxConsecutiveDaysCriterion) Name() string {
	return "MaxConsecutiveDays"
}

func (c *MaxConsecutiveDaysCriterion) IsAssignmentValid(state *RunState, employeeID string, slot coverage.Slot) (bool, string) {
	if c.maxDays <= 0 || state.WorksOn(employeeID, slot.Date) {
		return true, ""
	}
	streak := state.ConsecutiveDaysBefore(employeeID, slot.Date) + 1 + state.ConsecutiveDaysAfter(employeeID, slot.Date)
	if streak > c.maxDays {
		return false, fmt.Sprintf("would make %d days in a row (max %d)", streak, c.maxDays)
	}
	return true, ""
}

func (c *MaxConsecutiveDaysCriterion) ValidateRunState(state *RunState) []ValidationError {
	if c.maxDays <= 0 {
		return nil
	}

	var errors []ValidationError
	for _, employeeID := range state.Employees() {
		assigned := make(map[time.Time]bool)
		for _, o := range state.Occupied(employeeID) {
			if o.Origin == OriginAssigned {
				assigned[o.Date] = true
			}
		}

		dates := state.WorkedDates(employeeID)
		runStart := 0
		for i := range dates {
			last := i == len(dates)-1
			if !last && dates[i].AddDate(0, 0, 1).Equal(dates[i+1]) {
				continue
			}
			run := dates[runStart : i+1]
			runStart = i + 1
			if len(run) <= c.maxDays || !containsAny(run, assigned) {
				continue
			}
			errors = append(errors, ValidationError{
				EmployeeID:    employeeID,
				Date:          model.FormatDate(run[len(run)-1]),
				CriterionName: c.Name(),
				Description: fmt.Sprintf("Employee '%s' works %d consecutive days from %s to %s (max %d)",
					employeeID, len(run), model.FormatDate(run[0]), model.FormatDate(run[len(run)-1]), c.maxDays),
			})
		}
	}
	return errors
}

func containsAny(dates []time.Time, set map[time.Time]bool) bool {
	for _, d := range dates {
		if set[d] {
			return true
		}
	}
	return false
}
