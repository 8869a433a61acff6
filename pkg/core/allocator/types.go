package allocator

import (
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// SlotStatus is the staffing outcome of a slot relative to its minimum headcount
type SlotStatus string

const (
	SlotFilled    SlotStatus = "FILLED"
	SlotPartial   SlotStatus = "PARTIAL"
	SlotUnstaffed SlotStatus = "UNSTAFFED"
)

// RunStatus is the overall result of a generation run
type RunStatus string

const (
	StatusSuccess RunStatus = "SUCCESS"
	StatusPartial RunStatus = "PARTIAL"
	StatusError   RunStatus = "ERROR"
)

// Assignment places one employee on one slot
type Assignment struct {
	SlotID     string
	EmployeeID string
	Date       time.Time
	// Start/End are the wall-clock bounds of Window
	Start      model.TimeOfDay
	End        model.TimeOfDay
	Window     model.Window
	ShiftID    *string
	BreakStart *model.TimeOfDay
	BreakEnd   *model.TimeOfDay
	Score      float64
}

// Hours returns the paid hours of the assignment, excluding its break
func (a Assignment) Hours() float64 {
	hours := a.Window.Hours()
	if a.BreakStart != nil && a.BreakEnd != nil {
		hours -= float64(model.DurationMinutes(*a.BreakStart, *a.BreakEnd)) / 60
	}
	return hours
}

// Veto records a candidate skipped by a hard constraint
type Veto struct {
	EmployeeID    string
	CriterionName string
	Reason        string
}

// SlotOutcome is the per-slot result of the assignment loop
type SlotOutcome struct {
	Slot   coverage.Slot
	Status SlotStatus
	// PreFilled counts base-version entries that already cover the slot
	PreFilled int
	Assigned  []Assignment
	// EligibleCount is the number of candidates left after eligibility and vetoes
	EligibleCount int
	Vetoes        []Veto
}

// Filled returns the total headcount on the slot
func (o SlotOutcome) Filled() int {
	return o.PreFilled + len(o.Assigned)
}

// ValidationError describes a hard-constraint violation found after allocation
type ValidationError struct {
	EmployeeID    string
	Date          string
	CriterionName string
	Description   string
}
