package eligibility

import (
	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Reason explains why an employee cannot fill a slot
type Reason string

const (
	ReasonInactive             Reason = "inactive"
	ReasonAbsent               Reason = "absent"
	ReasonUnavailable          Reason = "unavailable"
	ReasonMissingQualification Reason = "missing qualification"
	ReasonNotKeyholder         Reason = "not a keyholder"
)

// Verdict is the binary eligibility outcome with every reason that applied
type Verdict struct {
	EmployeeID string
	Eligible   bool
	Reasons    []Reason
}

// Filter decides eligibility from a snapshot of availability and absences
type Filter struct {
	enforceKeyholder bool
	unavailable      map[string][]model.Availability
	absences         map[string][]model.Absence
}

// NewFilter indexes the snapshot by employee. With enforceKeyholder off,
// keyholder-required slots accept any employee.
func NewFilter(availability []model.Availability, absences []model.Absence, enforceKeyholder bool) *Filter {
	f := &Filter{
		enforceKeyholder: enforceKeyholder,
		unavailable:      make(map[string][]model.Availability),
		absences:         make(map[string][]model.Absence),
	}
	for _, a := range availability {
		if a.Type == model.AvailabilityUnavailable {
			f.unavailable[a.EmployeeID] = append(f.unavailable[a.EmployeeID], a)
		}
	}
	for _, a := range absences {
		f.absences[a.EmployeeID] = append(f.absences[a.EmployeeID], a)
	}
	return f
}

// Check evaluates every rule and collects all failing reasons
func (f *Filter) Check(e model.Employee, slot coverage.Slot) Verdict {
	v := Verdict{EmployeeID: e.ID}

	if !e.IsActive {
		v.Reasons = append(v.Reasons, ReasonInactive)
	}
	if f.isAbsent(e.ID, slot) {
		v.Reasons = append(v.Reasons, ReasonAbsent)
	}
	if f.isUnavailable(e.ID, slot) {
		v.Reasons = append(v.Reasons, ReasonUnavailable)
	}
	for _, q := range slot.RequiredQualifications {
		if !e.HasQualification(q) {
			v.Reasons = append(v.Reasons, ReasonMissingQualification)
			break
		}
	}
	if f.enforceKeyholder && slot.RequiresKeyholder && !e.IsKeyholder {
		v.Reasons = append(v.Reasons, ReasonNotKeyholder)
	}

	v.Eligible = len(v.Reasons) == 0
	return v
}

// Eligible returns the employees that pass every rule, preserving input order
func (f *Filter) Eligible(slot coverage.Slot, employees []model.Employee) []model.Employee {
	var eligible []model.Employee
	for _, e := range employees {
		if f.Check(e, slot).Eligible {
			eligible = append(eligible, e)
		}
	}
	return eligible
}

func (f *Filter) isAbsent(employeeID string, slot coverage.Slot) bool {
	for _, a := range f.absences[employeeID] {
		if a.Covers(slot.Date) {
			return true
		}
	}
	return false
}

func (f *Filter) isUnavailable(employeeID string, slot coverage.Slot) bool {
	for _, a := range f.unavailable[employeeID] {
		if a.AppliesOn(slot.Date) && model.RangesOverlap(slot.Start, slot.End, a.Start, a.End) {
			return true
		}
	}
	return false
}
