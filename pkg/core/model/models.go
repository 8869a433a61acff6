package model

import (
	"slices"
	"time"
)

// Employee represents a member of staff that can be scheduled
type Employee struct {
	ID                    string
	FirstName             string
	LastName              string
	ContractedWeeklyHours float64
	IsKeyholder           bool
	IsActive              bool
	// SeniorityYears is nil when years of service are unknown
	SeniorityYears *float64
	Qualifications []string
}

// FullName returns the display name of the employee
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// HasQualification returns true if the employee holds the given qualification
func (e Employee) HasQualification(qualification string) bool {
	return slices.Contains(e.Qualifications, qualification)
}

// ShiftType classifies a shift template
type ShiftType string

const (
	ShiftTypeEarly  ShiftType = "EARLY"
	ShiftTypeMiddle ShiftType = "MIDDLE"
	ShiftTypeLate   ShiftType = "LATE"
	ShiftTypeNight  ShiftType = "NIGHT"
)

// ShiftTemplate is a reusable shift shape
type ShiftTemplate struct {
	ID            string
	Start         TimeOfDay
	End           TimeOfDay
	Type          ShiftType
	RequiresBreak bool
	// ActiveDays lists the weekdays the template applies to; empty means every day
	ActiveDays []time.Weekday
}

// DurationMinutes returns the derived duration of the template
func (t ShiftTemplate) DurationMinutes() int {
	return DurationMinutes(t.Start, t.End)
}

// AppliesOn returns true if the template can be used on the given weekday
func (t ShiftTemplate) AppliesOn(day time.Weekday) bool {
	return len(t.ActiveDays) == 0 || slices.Contains(t.ActiveDays, day)
}

// CoverageRequirement is a fixed staffing demand for a weekday and time window
type CoverageRequirement struct {
	ID                     string
	DayOfWeek              time.Weekday
	Start                  TimeOfDay
	End                    TimeOfDay
	MinEmployees           int
	MaxEmployees           int
	RequiredQualifications []string
	RequiresKeyholder      bool
	// ShiftTemplateID optionally pins the slot to a template
	ShiftTemplateID string
}

// RecurringCoveragePattern expands into coverage requirements on matching weekdays
type RecurringCoveragePattern struct {
	ID         string
	Name       string
	DaysOfWeek []time.Weekday
	// RRule optionally replaces DaysOfWeek with a full recurrence rule (e.g. FREQ=WEEKLY;INTERVAL=2;BYDAY=SA)
	RRule                  string
	ValidFrom              *time.Time
	ValidTo                *time.Time
	Start                  TimeOfDay
	End                    TimeOfDay
	MinEmployees           int
	MaxEmployees           int
	RequiredQualifications []string
	RequiresKeyholder      bool
	ShiftTemplateID        string
}

// AvailabilityType classifies an availability statement
type AvailabilityType string

const (
	AvailabilityPreferred   AvailabilityType = "PREFERRED"
	AvailabilityAvailable   AvailabilityType = "AVAILABLE"
	AvailabilityUnavailable AvailabilityType = "UNAVAILABLE"
)

func (a AvailabilityType) IsValid() bool {
	return a == AvailabilityPreferred || a == AvailabilityAvailable || a == AvailabilityUnavailable
}

// Availability is a recurring (no date bounds) or date-bounded statement for a weekday and time range
type Availability struct {
	EmployeeID string
	DayOfWeek  time.Weekday
	Start      TimeOfDay
	End        TimeOfDay
	Type       AvailabilityType
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

// AppliesOn returns true if the statement covers the given calendar date
func (a Availability) AppliesOn(date time.Time) bool {
	if date.Weekday() != a.DayOfWeek {
		return false
	}
	return WithinBounds(date, a.ValidFrom, a.ValidTo)
}

// Preference is an employee's declared strength (1..5, 3 is neutral) for a weekday and time range
type Preference struct {
	EmployeeID string
	DayOfWeek  time.Weekday
	Start      TimeOfDay
	End        TimeOfDay
	Strength   int
}

// Absence makes an employee ineligible for every date in [StartDate, EndDate]
type Absence struct {
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// Covers returns true if the absence includes the given date
func (a Absence) Covers(date time.Time) bool {
	d := NormalizeDate(date)
	return !d.Before(NormalizeDate(a.StartDate)) && !d.After(NormalizeDate(a.EndDate))
}

// Performance holds historical punctuality and reliability scores in [0,1]
type Performance struct {
	EmployeeID  string
	Punctuality float64
	Reliability float64
}
