package allocator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Origin tells where an occupied window came from
type Origin int

const (
	// OriginHistory is published work before the range; it constrains but is not part of the version
	OriginHistory Origin = iota
	OriginBase
	OriginAssigned
)

// Occupation is a window of time an employee is already committed to
type Occupation struct {
	EmployeeID string
	Date       time.Time
	Window     model.Window
	Origin     Origin
	// Ref is the entry ID for history/base occupations and the slot ID for assignments
	Ref string
}

// RunState holds the per-run counters that earlier assignments feed into later scoring.
// It is owned by one run and never shared.
type RunState struct {
	weekHours   map[string]map[time.Time]decimal.Decimal
	workedDates map[string]map[time.Time]bool
	occupied    map[string][]Occupation
	assignments []Assignment
}

func NewRunState() *RunState {
	return &RunState{
		weekHours:   make(map[string]map[time.Time]decimal.Decimal),
		workedDates: make(map[string]map[time.Time]bool),
		occupied:    make(map[string][]Occupation),
	}
}

// SeedEntry records a history or base-version entry; placeholders are ignored
func (s *RunState) SeedEntry(e model.ScheduleEntry, origin Origin) {
	if e.IsPlaceholder() {
		return
	}
	s.record(Occupation{
		EmployeeID: e.EmployeeID,
		Date:       model.NormalizeDate(e.Date),
		Window:     e.Window(),
		Origin:     origin,
		Ref:        e.ID,
	}, e.Hours())
}

// Assign records an assignment and updates the employee's counters
func (s *RunState) Assign(a Assignment) {
	s.assignments = append(s.assignments, a)
	s.record(Occupation{
		EmployeeID: a.EmployeeID,
		Date:       model.NormalizeDate(a.Date),
		Window:     a.Window,
		Origin:     OriginAssigned,
		Ref:        a.SlotID,
	}, a.Hours())
}

func (s *RunState) record(o Occupation, hours float64) {
	week := model.WeekStart(o.Date)
	if s.weekHours[o.EmployeeID] == nil {
		s.weekHours[o.EmployeeID] = make(map[time.Time]decimal.Decimal)
	}
	s.weekHours[o.EmployeeID][week] = s.weekHours[o.EmployeeID][week].Add(decimal.NewFromFloat(hours))

	if s.workedDates[o.EmployeeID] == nil {
		s.workedDates[o.EmployeeID] = make(map[time.Time]bool)
	}
	s.workedDates[o.EmployeeID][o.Date] = true

	s.occupied[o.EmployeeID] = append(s.occupied[o.EmployeeID], o)
}

// WeekHours returns the hours accumulated in the week containing date
func (s *RunState) WeekHours(employeeID string, date time.Time) decimal.Decimal {
	return s.weekHours[employeeID][model.WeekStart(date)]
}

// WorksOn reports whether the employee already has work on the date
func (s *RunState) WorksOn(employeeID string, date time.Time) bool {
	return s.workedDates[employeeID][model.NormalizeDate(date)]
}

// ConsecutiveDaysBefore counts the unbroken run of worked days ending the day before date
func (s *RunState) ConsecutiveDaysBefore(employeeID string, date time.Time) int {
	worked := s.workedDates[employeeID]
	n := 0
	for d := model.NormalizeDate(date).AddDate(0, 0, -1); worked[d]; d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}

// ConsecutiveDaysAfter counts the unbroken run of worked days starting the day after date
func (s *RunState) ConsecutiveDaysAfter(employeeID string, date time.Time) int {
	worked := s.workedDates[employeeID]
	n := 0
	for d := model.NormalizeDate(date).AddDate(0, 0, 1); worked[d]; d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Occupied returns the employee's occupations sorted by window start
func (s *RunState) Occupied(employeeID string) []Occupation {
	occ := append([]Occupation(nil), s.occupied[employeeID]...)
	sort.SliceStable(occ, func(i, j int) bool { return occ[i].Window.Start.Before(occ[j].Window.Start) })
	return occ
}

// WorkedDates returns the employee's worked dates in ascending order
func (s *RunState) WorkedDates(employeeID string) []time.Time {
	dates := make([]time.Time, 0, len(s.workedDates[employeeID]))
	for d := range s.workedDates[employeeID] {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Employees returns every employee with at least one occupation, sorted by ID
func (s *RunState) Employees() []string {
	ids := make([]string, 0, len(s.occupied))
	for id := range s.occupied {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Assignments returns the assignments made by this run in order
func (s *RunState) Assignments() []Assignment {
	return s.assignments
}
