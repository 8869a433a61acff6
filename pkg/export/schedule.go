package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Schedule is one version prepared for rendering
type Schedule struct {
	Version   model.ScheduleVersion
	Entries   []model.ScheduleEntry
	Employees []model.Employee
}

// Roster returns the employees to render: everyone with an entry plus every active employee,
// ordered by name then ID. Entries for unknown employees get a stub using the ID as name.
func (s Schedule) Roster() []model.Employee {
	seen := make(map[string]bool)
	var out []model.Employee
	for _, e := range s.Employees {
		if e.IsActive || s.hasEntries(e.ID) {
			out = append(out, e)
			seen[e.ID] = true
		}
	}
	for _, e := range s.Entries {
		if !seen[e.EmployeeID] {
			out = append(out, model.Employee{ID: e.EmployeeID, FirstName: e.EmployeeID})
			seen[e.EmployeeID] = true
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FullName() != out[j].FullName() {
			return out[i].FullName() < out[j].FullName()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s Schedule) hasEntries(employeeID string) bool {
	for _, e := range s.Entries {
		if e.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

// EntriesFor returns an employee's entries ordered by date and start
func (s Schedule) EntriesFor(employeeID string) []model.ScheduleEntry {
	var out []model.ScheduleEntry
	for _, e := range s.Entries {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

// Weeks returns the Monday of every ISO week touched by the version's range
func (s Schedule) Weeks() []time.Time {
	var weeks []time.Time
	for w := model.WeekStart(s.Version.StartDate); !w.After(s.Version.EndDate); w = w.AddDate(0, 0, 7) {
		weeks = append(weeks, w)
	}
	return weeks
}

// EntryHours returns the paid hours of an entry
func EntryHours(e model.ScheduleEntry) decimal.Decimal {
	return decimal.NewFromFloat(e.Hours()).Round(2)
}

// DescribeEntry renders an entry as "09:00-17:00" with its break, or "OFF" for placeholders
func DescribeEntry(e model.ScheduleEntry) string {
	if e.Start == nil || e.End == nil {
		return "OFF"
	}
	text := fmt.Sprintf("%s-%s", e.Start, e.End)
	if e.BreakStart != nil && e.BreakEnd != nil {
		text += fmt.Sprintf(" (break %s-%s)", e.BreakStart, e.BreakEnd)
	}
	return text
}

func sortEntries(entries []model.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if (a.Start == nil) != (b.Start == nil) {
			return a.Start == nil
		}
		if a.Start != nil && *a.Start != *b.Start {
			return *a.Start < *b.Start
		}
		return a.ID < b.ID
	})
}
