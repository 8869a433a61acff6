package scoring

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// EmployeeHistory aggregates an employee's published work over the lookback window
type EmployeeHistory struct {
	EmployeeID  string
	TotalShifts int
	TotalHours  decimal.Decimal
	// WeeklyHours is keyed by the Monday of each week
	WeeklyHours   map[time.Time]decimal.Decimal
	LastShiftDate *time.Time
	Performance   *model.Performance

	lookbackWeeks int
}

// HasData reports whether any history exists for the employee
func (h *EmployeeHistory) HasData() bool {
	return h != nil && (h.TotalShifts > 0 || h.Performance != nil)
}

// AverageWeeklyHours spreads the total over every week of the lookback window,
// so weeks without shifts count as zero-hour weeks
func (h *EmployeeHistory) AverageWeeklyHours() float64 {
	if h == nil || h.lookbackWeeks == 0 {
		return 0
	}
	avg, _ := h.TotalHours.Div(decimal.NewFromInt(int64(h.lookbackWeeks))).Float64()
	return avg
}

// HistoryCache builds EmployeeHistory lazily and keeps it for a single run.
// It is not safe for concurrent use.
type HistoryCache struct {
	entries       map[string][]model.ScheduleEntry
	performance   map[string]model.Performance
	lookbackWeeks int
	cache         map[string]*EmployeeHistory
}

// NewHistoryCache indexes historical entries and performance records.
// Entries are expected to be already restricted to the lookback window.
func NewHistoryCache(entries []model.ScheduleEntry, performance []model.Performance, lookbackDays int) *HistoryCache {
	weeks := (lookbackDays + 6) / 7
	if weeks < 1 {
		weeks = 1
	}

	c := &HistoryCache{
		entries:       make(map[string][]model.ScheduleEntry),
		performance:   make(map[string]model.Performance),
		lookbackWeeks: weeks,
		cache:         make(map[string]*EmployeeHistory),
	}
	for _, e := range entries {
		if e.IsPlaceholder() {
			continue
		}
		c.entries[e.EmployeeID] = append(c.entries[e.EmployeeID], e)
	}
	for _, p := range performance {
		c.performance[p.EmployeeID] = p
	}
	return c
}

// Get returns the employee's history, computing it on first access
func (c *HistoryCache) Get(employeeID string) *EmployeeHistory {
	if h, ok := c.cache[employeeID]; ok {
		return h
	}

	h := &EmployeeHistory{
		EmployeeID:    employeeID,
		TotalHours:    decimal.Zero,
		WeeklyHours:   make(map[time.Time]decimal.Decimal),
		lookbackWeeks: c.lookbackWeeks,
	}
	for _, e := range c.entries[employeeID] {
		hours := decimal.NewFromFloat(e.Hours())
		week := model.WeekStart(e.Date)

		h.TotalShifts++
		h.TotalHours = h.TotalHours.Add(hours)
		h.WeeklyHours[week] = h.WeeklyHours[week].Add(hours)

		date := model.NormalizeDate(e.Date)
		if h.LastShiftDate == nil || date.After(*h.LastShiftDate) {
			h.LastShiftDate = &date
		}
	}
	if p, ok := c.performance[employeeID]; ok {
		h.Performance = &p
	}

	c.cache[employeeID] = h
	return h
}

// TeamAverageWeeklyHours averages AverageWeeklyHours across the given employees.
// Returns false when nobody in the team has worked during the window.
func (c *HistoryCache) TeamAverageWeeklyHours(employeeIDs []string) (float64, bool) {
	if len(employeeIDs) == 0 {
		return 0, false
	}
	total := 0.0
	worked := false
	for _, id := range employeeIDs {
		h := c.Get(id)
		if h.TotalShifts > 0 {
			worked = true
		}
		total += h.AverageWeeklyHours()
	}
	if !worked {
		return 0, false
	}
	return total / float64(len(employeeIDs)), true
}

// Size returns the number of cached histories
func (c *HistoryCache) Size() int {
	return len(c.cache)
}
