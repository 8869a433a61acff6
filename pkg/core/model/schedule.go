package model

import (
	"fmt"
	"time"
)

// VersionStatus is the lifecycle status of a schedule version and its entries
type VersionStatus string

const (
	StatusDraft     VersionStatus = "DRAFT"
	StatusPublished VersionStatus = "PUBLISHED"
	StatusArchived  VersionStatus = "ARCHIVED"
)

func (s VersionStatus) IsValid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// CanTransition reports whether a version may move from one status to another.
// DRAFT -> PUBLISHED, DRAFT -> ARCHIVED and PUBLISHED -> ARCHIVED are the only legal moves.
func CanTransition(from, to VersionStatus) bool {
	switch to {
	case StatusPublished:
		return from == StatusDraft
	case StatusArchived:
		return from == StatusDraft || from == StatusPublished
	}
	return false
}

// CheckTransition returns ErrInvalidTransition with context when a move is illegal
func CheckTransition(version int, from, to VersionStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: version %d cannot move from %s to %s", ErrInvalidTransition, version, from, to)
	}
	return nil
}

// ScheduleVersion is one generation unit
type ScheduleVersion struct {
	Version     int
	Status      VersionStatus
	StartDate   time.Time
	EndDate     time.Time
	BaseVersion *int
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScheduleEntry assigns an employee to a shift (or to nothing, as a placeholder) on one date
type ScheduleEntry struct {
	ID         string
	Version    int
	EmployeeID string
	Date       time.Time
	// ShiftID is nil for ad hoc windows and for placeholders
	ShiftID *string
	// Start/End are nil for placeholders
	Start      *TimeOfDay
	End        *TimeOfDay
	BreakStart *TimeOfDay
	BreakEnd   *TimeOfDay
	Notes      string
	Status     VersionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsPlaceholder returns true for explicit "no shift" entries
func (e ScheduleEntry) IsPlaceholder() bool {
	return e.ShiftID == nil && (e.Start == nil || e.End == nil)
}

// FillTemplateWindows copies the template window onto entries that name a shift but carry
// no start or end. Entries with an unknown template are returned unchanged.
func FillTemplateWindows(entries []ScheduleEntry, templates []ShiftTemplate) []ScheduleEntry {
	byID := make(map[string]ShiftTemplate, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}

	out := make([]ScheduleEntry, len(entries))
	for i, e := range entries {
		if e.ShiftID != nil && (e.Start == nil || e.End == nil) {
			if t, ok := byID[*e.ShiftID]; ok {
				start, end := t.Start, t.End
				e.Start, e.End = &start, &end
			}
		}
		out[i] = e
	}
	return out
}

// Window returns the absolute time window of the entry (zero for placeholders)
func (e ScheduleEntry) Window() Window {
	if e.Start == nil || e.End == nil {
		return Window{}
	}
	return NewWindow(e.Date, *e.Start, *e.End)
}

// Hours returns the scheduled hours of the entry, excluding its break
func (e ScheduleEntry) Hours() float64 {
	w := e.Window()
	if w.IsZero() {
		return 0
	}
	hours := w.Hours()
	if e.BreakStart != nil && e.BreakEnd != nil {
		hours -= float64(DurationMinutes(*e.BreakStart, *e.BreakEnd)) / 60
	}
	return hours
}

// FindOverlap returns the first entry in others that belongs to the same employee,
// has a different ID, and overlaps the candidate's window
func FindOverlap(candidate ScheduleEntry, others []ScheduleEntry) *ScheduleEntry {
	w := candidate.Window()
	if w.IsZero() {
		return nil
	}
	for i := range others {
		other := &others[i]
		if other.ID == candidate.ID || other.EmployeeID != candidate.EmployeeID {
			continue
		}
		ow := other.Window()
		if ow.IsZero() {
			continue
		}
		if w.Overlaps(ow) {
			return other
		}
	}
	return nil
}
