package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical date format used across the application
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed in minutes since midnight
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24h clock)
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay that panics, for fixtures and constants
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	m := int(t) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Hour returns the hour component
func (t TimeOfDay) Hour() int {
	return (int(t) % minutesPerDay) / 60
}

// DurationMinutes returns the length of a window; an end at or before the start crosses midnight
func DurationMinutes(start, end TimeOfDay) int {
	if end > start {
		return int(end - start)
	}
	return int(end) + minutesPerDay - int(start)
}

// Window is an absolute time interval [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow anchors a wall-clock window to a calendar date
func NewWindow(date time.Time, start, end TimeOfDay) Window {
	day := NormalizeDate(date)
	s := day.Add(time.Duration(start) * time.Minute)
	return Window{
		Start: s,
		End:   s.Add(time.Duration(DurationMinutes(start, end)) * time.Minute),
	}
}

// Overlaps returns true if the two windows share any instant
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Hours returns the window length in hours
func (w Window) Hours() float64 {
	return w.End.Sub(w.Start).Hours()
}

// IsZero returns true for an empty window
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// RangesOverlap reports whether two wall-clock ranges on the same day intersect
func RangesOverlap(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	ref := time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)
	return NewWindow(ref, aStart, aEnd).Overlaps(NewWindow(ref, bStart, bEnd))
}

// NormalizeDate truncates a time to midnight UTC of its calendar date
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// MustDate is ParseDate that panics, for fixtures
func MustDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatDate formats a date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekStart returns the Monday of the week containing the date
func WeekStart(t time.Time) time.Time {
	d := NormalizeDate(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// DatesInRange returns every calendar date in [start, end]
func DatesInRange(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := NormalizeDate(start); !d.After(NormalizeDate(end)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// WithinBounds reports whether a date lies within optional inclusive bounds
func WithinBounds(date time.Time, from, to *time.Time) bool {
	d := NormalizeDate(date)
	if from != nil && d.Before(NormalizeDate(*from)) {
		return false
	}
	if to != nil && d.After(NormalizeDate(*to)) {
		return false
	}
	return true
}

var weekdayNames = map[string]time.Weekday{
	"SU": time.Sunday, "SUN": time.Sunday, "SUNDAY": time.Sunday,
	"MO": time.Monday, "MON": time.Monday, "MONDAY": time.Monday,
	"TU": time.Tuesday, "TUE": time.Tuesday, "TUESDAY": time.Tuesday,
	"WE": time.Wednesday, "WED": time.Wednesday, "WEDNESDAY": time.Wednesday,
	"TH": time.Thursday, "THU": time.Thursday, "THURSDAY": time.Thursday,
	"FR": time.Friday, "FRI": time.Friday, "FRIDAY": time.Friday,
	"SA": time.Saturday, "SAT": time.Saturday, "SATURDAY": time.Saturday,
}

// ParseWeekday accepts RRULE codes (MO), short names (Mon) and full names, in any case
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, s)
}
