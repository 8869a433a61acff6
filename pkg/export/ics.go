package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

const productID = "-//shift-planner//schedule export//EN"

// WriteICS renders one employee's shifts of the schedule as an iCalendar feed.
// Wall-clock times are interpreted in loc; placeholders produce no event.
func WriteICS(w io.Writer, s Schedule, employeeID string, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	name := employeeID
	for _, e := range s.Roster() {
		if e.ID == employeeID {
			name = e.FullName()
			break
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(fmt.Sprintf("%s shifts (version %d)", name, s.Version.Version))

	stamp := s.Version.UpdatedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, entry := range s.EntriesFor(employeeID) {
		if entry.Start == nil || entry.End == nil {
			continue
		}
		start, end := wallClock(entry.Date, *entry.Start, *entry.End, loc)

		event := cal.AddEvent(fmt.Sprintf("%s@shift-planner", entry.ID))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary("Shift")
		description := fmt.Sprintf("Version %d (%s)", s.Version.Version, s.Version.Status)
		if entry.BreakStart != nil && entry.BreakEnd != nil {
			description += fmt.Sprintf(", break %s-%s", entry.BreakStart, entry.BreakEnd)
		}
		if entry.Notes != "" {
			description += ", " + entry.Notes
		}
		event.SetDescription(description)
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar for %s: %w", employeeID, err)
	}
	return nil
}

// WriteICSDir writes one <employee-id>.ics file per employee with shifts in the schedule
// and returns the written paths
func WriteICSDir(dir string, s Schedule, loc *time.Location) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var paths []string
	for _, e := range s.Roster() {
		if !hasShift(s.EntriesFor(e.ID)) {
			continue
		}
		path := filepath.Join(dir, e.ID+".ics")
		if err := writeICSFile(path, s, e.ID, loc); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeICSFile(path string, s Schedule, employeeID string, loc *time.Location) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteICS(f, s, employeeID, loc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func hasShift(entries []model.ScheduleEntry) bool {
	for _, e := range entries {
		if !e.IsPlaceholder() {
			return true
		}
	}
	return false
}

// wallClock anchors a shift to a location; an end at or before the start falls on the next day
func wallClock(date time.Time, start, end model.TimeOfDay, loc *time.Location) (time.Time, time.Time) {
	w := model.NewWindow(date, start, end)
	s := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), w.Start.Hour(), w.Start.Minute(), 0, 0, loc)
	e := time.Date(w.End.Year(), w.End.Month(), w.End.Day(), w.End.Hour(), w.End.Minute(), 0, 0, loc)
	return s, e
}
