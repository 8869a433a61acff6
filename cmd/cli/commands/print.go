package commands

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/export"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorBold   = "\033[1m"
)

func statusColor(status allocator.RunStatus) string {
	switch status {
	case allocator.StatusSuccess:
		return colorGreen
	case allocator.StatusPartial:
		return colorYellow
	default:
		return colorRed
	}
}

func slotStatusColor(status allocator.SlotStatus) string {
	switch status {
	case allocator.SlotFilled:
		return colorGreen
	case allocator.SlotPartial:
		return colorYellow
	default:
		return colorRed
	}
}

func employeeNames(employees []model.Employee) map[string]string {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.FullName()
	}
	return names
}

func nameOf(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

// printEntries writes one line per entry: date, employee, window and entry ID
func printEntries(w io.Writer, entries []model.ScheduleEntry, names map[string]string) {
	nameWidth := len("Employee")
	for _, e := range entries {
		nameWidth = max(nameWidth, len(nameOf(names, e.EmployeeID)))
	}

	fmt.Fprintf(w, "%s%-12s  %-*s  %-34s  %s%s\n", colorBold, "Date", nameWidth, "Employee", "Shift", "Entry", colorReset)
	fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", 12), strings.Repeat("-", nameWidth), strings.Repeat("-", 34), strings.Repeat("-", 36))
	for _, e := range entries {
		shift := export.DescribeEntry(e)
		if e.ShiftID != nil {
			shift += " [" + *e.ShiftID + "]"
		}
		fmt.Fprintf(w, "%-12s  %-*s  %-34s  %s\n", model.FormatDate(e.Date), nameWidth, nameOf(names, e.EmployeeID), shift, e.ID)
	}
}

// printSlots writes the per-slot staffing outcome
func printSlots(w io.Writer, slots []allocator.SlotOutcome, names map[string]string) {
	for _, s := range slots {
		assigned := make([]string, 0, len(s.Assigned))
		for _, a := range s.Assigned {
			assigned = append(assigned, nameOf(names, a.EmployeeID))
		}
		who := "-"
		if len(assigned) > 0 {
			who = strings.Join(assigned, ", ")
		}
		if s.PreFilled > 0 {
			who += fmt.Sprintf(" (+%d from base)", s.PreFilled)
		}
		fmt.Fprintf(w, "  %s%-9s%s %s  %s\n", slotStatusColor(s.Status), s.Status, colorReset, s.Slot.Describe(), who)
	}
}

// printRunLog writes warnings and errors; everything else goes to the log file
func printRunLog(w io.Writer, log []allocator.RunLogEntry) {
	var shown int
	for _, e := range log {
		if e.Level < zapcore.WarnLevel {
			continue
		}
		if shown == 0 {
			fmt.Fprintln(w, "\n⚠️  Run log:")
		}
		color := colorYellow
		if e.Level >= zapcore.ErrorLevel {
			color = colorRed
		}
		fmt.Fprintf(w, "  %s%-22s%s %s\n", color, e.Code, colorReset, e.Message)
		shown++
	}
}
