package sheetsclient

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/export"
)

const sheetDateLayout = "Mon Jan 02 2006"

var scheduleHeader = []interface{}{"Date", "Employee", "Start", "End", "Break", "Hours", "Shift", "Notes"}

// TabTitle names the tab of a version, e.g. "v4 Wed Mar 05 2025 - Tue Mar 11 2025"
func TabTitle(v model.ScheduleVersion) string {
	return fmt.Sprintf("v%d %s - %s", v.Version, v.StartDate.Format(sheetDateLayout), v.EndDate.Format(sheetDateLayout))
}

// ScheduleRows lays the schedule out as a 2-row gap, a header, then one row per entry
// ordered by date, employee name, then start time
func ScheduleRows(s export.Schedule) [][]interface{} {
	names := make(map[string]string)
	for _, e := range s.Roster() {
		names[e.ID] = e.FullName()
	}

	entries := append([]model.ScheduleEntry(nil), s.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if names[a.EmployeeID] != names[b.EmployeeID] {
			return names[a.EmployeeID] < names[b.EmployeeID]
		}
		if (a.Start == nil) != (b.Start == nil) {
			return a.Start == nil
		}
		return a.Start != nil && *a.Start < *b.Start
	})

	rows := [][]interface{}{{}, {}, scheduleHeader}
	for _, e := range entries {
		row := []interface{}{e.Date.Format(sheetDateLayout), names[e.EmployeeID]}
		if e.Start == nil || e.End == nil {
			row = append(row, "OFF", "", "", "0")
		} else {
			brk := ""
			if e.BreakStart != nil && e.BreakEnd != nil {
				brk = fmt.Sprintf("%s-%s", e.BreakStart, e.BreakEnd)
			}
			row = append(row, e.Start.String(), e.End.String(), brk, export.EntryHours(e).String())
		}
		shift := ""
		if e.ShiftID != nil {
			shift = *e.ShiftID
		}
		rows = append(rows, append(row, shift, e.Notes))
	}
	return rows
}

// PublishSchedule writes a published version to its own tab, creating the tab or
// replacing its contents when the version was published before
func (c *Client) PublishSchedule(ctx context.Context, spreadsheetID string, s export.Schedule) (string, error) {
	if s.Version.Status != model.StatusPublished {
		return "", fmt.Errorf("%w: only published versions can be sent to sheets, version %d is %s",
			model.ErrInvalidInput, s.Version.Version, s.Version.Status)
	}

	title := TabTitle(s.Version)
	existing, err := c.FindSheet(ctx, spreadsheetID, title)
	if err != nil {
		return "", err
	}

	if existing == nil {
		c.logger.Debug("Creating schedule tab", zap.String("title", title))
		if _, err := c.CreateSheet(ctx, spreadsheetID, title); err != nil {
			return "", err
		}
	} else {
		c.logger.Debug("Replacing schedule tab", zap.String("title", title))
		if err := c.ClearSheet(ctx, spreadsheetID, title); err != nil {
			return "", err
		}
	}

	rows := ScheduleRows(s)
	if err := c.WriteRows(ctx, spreadsheetID, title, rows); err != nil {
		return "", err
	}

	c.logger.Info("Schedule published to sheets",
		zap.Int("version", s.Version.Version),
		zap.String("tab", title),
		zap.Int("rows", len(rows)-3))
	return title, nil
}
