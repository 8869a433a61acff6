package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

const summarySheet = "Summary"

// WeekSheetName names the sheet of the ISO week starting on monday, e.g. "2025-W10"
func WeekSheetName(monday time.Time) string {
	year, week := monday.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WriteXLSX renders the schedule as a workbook: a summary sheet comparing scheduled and
// contracted hours, then one sheet per ISO week with dates across and employees down
func WriteXLSX(w io.Writer, s Schedule) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	roster := s.Roster()
	if err := writeSummary(f, s, roster, headerStyle); err != nil {
		return err
	}
	for _, monday := range s.Weeks() {
		if err := writeWeek(f, s, roster, monday, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, s Schedule, roster []model.Employee, headerStyle int) error {
	v := s.Version
	weeks := decimal.NewFromInt(int64(len(s.Weeks())))

	rows := [][]interface{}{
		{fmt.Sprintf("Version %d (%s) %s to %s", v.Version, v.Status, model.FormatDate(v.StartDate), model.FormatDate(v.EndDate))},
		{"Employee", "Shifts", "Scheduled hours", "Contracted hours", "Difference"},
	}
	total := decimal.Zero
	for _, e := range roster {
		shifts := 0
		hours := decimal.Zero
		for _, entry := range s.EntriesFor(e.ID) {
			if entry.IsPlaceholder() {
				continue
			}
			shifts++
			hours = hours.Add(EntryHours(entry))
		}
		contracted := decimal.NewFromFloat(e.ContractedWeeklyHours).Mul(weeks)
		total = total.Add(hours)
		rows = append(rows, []interface{}{
			e.FullName(),
			shifts,
			hours.InexactFloat64(),
			contracted.InexactFloat64(),
			hours.Sub(contracted).InexactFloat64(),
		})
	}
	rows = append(rows, []interface{}{"Total", nil, total.InexactFloat64()})

	if err := writeRows(f, summarySheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A2", "E2", headerStyle); err != nil {
		return fmt.Errorf("failed to style summary header: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "A", 24)
}

func writeWeek(f *excelize.File, s Schedule, roster []model.Employee, monday time.Time, headerStyle int) error {
	start := model.WeekStart(monday)
	name := WeekSheetName(start)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	header := []interface{}{"Employee"}
	for d := 0; d < 7; d++ {
		header = append(header, start.AddDate(0, 0, d).Format("Mon 02 Jan"))
	}
	header = append(header, "Hours")
	rows := [][]interface{}{header}

	end := start.AddDate(0, 0, 7)
	for _, e := range roster {
		row := []interface{}{e.FullName()}
		cells := make([][]string, 7)
		hours := decimal.Zero
		for _, entry := range s.EntriesFor(e.ID) {
			if entry.Date.Before(start) || !entry.Date.Before(end) {
				continue
			}
			day := int(entry.Date.Sub(start).Hours() / 24)
			cells[day] = append(cells[day], DescribeEntry(entry))
			hours = hours.Add(EntryHours(entry))
		}
		for _, c := range cells {
			row = append(row, strings.Join(c, "\n"))
		}
		row = append(row, hours.InexactFloat64())
		rows = append(rows, row)
	}

	if err := writeRows(f, name, rows); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(name, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", name, err)
	}
	return f.SetColWidth(name, "A", last, 20)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
