package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/versions"
	"github.com/jakechorley/shift-planner/pkg/db"
	"github.com/jakechorley/shift-planner/pkg/export"
)

// ExportFormat selects how a version is rendered
type ExportFormat string

const (
	FormatXLSX   ExportFormat = "xlsx"
	FormatICS    ExportFormat = "ics"
	FormatSheets ExportFormat = "sheets"
)

// SchedulePublisher writes a published version somewhere people can read it
type SchedulePublisher interface {
	PublishSchedule(ctx context.Context, spreadsheetID string, s export.Schedule) (string, error)
}

// ExportStore is what an export reads
type ExportStore interface {
	db.VersionStore
	ListEmployees(ctx context.Context) ([]model.Employee, error)
}

// ExportRequest describes one export
type ExportRequest struct {
	Version int
	Format  ExportFormat
	// Out is the .xlsx file for xlsx and the directory for ics
	Out           string
	SpreadsheetID string
	// Location interprets entry times for ics; defaults to time.Local
	Location *time.Location
}

// ExportVersion renders a version and returns the files written, or the tab title for sheets
func ExportVersion(ctx context.Context, store ExportStore, publisher SchedulePublisher, logger *zap.Logger, req ExportRequest) ([]string, error) {
	switch req.Format {
	case FormatXLSX, FormatICS:
		if req.Out == "" {
			return nil, fmt.Errorf("%w: an output path is required for %s", model.ErrInvalidInput, req.Format)
		}
	case FormatSheets:
		if publisher == nil {
			return nil, fmt.Errorf("%w: sheets publishing is not configured", model.ErrInvalidInput)
		}
		if req.SpreadsheetID == "" {
			return nil, fmt.Errorf("%w: a spreadsheet ID is required", model.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", model.ErrInvalidInput, req.Format)
	}

	logger.Debug("Loading version for export", zap.Int("version", req.Version))
	v, entries, err := versions.NewManager(store, logger).Get(ctx, req.Version)
	if err != nil {
		return nil, err
	}
	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return nil, unavailable("employees", err)
	}
	schedule := export.Schedule{Version: *v, Entries: entries, Employees: employees}

	switch req.Format {
	case FormatXLSX:
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, schedule); err != nil {
			return nil, fmt.Errorf("failed to render workbook: %w", err)
		}
		if dir := filepath.Dir(req.Out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(req.Out, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", req.Out, err)
		}
		logger.Info("Exported workbook", zap.Int("version", v.Version), zap.String("path", req.Out))
		return []string{req.Out}, nil

	case FormatICS:
		loc := req.Location
		if loc == nil {
			loc = time.Local
		}
		paths, err := export.WriteICSDir(req.Out, schedule, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to write calendars: %w", err)
		}
		logger.Info("Exported calendars", zap.Int("version", v.Version), zap.Int("files", len(paths)))
		return paths, nil

	default:
		if v.Status != model.StatusPublished {
			return nil, fmt.Errorf("%w: version %d is %s, only published versions go to sheets", model.ErrInvalidInput, v.Version, v.Status)
		}
		title, err := publisher.PublishSchedule(ctx, req.SpreadsheetID, schedule)
		if err != nil {
			return nil, err
		}
		logger.Info("Published version to sheets", zap.Int("version", v.Version), zap.String("tab", title))
		return []string{title}, nil
	}
}
