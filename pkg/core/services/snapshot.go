package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// PlanningStore is everything generation and explain read and write
type PlanningStore interface {
	db.InputStore
	db.VersionStore
}

// snapshot is the immutable input of one run, read once at the start
type snapshot struct {
	Employees    []model.Employee
	Templates    []model.ShiftTemplate
	Requirements []model.CoverageRequirement
	Patterns     []model.RecurringCoveragePattern
	Availability []model.Availability
	Preferences  []model.Preference
	Absences     []model.Absence
	Performance  []model.Performance
	// History holds published entries of the lookback window, latest version per date
	History []model.ScheduleEntry
}

// collectSnapshot reads every input for [start, end]. Failures wrap model.ErrInputUnavailable.
func collectSnapshot(ctx context.Context, store db.InputStore, history db.VersionStore, start, end time.Time, lookbackDays int, logger *zap.Logger) (*snapshot, error) {
	s := &snapshot{}
	var err error

	logger.Debug("Fetching employees")
	if s.Employees, err = store.ListEmployees(ctx); err != nil {
		return nil, unavailable("employees", err)
	}
	logger.Debug("Fetching shift templates")
	if s.Templates, err = store.ListShiftTemplates(ctx); err != nil {
		return nil, unavailable("shift templates", err)
	}
	logger.Debug("Fetching coverage")
	if s.Requirements, err = store.ListCoverageRequirements(ctx); err != nil {
		return nil, unavailable("coverage requirements", err)
	}
	if s.Patterns, err = store.ListCoveragePatterns(ctx); err != nil {
		return nil, unavailable("coverage patterns", err)
	}
	logger.Debug("Fetching availability and absences")
	if s.Availability, err = store.ListAvailability(ctx); err != nil {
		return nil, unavailable("availability", err)
	}
	if s.Preferences, err = store.ListPreferences(ctx); err != nil {
		return nil, unavailable("preferences", err)
	}
	if s.Absences, err = store.ListAbsences(ctx, start, end); err != nil {
		return nil, unavailable("absences", err)
	}
	if s.Performance, err = store.ListPerformance(ctx); err != nil {
		return nil, unavailable("performance", err)
	}

	if lookbackDays > 0 {
		from := start.AddDate(0, 0, -lookbackDays)
		logger.Debug("Fetching published history", zap.String("from", model.FormatDate(from)), zap.String("to", model.FormatDate(start)))
		published, err := history.GetPublishedEntries(ctx, from, start)
		if err != nil {
			return nil, unavailable("published history", err)
		}
		versions, err := history.ListVersions(ctx)
		if err != nil {
			return nil, unavailable("versions", err)
		}
		s.History = model.FillTemplateWindows(latestPublished(published, versions), s.Templates)
	}

	logger.Debug("Inputs collected",
		zap.Int("employees", len(s.Employees)),
		zap.Int("templates", len(s.Templates)),
		zap.Int("requirements", len(s.Requirements)),
		zap.Int("patterns", len(s.Patterns)),
		zap.Int("absences", len(s.Absences)),
		zap.Int("history_entries", len(s.History)))

	return s, nil
}

func unavailable(what string, err error) error {
	return fmt.Errorf("%w: failed to load %s: %w", model.ErrInputUnavailable, what, err)
}

// latestPublished keeps, for every date, only the entries of the highest published version
// whose range covers it. A newer version with no entry on a date still supersedes older ones.
func latestPublished(entries []model.ScheduleEntry, versions []db.VersionSummary) []model.ScheduleEntry {
	var published []model.ScheduleVersion
	for _, v := range versions {
		if v.Status == model.StatusPublished {
			published = append(published, v.ScheduleVersion)
		}
	}

	winner := make(map[time.Time]int)
	latest := func(date time.Time) int {
		if v, ok := winner[date]; ok {
			return v
		}
		best := 0
		for _, v := range published {
			if v.Version > best && model.WithinBounds(date, &v.StartDate, &v.EndDate) {
				best = v.Version
			}
		}
		winner[date] = best
		return best
	}

	var out []model.ScheduleEntry
	for _, e := range entries {
		if e.Version >= latest(model.NormalizeDate(e.Date)) {
			out = append(out, e)
		}
	}
	return out
}
