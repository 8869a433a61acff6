package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/eligibility"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/scoring"
	"github.com/jakechorley/shift-planner/pkg/core/versions"
	"github.com/jakechorley/shift-planner/pkg/lock"
)

// GenerateLockKey serialises generation runs
const GenerateLockKey = "schedule:generate"

// GenerateRequest is the request surface of a generation run
type GenerateRequest struct {
	Start       time.Time
	End         time.Time
	BaseVersion *int
	Notes       string
	// AllowEmpty adds a placeholder for every active employee on every date they do not work
	AllowEmpty bool
	DryRun     bool
	Overrides  config.Overrides
}

// GenerateResult is the outcome of a run. Version is nil for dry runs and failed runs.
type GenerateResult struct {
	RunID   string
	Status  allocator.RunStatus
	Phase   allocator.Phase
	Version *model.ScheduleVersion
	Entries []model.ScheduleEntry
	Slots   []allocator.SlotOutcome
	Log     []allocator.RunLogEntry
}

// engine is the per-request set of core components built from configuration
type engine struct {
	cfg       *config.Config
	scoring   scoring.Config
	resolver  *coverage.Resolver
	allocator *allocator.Allocator
}

func buildEngine(cfg *config.Config, overrides config.Overrides, logger *zap.Logger) (*engine, error) {
	effective, err := cfg.WithOverrides(overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	scoringCfg, err := effective.ScoringOptions()
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewScorer(scoringCfg)
	if err != nil {
		return nil, err
	}
	resolver, err := coverage.NewResolver(effective.CoverageOptions())
	if err != nil {
		return nil, err
	}
	alloc, err := allocator.New(scorer, effective.Criteria(), effective.AllocatorOptions(), logger)
	if err != nil {
		return nil, err
	}
	return &engine{cfg: effective, scoring: scoringCfg, resolver: resolver, allocator: alloc}, nil
}

// GenerateSchedule runs the whole pipeline for a date range: snapshot the inputs, resolve
// coverage, assign, and commit a new DRAFT version. Input errors are returned before a run
// starts. Run-level failures return a result with status ERROR and nothing committed.
func GenerateSchedule(
	ctx context.Context,
	store PlanningStore,
	locker lock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	req GenerateRequest,
) (*GenerateResult, error) {
	start, end := model.NormalizeDate(req.Start), model.NormalizeDate(req.End)
	if req.Start.IsZero() || req.End.IsZero() || end.Before(start) {
		return nil, fmt.Errorf("%w: invalid date range %s to %s", model.ErrInvalidInput, model.FormatDate(start), model.FormatDate(end))
	}

	eng, err := buildEngine(cfg, req.Overrides, logger)
	if err != nil {
		return nil, err
	}
	if err := checkRequest(ctx, store, eng.resolver, req); err != nil {
		return nil, err
	}

	run := allocator.NewRun(logger)
	logger = logger.With(zap.String("run_id", run.ID))
	logger.Info("Generating schedule",
		zap.String("start", model.FormatDate(start)),
		zap.String("end", model.FormatDate(end)),
		zap.Bool("dry_run", req.DryRun))

	result := &GenerateResult{RunID: run.ID}
	fail := func(err error) (*GenerateResult, error) {
		runErr := run.Fail(err)
		result.Status = allocator.StatusError
		result.Phase = run.Phase()
		result.Version = nil
		result.Entries = nil
		result.Log = run.Log.Entries()
		return result, runErr
	}

	release, err := locker.Acquire(ctx, GenerateLockKey, eng.cfg.Redis.LockTTL())
	if err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			return fail(fmt.Errorf("another generation is in progress: %w", err))
		}
		return fail(fmt.Errorf("failed to acquire generation lock: %w", err))
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release generation lock", zap.Error(err))
		}
	}()

	snap, err := collectSnapshot(ctx, store, store, start, end, eng.scoring.HistoryLookbackDays, logger)
	if err != nil {
		return fail(err)
	}
	if len(snap.History) > 0 {
		run.Log.Info(allocator.CodeHistoryLoaded, fmt.Sprintf("loaded %d published entries from the last %d days",
			len(snap.History), eng.scoring.HistoryLookbackDays), nil)
	}

	manager := versions.NewManager(store, logger)
	var base []model.ScheduleEntry
	if req.BaseVersion != nil {
		base, err = manager.BaseEntries(ctx, *req.BaseVersion, start, end)
		if err != nil {
			return fail(err)
		}
		base = model.FillTemplateWindows(base, snap.Templates)
		run.Log.Info(allocator.CodeBaseVersion, fmt.Sprintf("copied %d entries from version %d", len(base), *req.BaseVersion), nil)
	}

	slots, err := eng.resolver.Resolve(coverage.Input{
		Start:        start,
		End:          end,
		Requirements: snap.Requirements,
		Patterns:     snap.Patterns,
		Templates:    snap.Templates,
	})
	if err != nil {
		return fail(err)
	}
	logClosures(run, eng.resolver.ClosedDates(start, end))
	if len(slots) == 0 {
		run.Log.Warn(allocator.CodeNoSlots, "no coverage demand in range", nil)
	}
	logger.Debug("Coverage resolved", zap.Int("slots", len(slots)))

	outcome, err := eng.allocator.Allocate(ctx, run, allocator.AllocationInput{
		Slots:             slots,
		Employees:         snap.Employees,
		Filter:            eligibility.NewFilter(snap.Availability, snap.Absences, eng.cfg.Scheduler.EnforceKeyholder),
		Preferences:       scoring.NewPreferenceIndex(snap.Preferences, snap.Availability),
		History:           scoring.NewHistoryCache(snap.History, snap.Performance, eng.scoring.HistoryLookbackDays),
		HistoricalEntries: snap.History,
		PreAllocations:    base,
	})
	if err != nil {
		result.Status = allocator.StatusError
		result.Phase = run.Phase()
		result.Log = run.Log.Entries()
		return result, err
	}
	run.Log.Info(allocator.CodeAssignmentDone, fmt.Sprintf("%d assignments over %d slots", len(outcome.Assignments), len(outcome.Slots)), nil)

	entries := buildEntries(outcome.Assignments, base)
	if req.AllowEmpty {
		var added int
		entries, added = addPlaceholders(entries, snap.Employees, start, end)
		run.Log.Info(allocator.CodePlaceholders, fmt.Sprintf("added %d empty placeholder entries", added), nil)
	}

	result.Status = outcome.Status()
	result.Slots = outcome.Slots
	result.Entries = entries

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("cancelled before commit: %w", err))
	}

	if req.DryRun {
		run.Log.Info(allocator.CodeDryRun, fmt.Sprintf("dry run: %d entries not committed", len(entries)), nil)
		result.Phase = run.Phase()
		result.Log = run.Log.Entries()
		return result, nil
	}

	v, err := manager.Commit(ctx, versions.CommitRequest{
		Start:       start,
		End:         end,
		BaseVersion: req.BaseVersion,
		Notes:       req.Notes,
		Entries:     entries,
	})
	if err != nil {
		return fail(err)
	}
	if err := run.Advance(allocator.PhaseCommitted); err != nil {
		return fail(err)
	}
	run.Log.Info(allocator.CodeCommitted, fmt.Sprintf("committed version %d with %d entries", v.Version, len(entries)), nil)

	result.Version = v
	result.Phase = run.Phase()
	result.Log = run.Log.Entries()
	return result, nil
}

// checkRequest rejects an unknown base version and malformed coverage rules before a run
// starts. Read failures are left for the snapshot, where they fail the run.
func checkRequest(ctx context.Context, store PlanningStore, resolver *coverage.Resolver, req GenerateRequest) error {
	if req.BaseVersion != nil {
		if _, err := store.GetVersion(ctx, *req.BaseVersion); errors.Is(err, model.ErrVersionNotFound) {
			return fmt.Errorf("%w: unknown base version %d: %w", model.ErrInvalidInput, *req.BaseVersion, err)
		}
	}

	requirements, err := store.ListCoverageRequirements(ctx)
	if err != nil {
		return nil
	}
	patterns, err := store.ListCoveragePatterns(ctx)
	if err != nil {
		return nil
	}
	return resolver.Validate(coverage.Input{Requirements: requirements, Patterns: patterns})
}

func logClosures(run *allocator.Run, closed map[time.Time]string) {
	dates := make([]time.Time, 0, len(closed))
	for d := range closed {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, d := range dates {
		msg := "closed on " + model.FormatDate(d)
		if reason := closed[d]; reason != "" {
			msg += ": " + reason
		}
		run.Log.Info(allocator.CodeClosed, msg, nil)
	}
}

// buildEntries turns assignments into entries and carries base entries over. A base
// placeholder is dropped when its employee was assigned on that date.
func buildEntries(assignments []allocator.Assignment, base []model.ScheduleEntry) []model.ScheduleEntry {
	assigned := make(map[string]bool)
	var entries []model.ScheduleEntry
	for _, a := range assignments {
		start, end := a.Start, a.End
		entries = append(entries, model.ScheduleEntry{
			EmployeeID: a.EmployeeID,
			Date:       a.Date,
			ShiftID:    a.ShiftID,
			Start:      &start,
			End:        &end,
			BreakStart: a.BreakStart,
			BreakEnd:   a.BreakEnd,
		})
		assigned[workKey(a.EmployeeID, a.Date)] = true
	}

	for _, e := range base {
		if e.IsPlaceholder() && assigned[workKey(e.EmployeeID, e.Date)] {
			continue
		}
		entries = append(entries, e)
	}

	sortByDate(entries)
	return entries
}

// addPlaceholders gives every active employee an empty entry on each date without one
func addPlaceholders(entries []model.ScheduleEntry, employees []model.Employee, start, end time.Time) ([]model.ScheduleEntry, int) {
	has := make(map[string]bool)
	for _, e := range entries {
		has[workKey(e.EmployeeID, e.Date)] = true
	}

	added := 0
	for _, date := range model.DatesInRange(start, end) {
		for _, emp := range employees {
			if !emp.IsActive || has[workKey(emp.ID, date)] {
				continue
			}
			entries = append(entries, model.ScheduleEntry{EmployeeID: emp.ID, Date: date})
			added++
		}
	}

	sortByDate(entries)
	return entries, added
}

func workKey(employeeID string, date time.Time) string {
	return employeeID + "|" + model.FormatDate(date)
}

func sortByDate(entries []model.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].EmployeeID < entries[j].EmployeeID
	})
}
