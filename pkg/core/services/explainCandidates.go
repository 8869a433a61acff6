package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/eligibility"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/scoring"
)

const explainRequirementID = "explain"

// ExplainRequest describes an ad hoc demand slot on one date
type ExplainRequest struct {
	Date              time.Time
	Start             model.TimeOfDay
	End               model.TimeOfDay
	MinEmployees      int
	MaxEmployees      int
	RequiresKeyholder bool
	Qualifications    []string
	ShiftTemplateID   string
	Overrides         config.Overrides
}

// ExplainResult is the slot as it would be resolved, with every employee's verdict and score
type ExplainResult struct {
	Slot       coverage.Slot
	Candidates []allocator.CandidateExplanation
}

// ExplainCandidates evaluates every employee against one slot alongside the day's real
// coverage, so opening lead and closing lag apply as they would in a run
func ExplainCandidates(ctx context.Context, store PlanningStore, cfg *config.Config, logger *zap.Logger, req ExplainRequest) (*ExplainResult, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: a date is required", model.ErrInvalidInput)
	}
	date := model.NormalizeDate(req.Date)
	if req.MaxEmployees < req.MinEmployees {
		req.MaxEmployees = req.MinEmployees
	}
	if req.MaxEmployees == 0 {
		req.MaxEmployees = 1
	}

	eng, err := buildEngine(cfg, req.Overrides, logger)
	if err != nil {
		return nil, err
	}

	snap, err := collectSnapshot(ctx, store, store, date, date, eng.scoring.HistoryLookbackDays, logger)
	if err != nil {
		return nil, err
	}

	requirements := append(snap.Requirements, model.CoverageRequirement{
		ID:                     explainRequirementID,
		DayOfWeek:              date.Weekday(),
		Start:                  req.Start,
		End:                    req.End,
		MinEmployees:           req.MinEmployees,
		MaxEmployees:           req.MaxEmployees,
		RequiredQualifications: req.Qualifications,
		RequiresKeyholder:      req.RequiresKeyholder,
		ShiftTemplateID:        req.ShiftTemplateID,
	})
	slots, err := eng.resolver.Resolve(coverage.Input{
		Start:        date,
		End:          date,
		Requirements: requirements,
		Patterns:     snap.Patterns,
		Templates:    snap.Templates,
	})
	if err != nil {
		return nil, err
	}

	var slot *coverage.Slot
	for i := range slots {
		if slots[i].Source == coverage.SourceFixed && slots[i].SourceID == explainRequirementID {
			slot = &slots[i]
			break
		}
	}
	if slot == nil {
		reason := eng.resolver.ClosedDates(date, date)[date]
		return nil, fmt.Errorf("%w: %s is closed (%s)", model.ErrInvalidInput, model.FormatDate(date), reason)
	}

	candidates := eng.allocator.Explain(allocator.AllocationInput{
		Slots:             []coverage.Slot{*slot},
		Employees:         snap.Employees,
		Filter:            eligibility.NewFilter(snap.Availability, snap.Absences, eng.cfg.Scheduler.EnforceKeyholder),
		Preferences:       scoring.NewPreferenceIndex(snap.Preferences, snap.Availability),
		History:           scoring.NewHistoryCache(snap.History, snap.Performance, eng.scoring.HistoryLookbackDays),
		HistoricalEntries: snap.History,
	}, *slot)

	logger.Debug("Candidates explained", zap.String("slot", slot.Describe()), zap.Int("employees", len(candidates)))
	return &ExplainResult{Slot: *slot, Candidates: candidates}, nil
}
