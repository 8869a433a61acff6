package allocator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/eligibility"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/scoring"
)

// Options shape assignments beyond scoring
type Options struct {
	CandidateTieBreak      TieBreak
	BreakThresholdMinutes  int
	BreakDurationMinutes   int
	SlotGranularityMinutes int
}

// Allocator assigns employees to slots in order using the scorer and hard-constraint criteria
type Allocator struct {
	scorer   *scoring.Scorer
	criteria []Criterion
	opts     Options
	logger   *zap.Logger
}

// New validates the options and returns an allocator
func New(scorer *scoring.Scorer, criteria []Criterion, opts Options, logger *zap.Logger) (*Allocator, error) {
	if opts.CandidateTieBreak == "" {
		opts.CandidateTieBreak = TieBreakEmployeeID
	}
	if err := opts.CandidateTieBreak.validate(); err != nil {
		return nil, err
	}
	if opts.BreakDurationMinutes < 0 || opts.BreakThresholdMinutes < 0 {
		return nil, fmt.Errorf("%w: break settings must not be negative", model.ErrInvalidInput)
	}
	return &Allocator{scorer: scorer, criteria: criteria, opts: opts, logger: logger}, nil
}

// AllocationInput is the immutable snapshot of one run
type AllocationInput struct {
	// Slots must already be in processing order
	Slots       []coverage.Slot
	Employees   []model.Employee
	Filter      *eligibility.Filter
	Preferences *scoring.PreferenceIndex
	History     *scoring.HistoryCache
	// HistoricalEntries are published entries before the range; they seed counters and rest checks
	HistoricalEntries []model.ScheduleEntry
	// PreAllocations are base-version entries inside the range
	PreAllocations []model.ScheduleEntry
}

// AllocationOutcome is the result of a completed assignment loop
type AllocationOutcome struct {
	Slots       []SlotOutcome
	Assignments []Assignment
	State       *RunState
}

// Status is SUCCESS when every slot reached its minimum, PARTIAL otherwise
func (o *AllocationOutcome) Status() RunStatus {
	for _, s := range o.Slots {
		if s.Status != SlotFilled {
			return StatusPartial
		}
	}
	return StatusSuccess
}

// Allocate runs SCORING and ASSIGNING for the run. The run must be in COLLECTING_INPUT.
// Any failure moves the run to FAILED and returns a *RunError with no outcome.
func (a *Allocator) Allocate(ctx context.Context, run *Run, in AllocationInput) (*AllocationOutcome, error) {
	if err := run.Advance(PhaseScoring); err != nil {
		return nil, run.Fail(err)
	}

	active := activeEmployees(in.Employees)
	if len(active) == 0 {
		return nil, run.Fail(model.ErrNoEmployees)
	}

	state := NewRunState()
	for _, e := range in.HistoricalEntries {
		state.SeedEntry(e, OriginHistory)
	}
	for _, e := range in.PreAllocations {
		state.SeedEntry(e, OriginBase)
	}

	ids := make([]string, len(active))
	for i, e := range active {
		ids[i] = e.ID
	}
	var teamAverage *float64
	if avg, ok := in.History.TeamAverageWeeklyHours(ids); ok {
		teamAverage = &avg
	}
	a.logger.Debug("Scoring context prepared",
		zap.Int("active_employees", len(active)),
		zap.Int("histories", in.History.Size()),
		zap.Bool("team_baseline", teamAverage != nil))

	if err := run.Advance(PhaseAssigning); err != nil {
		return nil, run.Fail(err)
	}

	pre := newPreAllocationIndex(in.PreAllocations)
	outcome := &AllocationOutcome{State: state}

	for _, slot := range in.Slots {
		if err := ctx.Err(); err != nil {
			return nil, run.Fail(fmt.Errorf("cancelled before slot %s: %w", slot.ID, err))
		}

		slotOutcome := a.fillSlot(run, state, slot, active, in, pre.consume(slot), teamAverage)
		outcome.Slots = append(outcome.Slots, slotOutcome)
	}
	outcome.Assignments = state.Assignments()

	if violations := ValidateRunState(state, a.criteria); len(violations) > 0 {
		for _, v := range violations {
			run.Log.Error(CodeViolation, fmt.Sprintf("%s on %s: %s", v.CriterionName, v.Date, v.Description), nil)
		}
		return nil, run.Fail(fmt.Errorf("%w: %d violations", ErrConstraintViolation, len(violations)))
	}

	a.logger.Info("Assignment complete",
		zap.Int("slots", len(outcome.Slots)),
		zap.Int("assignments", len(outcome.Assignments)),
		zap.String("status", string(outcome.Status())))

	return outcome, nil
}

// fillSlot scores eligible candidates and assigns the best ones up to the slot's maximum
func (a *Allocator) fillSlot(
	run *Run,
	state *RunState,
	slot coverage.Slot,
	employees []model.Employee,
	in AllocationInput,
	preFilled int,
	teamAverage *float64,
) SlotOutcome {
	out := SlotOutcome{Slot: slot, PreFilled: preFilled}

	eligible := in.Filter.Eligible(slot, employees)
	candidates := make([]Candidate, 0, len(eligible))
	for _, e := range eligible {
		if veto := checkCriteria(state, e.ID, slot, a.criteria); veto != nil {
			out.Vetoes = append(out.Vetoes, *veto)
			a.logger.Debug("Candidate vetoed",
				zap.String("slot_id", slot.ID),
				zap.String("employee_id", e.ID),
				zap.String("criterion", veto.CriterionName),
				zap.String("reason", veto.Reason))
			continue
		}
		candidates = append(candidates, Candidate{
			Employee:  e,
			Breakdown: a.scorer.Explain(a.scoringInput(state, slot, e, in, teamAverage)),
		})
	}
	out.EligibleCount = len(candidates)

	RankCandidates(candidates, a.opts.CandidateTieBreak)

	n := min(max(slot.MaxEmployees-preFilled, 0), len(candidates))
	for _, c := range candidates[:n] {
		assignment := a.buildAssignment(slot, c)
		state.Assign(assignment)
		out.Assigned = append(out.Assigned, assignment)
	}

	if preFilled > 0 {
		run.Log.Info(CodePreAllocated, fmt.Sprintf("slot %s pre-filled by base version: %d of %d",
			slot.Describe(), preFilled, slot.MaxEmployees), &slot)
	}

	filled := out.Filled()
	switch {
	case filled >= slot.MinEmployees:
		out.Status = SlotFilled
	case filled > 0:
		out.Status = SlotPartial
	default:
		out.Status = SlotUnstaffed
	}

	if filled < slot.MinEmployees {
		run.Log.Warn(CodeUnderStaffed, fmt.Sprintf("slot %s under-staffed: %d of %d required (%d eligible, %d vetoed)",
			slot.Describe(), filled, slot.MinEmployees, len(eligible)-len(out.Vetoes), len(out.Vetoes)), &slot)
	}
	if preFilled > slot.MaxEmployees {
		run.Log.Warn(CodeOverStaffed, fmt.Sprintf("slot %s over-staffed by base version: %d of at most %d",
			slot.Describe(), preFilled, slot.MaxEmployees), &slot)
	}

	a.logger.Debug("Slot processed",
		zap.String("slot_id", slot.ID),
		zap.String("status", string(out.Status)),
		zap.Int("pre_filled", preFilled),
		zap.Int("assigned", len(out.Assigned)),
		zap.Int("candidates", len(candidates)))

	return out
}

func (a *Allocator) scoringInput(state *RunState, slot coverage.Slot, e model.Employee, in AllocationInput, teamAverage *float64) scoring.Input {
	weekHours, _ := state.WeekHours(e.ID, slot.Date).Float64()
	input := scoring.Input{
		Employee:               e,
		History:                in.History.Get(e.ID),
		WeekHours:              weekHours,
		ConsecutiveDays:        state.ConsecutiveDaysBefore(e.ID, slot.Date),
		TeamAverageWeeklyHours: teamAverage,
		SlotHours:              a.slotPaidHours(slot),
		SlotRequiresKeyholder:  slot.RequiresKeyholder,
		SlotQualifications:     slot.RequiredQualifications,
	}
	if strength, ok := in.Preferences.Strength(e.ID, slot.Date, slot.Start, slot.End); ok {
		input.Preference = &strength
	}
	return input
}

func (a *Allocator) buildAssignment(slot coverage.Slot, c Candidate) Assignment {
	start := model.TimeOfDay(slot.Window.Start.Sub(slot.Date) / time.Minute)
	duration := int(slot.Window.End.Sub(slot.Window.Start) / time.Minute)
	end := model.TimeOfDay((int(start) + duration) % (24 * 60))

	assignment := Assignment{
		SlotID:     slot.ID,
		EmployeeID: c.Employee.ID,
		Date:       slot.Date,
		Start:      start,
		End:        end,
		Window:     slot.Window,
		ShiftID:    slot.ShiftID,
		Score:      c.Breakdown.Score,
	}
	if bs, be, ok := a.breakFor(start, duration); ok {
		assignment.BreakStart = &bs
		assignment.BreakEnd = &be
	}
	return assignment
}

// breakFor centres a break in the shift and snaps its start down to the slot granularity
func (a *Allocator) breakFor(start model.TimeOfDay, duration int) (model.TimeOfDay, model.TimeOfDay, bool) {
	if a.opts.BreakDurationMinutes <= 0 || a.opts.BreakThresholdMinutes <= 0 || duration < a.opts.BreakThresholdMinutes {
		return 0, 0, false
	}
	offset := (duration - a.opts.BreakDurationMinutes) / 2
	if g := a.opts.SlotGranularityMinutes; g > 0 {
		offset -= (int(start) + offset) % g
	}
	if offset < 0 {
		return 0, 0, false
	}
	bs := (int(start) + offset) % (24 * 60)
	be := (bs + a.opts.BreakDurationMinutes) % (24 * 60)
	return model.TimeOfDay(bs), model.TimeOfDay(be), true
}

func (a *Allocator) slotPaidHours(slot coverage.Slot) float64 {
	duration := int(slot.Window.End.Sub(slot.Window.Start) / time.Minute)
	hours := float64(duration) / 60
	if _, _, ok := a.breakFor(0, duration); ok {
		hours -= float64(a.opts.BreakDurationMinutes) / 60
	}
	return hours
}

func activeEmployees(employees []model.Employee) []model.Employee {
	var active []model.Employee
	for _, e := range employees {
		if e.IsActive {
			active = append(active, e)
		}
	}
	return active
}

// preAllocationIndex counts base-version entries against matching slots.
// Each entry covers at most one slot.
type preAllocationIndex struct {
	entries  []model.ScheduleEntry
	consumed []bool
}

func newPreAllocationIndex(entries []model.ScheduleEntry) *preAllocationIndex {
	var real []model.ScheduleEntry
	for _, e := range entries {
		if !e.IsPlaceholder() {
			real = append(real, e)
		}
	}
	return &preAllocationIndex{entries: real, consumed: make([]bool, len(real))}
}

// consume marks and counts the unconsumed entries matching the slot's window,
// or its template on the same date
func (p *preAllocationIndex) consume(slot coverage.Slot) int {
	n := 0
	for i, e := range p.entries {
		if p.consumed[i] || !model.NormalizeDate(e.Date).Equal(slot.Date) {
			continue
		}
		w := e.Window()
		sameWindow := w.Start.Equal(slot.Window.Start) && w.End.Equal(slot.Window.End)
		sameShift := e.ShiftID != nil && slot.ShiftID != nil && *e.ShiftID == *slot.ShiftID
		if sameWindow || sameShift {
			p.consumed[i] = true
			n++
		}
	}
	return n
}
