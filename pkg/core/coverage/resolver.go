package coverage

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Source tells which rule produced a slot
type Source string

const (
	SourceFixed     Source = "fixed"
	SourceRecurring Source = "recurring"
)

// Slot is one concrete staffing demand on one date
type Slot struct {
	ID       string
	Date     time.Time
	Start    model.TimeOfDay
	End      model.TimeOfDay
	Source   Source
	SourceID string
	// Seq is the creation order, used as the stable tiebreak
	Seq int

	MinEmployees           int
	MaxEmployees           int
	RequiredQualifications []string
	RequiresKeyholder      bool

	// ShiftID is the matched template, nil for ad hoc windows
	ShiftID *string
	// Window is the assignment window after opening lead / closing lag
	Window model.Window
}

// Hours returns the assignment window length
func (s Slot) Hours() float64 {
	return s.Window.Hours()
}

// Describe renders the slot for logs and errors
func (s Slot) Describe() string {
	return fmt.Sprintf("%s %s-%s (%s:%s)", model.FormatDate(s.Date), s.Start, s.End, s.Source, s.SourceID)
}

// Closure suppresses every slot on the dates its rule matches
type Closure struct {
	RRule  string
	Reason string
}

// SlotOrder selects the secondary ordering of slots that share a date and start time
type SlotOrder string

const (
	OrderCreation       SlotOrder = "creation"
	OrderKeyholderFirst SlotOrder = "keyholder_first"
)

// Options control slot validation and window shaping
type Options struct {
	MinShiftMinutes        int
	MaxShiftMinutes        int
	SlotGranularityMinutes int
	OpeningLeadMinutes     int
	ClosingLagMinutes      int
	Order                  SlotOrder
	Closures               []Closure
}

// Input is the coverage snapshot for one run
type Input struct {
	Start        time.Time
	End          time.Time
	Requirements []model.CoverageRequirement
	Patterns     []model.RecurringCoveragePattern
	Templates    []model.ShiftTemplate
}

// Resolver expands coverage rules into ordered slots
type Resolver struct {
	opts     Options
	closures []closureRule
}

type closureRule struct {
	rule   *rrule.RRule
	reason string
}

// RecurrenceEpoch anchors rules that carry no DTSTART, so INTERVAL counts from the same
// week whatever range is resolved. It is a Monday to line up with the default WKST.
var RecurrenceEpoch = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)

// NewResolver parses closure rules up front so resolution cannot fail on them
func NewResolver(opts Options) (*Resolver, error) {
	if opts.Order == "" {
		opts.Order = OrderCreation
	}
	if opts.Order != OrderCreation && opts.Order != OrderKeyholderFirst {
		return nil, fmt.Errorf("%w: unknown slot order %q", model.ErrInvalidInput, opts.Order)
	}

	r := &Resolver{opts: opts}
	for i, c := range opts.Closures {
		rule, err := rrule.StrToRRule(c.RRule)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid rrule in closures[%d]: %v", model.ErrInvalidInput, i, err)
		}
		anchorRule(rule, c.RRule, nil)
		r.closures = append(r.closures, closureRule{rule: rule, reason: c.Reason})
	}
	return r, nil
}

// ClosedDates returns the closure reason for every closed date in [start, end]
func (r *Resolver) ClosedDates(start, end time.Time) map[time.Time]string {
	closed := make(map[time.Time]string)
	for _, c := range r.closures {
		for day := range occurrenceDates(c.rule, start, end) {
			if _, ok := closed[day]; !ok {
				closed[day] = c.reason
			}
		}
	}
	return closed
}

// Resolve emits one slot per matching requirement and pattern on every date in range,
// sorted by date, start time, then creation order. Overlapping slots are kept separate.
func (r *Resolver) Resolve(in Input) ([]Slot, error) {
	start, end := model.NormalizeDate(in.Start), model.NormalizeDate(in.End)
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, fmt.Errorf("%w: invalid date range %s to %s", model.ErrInvalidInput, model.FormatDate(start), model.FormatDate(end))
	}

	if err := r.Validate(in); err != nil {
		return nil, err
	}

	// nil entry: the pattern uses its weekday set
	patternDates := make(map[string]map[time.Time]bool)
	for _, p := range in.Patterns {
		if p.RRule == "" {
			continue
		}
		rule, err := rrule.StrToRRule(p.RRule)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %s has invalid rrule: %v", model.ErrInvalidInput, p.ID, err)
		}
		anchorRule(rule, p.RRule, p.ValidFrom)
		patternDates[p.ID] = occurrenceDates(rule, start, end)
	}

	closed := r.ClosedDates(start, end)
	templates := newTemplateMatcher(in.Templates)

	var slots []Slot
	seq := 0
	for _, date := range model.DatesInRange(start, end) {
		if _, ok := closed[date]; ok {
			continue
		}

		for _, req := range in.Requirements {
			if req.DayOfWeek != date.Weekday() {
				continue
			}
			slots = append(slots, Slot{
				Date:                   date,
				Start:                  req.Start,
				End:                    req.End,
				Source:                 SourceFixed,
				SourceID:               req.ID,
				Seq:                    seq,
				MinEmployees:           req.MinEmployees,
				MaxEmployees:           req.MaxEmployees,
				RequiredQualifications: req.RequiredQualifications,
				RequiresKeyholder:      req.RequiresKeyholder,
				ShiftID:                templates.match(req.ShiftTemplateID, date, req.Start, req.End),
			})
			seq++
		}

		for _, p := range in.Patterns {
			if !patternMatches(p, patternDates[p.ID], date) {
				continue
			}
			slots = append(slots, Slot{
				Date:                   date,
				Start:                  p.Start,
				End:                    p.End,
				Source:                 SourceRecurring,
				SourceID:               p.ID,
				Seq:                    seq,
				MinEmployees:           p.MinEmployees,
				MaxEmployees:           p.MaxEmployees,
				RequiredQualifications: p.RequiredQualifications,
				RequiresKeyholder:      p.RequiresKeyholder,
				ShiftID:                templates.match(p.ShiftTemplateID, date, p.Start, p.End),
			})
			seq++
		}
	}

	r.applyLeadLag(slots)

	for i := range slots {
		s := &slots[i]
		s.ID = fmt.Sprintf("%s/%s:%s#%d", model.FormatDate(s.Date), s.Source, s.SourceID, s.Seq)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if r.opts.Order == OrderKeyholderFirst && a.RequiresKeyholder != b.RequiresKeyholder {
			return a.RequiresKeyholder
		}
		return a.Seq < b.Seq
	})

	return slots, nil
}

// patternMatches checks the weekday set (or rrule dates) and the optional validity window
func patternMatches(p model.RecurringCoveragePattern, ruleDates map[time.Time]bool, date time.Time) bool {
	if !model.WithinBounds(date, p.ValidFrom, p.ValidTo) {
		return false
	}
	if ruleDates != nil {
		return ruleDates[date]
	}
	return slices.Contains(p.DaysOfWeek, date.Weekday())
}

// anchorRule gives a rule without DTSTART a fixed anchor: validFrom when set, else RecurrenceEpoch
func anchorRule(rule *rrule.RRule, text string, validFrom *time.Time) {
	if hasDTStart(text) {
		return
	}
	if validFrom != nil {
		rule.DTStart(model.NormalizeDate(*validFrom))
		return
	}
	rule.DTStart(RecurrenceEpoch)
}

// occurrenceDates expands a rule into the calendar dates it hits within [start, end]
func occurrenceDates(rule *rrule.RRule, start, end time.Time) map[time.Time]bool {
	start, end = model.NormalizeDate(start), model.NormalizeDate(end)
	dates := make(map[time.Time]bool)
	for _, occurrence := range rule.Between(start, end.AddDate(0, 0, 1), true) {
		day := model.NormalizeDate(occurrence)
		if !day.After(end) {
			dates[day] = true
		}
	}
	return dates
}

func hasDTStart(rule string) bool {
	return strings.Contains(strings.ToUpper(rule), "DTSTART")
}

// applyLeadLag extends keyholder slots that open or close the day
func (r *Resolver) applyLeadLag(slots []Slot) {
	type bounds struct {
		earliest model.TimeOfDay
		latest   int
	}
	days := make(map[time.Time]*bounds)
	for _, s := range slots {
		end := int(s.Start) + model.DurationMinutes(s.Start, s.End)
		b, ok := days[s.Date]
		if !ok {
			days[s.Date] = &bounds{earliest: s.Start, latest: end}
			continue
		}
		if s.Start < b.earliest {
			b.earliest = s.Start
		}
		if end > b.latest {
			b.latest = end
		}
	}

	for i := range slots {
		s := &slots[i]
		s.Window = model.NewWindow(s.Date, s.Start, s.End)
		if !s.RequiresKeyholder {
			continue
		}
		b := days[s.Date]
		if s.Start == b.earliest && r.opts.OpeningLeadMinutes > 0 {
			// never reach back into the previous date
			lead := min(r.opts.OpeningLeadMinutes, int(s.Start))
			s.Window.Start = s.Window.Start.Add(-time.Duration(lead) * time.Minute)
		}
		end := int(s.Start) + model.DurationMinutes(s.Start, s.End)
		if end == b.latest && r.opts.ClosingLagMinutes > 0 {
			s.Window.End = s.Window.End.Add(time.Duration(r.opts.ClosingLagMinutes) * time.Minute)
		}
	}
}

// Validate rejects demand windows that break granularity or duration bounds and pattern
// rules that do not parse. Only Requirements and Patterns are read.
func (r *Resolver) Validate(in Input) error {
	var problems []string

	check := func(kind, id string, start, end model.TimeOfDay, minEmp, maxEmp int) {
		if minEmp < 0 || maxEmp < 0 {
			problems = append(problems, fmt.Sprintf("%s %s: headcount must not be negative", kind, id))
		}
		if maxEmp < minEmp {
			problems = append(problems, fmt.Sprintf("%s %s: max_employees %d is below min_employees %d", kind, id, maxEmp, minEmp))
		}
		if g := r.opts.SlotGranularityMinutes; g > 0 && (int(start)%g != 0 || int(end)%g != 0) {
			problems = append(problems, fmt.Sprintf("%s %s: window %s-%s is not aligned to %d minutes", kind, id, start, end, g))
		}
		d := model.DurationMinutes(start, end)
		if r.opts.MinShiftMinutes > 0 && d < r.opts.MinShiftMinutes {
			problems = append(problems, fmt.Sprintf("%s %s: %d minutes is shorter than the minimum %d", kind, id, d, r.opts.MinShiftMinutes))
		}
		if r.opts.MaxShiftMinutes > 0 && d > r.opts.MaxShiftMinutes {
			problems = append(problems, fmt.Sprintf("%s %s: %d minutes is longer than the maximum %d", kind, id, d, r.opts.MaxShiftMinutes))
		}
	}

	for _, req := range in.Requirements {
		check("requirement", req.ID, req.Start, req.End, req.MinEmployees, req.MaxEmployees)
	}
	for _, p := range in.Patterns {
		check("pattern", p.ID, p.Start, p.End, p.MinEmployees, p.MaxEmployees)
		if p.RRule != "" {
			if _, err := rrule.StrToRRule(p.RRule); err != nil {
				problems = append(problems, fmt.Sprintf("pattern %s: invalid rrule: %v", p.ID, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", model.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}
