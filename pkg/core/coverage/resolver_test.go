package coverage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

func tod(s string) model.TimeOfDay { return model.MustTimeOfDay(s) }

func newTestResolver(t *testing.T, opts Options) *Resolver {
	t.Helper()
	r, err := NewResolver(opts)
	require.NoError(t, err)
	return r
}

func defaultOptions() Options {
	return Options{MinShiftMinutes: 120, MaxShiftMinutes: 600, SlotGranularityMinutes: 15}
}

func TestResolve_FixedAndRecurringAreNotMerged(t *testing.T) {
	r := newTestResolver(t, defaultOptions())

	// 2025-03-03 is a Monday
	slots, err := r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-04"),
		Requirements: []model.CoverageRequirement{
			{ID: "base", DayOfWeek: time.Monday, Start: tod("09:00"), End: tod("17:00"), MinEmployees: 2, MaxEmployees: 3},
		},
		Patterns: []model.RecurringCoveragePattern{
			{ID: "boost", DaysOfWeek: []time.Weekday{time.Monday, time.Tuesday}, Start: tod("09:00"), End: tod("13:00"), MinEmployees: 1, MaxEmployees: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, "base", slots[0].SourceID)
	assert.Equal(t, "boost", slots[1].SourceID)
	assert.Equal(t, model.MustDate("2025-03-04"), slots[2].Date)
	assert.Equal(t, SourceRecurring, slots[2].Source)
}

func TestResolve_OrdersByDateThenStartThenCreation(t *testing.T) {
	r := newTestResolver(t, defaultOptions())

	slots, err := r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-03"),
		Requirements: []model.CoverageRequirement{
			{ID: "late", DayOfWeek: time.Monday, Start: tod("14:00"), End: tod("22:00"), MinEmployees: 1, MaxEmployees: 1},
			{ID: "early-a", DayOfWeek: time.Monday, Start: tod("06:00"), End: tod("14:00"), MinEmployees: 1, MaxEmployees: 1},
			{ID: "early-b", DayOfWeek: time.Monday, Start: tod("06:00"), End: tod("10:00"), MinEmployees: 1, MaxEmployees: 1, RequiresKeyholder: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, []string{"early-a", "early-b", "late"}, []string{slots[0].SourceID, slots[1].SourceID, slots[2].SourceID})

	opts := defaultOptions()
	opts.Order = OrderKeyholderFirst
	r = newTestResolver(t, opts)
	slots, err = r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-03"),
		Requirements: []model.CoverageRequirement{
			{ID: "early-a", DayOfWeek: time.Monday, Start: tod("06:00"), End: tod("14:00"), MinEmployees: 1, MaxEmployees: 1},
			{ID: "early-b", DayOfWeek: time.Monday, Start: tod("06:00"), End: tod("10:00"), MinEmployees: 1, MaxEmployees: 1, RequiresKeyholder: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "early-b", slots[0].SourceID)
}

func TestResolve_EmptyDaySetAndValidityWindow(t *testing.T) {
	r := newTestResolver(t, defaultOptions())
	validFrom := model.MustDate("2025-03-05")

	slots, err := r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-09"),
		Patterns: []model.RecurringCoveragePattern{
			{ID: "never", Start: tod("09:00"), End: tod("17:00")},
			{ID: "weekdays", DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday}, ValidFrom: &validFrom, Start: tod("09:00"), End: tod("17:00"), MaxEmployees: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "2025-03-05", model.FormatDate(slots[0].Date))
	assert.Equal(t, "2025-03-07", model.FormatDate(slots[1].Date))
}

func TestResolve_RRulePattern(t *testing.T) {
	r := newTestResolver(t, defaultOptions())

	slots, err := r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-30"),
		Patterns: []model.RecurringCoveragePattern{
			{ID: "alt-saturdays", RRule: "FREQ=WEEKLY;INTERVAL=2;BYDAY=SA", Start: tod("10:00"), End: tod("16:00"), MaxEmployees: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "2025-03-15", model.FormatDate(slots[0].Date))
	assert.Equal(t, "2025-03-29", model.FormatDate(slots[1].Date))
}

func resolvedDates(t *testing.T, r *Resolver, start, end string, patterns ...model.RecurringCoveragePattern) []string {
	t.Helper()
	slots, err := r.Resolve(Input{Start: model.MustDate(start), End: model.MustDate(end), Patterns: patterns})
	require.NoError(t, err)
	var dates []string
	for _, s := range slots {
		dates = append(dates, model.FormatDate(s.Date))
	}
	return dates
}

func TestResolve_RRuleWithoutDTStartIsStableAcrossRanges(t *testing.T) {
	r := newTestResolver(t, defaultOptions())
	pattern := model.RecurringCoveragePattern{ID: "alt-saturdays", RRule: "FREQ=WEEKLY;INTERVAL=2;BYDAY=SA", Start: tod("10:00"), End: tod("16:00"), MaxEmployees: 1}

	fromFirst := resolvedDates(t, r, "2025-03-01", "2025-03-31", pattern)
	fromEighth := resolvedDates(t, r, "2025-03-08", "2025-03-31", pattern)

	assert.Equal(t, []string{"2025-03-01", "2025-03-15", "2025-03-29"}, fromFirst)
	assert.Equal(t, []string{"2025-03-15", "2025-03-29"}, fromEighth, "shifting the range start must not shift the fortnight")
}

func TestResolve_RRuleAnchorsAtValidFrom(t *testing.T) {
	r := newTestResolver(t, defaultOptions())
	validFrom := model.MustDate("2025-03-08")
	pattern := model.RecurringCoveragePattern{ID: "alt-saturdays", RRule: "FREQ=WEEKLY;INTERVAL=2;BYDAY=SA", ValidFrom: &validFrom, Start: tod("10:00"), End: tod("16:00"), MaxEmployees: 1}

	assert.Equal(t, []string{"2025-03-08", "2025-03-22"}, resolvedDates(t, r, "2025-03-01", "2025-03-31", pattern))
	assert.Equal(t, []string{"2025-03-22"}, resolvedDates(t, r, "2025-03-15", "2025-03-31", pattern))
}

func TestClosedDates_IntervalRuleIsStableAcrossRanges(t *testing.T) {
	opts := defaultOptions()
	opts.Closures = []Closure{{RRule: "FREQ=WEEKLY;INTERVAL=2;BYDAY=SU", Reason: "deep clean"}}
	r := newTestResolver(t, opts)

	wide := r.ClosedDates(model.MustDate("2025-03-01"), model.MustDate("2025-03-31"))
	narrow := r.ClosedDates(model.MustDate("2025-03-10"), model.MustDate("2025-03-31"))

	assert.Len(t, wide, 3)
	for day, reason := range narrow {
		assert.Equal(t, reason, wide[day], "closure on %s differs between ranges", model.FormatDate(day))
	}
	assert.Contains(t, narrow, model.MustDate("2025-03-16"))
}

func TestResolve_ClosuresSuppressSlots(t *testing.T) {
	opts := defaultOptions()
	opts.Closures = []Closure{{RRule: "FREQ=YEARLY;BYMONTH=3;BYMONTHDAY=4", Reason: "stocktake"}}
	r := newTestResolver(t, opts)

	slots, err := r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-05"),
		Patterns: []model.RecurringCoveragePattern{
			{ID: "daily", DaysOfWeek: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday}, Start: tod("09:00"), End: tod("17:00"), MaxEmployees: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "2025-03-03", model.FormatDate(slots[0].Date))
	assert.Equal(t, "2025-03-05", model.FormatDate(slots[1].Date))

	closed := r.ClosedDates(model.MustDate("2025-03-01"), model.MustDate("2025-03-31"))
	assert.Equal(t, map[time.Time]string{model.MustDate("2025-03-04"): "stocktake"}, closed)
}

func TestNewResolver_InvalidClosureRule(t *testing.T) {
	_, err := NewResolver(Options{Closures: []Closure{{RRule: "NOT A RULE"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestResolve_InvalidRangeIsInputError(t *testing.T) {
	r := newTestResolver(t, defaultOptions())
	_, err := r.Resolve(Input{Start: model.MustDate("2025-03-05"), End: model.MustDate("2025-03-03")})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestResolve_ValidationRejectsBadWindows(t *testing.T) {
	r := newTestResolver(t, defaultOptions())

	_, err := r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-03"),
		Requirements: []model.CoverageRequirement{
			{ID: "ragged", DayOfWeek: time.Monday, Start: tod("09:10"), End: tod("17:00"), MaxEmployees: 1},
			{ID: "short", DayOfWeek: time.Monday, Start: tod("09:00"), End: tod("10:00"), MaxEmployees: 1},
			{ID: "inverted", DayOfWeek: time.Monday, Start: tod("09:00"), End: tod("17:00"), MinEmployees: 3, MaxEmployees: 1},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Contains(t, err.Error(), "ragged")
	assert.Contains(t, err.Error(), "short")
	assert.Contains(t, err.Error(), "inverted")
}

func TestResolve_OpeningLeadAndClosingLag(t *testing.T) {
	opts := defaultOptions()
	opts.OpeningLeadMinutes = 15
	opts.ClosingLagMinutes = 30
	r := newTestResolver(t, opts)

	slots, err := r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-03"),
		Requirements: []model.CoverageRequirement{
			{ID: "open", DayOfWeek: time.Monday, Start: tod("08:00"), End: tod("14:00"), MaxEmployees: 1, RequiresKeyholder: true},
			{ID: "floor", DayOfWeek: time.Monday, Start: tod("08:00"), End: tod("14:00"), MaxEmployees: 2},
			{ID: "close", DayOfWeek: time.Monday, Start: tod("14:00"), End: tod("20:00"), MaxEmployees: 1, RequiresKeyholder: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)

	day := model.MustDate("2025-03-03")
	assert.Equal(t, day.Add(7*time.Hour+45*time.Minute), slots[0].Window.Start)
	assert.Equal(t, day.Add(14*time.Hour), slots[0].Window.End)
	assert.Equal(t, day.Add(8*time.Hour), slots[1].Window.Start, "non-keyholder slots keep their window")
	assert.Equal(t, day.Add(20*time.Hour+30*time.Minute), slots[2].Window.End)
	assert.Equal(t, 6.5, slots[2].Hours())
}

func TestResolve_TemplateMatching(t *testing.T) {
	r := newTestResolver(t, defaultOptions())

	slots, err := r.Resolve(Input{
		Start: model.MustDate("2025-03-03"),
		End:   model.MustDate("2025-03-03"),
		Templates: []model.ShiftTemplate{
			{ID: "weekend-early", Start: tod("06:00"), End: tod("14:00"), ActiveDays: []time.Weekday{time.Saturday, time.Sunday}},
			{ID: "early", Start: tod("06:00"), End: tod("14:00")},
			{ID: "pinned", Start: tod("10:00"), End: tod("18:00")},
		},
		Requirements: []model.CoverageRequirement{
			{ID: "a", DayOfWeek: time.Monday, Start: tod("06:00"), End: tod("14:00"), MaxEmployees: 1},
			{ID: "b", DayOfWeek: time.Monday, Start: tod("07:00"), End: tod("15:00"), MaxEmployees: 1, ShiftTemplateID: "pinned"},
			{ID: "c", DayOfWeek: time.Monday, Start: tod("08:00"), End: tod("12:00"), MaxEmployees: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)
	require.NotNil(t, slots[0].ShiftID)
	assert.Equal(t, "early", *slots[0].ShiftID)
	require.NotNil(t, slots[1].ShiftID)
	assert.Equal(t, "pinned", *slots[1].ShiftID)
	assert.Nil(t, slots[2].ShiftID)
}
