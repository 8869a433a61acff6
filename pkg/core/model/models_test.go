package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(570), tod)
	assert.Equal(t, "09:30", tod.String())
	assert.Equal(t, 9, tod.Hour())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}

func TestDurationMinutes_Overnight(t *testing.T) {
	assert.Equal(t, 480, DurationMinutes(MustTimeOfDay("09:00"), MustTimeOfDay("17:00")))
	assert.Equal(t, 480, DurationMinutes(MustTimeOfDay("22:00"), MustTimeOfDay("06:00")))
}

func TestWindow_Overlaps(t *testing.T) {
	day := MustDate("2025-03-03")
	morning := NewWindow(day, MustTimeOfDay("09:00"), MustTimeOfDay("13:00"))
	afternoon := NewWindow(day, MustTimeOfDay("13:00"), MustTimeOfDay("17:00"))
	midday := NewWindow(day, MustTimeOfDay("12:00"), MustTimeOfDay("14:00"))

	assert.False(t, morning.Overlaps(afternoon), "touching windows do not overlap")
	assert.True(t, morning.Overlaps(midday))
	assert.True(t, midday.Overlaps(afternoon))
	assert.Equal(t, 4.0, morning.Hours())
}

func TestWindow_OvernightCrossesIntoNextDay(t *testing.T) {
	night := NewWindow(MustDate("2025-03-03"), MustTimeOfDay("22:00"), MustTimeOfDay("06:00"))
	nextMorning := NewWindow(MustDate("2025-03-04"), MustTimeOfDay("05:00"), MustTimeOfDay("09:00"))

	assert.True(t, night.Overlaps(nextMorning))
	assert.Equal(t, 8.0, night.Hours())
}

func TestWeekStart(t *testing.T) {
	// 2025-03-05 is a Wednesday
	assert.Equal(t, MustDate("2025-03-03"), WeekStart(MustDate("2025-03-05")))
	// Sunday belongs to the week that started the previous Monday
	assert.Equal(t, MustDate("2025-03-03"), WeekStart(MustDate("2025-03-09")))
	assert.Equal(t, MustDate("2025-03-10"), WeekStart(MustDate("2025-03-10")))
}

func TestDatesInRange(t *testing.T) {
	dates := DatesInRange(MustDate("2025-03-30"), MustDate("2025-04-02"))
	require.Len(t, dates, 4)
	assert.Equal(t, "2025-04-01", FormatDate(dates[2]))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusPublished))
	assert.True(t, CanTransition(StatusDraft, StatusArchived))
	assert.True(t, CanTransition(StatusPublished, StatusArchived))

	assert.False(t, CanTransition(StatusPublished, StatusDraft))
	assert.False(t, CanTransition(StatusArchived, StatusPublished))
	assert.False(t, CanTransition(StatusArchived, StatusDraft))
	assert.False(t, CanTransition(StatusPublished, StatusPublished))

	err := CheckTransition(3, StatusArchived, StatusPublished)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "version 3")
}

func TestScheduleEntry_PlaceholderAndHours(t *testing.T) {
	placeholder := ScheduleEntry{EmployeeID: "e1", Date: MustDate("2025-03-03")}
	assert.True(t, placeholder.IsPlaceholder())
	assert.Equal(t, 0.0, placeholder.Hours())

	start, end := MustTimeOfDay("09:00"), MustTimeOfDay("17:00")
	bs, be := MustTimeOfDay("12:30"), MustTimeOfDay("13:00")
	entry := ScheduleEntry{EmployeeID: "e1", Date: MustDate("2025-03-03"), Start: &start, End: &end, BreakStart: &bs, BreakEnd: &be}
	assert.False(t, entry.IsPlaceholder())
	assert.Equal(t, 7.5, entry.Hours())
}

func TestFillTemplateWindows_OnlyEntriesMissingAWindow(t *testing.T) {
	day := MustDate("2025-03-03")
	early, unknown := "early", "retired"
	s, e := MustTimeOfDay("10:00"), MustTimeOfDay("14:00")
	templates := []ShiftTemplate{{ID: "early", Start: MustTimeOfDay("06:00"), End: MustTimeOfDay("14:00")}}

	filled := FillTemplateWindows([]ScheduleEntry{
		{ID: "bare", EmployeeID: "e1", Date: day, ShiftID: &early},
		{ID: "explicit", EmployeeID: "e2", Date: day, ShiftID: &early, Start: &s, End: &e},
		{ID: "unknown", EmployeeID: "e3", Date: day, ShiftID: &unknown},
		{ID: "off", EmployeeID: "e4", Date: day},
	}, templates)

	require.Len(t, filled, 4)
	require.NotNil(t, filled[0].Start)
	assert.Equal(t, MustTimeOfDay("06:00"), *filled[0].Start)
	assert.Equal(t, 8.0, filled[0].Hours())
	assert.Equal(t, s, *filled[1].Start, "an explicit window wins over the template")
	assert.Nil(t, filled[2].Start)
	assert.True(t, filled[3].IsPlaceholder())

	other := ScheduleEntry{ID: "x", EmployeeID: "e1", Date: day, Start: &s, End: &e}
	assert.NotNil(t, FindOverlap(other, filled), "the filled window takes part in overlap checks")
}

func TestFindOverlap(t *testing.T) {
	day := MustDate("2025-03-03")
	s1, e1 := MustTimeOfDay("09:00"), MustTimeOfDay("13:00")
	s2, e2 := MustTimeOfDay("12:00"), MustTimeOfDay("16:00")

	existing := []ScheduleEntry{
		{ID: "a", EmployeeID: "alice", Date: day, Start: &s1, End: &e1},
		{ID: "b", EmployeeID: "bob", Date: day, Start: &s2, End: &e2},
	}

	candidate := ScheduleEntry{ID: "c", EmployeeID: "bob", Date: day, Start: &s1, End: &e1}
	overlap := FindOverlap(candidate, existing)
	require.NotNil(t, overlap)
	assert.Equal(t, "b", overlap.ID)

	// Same entry ID is ignored (editing in place)
	edited := ScheduleEntry{ID: "b", EmployeeID: "bob", Date: day, Start: &s1, End: &e1}
	assert.Nil(t, FindOverlap(edited, existing))
}

func TestAbsenceCovers(t *testing.T) {
	absence := Absence{EmployeeID: "e1", StartDate: MustDate("2025-03-03"), EndDate: MustDate("2025-03-05")}
	assert.True(t, absence.Covers(MustDate("2025-03-03")))
	assert.True(t, absence.Covers(time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)))
	assert.False(t, absence.Covers(MustDate("2025-03-06")))
}

func TestParseWeekday(t *testing.T) {
	for _, s := range []string{"MO", "mon", "Monday", " monday "} {
		d, err := ParseWeekday(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Monday, d)
	}

	_, err := ParseWeekday("Funday")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
