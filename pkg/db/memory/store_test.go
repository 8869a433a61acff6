package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/db"
)

func entry(employeeID, date, start, end string) model.ScheduleEntry {
	s, e := model.MustTimeOfDay(start), model.MustTimeOfDay(end)
	return model.ScheduleEntry{EmployeeID: employeeID, Date: model.MustDate(date), Start: &s, End: &e}
}

func newVersion(entries ...model.ScheduleEntry) db.NewVersion {
	return db.NewVersion{
		StartDate: model.MustDate("2025-03-03"),
		EndDate:   model.MustDate("2025-03-09"),
		Entries:   entries,
	}
}

func TestCreateVersion_NumbersSequentiallyAsDraft(t *testing.T) {
	ctx := context.Background()
	store := New(Inputs{})

	first, err := store.CreateVersion(ctx, newVersion(entry("amy", "2025-03-03", "09:00", "17:00")))
	require.NoError(t, err)
	second, err := store.CreateVersion(ctx, newVersion())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, model.StatusDraft, first.Status)

	entries, err := store.GetEntries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, 1, entries[0].Version)
	assert.Equal(t, model.StatusDraft, entries[0].Status)

	summaries, err := store.ListVersions(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 1, summaries[0].EntryCount)
	assert.Equal(t, 0, summaries[1].EntryCount)
}

func TestCreateVersion_ConcurrentCommitsGetDistinctNumbers(t *testing.T) {
	ctx := context.Background()
	store := New(Inputs{})

	const n = 20
	numbers := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.CreateVersion(ctx, newVersion())
			if err == nil {
				numbers <- v.Version
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool)
	for v := range numbers {
		assert.False(t, seen[v], "version %d allocated twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

func TestUpdateVersionStatus_CascadesAndChecksCurrentStatus(t *testing.T) {
	ctx := context.Background()
	store := New(Inputs{})
	_, err := store.CreateVersion(ctx, newVersion(entry("amy", "2025-03-03", "09:00", "17:00")))
	require.NoError(t, err)

	require.NoError(t, store.UpdateVersionStatus(ctx, 1, model.StatusDraft, model.StatusPublished))

	v, err := store.GetVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, v.Status)

	entries, err := store.GetEntries(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, entries[0].Status)

	err = store.UpdateVersionStatus(ctx, 1, model.StatusDraft, model.StatusPublished)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	err = store.UpdateVersionStatus(ctx, 9, model.StatusDraft, model.StatusPublished)
	assert.ErrorIs(t, err, model.ErrVersionNotFound)
}

func TestUpdateEntry_OnlyInDraft(t *testing.T) {
	ctx := context.Background()
	store := New(Inputs{})
	_, err := store.CreateVersion(ctx, newVersion(entry("amy", "2025-03-03", "09:00", "17:00")))
	require.NoError(t, err)

	entries, err := store.GetEntries(ctx, 1)
	require.NoError(t, err)
	edited := entries[0]
	later := model.MustTimeOfDay("10:00")
	edited.Start = &later
	edited.Notes = "late start"
	require.NoError(t, store.UpdateEntry(ctx, edited))

	entries, err = store.GetEntries(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "10:00", entries[0].Start.String())
	assert.Equal(t, "late start", entries[0].Notes)
	assert.Equal(t, model.StatusDraft, entries[0].Status)

	missing := edited
	missing.ID = "nope"
	assert.ErrorIs(t, store.UpdateEntry(ctx, missing), model.ErrEntryNotFound)

	require.NoError(t, store.UpdateVersionStatus(ctx, 1, model.StatusDraft, model.StatusPublished))
	assert.ErrorIs(t, store.UpdateEntry(ctx, edited), model.ErrVersionNotDraft)
}

func TestGetPublishedEntries_HalfOpenRange(t *testing.T) {
	ctx := context.Background()
	store := New(Inputs{})

	_, err := store.CreateVersion(ctx, newVersion(
		entry("amy", "2025-03-01", "09:00", "17:00"),
		entry("amy", "2025-03-02", "09:00", "17:00"),
		entry("amy", "2025-03-03", "09:00", "17:00"),
	))
	require.NoError(t, err)
	_, err = store.CreateVersion(ctx, newVersion(entry("bob", "2025-03-02", "09:00", "17:00")))
	require.NoError(t, err)

	require.NoError(t, store.UpdateVersionStatus(ctx, 1, model.StatusDraft, model.StatusPublished))

	entries, err := store.GetPublishedEntries(ctx, model.MustDate("2025-03-01"), model.MustDate("2025-03-03"))
	require.NoError(t, err)
	require.Len(t, entries, 2, "drafts and the end date are excluded")
	assert.Equal(t, "2025-03-01", model.FormatDate(entries[0].Date))
	assert.Equal(t, "2025-03-02", model.FormatDate(entries[1].Date))
}

func TestListAbsences_OverlappingRange(t *testing.T) {
	store := New(Inputs{Absences: []model.Absence{
		{EmployeeID: "amy", StartDate: model.MustDate("2025-02-20"), EndDate: model.MustDate("2025-03-03")},
		{EmployeeID: "bob", StartDate: model.MustDate("2025-04-01"), EndDate: model.MustDate("2025-04-05")},
	}})

	absences, err := store.ListAbsences(context.Background(), model.MustDate("2025-03-03"), model.MustDate("2025-03-09"))
	require.NoError(t, err)
	require.Len(t, absences, 1)
	assert.Equal(t, "amy", absences[0].EmployeeID)
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
employees:
  - id: kim
    firstName: Kim
    contractedWeeklyHours: 37.5
    keyholder: true
    seniorityYears: 4
  - id: lee
    firstName: Lee
    active: false
shiftTemplates:
  - id: early
    start: "06:00"
    end: "14:00"
    type: EARLY
    activeDays: [MO, TU, WE, TH, FR]
coverageRequirements:
  - id: open
    day: Monday
    start: "06:00"
    end: "14:00"
    min: 1
    max: 2
    keyholder: true
    shiftTemplate: early
coveragePatterns:
  - id: saturdays
    name: Alternate Saturdays
    rrule: "FREQ=WEEKLY;INTERVAL=2;BYDAY=SA"
    validFrom: "2025-03-01"
    start: "10:00"
    end: "16:00"
    min: 1
    max: 1
availability:
  - employee: kim
    day: TU
    start: "00:00"
    end: "23:59"
    type: UNAVAILABLE
preferences:
  - employee: kim
    day: MO
    start: "06:00"
    end: "14:00"
    strength: 5
absences:
  - employee: lee
    start: "2025-03-01"
    end: "2025-03-31"
performance:
  - employee: kim
    punctuality: 0.9
    reliability: 0.8
`), 0644))

	store, err := LoadFixture(path)
	require.NoError(t, err)
	ctx := context.Background()

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.True(t, employees[0].IsActive, "active defaults to true")
	assert.False(t, employees[1].IsActive)
	require.NotNil(t, employees[0].SeniorityYears)
	assert.Equal(t, 4.0, *employees[0].SeniorityYears)

	templates, err := store.ListShiftTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Len(t, templates[0].ActiveDays, 5)

	requirements, err := store.ListCoverageRequirements(ctx)
	require.NoError(t, err)
	require.Len(t, requirements, 1)
	assert.Equal(t, time.Monday, requirements[0].DayOfWeek)

	patterns, err := store.ListCoveragePatterns(ctx)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	require.NotNil(t, patterns[0].ValidFrom)
	assert.Nil(t, patterns[0].ValidTo)

	availability, err := store.ListAvailability(ctx)
	require.NoError(t, err)
	require.Len(t, availability, 1)
	assert.Equal(t, model.AvailabilityUnavailable, availability[0].Type)
}

func TestParseFixture_RejectsBadValues(t *testing.T) {
	_, err := ParseFixture([]byte(`
coverageRequirements:
  - id: open
    day: Funday
    start: "06:00"
    end: "14:00"
`))
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = ParseFixture([]byte(`
employees:
  - id: kim
    favouriteColour: blue
`))
	assert.ErrorIs(t, err, model.ErrInvalidInput, "unknown keys are rejected")

	_, err = ParseFixture([]byte(`
availability:
  - employee: kim
    day: MO
    start: "06:00"
    end: "14:00"
    type: MAYBE
`))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
