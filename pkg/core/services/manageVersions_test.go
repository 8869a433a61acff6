package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// generatedStore returns a store holding one generated DRAFT version
func generatedStore(t *testing.T) (*mockStore, *GenerateResult) {
	t.Helper()
	store := newMockStore(shopInputs())
	result, err := generate(t, store, config.Default(), threeDays())
	require.NoError(t, err)
	require.NotNil(t, result.Version)
	return store, result
}

func firstEntry(t *testing.T, store *mockStore, version int) model.ScheduleEntry {
	t.Helper()
	entries, err := store.GetEntries(context.Background(), version)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}

func TestPublishVersion_ThenEditIsRejected(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version

	require.NoError(t, PublishVersion(ctx, store, zap.NewNop(), v))

	published, entries, err := ShowVersion(ctx, store, zap.NewNop(), v)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, published.Status)
	for _, e := range entries {
		assert.Equal(t, model.StatusPublished, e.Status)
	}

	notes := "swap"
	_, err = EditEntry(ctx, store, zap.NewNop(), EntryEdit{Version: v, EntryID: entries[0].ID, Notes: &notes})
	assert.ErrorIs(t, err, model.ErrVersionNotDraft)

	err = PublishVersion(ctx, store, zap.NewNop(), v)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestArchiveVersion_FromPublished(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version
	require.NoError(t, PublishVersion(ctx, store, zap.NewNop(), v))

	require.NoError(t, ArchiveVersion(ctx, store, zap.NewNop(), v))

	archived, _, err := ShowVersion(ctx, store, zap.NewNop(), v)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, archived.Status)

	assert.ErrorIs(t, ArchiveVersion(ctx, store, zap.NewNop(), v), model.ErrInvalidTransition)
}

func TestPublishVersion_Unknown(t *testing.T) {
	store := newMockStore(shopInputs())

	err := PublishVersion(context.Background(), store, zap.NewNop(), 42)

	assert.ErrorIs(t, err, model.ErrVersionNotFound)
}

func TestDuplicateVersion_CopiesEntriesIntoNewDraft(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version
	require.NoError(t, PublishVersion(ctx, store, zap.NewNop(), v))

	dup, err := DuplicateVersion(ctx, store, zap.NewNop(), v, "")

	require.NoError(t, err)
	assert.Equal(t, v+1, dup.Version)
	assert.Equal(t, model.StatusDraft, dup.Status)
	require.NotNil(t, dup.BaseVersion)
	assert.Equal(t, v, *dup.BaseVersion)
	assert.Equal(t, "duplicate of version 1", dup.Notes)

	original, err := store.GetEntries(ctx, v)
	require.NoError(t, err)
	copied, err := store.GetEntries(ctx, dup.Version)
	require.NoError(t, err)
	require.Len(t, copied, len(original))
	for i := range copied {
		assert.NotEqual(t, original[i].ID, copied[i].ID)
		assert.Equal(t, original[i].EmployeeID, copied[i].EmployeeID)
		assert.Equal(t, model.StatusDraft, copied[i].Status)
	}

	listed, err := ListVersions(ctx, store, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, len(original), listed[1].EntryCount)
}

func TestEditEntry_MovesOntoTemplate(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version
	entry := firstEntry(t, store, v)
	late := "late"

	updated, err := EditEntry(ctx, store, zap.NewNop(), EntryEdit{Version: v, EntryID: entry.ID, ShiftID: &late})

	require.NoError(t, err)
	require.NotNil(t, updated.ShiftID)
	assert.Equal(t, "late", *updated.ShiftID)
	assert.Equal(t, tod("13:00"), *updated.Start)
	assert.Equal(t, tod("21:00"), *updated.End)
	assert.Nil(t, updated.BreakStart, "window change clears the break")

	stored := firstEntry(t, store, v)
	assert.Equal(t, tod("13:00"), *stored.Start)
}

func TestEditEntry_CustomWindowClearsTemplate(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version
	entry := firstEntry(t, store, v)
	start, end := tod("10:00"), tod("14:00")

	updated, err := EditEntry(ctx, store, zap.NewNop(), EntryEdit{Version: v, EntryID: entry.ID, Start: &start, End: &end})

	require.NoError(t, err)
	assert.Nil(t, updated.ShiftID)
	assert.Equal(t, start, *updated.Start)
	assert.Equal(t, end, *updated.End)
}

func TestEditEntry_OffMakesPlaceholder(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version
	entry := firstEntry(t, store, v)

	updated, err := EditEntry(ctx, store, zap.NewNop(), EntryEdit{Version: v, EntryID: entry.ID, Off: true})

	require.NoError(t, err)
	assert.True(t, updated.IsPlaceholder())
	assert.Equal(t, 0.0, updated.Hours())
}

func TestEditEntry_ReassignOverlapping(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version

	entries, err := store.GetEntries(ctx, v)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	monday, tuesday := entries[0], entries[1]
	date := monday.Date

	_, err = EditEntry(ctx, store, zap.NewNop(), EntryEdit{
		Version:    v,
		EntryID:    tuesday.ID,
		Date:       &date,
		EmployeeID: monday.EmployeeID,
	})

	assert.ErrorIs(t, err, model.ErrOverlappingEntry)
}

func TestEditEntry_UnknownTemplateAndEntry(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version
	entry := firstEntry(t, store, v)
	missing := "graveyard"

	_, err := EditEntry(ctx, store, zap.NewNop(), EntryEdit{Version: v, EntryID: entry.ID, ShiftID: &missing})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = EditEntry(ctx, store, zap.NewNop(), EntryEdit{Version: v, EntryID: "nope", Off: true})
	assert.ErrorIs(t, err, model.ErrEntryNotFound)
}

func TestEditEntry_DateOutsideVersion(t *testing.T) {
	ctx := context.Background()
	store, result := generatedStore(t)
	v := result.Version.Version
	entry := firstEntry(t, store, v)
	outside := model.MustDate("2025-04-01")

	_, err := EditEntry(ctx, store, zap.NewNop(), EntryEdit{Version: v, EntryID: entry.ID, Date: &outside})

	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
