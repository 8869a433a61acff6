package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/versions"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// PublishVersion makes a DRAFT version the published schedule
func PublishVersion(ctx context.Context, store db.VersionStore, logger *zap.Logger, version int) error {
	logger.Debug("Publishing version", zap.Int("version", version))
	return versions.NewManager(store, logger).Publish(ctx, version)
}

// ArchiveVersion retires a DRAFT or PUBLISHED version
func ArchiveVersion(ctx context.Context, store db.VersionStore, logger *zap.Logger, version int) error {
	logger.Debug("Archiving version", zap.Int("version", version))
	return versions.NewManager(store, logger).Archive(ctx, version)
}

// DuplicateVersion copies a version into a new DRAFT based on it
func DuplicateVersion(ctx context.Context, store db.VersionStore, logger *zap.Logger, version int, notes string) (*model.ScheduleVersion, error) {
	logger.Debug("Duplicating version", zap.Int("version", version))
	return versions.NewManager(store, logger).Duplicate(ctx, version, notes)
}

// ListVersions returns every version with its entry count
func ListVersions(ctx context.Context, store db.VersionStore, logger *zap.Logger) ([]db.VersionSummary, error) {
	return versions.NewManager(store, logger).List(ctx)
}

// ShowVersion returns a version and its entries
func ShowVersion(ctx context.Context, store db.VersionStore, logger *zap.Logger, version int) (*model.ScheduleVersion, []model.ScheduleEntry, error) {
	return versions.NewManager(store, logger).Get(ctx, version)
}

// EditEntryStore is what a per-entry edit needs
type EditEntryStore interface {
	db.VersionStore
	ListShiftTemplates(ctx context.Context) ([]model.ShiftTemplate, error)
}

// EntryEdit describes a change to one entry. Nil fields are left as they are.
type EntryEdit struct {
	Version int
	EntryID string
	// ShiftID moves the entry onto a template, taking the template's window
	ShiftID *string
	Start   *model.TimeOfDay
	End     *model.TimeOfDay
	Date    *time.Time
	// EmployeeID reassigns the entry when not empty
	EmployeeID string
	Notes      *string
	// Off turns the entry into a placeholder
	Off bool
}

// EditEntry applies an edit to an entry of a DRAFT version. Changing the window clears the break.
func EditEntry(ctx context.Context, store EditEntryStore, logger *zap.Logger, edit EntryEdit) (*model.ScheduleEntry, error) {
	manager := versions.NewManager(store, logger)

	_, entries, err := manager.Get(ctx, edit.Version)
	if err != nil {
		return nil, err
	}
	var entry *model.ScheduleEntry
	for i := range entries {
		if entries[i].ID == edit.EntryID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s in version %d", model.ErrEntryNotFound, edit.EntryID, edit.Version)
	}

	updated := *entry
	if edit.EmployeeID != "" {
		updated.EmployeeID = edit.EmployeeID
	}
	if edit.Date != nil {
		updated.Date = model.NormalizeDate(*edit.Date)
	}
	if edit.Notes != nil {
		updated.Notes = *edit.Notes
	}

	windowChanged := false
	switch {
	case edit.Off:
		updated.ShiftID, updated.Start, updated.End = nil, nil, nil
		windowChanged = true
	case edit.ShiftID != nil:
		template, err := findTemplate(ctx, store, *edit.ShiftID)
		if err != nil {
			return nil, err
		}
		start, end := template.Start, template.End
		shiftID := template.ID
		updated.ShiftID, updated.Start, updated.End = &shiftID, &start, &end
		windowChanged = true
	}
	if edit.Start != nil || edit.End != nil {
		if edit.Start != nil {
			updated.Start = edit.Start
		}
		if edit.End != nil {
			updated.End = edit.End
		}
		updated.ShiftID = nil
		if edit.ShiftID != nil {
			updated.ShiftID = edit.ShiftID
		}
		windowChanged = true
	}
	if windowChanged {
		updated.BreakStart, updated.BreakEnd = nil, nil
	}

	return manager.EditEntry(ctx, updated)
}

func findTemplate(ctx context.Context, store EditEntryStore, id string) (*model.ShiftTemplate, error) {
	templates, err := store.ListShiftTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift templates: %w", err)
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: unknown shift template %q", model.ErrInvalidInput, id)
}
