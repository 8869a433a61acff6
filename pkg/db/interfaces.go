package db

import (
	"context"
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// NewVersion is everything needed to commit a generated (or duplicated) version
type NewVersion struct {
	StartDate   time.Time
	EndDate     time.Time
	BaseVersion *int
	Notes       string
	// Entries are stored with the allocated version number and DRAFT status
	Entries []model.ScheduleEntry
}

// VersionSummary is a version with the number of entries it holds
type VersionSummary struct {
	model.ScheduleVersion
	EntryCount int
}

// VersionStore defines the schedule version operations.
// Implementations must allocate version numbers atomically with the insert of the version's entries.
type VersionStore interface {
	ListVersions(ctx context.Context) ([]VersionSummary, error)
	// GetVersion returns model.ErrVersionNotFound for unknown versions
	GetVersion(ctx context.Context, version int) (*model.ScheduleVersion, error)
	GetEntries(ctx context.Context, version int) ([]model.ScheduleEntry, error)
	// CreateVersion stores the version as max(existing)+1 (or 1) in DRAFT
	CreateVersion(ctx context.Context, v NewVersion) (*model.ScheduleVersion, error)
	// UpdateVersionStatus moves the version and all its entries to the new status,
	// only if the version is still in from
	UpdateVersionStatus(ctx context.Context, version int, from, to model.VersionStatus) error
	// UpdateEntry replaces an entry of a DRAFT version
	UpdateEntry(ctx context.Context, entry model.ScheduleEntry) error
	// GetPublishedEntries returns entries of PUBLISHED versions dated in [from, to)
	GetPublishedEntries(ctx context.Context, from, to time.Time) ([]model.ScheduleEntry, error)
}

// InputStore reads the planning inputs owned by other systems
type InputStore interface {
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	ListShiftTemplates(ctx context.Context) ([]model.ShiftTemplate, error)
	ListCoverageRequirements(ctx context.Context) ([]model.CoverageRequirement, error)
	ListCoveragePatterns(ctx context.Context) ([]model.RecurringCoveragePattern, error)
	ListAvailability(ctx context.Context) ([]model.Availability, error)
	ListPreferences(ctx context.Context) ([]model.Preference, error)
	// ListAbsences returns absences overlapping [from, to]
	ListAbsences(ctx context.Context, from, to time.Time) ([]model.Absence, error)
	ListPerformance(ctx context.Context) ([]model.Performance, error)
}

// Database defines the interface for all database operations.
// Both the in-memory store and postgres.DB implement this interface.
type Database interface {
	VersionStore
	InputStore
	Close()
}
