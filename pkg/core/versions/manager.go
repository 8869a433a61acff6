package versions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// Manager owns the schedule version lifecycle on top of a VersionStore
type Manager struct {
	store  db.VersionStore
	logger *zap.Logger
}

func NewManager(store db.VersionStore, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// CommitRequest is a complete set of entries to store as a new version
type CommitRequest struct {
	Start       time.Time
	End         time.Time
	BaseVersion *int
	Notes       string
	Entries     []model.ScheduleEntry
}

// Commit stores the entries as the next DRAFT version. Entries without an ID get one.
// Nothing is written when two entries of one employee overlap.
func (m *Manager) Commit(ctx context.Context, req CommitRequest) (*model.ScheduleVersion, error) {
	start, end := model.NormalizeDate(req.Start), model.NormalizeDate(req.End)
	if start.IsZero() || end.Before(start) {
		return nil, fmt.Errorf("%w: invalid version range %s to %s", model.ErrInvalidInput, model.FormatDate(start), model.FormatDate(end))
	}

	entries := make([]model.ScheduleEntry, len(req.Entries))
	for i, e := range req.Entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.Date = model.NormalizeDate(e.Date)
		if e.ShiftID != nil && (e.Start == nil || e.End == nil) {
			return nil, fmt.Errorf("%w: entry for %s on %s names shift %s but has no window", model.ErrInvalidInput,
				e.EmployeeID, model.FormatDate(e.Date), *e.ShiftID)
		}
		if e.Date.Before(start) || e.Date.After(end) {
			return nil, fmt.Errorf("%w: entry for %s on %s is outside %s to %s", model.ErrInvalidInput,
				e.EmployeeID, model.FormatDate(e.Date), model.FormatDate(start), model.FormatDate(end))
		}
		entries[i] = e
	}
	if err := checkNoOverlaps(entries); err != nil {
		return nil, err
	}

	m.logger.Debug("Committing version",
		zap.String("start", model.FormatDate(start)),
		zap.String("end", model.FormatDate(end)),
		zap.Int("entries", len(entries)))

	v, err := m.store.CreateVersion(ctx, db.NewVersion{
		StartDate:   start,
		EndDate:     end,
		BaseVersion: req.BaseVersion,
		Notes:       req.Notes,
		Entries:     entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}

	m.logger.Info("Version committed", zap.Int("version", v.Version), zap.Int("entries", len(entries)))
	return v, nil
}

// BaseEntries returns copies of a version's entries dated in [start, end], stripped of
// their identity so they can be stored in a new version
func (m *Manager) BaseEntries(ctx context.Context, base int, start, end time.Time) ([]model.ScheduleEntry, error) {
	entries, err := m.store.GetEntries(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to load base version %d: %w", base, err)
	}

	start, end = model.NormalizeDate(start), model.NormalizeDate(end)
	var out []model.ScheduleEntry
	for _, e := range entries {
		d := model.NormalizeDate(e.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, detach(e))
	}

	m.logger.Debug("Loaded base entries", zap.Int("base_version", base), zap.Int("in_range", len(out)), zap.Int("total", len(entries)))
	return out, nil
}

// Publish moves a DRAFT version and its entries to PUBLISHED
func (m *Manager) Publish(ctx context.Context, version int) error {
	return m.transition(ctx, version, model.StatusPublished)
}

// Archive moves a DRAFT or PUBLISHED version and its entries to ARCHIVED
func (m *Manager) Archive(ctx context.Context, version int) error {
	return m.transition(ctx, version, model.StatusArchived)
}

func (m *Manager) transition(ctx context.Context, version int, to model.VersionStatus) error {
	v, err := m.store.GetVersion(ctx, version)
	if err != nil {
		return err
	}
	if err := model.CheckTransition(version, v.Status, to); err != nil {
		return err
	}
	if err := m.store.UpdateVersionStatus(ctx, version, v.Status, to); err != nil {
		return fmt.Errorf("failed to move version %d to %s: %w", version, to, err)
	}

	m.logger.Info("Version status changed",
		zap.Int("version", version),
		zap.String("from", string(v.Status)),
		zap.String("to", string(to)))
	return nil
}

// Duplicate copies every entry of a version into a new DRAFT version based on it
func (m *Manager) Duplicate(ctx context.Context, source int, notes string) (*model.ScheduleVersion, error) {
	src, err := m.store.GetVersion(ctx, source)
	if err != nil {
		return nil, err
	}
	entries, err := m.store.GetEntries(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries of version %d: %w", source, err)
	}

	copies := make([]model.ScheduleEntry, len(entries))
	for i, e := range entries {
		copies[i] = detach(e)
	}
	if notes == "" {
		notes = fmt.Sprintf("duplicate of version %d", source)
	}

	base := source
	return m.Commit(ctx, CommitRequest{
		Start:       src.StartDate,
		End:         src.EndDate,
		BaseVersion: &base,
		Notes:       notes,
		Entries:     copies,
	})
}

// EditEntry replaces one entry of a DRAFT version. The edited entry must stay inside the
// version's range and must not overlap another entry of the same employee.
func (m *Manager) EditEntry(ctx context.Context, entry model.ScheduleEntry) (*model.ScheduleEntry, error) {
	v, err := m.store.GetVersion(ctx, entry.Version)
	if err != nil {
		return nil, err
	}
	if v.Status != model.StatusDraft {
		return nil, fmt.Errorf("%w: version %d is %s", model.ErrVersionNotDraft, v.Version, v.Status)
	}

	entries, err := m.store.GetEntries(ctx, entry.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries of version %d: %w", entry.Version, err)
	}
	found := false
	for _, e := range entries {
		if e.ID == entry.ID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s in version %d", model.ErrEntryNotFound, entry.ID, entry.Version)
	}

	entry.Date = model.NormalizeDate(entry.Date)
	if entry.Date.Before(v.StartDate) || entry.Date.After(v.EndDate) {
		return nil, fmt.Errorf("%w: %s is outside version %d", model.ErrInvalidInput, model.FormatDate(entry.Date), v.Version)
	}
	if (entry.Start == nil) != (entry.End == nil) {
		return nil, fmt.Errorf("%w: start and end must be set together", model.ErrInvalidInput)
	}
	if overlap := model.FindOverlap(entry, entries); overlap != nil {
		return nil, fmt.Errorf("%w: %s on %s clashes with entry %s", model.ErrOverlappingEntry,
			entry.EmployeeID, model.FormatDate(entry.Date), overlap.ID)
	}

	if err := m.store.UpdateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update entry %s: %w", entry.ID, err)
	}

	m.logger.Info("Entry edited", zap.Int("version", entry.Version), zap.String("entry_id", entry.ID))
	return &entry, nil
}

// List returns every version with its entry count, oldest first
func (m *Manager) List(ctx context.Context) ([]db.VersionSummary, error) {
	versions, err := m.store.ListVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// Get returns a version and its entries
func (m *Manager) Get(ctx context.Context, version int) (*model.ScheduleVersion, []model.ScheduleEntry, error) {
	v, err := m.store.GetVersion(ctx, version)
	if err != nil {
		return nil, nil, err
	}
	entries, err := m.store.GetEntries(ctx, version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load entries of version %d: %w", version, err)
	}
	return v, entries, nil
}

func detach(e model.ScheduleEntry) model.ScheduleEntry {
	e.ID = ""
	e.Version = 0
	e.Status = ""
	e.CreatedAt = time.Time{}
	e.UpdatedAt = time.Time{}
	return e
}

func checkNoOverlaps(entries []model.ScheduleEntry) error {
	byEmployee := make(map[string][]model.ScheduleEntry)
	for _, e := range entries {
		byEmployee[e.EmployeeID] = append(byEmployee[e.EmployeeID], e)
	}

	employees := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		employees = append(employees, id)
	}
	sort.Strings(employees)

	for _, id := range employees {
		own := byEmployee[id]
		for _, e := range own {
			if overlap := model.FindOverlap(e, own); overlap != nil {
				return fmt.Errorf("%w: %s on %s", model.ErrOverlappingEntry, id, model.FormatDate(e.Date))
			}
		}
	}
	return nil
}
