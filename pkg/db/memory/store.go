package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// Inputs is the planning data served by the store
type Inputs struct {
	Employees    []model.Employee
	Templates    []model.ShiftTemplate
	Requirements []model.CoverageRequirement
	Patterns     []model.RecurringCoveragePattern
	Availability []model.Availability
	Preferences  []model.Preference
	Absences     []model.Absence
	Performance  []model.Performance
}

// Store is a process-local implementation of db.Database.
// It is safe for concurrent use; every method holds the store lock for its whole duration.
type Store struct {
	mu       sync.RWMutex
	inputs   Inputs
	versions map[int]*model.ScheduleVersion
	entries  map[int][]model.ScheduleEntry
	now      func() time.Time
}

var _ db.Database = (*Store)(nil)

func New(inputs Inputs) *Store {
	return &Store{
		inputs:   inputs,
		versions: make(map[int]*model.ScheduleVersion),
		entries:  make(map[int][]model.ScheduleEntry),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close() {}

func (s *Store) ListVersions(ctx context.Context) ([]db.VersionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]db.VersionSummary, 0, len(s.versions))
	for n, v := range s.versions {
		out = append(out, db.VersionSummary{ScheduleVersion: *v, EntryCount: len(s.entries[n])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *Store) GetVersion(ctx context.Context, version int) (*model.ScheduleVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", model.ErrVersionNotFound, version)
	}
	cp := *v
	return &cp, nil
}

func (s *Store) GetEntries(ctx context.Context, version int) ([]model.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.versions[version]; !ok {
		return nil, fmt.Errorf("%w: %d", model.ErrVersionNotFound, version)
	}
	return append([]model.ScheduleEntry(nil), s.entries[version]...), nil
}

func (s *Store) CreateVersion(ctx context.Context, nv db.NewVersion) (*model.ScheduleVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for n := range s.versions {
		if n >= next {
			next = n + 1
		}
	}

	now := s.now()
	v := &model.ScheduleVersion{
		Version:     next,
		Status:      model.StatusDraft,
		StartDate:   model.NormalizeDate(nv.StartDate),
		EndDate:     model.NormalizeDate(nv.EndDate),
		BaseVersion: nv.BaseVersion,
		Notes:       nv.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	entries := make([]model.ScheduleEntry, len(nv.Entries))
	for i, e := range nv.Entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.Version = next
		e.Status = model.StatusDraft
		e.Date = model.NormalizeDate(e.Date)
		e.CreatedAt = now
		e.UpdatedAt = now
		entries[i] = e
	}

	s.versions[next] = v
	s.entries[next] = entries

	cp := *v
	return &cp, nil
}

func (s *Store) UpdateVersionStatus(ctx context.Context, version int, from, to model.VersionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[version]
	if !ok {
		return fmt.Errorf("%w: %d", model.ErrVersionNotFound, version)
	}
	if v.Status != from {
		return fmt.Errorf("%w: version %d is %s, expected %s", model.ErrInvalidTransition, version, v.Status, from)
	}

	now := s.now()
	v.Status = to
	v.UpdatedAt = now
	for i := range s.entries[version] {
		s.entries[version][i].Status = to
		s.entries[version][i].UpdatedAt = now
	}
	return nil
}

func (s *Store) UpdateEntry(ctx context.Context, entry model.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[entry.Version]
	if !ok {
		return fmt.Errorf("%w: %d", model.ErrVersionNotFound, entry.Version)
	}
	if v.Status != model.StatusDraft {
		return fmt.Errorf("%w: version %d is %s", model.ErrVersionNotDraft, entry.Version, v.Status)
	}

	entries := s.entries[entry.Version]
	for i := range entries {
		if entries[i].ID != entry.ID {
			continue
		}
		entry.Status = entries[i].Status
		entry.CreatedAt = entries[i].CreatedAt
		entry.Date = model.NormalizeDate(entry.Date)
		entry.UpdatedAt = s.now()
		entries[i] = entry
		return nil
	}
	return fmt.Errorf("%w: %s in version %d", model.ErrEntryNotFound, entry.ID, entry.Version)
}

func (s *Store) GetPublishedEntries(ctx context.Context, from, to time.Time) ([]model.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to = model.NormalizeDate(from), model.NormalizeDate(to)
	var out []model.ScheduleEntry
	for n, v := range s.versions {
		if v.Status != model.StatusPublished {
			continue
		}
		for _, e := range s.entries[n] {
			if !e.Date.Before(from) && e.Date.Before(to) {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Version != out[j].Version {
			return out[i].Version < out[j].Version
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return append([]model.Employee(nil), s.inputs.Employees...), nil
}

func (s *Store) ListShiftTemplates(ctx context.Context) ([]model.ShiftTemplate, error) {
	return append([]model.ShiftTemplate(nil), s.inputs.Templates...), nil
}

func (s *Store) ListCoverageRequirements(ctx context.Context) ([]model.CoverageRequirement, error) {
	return append([]model.CoverageRequirement(nil), s.inputs.Requirements...), nil
}

func (s *Store) ListCoveragePatterns(ctx context.Context) ([]model.RecurringCoveragePattern, error) {
	return append([]model.RecurringCoveragePattern(nil), s.inputs.Patterns...), nil
}

func (s *Store) ListAvailability(ctx context.Context) ([]model.Availability, error) {
	return append([]model.Availability(nil), s.inputs.Availability...), nil
}

func (s *Store) ListPreferences(ctx context.Context) ([]model.Preference, error) {
	return append([]model.Preference(nil), s.inputs.Preferences...), nil
}

func (s *Store) ListAbsences(ctx context.Context, from, to time.Time) ([]model.Absence, error) {
	var out []model.Absence
	for _, a := range s.inputs.Absences {
		if !model.NormalizeDate(a.EndDate).Before(model.NormalizeDate(from)) && !model.NormalizeDate(a.StartDate).After(model.NormalizeDate(to)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListPerformance(ctx context.Context) ([]model.Performance, error) {
	return append([]model.Performance(nil), s.inputs.Performance...), nil
}
