package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/db"
)

const entryColumns = `
	id, version, employee_id, shift_date, shift_id,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	to_char(break_start, 'HH24:MI'), to_char(break_end, 'HH24:MI'),
	notes, status, created_at, updated_at`

// ListVersions retrieves every version with its entry count
func (d *DB) ListVersions(ctx context.Context) ([]db.VersionSummary, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT v.version, v.status, v.start_date, v.end_date, v.base_version, v.notes,
		       v.created_at, v.updated_at, COUNT(e.id)
		FROM schedule_version v
		LEFT JOIN schedule_entry e ON e.version = v.version
		GROUP BY v.version
		ORDER BY v.version
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	var out []db.VersionSummary
	for rows.Next() {
		var s db.VersionSummary
		var status string
		if err := rows.Scan(&s.Version, &status, &s.StartDate, &s.EndDate, &s.BaseVersion, &s.Notes,
			&s.CreatedAt, &s.UpdatedAt, &s.EntryCount); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		s.Status = model.VersionStatus(status)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}
	return out, nil
}

// GetVersion retrieves one version
func (d *DB) GetVersion(ctx context.Context, version int) (*model.ScheduleVersion, error) {
	var v model.ScheduleVersion
	var status string
	err := d.pool.QueryRow(ctx, `
		SELECT version, status, start_date, end_date, base_version, notes, created_at, updated_at
		FROM schedule_version WHERE version = $1
	`, version).Scan(&v.Version, &status, &v.StartDate, &v.EndDate, &v.BaseVersion, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", model.ErrVersionNotFound, version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version %d: %w", version, err)
	}
	v.Status = model.VersionStatus(status)
	return &v, nil
}

// GetEntries retrieves the entries of a version ordered by date and employee
func (d *DB) GetEntries(ctx context.Context, version int) ([]model.ScheduleEntry, error) {
	if _, err := d.GetVersion(ctx, version); err != nil {
		return nil, err
	}

	rows, err := d.pool.Query(ctx, `SELECT `+entryColumns+`
		FROM schedule_entry WHERE version = $1
		ORDER BY shift_date, employee_id, start_time NULLS FIRST
	`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return collectEntries(rows)
}

// CreateVersion allocates the next version number and inserts the version with its entries
// in one transaction. The table lock serialises concurrent commits so numbers never collide.
func (d *DB) CreateVersion(ctx context.Context, nv db.NewVersion) (*model.ScheduleVersion, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE schedule_version IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("failed to lock versions: %w", err)
	}

	v := model.ScheduleVersion{
		Status:      model.StatusDraft,
		StartDate:   model.NormalizeDate(nv.StartDate),
		EndDate:     model.NormalizeDate(nv.EndDate),
		BaseVersion: nv.BaseVersion,
		Notes:       nv.Notes,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO schedule_version (version, status, start_date, end_date, base_version, notes)
		SELECT COALESCE(MAX(version), 0) + 1, $1, $2, $3, $4, $5 FROM schedule_version
		RETURNING version, created_at, updated_at
	`, string(v.Status), dateParam(v.StartDate), dateParam(v.EndDate), v.BaseVersion, v.Notes).
		Scan(&v.Version, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert version: %w", err)
	}

	if len(nv.Entries) > 0 {
		batch := &pgx.Batch{}
		for _, e := range nv.Entries {
			id := e.ID
			if id == "" {
				id = uuid.NewString()
			}
			batch.Queue(`
				INSERT INTO schedule_entry
					(id, version, employee_id, shift_date, shift_id, start_time, end_time, break_start, break_end, notes, status)
				VALUES ($1, $2, $3, $4, $5, $6::time, $7::time, $8::time, $9::time, $10, $11)
			`, id, v.Version, e.EmployeeID, dateParam(e.Date), e.ShiftID,
				timeParam(e.Start), timeParam(e.End), timeParam(e.BreakStart), timeParam(e.BreakEnd),
				e.Notes, string(model.StatusDraft))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("failed to insert entries: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}

	d.logger.Debug("Version stored", zap.Int("version", v.Version), zap.Int("entries", len(nv.Entries)))
	return &v, nil
}

// UpdateVersionStatus moves a version and its entries from one status to another.
// The conditional update makes a concurrent transition lose cleanly.
func (d *DB) UpdateVersionStatus(ctx context.Context, version int, from, to model.VersionStatus) error {
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE schedule_version SET status = $3, updated_at = NOW()
			WHERE version = $1 AND status = $2
		`, version, string(from), string(to))
		if err != nil {
			return fmt.Errorf("failed to update version status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var current string
			err := tx.QueryRow(ctx, `SELECT status FROM schedule_version WHERE version = $1`, version).Scan(&current)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %d", model.ErrVersionNotFound, version)
			}
			if err != nil {
				return fmt.Errorf("failed to read version status: %w", err)
			}
			return fmt.Errorf("%w: version %d is %s, expected %s", model.ErrInvalidTransition, version, current, from)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE schedule_entry SET status = $2, updated_at = NOW() WHERE version = $1
		`, version, string(to)); err != nil {
			return fmt.Errorf("failed to update entry statuses: %w", err)
		}
		return nil
	})
}

// UpdateEntry rewrites an entry of a DRAFT version
func (d *DB) UpdateEntry(ctx context.Context, entry model.ScheduleEntry) error {
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM schedule_version WHERE version = $1 FOR UPDATE`, entry.Version).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %d", model.ErrVersionNotFound, entry.Version)
		}
		if err != nil {
			return fmt.Errorf("failed to read version status: %w", err)
		}
		if model.VersionStatus(status) != model.StatusDraft {
			return fmt.Errorf("%w: version %d is %s", model.ErrVersionNotDraft, entry.Version, status)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE schedule_entry SET
				employee_id = $3, shift_date = $4, shift_id = $5,
				start_time = $6::time, end_time = $7::time, break_start = $8::time, break_end = $9::time,
				notes = $10, updated_at = NOW()
			WHERE id = $1 AND version = $2
		`, entry.ID, entry.Version, entry.EmployeeID, dateParam(entry.Date), entry.ShiftID,
			timeParam(entry.Start), timeParam(entry.End), timeParam(entry.BreakStart), timeParam(entry.BreakEnd),
			entry.Notes)
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s in version %d", model.ErrEntryNotFound, entry.ID, entry.Version)
		}
		return nil
	})
}

// GetPublishedEntries retrieves entries of published versions dated in [from, to)
func (d *DB) GetPublishedEntries(ctx context.Context, from, to time.Time) ([]model.ScheduleEntry, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+entryColumns+`
		FROM schedule_entry
		WHERE status = 'PUBLISHED' AND shift_date >= $1 AND shift_date < $2
		ORDER BY version, shift_date, id
	`, dateParam(from), dateParam(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query published entries: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]model.ScheduleEntry, error) {
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		var e model.ScheduleEntry
		var start, end, breakStart, breakEnd *string
		var status string
		if err := rows.Scan(&e.ID, &e.Version, &e.EmployeeID, &e.Date, &e.ShiftID,
			&start, &end, &breakStart, &breakEnd, &e.Notes, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Status = model.VersionStatus(status)
		e.Date = model.NormalizeDate(e.Date)

		var err error
		if e.Start, err = scanTime(start); err != nil {
			return nil, err
		}
		if e.End, err = scanTime(end); err != nil {
			return nil, err
		}
		if e.BreakStart, err = scanTime(breakStart); err != nil {
			return nil, err
		}
		if e.BreakEnd, err = scanTime(breakEnd); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}
