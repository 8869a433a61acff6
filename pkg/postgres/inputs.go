package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// ListEmployees retrieves all employees ordered by ID
func (d *DB) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, first_name, last_name, contracted_weekly_hours::float8, is_keyholder, is_active,
		       seniority_years::float8, qualifications
		FROM employee ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var out []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.ContractedWeeklyHours, &e.IsKeyholder,
			&e.IsActive, &e.SeniorityYears, &e.Qualifications); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}
	return out, nil
}

// ListShiftTemplates retrieves all shift templates
func (d *DB) ListShiftTemplates(ctx context.Context) ([]model.ShiftTemplate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), shift_type, requires_break, active_days
		FROM shift_template ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift templates: %w", err)
	}
	defer rows.Close()

	var out []model.ShiftTemplate
	for rows.Next() {
		var t model.ShiftTemplate
		var start, end, typ string
		var days []int16
		if err := rows.Scan(&t.ID, &start, &end, &typ, &t.RequiresBreak, &days); err != nil {
			return nil, fmt.Errorf("failed to scan shift template: %w", err)
		}
		if t.Start, err = scanRequiredTime(start); err != nil {
			return nil, err
		}
		if t.End, err = scanRequiredTime(end); err != nil {
			return nil, err
		}
		t.Type = model.ShiftType(typ)
		t.ActiveDays = weekdays(days)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shift templates: %w", err)
	}
	return out, nil
}

// ListCoverageRequirements retrieves fixed requirements in creation order, which is slot order
func (d *DB) ListCoverageRequirements(ctx context.Context) ([]model.CoverageRequirement, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
		       min_employees, max_employees, required_qualifications, requires_keyholder,
		       COALESCE(shift_template_id, '')
		FROM coverage_requirement ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage requirements: %w", err)
	}
	defer rows.Close()

	var out []model.CoverageRequirement
	for rows.Next() {
		var r model.CoverageRequirement
		var day int16
		var start, end string
		if err := rows.Scan(&r.ID, &day, &start, &end, &r.MinEmployees, &r.MaxEmployees,
			&r.RequiredQualifications, &r.RequiresKeyholder, &r.ShiftTemplateID); err != nil {
			return nil, fmt.Errorf("failed to scan coverage requirement: %w", err)
		}
		r.DayOfWeek = time.Weekday(day)
		if r.Start, err = scanRequiredTime(start); err != nil {
			return nil, err
		}
		if r.End, err = scanRequiredTime(end); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coverage requirements: %w", err)
	}
	return out, nil
}

// ListCoveragePatterns retrieves recurring patterns in creation order
func (d *DB) ListCoveragePatterns(ctx context.Context) ([]model.RecurringCoveragePattern, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, days_of_week, COALESCE(rrule, ''), valid_from, valid_to,
		       to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
		       min_employees, max_employees, required_qualifications, requires_keyholder,
		       COALESCE(shift_template_id, '')
		FROM coverage_pattern ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage patterns: %w", err)
	}
	defer rows.Close()

	var out []model.RecurringCoveragePattern
	for rows.Next() {
		var p model.RecurringCoveragePattern
		var days []int16
		var validFrom, validTo *time.Time
		var start, end string
		if err := rows.Scan(&p.ID, &p.Name, &days, &p.RRule, &validFrom, &validTo, &start, &end,
			&p.MinEmployees, &p.MaxEmployees, &p.RequiredQualifications, &p.RequiresKeyholder,
			&p.ShiftTemplateID); err != nil {
			return nil, fmt.Errorf("failed to scan coverage pattern: %w", err)
		}
		p.DaysOfWeek = weekdays(days)
		p.ValidFrom = scanDate(validFrom)
		p.ValidTo = scanDate(validTo)
		if p.Start, err = scanRequiredTime(start); err != nil {
			return nil, err
		}
		if p.End, err = scanRequiredTime(end); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coverage patterns: %w", err)
	}
	return out, nil
}

// ListAvailability retrieves every availability statement
func (d *DB) ListAvailability(ctx context.Context) ([]model.Availability, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
		       availability_type, valid_from, valid_to
		FROM availability ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	var out []model.Availability
	for rows.Next() {
		var a model.Availability
		var day int16
		var start, end, typ string
		var validFrom, validTo *time.Time
		if err := rows.Scan(&a.EmployeeID, &day, &start, &end, &typ, &validFrom, &validTo); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		a.DayOfWeek = time.Weekday(day)
		a.Type = model.AvailabilityType(typ)
		a.ValidFrom = scanDate(validFrom)
		a.ValidTo = scanDate(validTo)
		if a.Start, err = scanRequiredTime(start); err != nil {
			return nil, err
		}
		if a.End, err = scanRequiredTime(end); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability: %w", err)
	}
	return out, nil
}

// ListPreferences retrieves every declared preference
func (d *DB) ListPreferences(ctx context.Context) ([]model.Preference, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), strength
		FROM preference ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var out []model.Preference
	for rows.Next() {
		var p model.Preference
		var day, strength int16
		var start, end string
		if err := rows.Scan(&p.EmployeeID, &day, &start, &end, &strength); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		p.DayOfWeek = time.Weekday(day)
		p.Strength = int(strength)
		if p.Start, err = scanRequiredTime(start); err != nil {
			return nil, err
		}
		if p.End, err = scanRequiredTime(end); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return out, nil
}

type absenceRow struct {
	EmployeeID string    `db:"employee_id"`
	StartDate  time.Time `db:"start_date"`
	EndDate    time.Time `db:"end_date"`
	Reason     string    `db:"reason"`
}

// ListAbsences retrieves absences overlapping [from, to]
func (d *DB) ListAbsences(ctx context.Context, from, to time.Time) ([]model.Absence, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, start_date, end_date, reason
		FROM absence WHERE end_date >= $1 AND start_date <= $2
		ORDER BY employee_id, start_date
	`, dateParam(from), dateParam(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[absenceRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan absences: %w", err)
	}

	out := make([]model.Absence, len(records))
	for i, r := range records {
		out[i] = model.Absence{
			EmployeeID: r.EmployeeID,
			StartDate:  model.NormalizeDate(r.StartDate),
			EndDate:    model.NormalizeDate(r.EndDate),
			Reason:     r.Reason,
		}
	}
	return out, nil
}

type performanceRow struct {
	EmployeeID  string  `db:"employee_id"`
	Punctuality float64 `db:"punctuality"`
	Reliability float64 `db:"reliability"`
}

// ListPerformance retrieves the performance record of every employee that has one
func (d *DB) ListPerformance(ctx context.Context) ([]model.Performance, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, punctuality::float8 AS punctuality, reliability::float8 AS reliability
		FROM performance ORDER BY employee_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[performanceRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan performance: %w", err)
	}

	out := make([]model.Performance, len(records))
	for i, r := range records {
		out[i] = model.Performance(r)
	}
	return out, nil
}
