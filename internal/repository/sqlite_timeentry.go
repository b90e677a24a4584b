package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/roofline/internal/db"
	"github.com/alexanderramin/roofline/internal/domain"
)

// SQLiteTimeEntryRepo implements TimeEntryRepo using a SQLite database.
type SQLiteTimeEntryRepo struct {
	db db.DBTX
}

// NewSQLiteTimeEntryRepo creates a new SQLiteTimeEntryRepo.
func NewSQLiteTimeEntryRepo(conn db.DBTX) *SQLiteTimeEntryRepo {
	return &SQLiteTimeEntryRepo{db: conn}
}

const entryColumns = `e.id, e.user_id, e.job_id, e.clock_in, e.clock_out, e.break_minutes, e.total_hours,
	e.notes, e.status, e.approved_by, e.approved_at, e.rejected_by, e.rejected_at, e.rejection_reason,
	e.created_at, e.updated_at`

// ErrActiveEntryExists is returned by Create when the employee already has an
// open entry. It wraps domain.ErrConflict.
var ErrActiveEntryExists = fmt.Errorf("active time entry already exists: %w", domain.ErrConflict)

func (r *SQLiteTimeEntryRepo) Create(ctx context.Context, e *domain.TimeEntry) error {
	query := `INSERT INTO time_entries (id, user_id, job_id, clock_in, clock_out, break_minutes, total_hours,
		notes, status, approved_by, approved_at, rejected_by, rejected_at, rejection_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.EmployeeID,
		e.JobID,
		formatTimestamp(e.ClockIn),
		nullableTimestamp(e.ClockOut),
		e.BreakMinutes,
		nullableDecimal(e.TotalHours),
		e.Notes,
		string(e.Status),
		nullableString(e.ApprovedBy),
		nullableTimestamp(e.ApprovedAt),
		nullableString(e.RejectedBy),
		nullableTimestamp(e.RejectedAt),
		e.RejectionReason,
		formatTimestamp(e.CreatedAt),
		formatTimestamp(e.UpdatedAt),
	)
	if err != nil {
		if e.Status == domain.EntryActive && isUniqueViolation(err) {
			return ErrActiveEntryExists
		}
		return fmt.Errorf("inserting time entry: %w", err)
	}
	return nil
}

func (r *SQLiteTimeEntryRepo) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.id = ?`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("time entry %s: %w", id, ErrNotFound)
	}
	return e, err
}

// GetActiveByEmployee returns the employee's open entry, or an ErrNotFound
// wrapped error when there is none.
func (r *SQLiteTimeEntryRepo) GetActiveByEmployee(ctx context.Context, employeeID string) (*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.user_id = ? AND e.status = 'active'`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active time entry for %s: %w", employeeID, ErrNotFound)
	}
	return e, err
}

// Update persists the mutable fields of an entry. Identity, employee, job and
// clock-in are never rewritten.
func (r *SQLiteTimeEntryRepo) Update(ctx context.Context, e *domain.TimeEntry) error {
	query := `UPDATE time_entries SET clock_out = ?, break_minutes = ?, total_hours = ?, notes = ?, status = ?,
		approved_by = ?, approved_at = ?, rejected_by = ?, rejected_at = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableTimestamp(e.ClockOut),
		e.BreakMinutes,
		nullableDecimal(e.TotalHours),
		e.Notes,
		string(e.Status),
		nullableString(e.ApprovedBy),
		nullableTimestamp(e.ApprovedAt),
		nullableString(e.RejectedBy),
		nullableTimestamp(e.RejectedAt),
		e.RejectionReason,
		formatTimestamp(e.UpdatedAt),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating time entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("time entry %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

// List returns entries matching f joined with employee and job identity,
// newest clock-in first.
func (r *SQLiteTimeEntryRepo) List(ctx context.Context, f domain.EntryFilter) ([]*domain.EntryDetail, error) {
	var where []string
	var args []any
	if f.EmployeeID != "" {
		where = append(where, "e.user_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.JobID != "" {
		where = append(where, "e.job_id = ?")
		args = append(args, f.JobID)
	}
	if f.CustomerID != "" {
		where = append(where, "j.customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.From != nil {
		where = append(where, "e.clock_in >= ?")
		args = append(args, formatTimestamp(*f.From))
	}
	if f.To != nil {
		where = append(where, "e.clock_in <= ?")
		args = append(args, formatTimestamp(*f.To))
	}

	query := `SELECT ` + entryColumns + `, u.name, u.email, j.job_number, j.title
		FROM time_entries e
		JOIN users u ON u.id = e.user_id
		JOIN jobs j ON j.id = e.job_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.clock_in DESC, e.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	defer rows.Close()

	var out []*domain.EntryDetail
	for rows.Next() {
		var d domain.EntryDetail
		raw, dest := entryScanTargets(&d.TimeEntry)
		dest = append(dest, &d.Employee.Name, &d.Employee.Email, &d.Job.JobNumber, &d.Job.Title)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning time entry row: %w", err)
		}
		if err := raw.populate(&d.TimeEntry); err != nil {
			return nil, err
		}
		d.Employee.ID = d.EmployeeID
		d.Job.ID = d.JobID
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time entries: %w", err)
	}
	return out, nil
}

func (r *SQLiteTimeEntryRepo) ListByJob(ctx context.Context, jobID string) ([]*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries e WHERE e.job_id = ? ORDER BY e.clock_in`
	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing time entries by job: %w", err)
	}
	defer rows.Close()

	var out []*domain.TimeEntry
	for rows.Next() {
		var e domain.TimeEntry
		raw, dest := entryScanTargets(&e)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning time entry row: %w", err)
		}
		if err := raw.populate(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time entries: %w", err)
	}
	return out, nil
}

// rawEntry holds the string columns of a time entry before parsing.
type rawEntry struct {
	clockIn, createdAt, updatedAt, status string
	clockOut, totalHours                  sql.NullString
	approvedBy, approvedAt                sql.NullString
	rejectedBy, rejectedAt                sql.NullString
}

func entryScanTargets(e *domain.TimeEntry) (*rawEntry, []any) {
	raw := &rawEntry{}
	return raw, []any{
		&e.ID, &e.EmployeeID, &e.JobID, &raw.clockIn, &raw.clockOut, &e.BreakMinutes, &raw.totalHours,
		&e.Notes, &raw.status, &raw.approvedBy, &raw.approvedAt, &raw.rejectedBy, &raw.rejectedAt,
		&e.RejectionReason, &raw.createdAt, &raw.updatedAt,
	}
}

// populate fills in parsed fields on a TimeEntry after scanning raw strings.
func (raw *rawEntry) populate(e *domain.TimeEntry) error {
	var err error
	e.Status = domain.EntryStatus(raw.status)
	if e.ClockIn, err = parseTimestamp(raw.clockIn); err != nil {
		return fmt.Errorf("parsing clock_in: %w", err)
	}
	if e.CreatedAt, err = parseTimestamp(raw.createdAt); err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	if e.UpdatedAt, err = parseTimestamp(raw.updatedAt); err != nil {
		return fmt.Errorf("parsing updated_at: %w", err)
	}
	if e.TotalHours, err = parseNullableDecimal(raw.totalHours); err != nil {
		return fmt.Errorf("parsing total_hours: %w", err)
	}
	e.ClockOut = parseNullableTime(raw.clockOut, timestampLayout)
	e.ApprovedBy = stringPtr(raw.approvedBy)
	e.ApprovedAt = parseNullableTime(raw.approvedAt, timestampLayout)
	e.RejectedBy = stringPtr(raw.rejectedBy)
	e.RejectedAt = parseNullableTime(raw.rejectedAt, timestampLayout)
	return nil
}

func scanEntry(row *sql.Row) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	raw, dest := entryScanTargets(&e)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning time entry: %w", err)
	}
	if err := raw.populate(&e); err != nil {
		return nil, err
	}
	return &e, nil
}
