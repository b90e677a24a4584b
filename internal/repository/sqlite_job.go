package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/roofline/internal/db"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/shopspring/decimal"
)

// SQLiteJobRepo implements JobRepo using a SQLite database.
type SQLiteJobRepo struct {
	db db.DBTX
}

// NewSQLiteJobRepo creates a new SQLiteJobRepo.
func NewSQLiteJobRepo(conn db.DBTX) *SQLiteJobRepo {
	return &SQLiteJobRepo{db: conn}
}

const jobColumns = `id, job_number, title, description, customer_id, created_by, status, priority,
	start_date, end_date, estimated_hours, actual_hours, address, estimated_cost, actual_cost, notes,
	created_at, updated_at`

// Create inserts the job and its assignment set.
func (r *SQLiteJobRepo) Create(ctx context.Context, j *domain.Job) error {
	query := `INSERT INTO jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		j.ID,
		j.JobNumber,
		j.Title,
		j.Description,
		nullableString(j.CustomerID),
		j.CreatedBy,
		string(j.Status),
		string(j.Priority),
		nullableDate(j.StartDate),
		nullableDate(j.EndDate),
		nullableDecimal(j.EstimatedHours),
		j.ActualHours.String(),
		j.Address,
		nullableDecimal(j.EstimatedCost),
		j.ActualCost.String(),
		j.Notes,
		formatTimestamp(j.CreatedAt),
		formatTimestamp(j.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("job number %s is already taken", j.JobNumber)
		}
		return fmt.Errorf("inserting job: %w", err)
	}
	return r.SetAssignments(ctx, j.ID, j.AssignedEmployeeIDs)
}

func (r *SQLiteJobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`
	j, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	assignments, err := r.loadAssignments(ctx, []string{j.ID})
	if err != nil {
		return nil, err
	}
	j.AssignedEmployeeIDs = assignments[j.ID]
	return j, nil
}

// List returns jobs matching q, newest first, with assignments loaded.
func (r *SQLiteJobRepo) List(ctx context.Context, q JobQuery) ([]*domain.Job, error) {
	var where []string
	var args []any
	if q.AssignedTo != "" {
		where = append(where, "id IN (SELECT job_id FROM job_assignments WHERE user_id = ?)")
		args = append(args, q.AssignedTo)
	}
	if q.CustomerID != "" {
		where = append(where, "customer_id = ?")
		args = append(args, q.CustomerID)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, job_number DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	var jobs []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	rows.Close()

	// Rows must be closed before the next query: an in-memory database has a
	// single connection.
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	assignments, err := r.loadAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		j.AssignedEmployeeIDs = assignments[j.ID]
	}
	return jobs, nil
}

// Update rewrites the editable job fields. ActualHours is owned by
// SetActualHours and is not touched here.
func (r *SQLiteJobRepo) Update(ctx context.Context, j *domain.Job) error {
	query := `UPDATE jobs SET title = ?, description = ?, customer_id = ?, status = ?, priority = ?,
		start_date = ?, end_date = ?, estimated_hours = ?, address = ?, estimated_cost = ?, actual_cost = ?,
		notes = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		j.Title,
		j.Description,
		nullableString(j.CustomerID),
		string(j.Status),
		string(j.Priority),
		nullableDate(j.StartDate),
		nullableDate(j.EndDate),
		nullableDecimal(j.EstimatedHours),
		j.Address,
		nullableDecimal(j.EstimatedCost),
		j.ActualCost.String(),
		j.Notes,
		formatTimestamp(j.UpdatedAt),
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s: %w", j.ID, ErrNotFound)
	}
	return nil
}

// SetAssignments replaces the job's assigned-employee set.
func (r *SQLiteJobRepo) SetAssignments(ctx context.Context, jobID string, userIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM job_assignments WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("clearing job assignments: %w", err)
	}
	now := formatTimestamp(time.Now())
	for _, uid := range userIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO job_assignments (job_id, user_id, created_at) VALUES (?, ?, ?)`,
			jobID, uid, now)
		if err != nil {
			return fmt.Errorf("assigning %s to job: %w", uid, err)
		}
	}
	return nil
}

func (r *SQLiteJobRepo) SetActualHours(ctx context.Context, jobID string, hours decimal.Decimal, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET actual_hours = ?, updated_at = ? WHERE id = ?`,
		hours.String(), formatTimestamp(now), jobID)
	if err != nil {
		return fmt.Errorf("updating job actual hours: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteJobRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteJobRepo) loadAssignments(ctx context.Context, jobIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(jobIDs)), ",")
	args := make([]any, len(jobIDs))
	for i, id := range jobIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT job_id, user_id FROM job_assignments WHERE job_id IN (`+placeholders+`) ORDER BY created_at, user_id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("loading job assignments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var jobID, userID string
		if err := rows.Scan(&jobID, &userID); err != nil {
			return nil, fmt.Errorf("scanning job assignment: %w", err)
		}
		out[jobID] = append(out[jobID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job assignments: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	var customerID, startDate, endDate, estHours, estCost sql.NullString
	var status, priority, actualHours, actualCost, createdAt, updatedAt string

	err := row.Scan(
		&j.ID, &j.JobNumber, &j.Title, &j.Description, &customerID, &j.CreatedBy, &status, &priority,
		&startDate, &endDate, &estHours, &actualHours, &j.Address, &estCost, &actualCost, &j.Notes,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	j.CustomerID = stringPtr(customerID)
	j.Status = domain.JobStatus(status)
	j.Priority = domain.JobPriority(priority)
	j.StartDate = parseNullableTime(startDate, dateLayout)
	j.EndDate = parseNullableTime(endDate, dateLayout)

	if j.EstimatedHours, err = parseNullableDecimal(estHours); err != nil {
		return nil, fmt.Errorf("parsing estimated_hours: %w", err)
	}
	if j.EstimatedCost, err = parseNullableDecimal(estCost); err != nil {
		return nil, fmt.Errorf("parsing estimated_cost: %w", err)
	}
	if j.ActualHours, err = decimal.NewFromString(actualHours); err != nil {
		return nil, fmt.Errorf("parsing actual_hours: %w", err)
	}
	if j.ActualCost, err = decimal.NewFromString(actualCost); err != nil {
		return nil, fmt.Errorf("parsing actual_cost: %w", err)
	}
	if j.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if j.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &j, nil
}
