package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/roofline/internal/db"
)

// SQLiteJobSequenceRepo allocates job numbers atomically from the
// single-row job_sequence table.
type SQLiteJobSequenceRepo struct {
	db db.DBTX
}

// NewSQLiteJobSequenceRepo creates a new SQLiteJobSequenceRepo.
func NewSQLiteJobSequenceRepo(conn db.DBTX) *SQLiteJobSequenceRepo {
	return &SQLiteJobSequenceRepo{db: conn}
}

// NextJobNumber returns the next job number and advances the counter.
// Numbers are never reused, even after a job is deleted.
func (r *SQLiteJobSequenceRepo) NextJobNumber(ctx context.Context) (int, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO job_sequence (id, next_number) VALUES (1, 1)`); err != nil {
		return 0, fmt.Errorf("seeding job sequence: %w", err)
	}

	var next int
	allocQuery := `UPDATE job_sequence
		SET next_number = next_number + 1
		WHERE id = 1
		RETURNING next_number - 1`
	if err := r.db.QueryRowContext(ctx, allocQuery).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocating next job number: %w", err)
	}
	return next, nil
}
