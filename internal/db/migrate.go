package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Every statement is idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillJobSequence(db); err != nil {
		return fmt.Errorf("backfilling job sequence: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		phone      TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL
		           CHECK(role IN ('owner','employee','customer')),
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS customers (
		id         TEXT PRIMARY KEY,
		user_id    TEXT REFERENCES users(id) ON DELETE SET NULL,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		phone      TEXT NOT NULL DEFAULT '',
		address    TEXT NOT NULL DEFAULT '',
		notes      TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'active'
		           CHECK(status IN ('active','inactive')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_customers_user ON customers(user_id)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id              TEXT PRIMARY KEY,
		job_number      TEXT NOT NULL UNIQUE,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		customer_id     TEXT REFERENCES customers(id) ON DELETE SET NULL,
		created_by      TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'pending'
		                CHECK(status IN ('pending','active','completed','cancelled')),
		priority        TEXT NOT NULL DEFAULT 'medium'
		                CHECK(priority IN ('low','medium','high','urgent')),
		start_date      TEXT,
		end_date        TEXT,
		estimated_hours TEXT,
		actual_hours    TEXT NOT NULL DEFAULT '0',
		address         TEXT NOT NULL DEFAULT '',
		estimated_cost  TEXT,
		actual_cost     TEXT NOT NULL DEFAULT '0',
		notes           TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_jobs_customer ON jobs(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,

	`CREATE TABLE IF NOT EXISTS job_sequence (
		id          INTEGER PRIMARY KEY CHECK(id = 1),
		next_number INTEGER NOT NULL CHECK(next_number > 0)
	)`,

	`CREATE TABLE IF NOT EXISTS job_assignments (
		job_id     TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (job_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_job_assignments_user ON job_assignments(user_id)`,

	`CREATE TABLE IF NOT EXISTS time_entries (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		job_id           TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		clock_in         TEXT NOT NULL,
		clock_out        TEXT,
		break_minutes    INTEGER NOT NULL DEFAULT 0 CHECK(break_minutes >= 0),
		total_hours      TEXT,
		notes            TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'active'
		                 CHECK(status IN ('active','completed','approved','rejected')),
		approved_by      TEXT,
		approved_at      TEXT,
		rejected_by      TEXT,
		rejected_at      TEXT,
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		CHECK(clock_out IS NULL OR clock_out >= clock_in),
		CHECK((status = 'active') = (total_hours IS NULL))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_time_entries_user ON time_entries(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_job ON time_entries(job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_clock_in ON time_entries(clock_in)`,

	// At most one open session per employee.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_time_entries_one_active
		ON time_entries(user_id) WHERE status = 'active'`,

	`INSERT OR IGNORE INTO job_sequence (id, next_number) VALUES (1, 1)`,
}

// migrateBackfillJobSequence raises the job number allocator above any
// JOB-nnn number already present, e.g. after rows were imported by hand.
func migrateBackfillJobSequence(db *sql.DB) error {
	ctx := context.Background()

	query := `UPDATE job_sequence
		SET next_number = MAX(next_number, (
			SELECT COALESCE(MAX(CAST(SUBSTR(job_number, 5) AS INTEGER)), 0) + 1
			FROM jobs
			WHERE job_number LIKE 'JOB-%'
		))
		WHERE id = 1`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("raising job sequence: %w", err)
	}
	return nil
}
