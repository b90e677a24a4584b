package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/roofline/internal/db"
	"github.com/alexanderramin/roofline/internal/domain"
)

// SQLiteCustomerRepo implements CustomerRepo using a SQLite database.
type SQLiteCustomerRepo struct {
	db db.DBTX
}

// NewSQLiteCustomerRepo creates a new SQLiteCustomerRepo.
func NewSQLiteCustomerRepo(conn db.DBTX) *SQLiteCustomerRepo {
	return &SQLiteCustomerRepo{db: conn}
}

const customerColumns = `id, user_id, name, email, phone, address, notes, status, created_at, updated_at`

func (r *SQLiteCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		nullableString(c.UserID),
		c.Name,
		c.Email,
		c.Phone,
		c.Address,
		c.Notes,
		string(c.Status),
		formatTimestamp(c.CreatedAt),
		formatTimestamp(c.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("customer email %s already in use", c.Email)
		}
		return fmt.Errorf("inserting customer: %w", err)
	}
	return nil
}

func (r *SQLiteCustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return c, err
}

// GetByUserID returns the customer record linked to a customer-role login.
func (r *SQLiteCustomerRepo) GetByUserID(ctx context.Context, userID string) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE user_id = ? ORDER BY created_at LIMIT 1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer for user %s: %w", userID, ErrNotFound)
	}
	return c, err
}

func (r *SQLiteCustomerRepo) List(ctx context.Context) ([]*domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name, email`)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var out []*domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customers: %w", err)
	}
	return out, nil
}

func (r *SQLiteCustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET user_id = ?, name = ?, email = ?, phone = ?, address = ?, notes = ?,
		status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(c.UserID), c.Name, c.Email, c.Phone, c.Address, c.Notes,
		string(c.Status), formatTimestamp(c.UpdatedAt), c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("customer email %s already in use", c.Email)
		}
		return fmt.Errorf("updating customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("customer %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the customer. Jobs keep existing with customer_id cleared.
func (r *SQLiteCustomerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	var userID sql.NullString
	var status, createdAt, updatedAt string
	if err := row.Scan(&c.ID, &userID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes,
		&status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning customer: %w", err)
	}
	c.UserID = stringPtr(userID)
	c.Status = domain.CustomerStatus(status)
	var err error
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &c, nil
}
