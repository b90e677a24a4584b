package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/shopspring/decimal"
)

// JobQuery narrows a job listing. Zero values mean "no filter".
type JobQuery struct {
	AssignedTo string
	CustomerID string
	Status     domain.JobStatus
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

type CustomerRepo interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Customer, error)
	List(ctx context.Context) ([]*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
	Delete(ctx context.Context, id string) error
}

type JobRepo interface {
	Create(ctx context.Context, j *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context, q JobQuery) ([]*domain.Job, error)
	Update(ctx context.Context, j *domain.Job) error
	SetAssignments(ctx context.Context, jobID string, userIDs []string) error
	SetActualHours(ctx context.Context, jobID string, hours decimal.Decimal, now time.Time) error
	Delete(ctx context.Context, id string) error
}

type JobSequenceRepo interface {
	NextJobNumber(ctx context.Context) (int, error)
}

type TimeEntryRepo interface {
	Create(ctx context.Context, e *domain.TimeEntry) error
	GetByID(ctx context.Context, id string) (*domain.TimeEntry, error)
	GetActiveByEmployee(ctx context.Context, employeeID string) (*domain.TimeEntry, error)
	Update(ctx context.Context, e *domain.TimeEntry) error
	List(ctx context.Context, f domain.EntryFilter) ([]*domain.EntryDetail, error)
	ListByJob(ctx context.Context, jobID string) ([]*domain.TimeEntry, error)
}
