package service

import (
	"context"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/shopspring/decimal"
)

// TimeTrackingService is the clock-in/clock-out ledger. Every method takes
// the acting caller explicitly.
type TimeTrackingService interface {
	ClockIn(ctx context.Context, caller domain.Caller, in ClockInInput) (*domain.TimeEntry, error)
	ClockOut(ctx context.Context, caller domain.Caller, in ClockOutInput) (*domain.TimeEntry, error)
	GetStatus(ctx context.Context, caller domain.Caller) (*ClockStatus, error)
	ListEntries(ctx context.Context, caller domain.Caller, q EntryQuery) (*EntryList, error)
	ApproveEntry(ctx context.Context, caller domain.Caller, entryID string) (*domain.TimeEntry, error)
	RejectEntry(ctx context.Context, caller domain.Caller, entryID, reason string) (*domain.TimeEntry, error)
	RecalculateJobHours(ctx context.Context, caller domain.Caller, jobID string) (*domain.Job, error)
}

type JobService interface {
	List(ctx context.Context, caller domain.Caller, status domain.JobStatus) ([]*domain.Job, error)
	Get(ctx context.Context, caller domain.Caller, id string) (*domain.Job, error)
	Create(ctx context.Context, caller domain.Caller, in JobInput) (*domain.Job, error)
	Update(ctx context.Context, caller domain.Caller, id string, patch JobPatch) (*domain.Job, error)
	Delete(ctx context.Context, caller domain.Caller, id string) error
	Assign(ctx context.Context, caller domain.Caller, id string, employeeIDs []string) (*domain.Job, error)
	Stats(ctx context.Context, caller domain.Caller) (*domain.JobStats, error)
}

type CustomerService interface {
	List(ctx context.Context, caller domain.Caller) ([]*domain.Customer, error)
	Get(ctx context.Context, caller domain.Caller, id string) (*domain.Customer, error)
	Create(ctx context.Context, caller domain.Caller, c *domain.Customer) error
	Update(ctx context.Context, caller domain.Caller, id string, patch CustomerPatch) (*domain.Customer, error)
	Delete(ctx context.Context, caller domain.Caller, id string) error
}

type UserService interface {
	// Bootstrap creates the first owner. It fails once any user exists.
	Bootstrap(ctx context.Context, u *domain.User) error
	Create(ctx context.Context, caller domain.Caller, u *domain.User) error
	Get(ctx context.Context, caller domain.Caller, id string) (*domain.User, error)
	List(ctx context.Context, caller domain.Caller, role domain.Role) ([]*domain.User, error)
	Deactivate(ctx context.Context, caller domain.Caller, id string) (*domain.User, error)
	// Resolve maps a user id or username to an acting caller. Unknown and
	// inactive users are unauthenticated.
	Resolve(ctx context.Context, idOrUsername string) (domain.Caller, error)
}

type ClockInInput struct {
	JobID string
	Notes string
}

type ClockOutInput struct {
	BreakMinutes int
	Notes        string
}

// ClockStatus reports whether the caller is on the clock.
type ClockStatus struct {
	IsClockedIn bool
	ActiveEntry *domain.EntryDetail
}

// EntryQuery filters a ledger listing. Dates are YYYY-MM-DD calendar days in
// the service's configured time zone; both ends are inclusive.
type EntryQuery struct {
	EmployeeID string
	JobID      string
	StartDate  string
	EndDate    string
}

type EntryList struct {
	Count      int
	TotalHours decimal.Decimal
	Entries    []*domain.EntryDetail
}

type JobInput struct {
	Title               string
	Description         string
	CustomerID          *string
	Priority            domain.JobPriority
	StartDate           *time.Time
	EndDate             *time.Time
	EstimatedHours      *decimal.Decimal
	EstimatedCost       *decimal.Decimal
	Address             string
	Notes               string
	AssignedEmployeeIDs []string
}

// JobPatch is a partial job update; nil fields are left unchanged. A non-nil
// AssignedEmployeeIDs replaces the assignment set.
type JobPatch struct {
	Title               *string
	Description         *string
	CustomerID          *string
	Status              *domain.JobStatus
	Priority            *domain.JobPriority
	StartDate           *time.Time
	EndDate             *time.Time
	EstimatedHours      *decimal.Decimal
	EstimatedCost       *decimal.Decimal
	ActualCost          *decimal.Decimal
	Address             *string
	Notes               *string
	AssignedEmployeeIDs []string
}

type CustomerPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Notes   *string
	Status  *domain.CustomerStatus
	UserID  *string
}
