package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testJobCounter atomic.Int64

// User options
type UserOption func(*domain.User)

func WithEmail(email string) UserOption {
	return func(u *domain.User) {
		u.Email = email
	}
}

func WithName(name string) UserOption {
	return func(u *domain.User) {
		u.Name = name
	}
}

func Inactive() UserOption {
	return func(u *domain.User) {
		u.Active = false
	}
}

func NewTestUser(username string, role domain.Role, opts ...UserOption) *domain.User {
	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     username + "@example.com",
		Name:      username,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Customer options
type CustomerOption func(*domain.Customer)

func WithLinkedUser(userID string) CustomerOption {
	return func(c *domain.Customer) {
		c.UserID = &userID
	}
}

func WithCustomerEmail(email string) CustomerOption {
	return func(c *domain.Customer) {
		c.Email = email
	}
}

func NewTestCustomer(name string, opts ...CustomerOption) *domain.Customer {
	now := time.Now().UTC()
	c := &domain.Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     fmt.Sprintf("customer%d@example.com", testJobCounter.Add(1)),
		Status:    domain.CustomerActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Job options
type JobOption func(*domain.Job)

func WithCustomer(customerID string) JobOption {
	return func(j *domain.Job) {
		j.CustomerID = &customerID
	}
}

func WithAssigned(userIDs ...string) JobOption {
	return func(j *domain.Job) {
		j.AssignedEmployeeIDs = append(j.AssignedEmployeeIDs, userIDs...)
	}
}

func WithJobStatus(s domain.JobStatus) JobOption {
	return func(j *domain.Job) {
		j.Status = s
	}
}

func WithEstimatedHours(h float64) JobOption {
	return func(j *domain.Job) {
		d := decimal.NewFromFloat(h)
		j.EstimatedHours = &d
	}
}

func WithJobCreatedAt(t time.Time) JobOption {
	return func(j *domain.Job) {
		j.CreatedAt = t
		j.UpdatedAt = t
	}
}

// NewTestJob builds a job with a unique job number. Tests that exercise the
// job sequence should go through the service instead.
func NewTestJob(title string, opts ...JobOption) *domain.Job {
	now := time.Now().UTC()
	j := &domain.Job{
		ID:        uuid.New().String(),
		JobNumber: fmt.Sprintf("TST-%05d", testJobCounter.Add(1)),
		Title:     title,
		Status:    domain.JobActive,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// TimeEntry options
type EntryOption func(*domain.TimeEntry)

func WithClockIn(t time.Time) EntryOption {
	return func(e *domain.TimeEntry) {
		e.ClockIn = t
		e.CreatedAt = t
		e.UpdatedAt = t
	}
}

// Completed closes the entry at clockOut with the given break and the
// default hours policy.
func Completed(clockOut time.Time, breakMinutes int) EntryOption {
	return func(e *domain.TimeEntry) {
		if err := e.Close(clockOut, breakMinutes, "", domain.DefaultHoursPolicy()); err != nil {
			panic(fmt.Sprintf("testutil.Completed: %v", err))
		}
	}
}

func WithEntryNotes(notes string) EntryOption {
	return func(e *domain.TimeEntry) {
		e.Notes = notes
	}
}

// NewTestEntry builds an active entry clocked in one hour ago. Options apply
// in order, so WithClockIn must precede Completed.
func NewTestEntry(employeeID, jobID string, opts ...EntryOption) *domain.TimeEntry {
	e := domain.NewTimeEntry(uuid.New().String(), employeeID, jobID, "", time.Now().UTC().Add(-time.Hour))
	for _, opt := range opts {
		opt(e)
	}
	return e
}
