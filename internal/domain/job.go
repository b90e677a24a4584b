package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Job struct {
	ID          string
	JobNumber   string
	Title       string
	Description string
	CustomerID  *string
	CreatedBy   string
	Status      JobStatus
	Priority    JobPriority

	StartDate *time.Time
	EndDate   *time.Time

	EstimatedHours *decimal.Decimal
	// ActualHours is derived from the job's completed and approved entries.
	ActualHours   decimal.Decimal
	EstimatedCost *decimal.Decimal
	ActualCost    decimal.Decimal

	Address string
	Notes   string

	AssignedEmployeeIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobRef is the minimal job identity joined onto entries for display.
type JobRef struct {
	ID        string
	JobNumber string
	Title     string
}

func (j *Job) Ref() JobRef {
	return JobRef{ID: j.ID, JobNumber: j.JobNumber, Title: j.Title}
}

// IsAssigned reports whether userID is in the job's assigned-employee set.
func (j *Job) IsAssigned(userID string) bool {
	return slices.Contains(j.AssignedEmployeeIDs, userID)
}

// BelongsTo reports whether the job is billed to customerID.
func (j *Job) BelongsTo(customerID string) bool {
	return customerID != "" && j.CustomerID != nil && *j.CustomerID == customerID
}

// FormatJobNumber renders the n-th job number, e.g. JOB-007.
func FormatJobNumber(n int) string {
	return fmt.Sprintf("JOB-%03d", n)
}

func (j *Job) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return Validationf("job title is required")
	}
	if !ValidJobStatuses[j.Status] {
		return Validationf("invalid job status %q", j.Status)
	}
	if !ValidJobPriorities[j.Priority] {
		return Validationf("invalid job priority %q", j.Priority)
	}
	if j.StartDate != nil && j.EndDate != nil && j.EndDate.Before(*j.StartDate) {
		return Validationf("job end date is before its start date")
	}
	if j.EstimatedHours != nil && j.EstimatedHours.IsNegative() {
		return Validationf("estimated hours must not be negative")
	}
	if j.EstimatedCost != nil && j.EstimatedCost.IsNegative() {
		return Validationf("estimated cost must not be negative")
	}
	if j.ActualCost.IsNegative() {
		return Validationf("actual cost must not be negative")
	}
	return nil
}

// JobStats summarises job counts visible to a caller.
type JobStats struct {
	Total     int
	Pending   int
	Active    int
	Completed int
	Cancelled int
	ThisMonth int
}
