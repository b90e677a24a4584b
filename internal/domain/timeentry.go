package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry is one clock-in to clock-out work session.
type TimeEntry struct {
	ID         string
	EmployeeID string
	JobID      string

	ClockIn      time.Time
	ClockOut     *time.Time
	BreakMinutes int
	TotalHours   *decimal.Decimal
	Notes        string
	Status       EntryStatus

	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectedBy      *string
	RejectedAt      *time.Time
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTimeEntry opens an active entry at now.
func NewTimeEntry(id, employeeID, jobID, notes string, now time.Time) *TimeEntry {
	return &TimeEntry{
		ID:         id,
		EmployeeID: employeeID,
		JobID:      jobID,
		ClockIn:    now,
		Notes:      notes,
		Status:     EntryActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (e *TimeEntry) IsActive() bool { return e.Status == EntryActive }

// CountsTowardJob reports whether the entry's hours belong in the job total.
func (e *TimeEntry) CountsTowardJob() bool {
	return e.Status == EntryCompleted || e.Status == EntryApproved
}

// Close ends the session at now and freezes its hours.
// A non-empty notes value replaces the notes given at clock-in.
func (e *TimeEntry) Close(now time.Time, breakMinutes int, notes string, policy HoursPolicy) error {
	if e.Status != EntryActive {
		return InvalidStatef("time entry %s is %s, only active entries can be closed", e.ID, e.Status)
	}
	hours, err := WorkedHours(e.ClockIn, now, breakMinutes, policy)
	if err != nil {
		return err
	}
	e.ClockOut = &now
	e.BreakMinutes = breakMinutes
	e.TotalHours = &hours
	e.Notes = CoalesceStr(notes, e.Notes)
	e.Status = EntryCompleted
	e.UpdatedAt = now
	return nil
}

// Approve moves a completed entry to approved. There is no way back.
func (e *TimeEntry) Approve(approverID string, now time.Time) error {
	if e.Status != EntryCompleted {
		return InvalidStatef("can only approve completed time entries (entry is %s)", e.Status)
	}
	e.Status = EntryApproved
	e.ApprovedBy = &approverID
	e.ApprovedAt = &now
	e.UpdatedAt = now
	return nil
}

// Reject moves a completed entry to rejected. There is no way back.
func (e *TimeEntry) Reject(reviewerID, reason string, now time.Time) error {
	if e.Status != EntryCompleted {
		return InvalidStatef("can only reject completed time entries (entry is %s)", e.Status)
	}
	e.Status = EntryRejected
	e.RejectedBy = &reviewerID
	e.RejectedAt = &now
	e.RejectionReason = reason
	e.UpdatedAt = now
	return nil
}

// UserRef is the minimal employee identity joined onto entries for display.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// EntryDetail is a time entry joined with its employee and job identity.
type EntryDetail struct {
	TimeEntry
	Employee UserRef
	Job      JobRef
}

// EntryFilter narrows a ledger listing. Zero values mean "no filter".
type EntryFilter struct {
	EmployeeID string
	JobID      string
	CustomerID string
	From       *time.Time // inclusive
	To         *time.Time // inclusive
}
