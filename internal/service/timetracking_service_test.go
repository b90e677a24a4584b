package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockIn_OpensActiveEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	e, err := h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID, Notes: " ridge cap "})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, domain.EntryActive, e.Status)
	assert.True(t, monday.Equal(e.ClockIn))
	assert.Nil(t, e.ClockOut)
	assert.Nil(t, e.TotalHours)
	assert.Equal(t, 0, e.BreakMinutes)
	assert.Equal(t, "ridge cap", e.Notes)

	// Clock-in alone never touches the job aggregate.
	assert.Equal(t, "0", h.actualHours(t, h.job.ID))
}

func TestClockIn_Failures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stranger := testutil.NewTestJob("Someone else's roof")
	require.NoError(t, h.jobs.Create(ctx, stranger))

	tests := []struct {
		name   string
		caller domain.Caller
		jobID  string
		want   error
	}{
		{"empty job id", callerOf(h.alice), "  ", domain.ErrValidation},
		{"unknown job", callerOf(h.alice), "no-such-job", domain.ErrNotFound},
		{"not assigned", callerOf(h.alice), stranger.ID, domain.ErrForbidden},
		{"owner cannot clock in", callerOf(h.owner), h.job.ID, domain.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.ledger.ClockIn(ctx, tc.caller, ClockInInput{JobID: tc.jobID})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClockIn_AlreadyClockedInIsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
	require.NoError(t, err)

	_, err = h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, domain.Message(err), "already clocked in")
}

func TestClockIn_ConcurrentCallsForOneEmployee(t *testing.T) {
	h := newHarnessOn(t, testutil.NewFileTestDB(t))
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "exactly one clock-in must win")
	assert.Equal(t, workers-1, conflicts)

	status, err := h.ledger.GetStatus(ctx, callerOf(h.alice))
	require.NoError(t, err)
	assert.True(t, status.IsClockedIn)
}

func TestClockOut_WithoutActiveEntryIsNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.ledger.ClockOut(context.Background(), callerOf(h.alice), ClockOutInput{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "no active time entry found", domain.Message(err))
}

func TestClockOut_ComputesHoursAndJobAggregate(t *testing.T) {
	h := newHarness(t)

	// 09:00 to 17:00 with a 30 minute break.
	first := h.work(t, h.alice, h.job.ID, 8*time.Hour, 30)
	assert.Equal(t, domain.EntryCompleted, first.Status)
	require.NotNil(t, first.ClockOut)
	assert.True(t, monday.Add(8*time.Hour).Equal(*first.ClockOut))
	assert.Equal(t, 30, first.BreakMinutes)
	assert.Equal(t, "7.5", first.TotalHours.String())
	assert.Equal(t, "7.5", h.actualHours(t, h.job.ID))

	// Bob puts in 2h15m the same evening.
	h.work(t, h.bob, h.job.ID, 2*time.Hour+15*time.Minute, 0)
	assert.Equal(t, "9.75", h.actualHours(t, h.job.ID))
}

func TestClockOut_NotesReplacedOnlyWhenGiven(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID, Notes: "start notes"})
	require.NoError(t, err)
	h.clock.Advance(time.Hour)
	e, err := h.ledger.ClockOut(ctx, callerOf(h.alice), ClockOutInput{})
	require.NoError(t, err)
	assert.Equal(t, "start notes", e.Notes)

	_, err = h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID, Notes: "start notes"})
	require.NoError(t, err)
	h.clock.Advance(time.Hour)
	e, err = h.ledger.ClockOut(ctx, callerOf(h.alice), ClockOutInput{Notes: "finished valleys"})
	require.NoError(t, err)
	assert.Equal(t, "finished valleys", e.Notes)
}

func TestClockOut_NegativeBreakIsValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
	require.NoError(t, err)
	_, err = h.ledger.ClockOut(ctx, callerOf(h.alice), ClockOutInput{BreakMinutes: -5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	status, err := h.ledger.GetStatus(ctx, callerOf(h.alice))
	require.NoError(t, err)
	assert.True(t, status.IsClockedIn, "a rejected clock-out leaves the entry open")
}

func TestClockOut_BreakLongerThanSession(t *testing.T) {
	t.Run("clamped to zero by default", func(t *testing.T) {
		h := newHarness(t)
		e := h.work(t, h.alice, h.job.ID, 20*time.Minute, 45)
		assert.True(t, e.TotalHours.IsZero())
		assert.Equal(t, "0", h.actualHours(t, h.job.ID))
	})

	t.Run("rejected when clamping is off", func(t *testing.T) {
		h := newHarness(t)
		opts := h.opts
		opts.Hours = domain.HoursPolicy{ClampNegative: false}
		ledger := NewTimeTrackingService(h.entries, h.jobs, h.users, h.uow, opts)
		ctx := context.Background()

		_, err := ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
		require.NoError(t, err)
		h.clock.Advance(20 * time.Minute)
		_, err = ledger.ClockOut(ctx, callerOf(h.alice), ClockOutInput{BreakMinutes: 45})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestClockOut_RollsBackWhenAggregateWriteFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
	require.NoError(t, err)
	h.clock.Advance(time.Hour)

	// Exec #1 = entry update, #2 = job actual hours.
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     h.db,
		FailOn: 2,
		Err:    fmt.Errorf("injected aggregate failure"),
	}
	ledger := NewTimeTrackingService(h.entries, h.jobs, h.users, failUoW, h.opts)

	_, err = ledger.ClockOut(ctx, callerOf(h.alice), ClockOutInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected aggregate failure")
	assert.Equal(t, "internal", domain.ErrorKind(err))

	active, err := h.entries.GetActiveByEmployee(ctx, h.alice.ID)
	require.NoError(t, err, "entry must still be open after rollback")
	assert.Nil(t, active.TotalHours)
	assert.Equal(t, "0", h.actualHours(t, h.job.ID))
}

func TestGetStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	status, err := h.ledger.GetStatus(ctx, callerOf(h.alice))
	require.NoError(t, err)
	assert.False(t, status.IsClockedIn)
	assert.Nil(t, status.ActiveEntry)

	e, err := h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
	require.NoError(t, err)

	status, err = h.ledger.GetStatus(ctx, callerOf(h.alice))
	require.NoError(t, err)
	assert.True(t, status.IsClockedIn)
	require.NotNil(t, status.ActiveEntry)
	assert.Equal(t, e.ID, status.ActiveEntry.ID)
	assert.Equal(t, h.job.JobNumber, status.ActiveEntry.Job.JobNumber)
	assert.Equal(t, "Tear-off and re-roof", status.ActiveEntry.Job.Title)
	assert.Equal(t, "Alice Shingle", status.ActiveEntry.Employee.Name)

	// Bob is not affected by Alice's session.
	status, err = h.ledger.GetStatus(ctx, callerOf(h.bob))
	require.NoError(t, err)
	assert.False(t, status.IsClockedIn)
}

func TestListEntries_TotalsAndActiveEntries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.work(t, h.alice, h.job.ID, 2*time.Hour+20*time.Minute, 0) // 2.33
	h.work(t, h.alice, h.job.ID, 1*time.Hour+10*time.Minute, 0) // 1.17
	_, err := h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
	require.NoError(t, err)

	list, err := h.ledger.ListEntries(ctx, callerOf(h.owner), EntryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Count)
	assert.Len(t, list.Entries, 3)
	assert.Equal(t, "3.5", list.TotalHours.String())
	assert.True(t, list.Entries[0].IsActive(), "newest first")
}

func TestListEntries_EmployeeSeesOnlyOwnEntries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.work(t, h.alice, h.job.ID, time.Hour, 0)
	h.work(t, h.bob, h.job.ID, 2*time.Hour, 0)

	list, err := h.ledger.ListEntries(ctx, callerOf(h.alice), EntryQuery{EmployeeID: h.bob.ID})
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, h.alice.ID, list.Entries[0].EmployeeID)
	assert.Equal(t, "1", list.TotalHours.String())

	list, err = h.ledger.ListEntries(ctx, callerOf(h.owner), EntryQuery{EmployeeID: h.bob.ID})
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, h.bob.ID, list.Entries[0].EmployeeID)
}

func TestListEntries_EndDateIsInclusiveThroughLastMillisecond(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.clock.Set(time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC))
	inside := h.work(t, h.alice, h.job.ID, 30*time.Minute, 0)

	h.clock.Set(time.Date(2024, 1, 16, 0, 0, 0, int(time.Millisecond), time.UTC))
	h.work(t, h.bob, h.job.ID, 30*time.Minute, 0)

	list, err := h.ledger.ListEntries(ctx, callerOf(h.owner), EntryQuery{StartDate: "2024-01-15", EndDate: "2024-01-15"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, inside.ID, list.Entries[0].ID)

	list, err = h.ledger.ListEntries(ctx, callerOf(h.owner), EntryQuery{StartDate: "2024-01-16"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, h.bob.ID, list.Entries[0].EmployeeID)
}

func TestListEntries_CustomerSeesOwnJobsOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	login := testutil.NewTestUser("hoa", domain.RoleCustomer)
	require.NoError(t, h.users.Create(ctx, login))
	cust := testutil.NewTestCustomer("Hillside HOA", testutil.WithLinkedUser(login.ID))
	require.NoError(t, h.customers.Create(ctx, cust))
	theirs := testutil.NewTestJob("HOA clubhouse", testutil.WithCustomer(cust.ID), testutil.WithAssigned(h.bob.ID))
	require.NoError(t, h.jobs.Create(ctx, theirs))

	h.work(t, h.alice, h.job.ID, time.Hour, 0)
	h.work(t, h.bob, theirs.ID, 3*time.Hour, 0)

	caller := domain.Caller{UserID: login.ID, Role: domain.RoleCustomer, CustomerID: cust.ID}
	list, err := h.ledger.ListEntries(ctx, caller, EntryQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, theirs.ID, list.Entries[0].JobID)

	unlinked := domain.Caller{UserID: login.ID, Role: domain.RoleCustomer}
	list, err = h.ledger.ListEntries(ctx, unlinked, EntryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Entries)
}

func TestListEntries_BadDates(t *testing.T) {
	h := newHarness(t)
	_, err := h.ledger.ListEntries(context.Background(), callerOf(h.owner), EntryQuery{EndDate: "yesterday"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApproveEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	e := h.work(t, h.alice, h.job.ID, 4*time.Hour, 0)
	h.clock.Advance(time.Hour)

	approved, err := h.ledger.ApproveEntry(ctx, callerOf(h.owner), e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, h.owner.ID, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, h.clock.Now().Equal(*approved.ApprovedAt))

	// Approved hours keep counting toward the job.
	assert.Equal(t, "4", h.actualHours(t, h.job.ID))
}

func TestApproveEntry_Failures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	completed := h.work(t, h.alice, h.job.ID, time.Hour, 0)
	_, err := h.ledger.ApproveEntry(ctx, callerOf(h.alice), completed.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "employees cannot approve")

	_, err = h.ledger.ApproveEntry(ctx, callerOf(h.owner), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	approved := completed
	_, err = h.ledger.ApproveEntry(ctx, callerOf(h.owner), approved.ID)
	require.NoError(t, err)

	rejected := h.work(t, h.alice, h.job.ID, time.Hour, 0)
	_, err = h.ledger.RejectEntry(ctx, callerOf(h.owner), rejected.ID, "wrong job")
	require.NoError(t, err)

	active, err := h.ledger.ClockIn(ctx, callerOf(h.alice), ClockInInput{JobID: h.job.ID})
	require.NoError(t, err)

	for name, id := range map[string]string{"active": active.ID, "approved": approved.ID, "rejected": rejected.ID} {
		t.Run(name, func(t *testing.T) {
			_, err := h.ledger.ApproveEntry(ctx, callerOf(h.owner), id)
			assert.ErrorIs(t, err, domain.ErrInvalidState)
		})
	}
}

func TestRejectEntry_RemovesHoursFromJob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	keep := h.work(t, h.alice, h.job.ID, 3*time.Hour, 0)
	drop := h.work(t, h.bob, h.job.ID, 2*time.Hour, 0)
	assert.Equal(t, "5", h.actualHours(t, h.job.ID))

	rejected, err := h.ledger.RejectEntry(ctx, callerOf(h.owner), drop.ID, " duplicate ")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryRejected, rejected.Status)
	assert.Equal(t, "duplicate", rejected.RejectionReason)
	require.NotNil(t, rejected.RejectedBy)
	assert.Equal(t, h.owner.ID, *rejected.RejectedBy)
	assert.Equal(t, "3", h.actualHours(t, h.job.ID))

	_, err = h.ledger.RejectEntry(ctx, callerOf(h.owner), keep.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "0", h.actualHours(t, h.job.ID))

	_, err = h.ledger.RejectEntry(ctx, callerOf(h.owner), keep.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRecalculateJobHours_RepairsAggregate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.work(t, h.alice, h.job.ID, 90*time.Minute, 0)
	require.NoError(t, h.jobs.SetActualHours(ctx, h.job.ID, testDecimal("100"), monday))

	job, err := h.ledger.RecalculateJobHours(ctx, callerOf(h.owner), h.job.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.5", job.ActualHours.String())

	_, err = h.ledger.RecalculateJobHours(ctx, callerOf(h.alice), h.job.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = h.ledger.RecalculateJobHours(ctx, callerOf(h.owner), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
