package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/roofline/internal/db"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/repository"
	"github.com/alexanderramin/roofline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday morning on a job site.
var monday = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

type harness struct {
	db    *sql.DB
	clock *testutil.Clock
	opts  Options

	users     *repository.SQLiteUserRepo
	customers *repository.SQLiteCustomerRepo
	jobs      *repository.SQLiteJobRepo
	entries   *repository.SQLiteTimeEntryRepo
	uow       db.UnitOfWork

	ledger TimeTrackingService

	owner *domain.User
	alice *domain.User
	bob   *domain.User
	job   *domain.Job
}

func newHarness(t *testing.T) *harness {
	return newHarnessOn(t, testutil.NewTestDB(t))
}

func newHarnessOn(t *testing.T, database *sql.DB) *harness {
	t.Helper()
	ctx := context.Background()
	clock := testutil.NewClock(monday)
	opts := DefaultOptions()
	opts.Now = clock.Now

	h := &harness{
		db:        database,
		clock:     clock,
		opts:      opts,
		users:     repository.NewSQLiteUserRepo(database),
		customers: repository.NewSQLiteCustomerRepo(database),
		jobs:      repository.NewSQLiteJobRepo(database),
		entries:   repository.NewSQLiteTimeEntryRepo(database),
		uow:       testutil.NewTestUoW(database),
		owner:     testutil.NewTestUser("owner", domain.RoleOwner),
		alice:     testutil.NewTestUser("alice", domain.RoleEmployee, testutil.WithName("Alice Shingle")),
		bob:       testutil.NewTestUser("bob", domain.RoleEmployee),
	}
	for _, u := range []*domain.User{h.owner, h.alice, h.bob} {
		require.NoError(t, h.users.Create(ctx, u))
	}
	h.job = testutil.NewTestJob("Tear-off and re-roof", testutil.WithAssigned(h.alice.ID, h.bob.ID))
	require.NoError(t, h.jobs.Create(ctx, h.job))

	h.ledger = NewTimeTrackingService(h.entries, h.jobs, h.users, h.uow, h.opts)
	return h
}

func callerOf(u *domain.User) domain.Caller {
	return domain.Caller{UserID: u.ID, Role: u.Role}
}

// work clocks emp in on jobID, advances the clock by d and clocks out.
func (h *harness) work(t *testing.T, emp *domain.User, jobID string, d time.Duration, breakMinutes int) *domain.TimeEntry {
	t.Helper()
	ctx := context.Background()
	_, err := h.ledger.ClockIn(ctx, callerOf(emp), ClockInInput{JobID: jobID})
	require.NoError(t, err)
	h.clock.Advance(d)
	e, err := h.ledger.ClockOut(ctx, callerOf(emp), ClockOutInput{BreakMinutes: breakMinutes})
	require.NoError(t, err)
	return e
}

func (h *harness) actualHours(t *testing.T, jobID string) string {
	t.Helper()
	j, err := h.jobs.GetByID(context.Background(), jobID)
	require.NoError(t, err)
	return j.ActualHours.String()
}

func TestDayRange(t *testing.T) {
	from, to, err := dayRange("2024-01-15", "2024-01-15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T00:00:00.000Z", from.Format("2006-01-02T15:04:05.000Z07:00"))
	assert.Equal(t, "2024-01-15T23:59:59.999Z", to.Format("2006-01-02T15:04:05.000Z07:00"))

	from, to, err = dayRange("", "", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)

	_, _, err = dayRange("15/01/2024", "", time.UTC)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = dayRange("2024-01-16", "2024-01-15", time.UTC)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDayRange_UsesLocation(t *testing.T) {
	central := time.FixedZone("CST", -6*60*60)
	from, to, err := dayRange("2024-01-15", "2024-01-15", central)
	require.NoError(t, err)
	assert.True(t, from.Equal(time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC)))
	assert.True(t, to.Equal(time.Date(2024, 1, 16, 5, 59, 59, int(999*time.Millisecond), time.UTC)))
}
