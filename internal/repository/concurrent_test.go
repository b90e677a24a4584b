package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/roofline/internal/db"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentAccess_OneActiveEntryPerEmployee races inserts of an open
// entry for the same employee. The partial unique index must let exactly one
// through.
func TestConcurrentAccess_OneActiveEntryPerEmployee(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()

	users := NewSQLiteUserRepo(database)
	jobs := NewSQLiteJobRepo(database)
	entries := NewSQLiteTimeEntryRepo(database)

	emp := testutil.NewTestUser("racer", domain.RoleEmployee)
	require.NoError(t, users.Create(ctx, emp))
	job := testutil.NewTestJob("Race job", testutil.WithAssigned(emp.ID))
	require.NoError(t, jobs.Create(ctx, job))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = entries.Create(ctx, testutil.NewTestEntry(emp.ID, job.ID))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrActiveEntryExists):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
}

// TestConcurrentAccess_ListDuringWrites checks readers see consistent rows
// while a writer appends completed entries.
func TestConcurrentAccess_ListDuringWrites(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()

	users := NewSQLiteUserRepo(database)
	jobs := NewSQLiteJobRepo(database)
	entries := NewSQLiteTimeEntryRepo(database)

	emp := testutil.NewTestUser("writer", domain.RoleEmployee)
	require.NoError(t, users.Create(ctx, emp))
	job := testutil.NewTestJob("Busy job")
	require.NoError(t, jobs.Create(ctx, job))

	base := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			in := base.Add(time.Duration(i) * 2 * time.Hour)
			e := testutil.NewTestEntry(emp.ID, job.ID,
				testutil.WithClockIn(in), testutil.Completed(in.Add(time.Hour), 0))
			if err := entries.Create(ctx, e); err != nil {
				t.Errorf("writer: create entry %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				got, err := entries.List(ctx, domain.EntryFilter{JobID: job.ID})
				if err != nil {
					t.Errorf("reader %d: list entries: %v", reader, err)
					return
				}
				for _, d := range got {
					if d.TotalHours == nil || d.Employee.Name == "" {
						t.Errorf("reader %d: got half-populated entry %s", reader, d.ID)
					}
				}
			}
		}(r)
	}
	wg.Wait()

	got, err := entries.List(ctx, domain.EntryFilter{JobID: job.ID})
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestConcurrentAccess_JobSequence_NoDuplicates(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()
	uow := db.NewSQLiteUnitOfWork(database)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[int]bool{}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
				n, err := NewSQLiteJobSequenceRepo(tx).NextJobNumber(ctx)
				if err != nil {
					return err
				}
				j := testutil.NewTestJob(fmt.Sprintf("Job %d", i))
				j.JobNumber = domain.FormatJobNumber(n)
				if err := NewSQLiteJobRepo(tx).Create(ctx, j); err != nil {
					return err
				}
				mu.Lock()
				seen[n] = true
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	for n := 1; n <= workers; n++ {
		assert.True(t, seen[n], "job number %d was not allocated", n)
	}
}
