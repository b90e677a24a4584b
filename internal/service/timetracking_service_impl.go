package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexanderramin/roofline/internal/db"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type timeTrackingService struct {
	entries  repository.TimeEntryRepo
	jobs     repository.JobRepo
	users    repository.UserRepo
	uow      db.UnitOfWork
	opts     Options
	observer UseCaseObserver
}

func NewTimeTrackingService(
	entries repository.TimeEntryRepo,
	jobs repository.JobRepo,
	users repository.UserRepo,
	uow db.UnitOfWork,
	opts Options,
	observers ...UseCaseObserver,
) TimeTrackingService {
	return &timeTrackingService{
		entries:  entries,
		jobs:     jobs,
		users:    users,
		uow:      uow,
		opts:     opts.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *timeTrackingService) ClockIn(ctx context.Context, caller domain.Caller, in ClockInInput) (entry *domain.TimeEntry, err error) {
	fields := map[string]any{"employee_id": caller.UserID, "job_id": in.JobID}
	defer observe(ctx, s.observer, "clock-in", time.Now(), fields, &err)

	if err = caller.Require(domain.RoleEmployee); err != nil {
		return nil, err
	}
	jobID := strings.TrimSpace(in.JobID)
	if jobID == "" {
		return nil, domain.Validationf("jobId is required")
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txEntries := repository.NewSQLiteTimeEntryRepo(tx)
		txJobs := repository.NewSQLiteJobRepo(tx)

		active, err := txEntries.GetActiveByEmployee(ctx, caller.UserID)
		switch {
		case err == nil:
			return domain.Conflictf("already clocked in (entry %s)", active.ID)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		job, err := txJobs.GetByID(ctx, jobID)
		if err != nil {
			return notFoundAs(err, "job %s not found", jobID)
		}
		if !job.IsAssigned(caller.UserID) {
			return domain.Forbiddenf("you are not assigned to job %s", job.JobNumber)
		}

		entry = domain.NewTimeEntry(uuid.New().String(), caller.UserID, job.ID, strings.TrimSpace(in.Notes), s.opts.now())
		if err := txEntries.Create(ctx, entry); err != nil {
			if errors.Is(err, repository.ErrActiveEntryExists) {
				return domain.Conflictf("already clocked in")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["entry_id"] = entry.ID
	return entry, nil
}

func (s *timeTrackingService) ClockOut(ctx context.Context, caller domain.Caller, in ClockOutInput) (entry *domain.TimeEntry, err error) {
	fields := map[string]any{"employee_id": caller.UserID, "break_minutes": in.BreakMinutes}
	defer observe(ctx, s.observer, "clock-out", time.Now(), fields, &err)

	if err = caller.Require(domain.RoleEmployee); err != nil {
		return nil, err
	}
	if in.BreakMinutes < 0 {
		return nil, domain.Validationf("breakMinutes must not be negative")
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txEntries := repository.NewSQLiteTimeEntryRepo(tx)

		active, err := txEntries.GetActiveByEmployee(ctx, caller.UserID)
		if err != nil {
			return notFoundAs(err, "no active time entry found")
		}

		now := s.opts.now()
		if err := active.Close(now, in.BreakMinutes, strings.TrimSpace(in.Notes), s.opts.Hours); err != nil {
			return err
		}
		if err := txEntries.Update(ctx, active); err != nil {
			return err
		}
		jobHours, err := recomputeJobHours(ctx, tx, active.JobID, now)
		if err != nil {
			return err
		}
		fields["job_actual_hours"] = jobHours.String()
		entry = active
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["entry_id"] = entry.ID
	fields["total_hours"] = entry.TotalHours.String()
	return entry, nil
}

func (s *timeTrackingService) GetStatus(ctx context.Context, caller domain.Caller) (*ClockStatus, error) {
	if err := caller.Require(domain.RoleEmployee); err != nil {
		return nil, err
	}
	active, err := s.entries.GetActiveByEmployee(ctx, caller.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return &ClockStatus{}, nil
	}
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, active.JobID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, active.EmployeeID)
	if err != nil {
		return nil, err
	}
	return &ClockStatus{
		IsClockedIn: true,
		ActiveEntry: &domain.EntryDetail{TimeEntry: *active, Employee: user.Ref(), Job: job.Ref()},
	}, nil
}

func (s *timeTrackingService) ListEntries(ctx context.Context, caller domain.Caller, q EntryQuery) (*EntryList, error) {
	filter := domain.EntryFilter{EmployeeID: q.EmployeeID, JobID: q.JobID}
	switch {
	case caller.IsOwner():
	case caller.IsEmployee():
		filter.EmployeeID = caller.UserID
	case caller.IsCustomer():
		if caller.CustomerID == "" {
			return &EntryList{TotalHours: decimal.Zero, Entries: []*domain.EntryDetail{}}, nil
		}
		filter.CustomerID = caller.CustomerID
	default:
		return nil, domain.Forbiddenf("role %q may not list time entries", caller.Role)
	}

	from, to, err := dayRange(q.StartDate, q.EndDate, s.opts.Location)
	if err != nil {
		return nil, err
	}
	filter.From, filter.To = from, to

	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.EntryDetail{}
	}

	total := decimal.Zero
	for _, e := range entries {
		if e.TotalHours != nil {
			total = total.Add(*e.TotalHours)
		}
	}
	return &EntryList{
		Count:      len(entries),
		TotalHours: domain.RoundHours(total),
		Entries:    entries,
	}, nil
}

func (s *timeTrackingService) ApproveEntry(ctx context.Context, caller domain.Caller, entryID string) (entry *domain.TimeEntry, err error) {
	fields := map[string]any{"reviewer_id": caller.UserID, "entry_id": entryID}
	defer observe(ctx, s.observer, "approve-entry", time.Now(), fields, &err)

	if err = caller.Require(domain.RoleOwner); err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txEntries := repository.NewSQLiteTimeEntryRepo(tx)
		e, err := txEntries.GetByID(ctx, entryID)
		if err != nil {
			return notFoundAs(err, "time entry %s not found", entryID)
		}
		if err := e.Approve(caller.UserID, s.opts.now()); err != nil {
			return err
		}
		if err := txEntries.Update(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeTrackingService) RejectEntry(ctx context.Context, caller domain.Caller, entryID, reason string) (entry *domain.TimeEntry, err error) {
	fields := map[string]any{"reviewer_id": caller.UserID, "entry_id": entryID}
	defer observe(ctx, s.observer, "reject-entry", time.Now(), fields, &err)

	if err = caller.Require(domain.RoleOwner); err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txEntries := repository.NewSQLiteTimeEntryRepo(tx)
		e, err := txEntries.GetByID(ctx, entryID)
		if err != nil {
			return notFoundAs(err, "time entry %s not found", entryID)
		}
		now := s.opts.now()
		if err := e.Reject(caller.UserID, strings.TrimSpace(reason), now); err != nil {
			return err
		}
		if err := txEntries.Update(ctx, e); err != nil {
			return err
		}
		jobHours, err := recomputeJobHours(ctx, tx, e.JobID, now)
		if err != nil {
			return err
		}
		fields["job_actual_hours"] = jobHours.String()
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeTrackingService) RecalculateJobHours(ctx context.Context, caller domain.Caller, jobID string) (job *domain.Job, err error) {
	fields := map[string]any{"job_id": jobID}
	defer observe(ctx, s.observer, "recalculate-job-hours", time.Now(), fields, &err)

	if err = caller.Require(domain.RoleOwner); err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txJobs := repository.NewSQLiteJobRepo(tx)
		if _, err := txJobs.GetByID(ctx, jobID); err != nil {
			return notFoundAs(err, "job %s not found", jobID)
		}
		if _, err := recomputeJobHours(ctx, tx, jobID, s.opts.now()); err != nil {
			return err
		}
		j, err := txJobs.GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		job = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["actual_hours"] = job.ActualHours.String()
	return job, nil
}
