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

type jobService struct {
	jobs     repository.JobRepo
	uow      db.UnitOfWork
	opts     Options
	observer UseCaseObserver
}

func NewJobService(jobs repository.JobRepo, uow db.UnitOfWork, opts Options, observers ...UseCaseObserver) JobService {
	return &jobService{
		jobs:     jobs,
		uow:      uow,
		opts:     opts.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

// scopeQuery limits a listing to what the caller may see.
func scopeQuery(caller domain.Caller, q repository.JobQuery) (repository.JobQuery, bool, error) {
	switch {
	case caller.IsOwner():
	case caller.IsEmployee():
		q.AssignedTo = caller.UserID
	case caller.IsCustomer():
		if caller.CustomerID == "" {
			return q, false, nil
		}
		q.CustomerID = caller.CustomerID
	default:
		return q, false, domain.Forbiddenf("role %q may not view jobs", caller.Role)
	}
	return q, true, nil
}

func (s *jobService) List(ctx context.Context, caller domain.Caller, status domain.JobStatus) ([]*domain.Job, error) {
	if status != "" && !domain.ValidJobStatuses[status] {
		return nil, domain.Validationf("invalid job status %q", status)
	}
	q, visible, err := scopeQuery(caller, repository.JobQuery{Status: status})
	if err != nil {
		return nil, err
	}
	if !visible {
		return []*domain.Job{}, nil
	}
	jobs, err := s.jobs.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []*domain.Job{}
	}
	return jobs, nil
}

func (s *jobService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "job %s not found", id)
	}
	if err := canView(caller, job); err != nil {
		return nil, err
	}
	return job, nil
}

func canView(caller domain.Caller, job *domain.Job) error {
	switch {
	case caller.IsOwner():
		return nil
	case caller.IsEmployee() && job.IsAssigned(caller.UserID):
		return nil
	case caller.IsCustomer() && job.BelongsTo(caller.CustomerID):
		return nil
	}
	return domain.Forbiddenf("you do not have access to job %s", job.JobNumber)
}

func (s *jobService) Create(ctx context.Context, caller domain.Caller, in JobInput) (job *domain.Job, err error) {
	fields := map[string]any{"title": in.Title}
	defer observe(ctx, s.observer, "create-job", time.Now(), fields, &err)

	if err = caller.Require(domain.RoleOwner); err != nil {
		return nil, err
	}

	now := s.opts.now()
	job = &domain.Job{
		ID:                  uuid.New().String(),
		Title:               strings.TrimSpace(in.Title),
		Description:         in.Description,
		CustomerID:          in.CustomerID,
		CreatedBy:           caller.UserID,
		Status:              domain.JobPending,
		Priority:            domain.JobPriority(domain.CoalesceStr(string(in.Priority), string(domain.PriorityMedium))),
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		EstimatedHours:      in.EstimatedHours,
		ActualHours:         decimal.Zero,
		EstimatedCost:       in.EstimatedCost,
		ActualCost:          decimal.Zero,
		Address:             in.Address,
		Notes:               in.Notes,
		AssignedEmployeeIDs: dedupe(in.AssignedEmployeeIDs),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err = job.Validate(); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := checkCustomer(ctx, tx, job.CustomerID); err != nil {
			return err
		}
		if err := checkAssignees(ctx, tx, job.AssignedEmployeeIDs); err != nil {
			return err
		}
		n, err := repository.NewSQLiteJobSequenceRepo(tx).NextJobNumber(ctx)
		if err != nil {
			return err
		}
		job.JobNumber = domain.FormatJobNumber(n)
		return repository.NewSQLiteJobRepo(tx).Create(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	fields["job_number"] = job.JobNumber
	return job, nil
}

func (s *jobService) Update(ctx context.Context, caller domain.Caller, id string, patch JobPatch) (job *domain.Job, err error) {
	fields := map[string]any{"job_id": id}
	defer observe(ctx, s.observer, "update-job", time.Now(), fields, &err)

	if err = caller.Require(domain.RoleOwner); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txJobs := repository.NewSQLiteJobRepo(tx)
		j, err := txJobs.GetByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "job %s not found", id)
		}

		applyJobPatch(j, patch)
		j.UpdatedAt = s.opts.now()
		if err := j.Validate(); err != nil {
			return err
		}
		if patch.CustomerID != nil {
			if err := checkCustomer(ctx, tx, j.CustomerID); err != nil {
				return err
			}
		}
		if err := txJobs.Update(ctx, j); err != nil {
			return err
		}
		if patch.AssignedEmployeeIDs != nil {
			ids := dedupe(patch.AssignedEmployeeIDs)
			if err := checkAssignees(ctx, tx, ids); err != nil {
				return err
			}
			if err := txJobs.SetAssignments(ctx, j.ID, ids); err != nil {
				return err
			}
			j.AssignedEmployeeIDs = ids
		}
		job = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func applyJobPatch(j *domain.Job, p JobPatch) {
	if p.Title != nil {
		j.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.CustomerID != nil {
		// An empty id detaches the job from its customer.
		if *p.CustomerID == "" {
			j.CustomerID = nil
		} else {
			j.CustomerID = p.CustomerID
		}
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Priority != nil {
		j.Priority = *p.Priority
	}
	j.StartDate = domain.CoalescePtr(p.StartDate, j.StartDate)
	j.EndDate = domain.CoalescePtr(p.EndDate, j.EndDate)
	j.EstimatedHours = domain.CoalescePtr(p.EstimatedHours, j.EstimatedHours)
	j.EstimatedCost = domain.CoalescePtr(p.EstimatedCost, j.EstimatedCost)
	j.ActualCost = domain.ValueOr(p.ActualCost, j.ActualCost)
	j.Address = domain.ValueOr(p.Address, j.Address)
	j.Notes = domain.ValueOr(p.Notes, j.Notes)
}

func (s *jobService) Delete(ctx context.Context, caller domain.Caller, id string) (err error) {
	defer observe(ctx, s.observer, "delete-job", time.Now(), map[string]any{"job_id": id}, &err)

	if err = caller.Require(domain.RoleOwner); err != nil {
		return err
	}
	if err = s.jobs.Delete(ctx, id); err != nil {
		return notFoundAs(err, "job %s not found", id)
	}
	return nil
}

func (s *jobService) Assign(ctx context.Context, caller domain.Caller, id string, employeeIDs []string) (*domain.Job, error) {
	if employeeIDs == nil {
		employeeIDs = []string{}
	}
	return s.Update(ctx, caller, id, JobPatch{AssignedEmployeeIDs: employeeIDs})
}

func (s *jobService) Stats(ctx context.Context, caller domain.Caller) (*domain.JobStats, error) {
	jobs, err := s.List(ctx, caller, "")
	if err != nil {
		return nil, err
	}

	now := s.opts.Now().In(s.opts.Location)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.opts.Location)
	nextMonth := monthStart.AddDate(0, 1, 0)

	stats := &domain.JobStats{Total: len(jobs)}
	for _, j := range jobs {
		switch j.Status {
		case domain.JobPending:
			stats.Pending++
		case domain.JobActive:
			stats.Active++
		case domain.JobCompleted:
			stats.Completed++
		case domain.JobCancelled:
			stats.Cancelled++
		}
		if !j.CreatedAt.Before(monthStart) && j.CreatedAt.Before(nextMonth) {
			stats.ThisMonth++
		}
	}
	return stats, nil
}

func checkCustomer(ctx context.Context, tx db.DBTX, customerID *string) error {
	if customerID == nil {
		return nil
	}
	_, err := repository.NewSQLiteCustomerRepo(tx).GetByID(ctx, *customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Validationf("customer %s does not exist", *customerID)
	}
	return err
}

// checkAssignees requires every id to be an active employee.
func checkAssignees(ctx context.Context, tx db.DBTX, userIDs []string) error {
	users := repository.NewSQLiteUserRepo(tx)
	for _, id := range userIDs {
		u, err := users.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Validationf("user %s does not exist", id)
		}
		if err != nil {
			return err
		}
		if u.Role != domain.RoleEmployee || !u.Active {
			return domain.Validationf("%s is not an active employee", u.Username)
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
