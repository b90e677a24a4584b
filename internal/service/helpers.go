package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/roofline/internal/db"
	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/repository"
	"github.com/shopspring/decimal"
)

const dayLayout = "2006-01-02"

// dayRange turns inclusive calendar days into [start of startDate, last
// millisecond of endDate] in loc. Empty strings leave that end open.
func dayRange(startDate, endDate string, loc *time.Location) (from, to *time.Time, err error) {
	if startDate != "" {
		d, err := time.ParseInLocation(dayLayout, startDate, loc)
		if err != nil {
			return nil, nil, domain.Validationf("startDate %q must be YYYY-MM-DD", startDate)
		}
		from = &d
	}
	if endDate != "" {
		d, err := time.ParseInLocation(dayLayout, endDate, loc)
		if err != nil {
			return nil, nil, domain.Validationf("endDate %q must be YYYY-MM-DD", endDate)
		}
		end := d.AddDate(0, 0, 1).Add(-time.Millisecond)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domain.Validationf("endDate %s is before startDate %s", endDate, startDate)
	}
	return from, to, nil
}

// recomputeJobHours rewrites the job's actual hours from its completed and
// approved entries. It must run in the same transaction as the entry change.
func recomputeJobHours(ctx context.Context, tx db.DBTX, jobID string, now time.Time) (decimal.Decimal, error) {
	entries, err := repository.NewSQLiteTimeEntryRepo(tx).ListByJob(ctx, jobID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range entries {
		if e.CountsTowardJob() && e.TotalHours != nil {
			total = total.Add(*e.TotalHours)
		}
	}
	total = domain.RoundHours(total)
	if err := repository.NewSQLiteJobRepo(tx).SetActualHours(ctx, jobID, total, now); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// notFoundAs replaces a repository miss with a caller-facing message and
// passes every other error through.
func notFoundAs(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFoundf(format, args...)
	}
	return err
}

// observe reports a finished use case. Call it deferred with a pointer to the
// named error result.
func observe(ctx context.Context, obs UseCaseObserver, name string, startedAt time.Time, fields map[string]any, err *error) {
	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   *err == nil,
		Err:       *err,
		Fields:    fields,
	})
}
