package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoursPlaces is the number of decimal places hours are rounded to.
const HoursPlaces = 2

var (
	msPerMinute    = decimal.NewFromInt(int64(time.Minute / time.Millisecond))
	minutesPerHour = decimal.NewFromInt(60)
)

// HoursPolicy decides what happens when a break is longer than the session.
type HoursPolicy struct {
	// ClampNegative records zero hours instead of rejecting the clock-out.
	ClampNegative bool
}

// DefaultHoursPolicy clamps negative work time to zero.
func DefaultHoursPolicy() HoursPolicy {
	return HoursPolicy{ClampNegative: true}
}

// WorkedHours returns round((elapsed minutes - breakMinutes) / 60, 2).
// Elapsed time is measured at millisecond precision.
func WorkedHours(clockIn, clockOut time.Time, breakMinutes int, policy HoursPolicy) (decimal.Decimal, error) {
	if breakMinutes < 0 {
		return decimal.Zero, Validationf("break minutes must not be negative")
	}
	if clockOut.Before(clockIn) {
		return decimal.Zero, Validationf("clock-out %s is before clock-in %s",
			clockOut.Format(time.RFC3339), clockIn.Format(time.RFC3339))
	}

	elapsedMin := decimal.NewFromInt(clockOut.Sub(clockIn).Milliseconds()).Div(msPerMinute)
	workMin := elapsedMin.Sub(decimal.NewFromInt(int64(breakMinutes)))
	if workMin.IsNegative() {
		if !policy.ClampNegative {
			return decimal.Zero, Validationf("break of %d minutes exceeds the %s minute session",
				breakMinutes, elapsedMin.Round(HoursPlaces).String())
		}
		return decimal.Zero, nil
	}
	return RoundHours(workMin.Div(minutesPerHour)), nil
}

// RoundHours rounds to HoursPlaces, half away from zero.
func RoundHours(h decimal.Decimal) decimal.Decimal {
	return h.Round(HoursPlaces)
}

// SumHours adds the hours of every entry; entries without hours add zero.
func SumHours(entries []*TimeEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.TotalHours != nil {
			total = total.Add(*e.TotalHours)
		}
	}
	return RoundHours(total)
}
