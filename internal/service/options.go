package service

import (
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
)

// Options carries the clock, time zone and hours policy shared by services.
type Options struct {
	Now      func() time.Time
	Location *time.Location
	Hours    domain.HoursPolicy
}

// DefaultOptions uses the wall clock in UTC and clamps negative hours.
func DefaultOptions() Options {
	return Options{
		Now:      time.Now,
		Location: time.UTC,
		Hours:    domain.DefaultHoursPolicy(),
	}
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

func (o Options) now() time.Time {
	return o.Now().UTC()
}
