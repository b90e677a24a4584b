package formatter

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Hours renders a decimal hour count as "7.5h". Nil means the entry is still
// open.
func Hours(h *decimal.Decimal) string {
	if h == nil {
		return StyleDim.Render("--")
	}
	return h.String() + "h"
}

// Elapsed formats a running duration as HH:MM:SS. Negative durations render
// as zero.
func Elapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Timestamp renders t in loc as "Mon Jan 15 09:00".
func Timestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Mon Jan 2 15:04")
}

// ClockTime renders only the wall-clock part of t in loc.
func ClockTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return StyleDim.Render("--")
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04")
}

// Date renders an optional calendar date.
func Date(t *time.Time) string {
	if t == nil {
		return StyleDim.Render("--")
	}
	return t.Format("2006-01-02")
}

// Money renders an optional amount with two decimals.
func Money(d *decimal.Decimal) string {
	if d == nil {
		return StyleDim.Render("--")
	}
	return "$" + d.StringFixed(2)
}
