package formatter

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"zero", 0, "00:00:00"},
		{"negative clamps", -time.Minute, "00:00:00"},
		{"sub-second truncates", 1500 * time.Millisecond, "00:00:01"},
		{"full shift", 8*time.Hour + 3*time.Minute + 7*time.Second, "08:03:07"},
		{"overnight", 26 * time.Hour, "26:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Elapsed(tt.in))
		})
	}
}

func TestHoursAndMoney(t *testing.T) {
	h := decimal.RequireFromString("7.50")
	assert.Equal(t, "7.5h", Hours(&h))
	assert.Equal(t, "--", stripANSI(Hours(nil)))

	c := decimal.RequireFromString("1800")
	assert.Equal(t, "$1800.00", Money(&c))
	assert.Equal(t, "--", stripANSI(Money(nil)))
}

func TestTimestampUsesLocation(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	ts := time.Date(2024, 1, 15, 16, 30, 0, 0, time.UTC)
	assert.Equal(t, "Mon Jan 15 16:30", Timestamp(ts, nil))
	assert.Equal(t, "Mon Jan 15 09:30", Timestamp(ts, denver))
}

func TestRenderTableAlignsStyledCells(t *testing.T) {
	out := stripANSI(RenderTable(
		[]string{"JOB", "HOURS"},
		[][]string{
			{StyleGreen.Render("JOB-001"), "7.5h"},
			{"JOB-012", "12.25h"},
		},
		1,
	))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "JOB       HOURS", lines[0])
	assert.Equal(t, "JOB-001    7.5h", lines[2])
	assert.Equal(t, "JOB-012  12.25h", lines[3])
}

func TestFormatEntries(t *testing.T) {
	out := stripANSI(FormatEntries(nil, decimal.Zero, time.UTC))
	assert.Contains(t, out, "No time entries found.")

	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	outAt := in.Add(8 * time.Hour)
	hours := decimal.RequireFromString("7.5")
	entries := []*domain.EntryDetail{{
		TimeEntry: domain.TimeEntry{
			ID: "0123456789abcdef", ClockIn: in, ClockOut: &outAt, BreakMinutes: 30,
			TotalHours: &hours, Status: domain.EntryCompleted,
		},
		Employee: domain.UserRef{Name: "Alice Shingle"},
		Job:      domain.JobRef{JobNumber: "JOB-001"},
	}}
	out = stripANSI(FormatEntries(entries, hours, time.UTC))
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "89abcdef")
	assert.Contains(t, out, "Alice Shingle")
	assert.Contains(t, out, "17:00")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "total: 7.5h")
}

func TestFormatClockStatus(t *testing.T) {
	now := time.Date(2024, 1, 15, 11, 15, 30, 0, time.UTC)
	assert.Contains(t, stripANSI(FormatClockStatus(nil, now, time.UTC)), "No active time entry.")

	active := &domain.EntryDetail{
		TimeEntry: domain.TimeEntry{ClockIn: now.Add(-2*time.Hour - 15*time.Minute - 30*time.Second), Notes: "valley flashing"},
		Job:       domain.JobRef{JobNumber: "JOB-004", Title: "Cedar shake repair"},
	}
	out := stripANSI(FormatClockStatus(active, now, time.UTC))
	assert.Contains(t, out, "ON THE CLOCK")
	assert.Contains(t, out, "JOB-004 Cedar shake repair")
	assert.Contains(t, out, "02:15:30")
	assert.Contains(t, out, "valley flashing")
}

func TestFormatJobDetailNamesCrew(t *testing.T) {
	est := decimal.NewFromInt(40)
	j := &domain.Job{
		ID: "job-1", JobNumber: "JOB-002", Title: "Full re-roof",
		Status: domain.JobActive, Priority: domain.PriorityUrgent,
		EstimatedHours: &est, ActualHours: decimal.RequireFromString("12.25"),
		AssignedEmployeeIDs: []string{"u-alice", "ffffffff-unknown"},
	}
	out := stripANSI(FormatJobDetail(j, map[string]string{"u-alice": "Alice Shingle"}))
	assert.Contains(t, out, "JOB-002  FULL RE-ROOF")
	assert.Contains(t, out, "Alice Shingle, ffffffff")
	assert.Contains(t, out, "12.25h of 40h estimated")
	assert.Contains(t, out, "URGENT")
}
