package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/shopspring/decimal"
)

// FormatEntries renders a ledger listing with its total hours footer.
func FormatEntries(entries []*domain.EntryDetail, total decimal.Decimal, loc *time.Location) string {
	if len(entries) == 0 {
		return Dim("No time entries found.") + "\n"
	}
	headers := []string{"ID", "EMPLOYEE", "JOB", "IN", "OUT", "BREAK", "HOURS", "STATUS"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			TruncID(e.ID),
			e.Employee.Name,
			e.Job.JobNumber,
			Timestamp(e.ClockIn, loc),
			ClockTime(e.ClockOut, loc),
			fmt.Sprintf("%dm", e.BreakMinutes),
			Hours(e.TotalHours),
			EntryStatusPill(e.Status),
		})
	}
	footer := fmt.Sprintf("%s %s  %s %s",
		Dim("entries:"), strconv.Itoa(len(entries)),
		Dim("total:"), Bold(total.String()+"h"))
	return RenderTable(headers, rows, 5, 6) + "\n" + footer + "\n"
}

// FormatClockStatus renders the caller's current clock state.
func FormatClockStatus(active *domain.EntryDetail, now time.Time, loc *time.Location) string {
	if active == nil {
		return RenderBox("Off the clock", Dim("No active time entry."))
	}
	pairs := [][2]string{
		{"Job", Bold(active.Job.JobNumber) + " " + active.Job.Title},
		{"Clocked in", Timestamp(active.ClockIn, loc)},
		{"Elapsed", StyleYellow.Render(Elapsed(now.Sub(active.ClockIn)))},
	}
	if active.Notes != "" {
		pairs = append(pairs, [2]string{"Notes", active.Notes})
	}
	return RenderBox("On the clock", KeyValues(pairs))
}

// FormatEntry renders one entry after a ledger change.
func FormatEntry(title string, e *domain.TimeEntry, loc *time.Location) string {
	pairs := [][2]string{
		{"Entry", e.ID},
		{"Status", EntryStatusPill(e.Status)},
		{"Clocked in", Timestamp(e.ClockIn, loc)},
	}
	if e.ClockOut != nil {
		pairs = append(pairs,
			[2]string{"Clocked out", Timestamp(*e.ClockOut, loc)},
			[2]string{"Break", fmt.Sprintf("%d min", e.BreakMinutes)},
			[2]string{"Hours", Bold(Hours(e.TotalHours))},
		)
	}
	if e.RejectionReason != "" {
		pairs = append(pairs, [2]string{"Reason", e.RejectionReason})
	}
	return RenderBox(title, KeyValues(pairs))
}

func FormatJobs(jobs []*domain.Job) string {
	if len(jobs) == 0 {
		return Dim("No jobs found.") + "\n"
	}
	headers := []string{"NUMBER", "TITLE", "STATUS", "PRIORITY", "CREW", "EST", "ACTUAL"}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			Bold(j.JobNumber),
			j.Title,
			JobStatusPill(j.Status),
			PriorityBadge(j.Priority),
			strconv.Itoa(len(j.AssignedEmployeeIDs)),
			Hours(j.EstimatedHours),
			Hours(&j.ActualHours),
		})
	}
	return RenderTable(headers, rows, 4, 5, 6)
}

// FormatJobDetail renders a single job. names maps user ids to display names
// for the crew list; unknown ids are shown truncated.
func FormatJobDetail(j *domain.Job, names map[string]string) string {
	crew := make([]string, 0, len(j.AssignedEmployeeIDs))
	for _, id := range j.AssignedEmployeeIDs {
		if n, ok := names[id]; ok {
			crew = append(crew, n)
			continue
		}
		crew = append(crew, TruncID(id))
	}
	crewText := Dim("nobody assigned")
	if len(crew) > 0 {
		crewText = strings.Join(crew, ", ")
	}

	pairs := [][2]string{
		{"ID", Dim(j.ID)},
		{"Status", JobStatusPill(j.Status)},
		{"Priority", PriorityBadge(j.Priority)},
		{"Dates", Date(j.StartDate) + " → " + Date(j.EndDate)},
		{"Hours", Hours(&j.ActualHours) + " of " + Hours(j.EstimatedHours) + " estimated"},
		{"Cost", Money(&j.ActualCost) + " of " + Money(j.EstimatedCost) + " estimated"},
		{"Crew", crewText},
	}
	if j.Address != "" {
		pairs = append(pairs, [2]string{"Address", j.Address})
	}
	if j.Description != "" {
		pairs = append(pairs, [2]string{"Description", j.Description})
	}
	return RenderBox(j.JobNumber+"  "+j.Title, KeyValues(pairs))
}

func FormatJobStats(s *domain.JobStats) string {
	pairs := [][2]string{
		{"Total", Bold(strconv.Itoa(s.Total))},
		{"Pending", strconv.Itoa(s.Pending)},
		{"Active", StyleGreen.Render(strconv.Itoa(s.Active))},
		{"Completed", strconv.Itoa(s.Completed)},
		{"Cancelled", strconv.Itoa(s.Cancelled)},
		{"This month", strconv.Itoa(s.ThisMonth)},
	}
	return RenderBox("Jobs", KeyValues(pairs))
}

func FormatUsers(users []*domain.User) string {
	if len(users) == 0 {
		return Dim("No users found.") + "\n"
	}
	headers := []string{"ID", "USERNAME", "NAME", "EMAIL", "ROLE", "ACTIVE"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		active := StyleGreen.Render("yes")
		if !u.Active {
			active = StyleRed.Render("no")
		}
		rows = append(rows, []string{TruncID(u.ID), u.Username, u.Name, u.Email, RoleBadge(u.Role), active})
	}
	return RenderTable(headers, rows)
}

func FormatCustomers(customers []*domain.Customer) string {
	if len(customers) == 0 {
		return Dim("No customers found.") + "\n"
	}
	headers := []string{"ID", "NAME", "EMAIL", "PHONE", "STATUS"}
	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{TruncID(c.ID), c.Name, c.Email, c.Phone, string(c.Status)})
	}
	return RenderTable(headers, rows)
}
