package api

import (
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/shopspring/decimal"
)

// Wire formats mirror what the web client already consumes: camelCase keys,
// millisecond UTC timestamps and hours as plain JSON numbers.
const (
	wireTimestamp = "2006-01-02T15:04:05.000Z07:00"
	wireDate      = "2006-01-02"
)

func wireTime(t time.Time) string { return t.UTC().Format(wireTimestamp) }

func wireTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := wireTime(*t)
	return &s
}

func wireDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(wireDate)
	return &s
}

func wireDecimal(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

type userRefDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type jobRefDTO struct {
	ID        string `json:"id"`
	JobNumber string `json:"jobNumber"`
	Title     string `json:"title"`
}

type entryDTO struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	JobID           string      `json:"jobId"`
	ClockIn         string      `json:"clockIn"`
	ClockOut        *string     `json:"clockOut"`
	BreakMinutes    int         `json:"breakMinutes"`
	TotalHours      *float64    `json:"totalHours"`
	Notes           string      `json:"notes"`
	Status          string      `json:"status"`
	ApprovedBy      *string     `json:"approvedBy"`
	ApprovedAt      *string     `json:"approvedAt"`
	RejectedBy      *string     `json:"rejectedBy,omitempty"`
	RejectedAt      *string     `json:"rejectedAt,omitempty"`
	RejectionReason string      `json:"rejectionReason,omitempty"`
	CreatedAt       string      `json:"createdAt"`
	UpdatedAt       string      `json:"updatedAt"`
	Employee        *userRefDTO `json:"employee,omitempty"`
	Job             *jobRefDTO  `json:"job,omitempty"`
}

func toEntryDTO(e *domain.TimeEntry) entryDTO {
	return entryDTO{
		ID:              e.ID,
		UserID:          e.EmployeeID,
		JobID:           e.JobID,
		ClockIn:         wireTime(e.ClockIn),
		ClockOut:        wireTimePtr(e.ClockOut),
		BreakMinutes:    e.BreakMinutes,
		TotalHours:      wireDecimal(e.TotalHours),
		Notes:           e.Notes,
		Status:          string(e.Status),
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      wireTimePtr(e.ApprovedAt),
		RejectedBy:      e.RejectedBy,
		RejectedAt:      wireTimePtr(e.RejectedAt),
		RejectionReason: e.RejectionReason,
		CreatedAt:       wireTime(e.CreatedAt),
		UpdatedAt:       wireTime(e.UpdatedAt),
	}
}

func toEntryDetailDTO(d *domain.EntryDetail) entryDTO {
	out := toEntryDTO(&d.TimeEntry)
	out.Employee = &userRefDTO{ID: d.Employee.ID, Name: d.Employee.Name, Email: d.Employee.Email}
	out.Job = &jobRefDTO{ID: d.Job.ID, JobNumber: d.Job.JobNumber, Title: d.Job.Title}
	return out
}

type jobDTO struct {
	ID                  string   `json:"id"`
	JobNumber           string   `json:"jobNumber"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	CustomerID          *string  `json:"customerId"`
	CreatedBy           string   `json:"createdBy"`
	Status              string   `json:"status"`
	Priority            string   `json:"priority"`
	StartDate           *string  `json:"startDate"`
	EndDate             *string  `json:"endDate"`
	EstimatedHours      *float64 `json:"estimatedHours"`
	ActualHours         float64  `json:"actualHours"`
	EstimatedCost       *float64 `json:"estimatedCost"`
	ActualCost          float64  `json:"actualCost"`
	Address             string   `json:"address"`
	Notes               string   `json:"notes"`
	AssignedEmployeeIDs []string `json:"assignedEmployees"`
	CreatedAt           string   `json:"createdAt"`
	UpdatedAt           string   `json:"updatedAt"`
}

func toJobDTO(j *domain.Job) jobDTO {
	assigned := j.AssignedEmployeeIDs
	if assigned == nil {
		assigned = []string{}
	}
	return jobDTO{
		ID:                  j.ID,
		JobNumber:           j.JobNumber,
		Title:               j.Title,
		Description:         j.Description,
		CustomerID:          j.CustomerID,
		CreatedBy:           j.CreatedBy,
		Status:              string(j.Status),
		Priority:            string(j.Priority),
		StartDate:           wireDatePtr(j.StartDate),
		EndDate:             wireDatePtr(j.EndDate),
		EstimatedHours:      wireDecimal(j.EstimatedHours),
		ActualHours:         j.ActualHours.InexactFloat64(),
		EstimatedCost:       wireDecimal(j.EstimatedCost),
		ActualCost:          j.ActualCost.InexactFloat64(),
		Address:             j.Address,
		Notes:               j.Notes,
		AssignedEmployeeIDs: assigned,
		CreatedAt:           wireTime(j.CreatedAt),
		UpdatedAt:           wireTime(j.UpdatedAt),
	}
}

func toJobDTOs(jobs []*domain.Job) []jobDTO {
	out := make([]jobDTO, len(jobs))
	for i, j := range jobs {
		out[i] = toJobDTO(j)
	}
	return out
}

type statsDTO struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	ThisMonth int `json:"thisMonth"`
}

type customerDTO struct {
	ID        string  `json:"id"`
	UserID    *string `json:"userId"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	Notes     string  `json:"notes"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func toCustomerDTO(c *domain.Customer) customerDTO {
	return customerDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Notes:     c.Notes,
		Status:    string(c.Status),
		CreatedAt: wireTime(c.CreatedAt),
		UpdatedAt: wireTime(c.UpdatedAt),
	}
}

type userDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      string(u.Role),
		IsActive:  u.Active,
		CreatedAt: wireTime(u.CreatedAt),
		UpdatedAt: wireTime(u.UpdatedAt),
	}
}

// wireDay accepts a calendar date or a full RFC 3339 timestamp and keeps
// only the date.
type wireDay struct{ t *time.Time }

func (d *wireDay) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		d.t = nil
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return domain.Validationf("dates must be strings")
	}
	s = s[1 : len(s)-1]
	if s == "" {
		d.t = nil
		return nil
	}
	t, err := time.Parse(wireDate, s)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, s)
		if tsErr != nil {
			return domain.Validationf("date %q must be YYYY-MM-DD", s)
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	d.t = &t
	return nil
}

func (d *wireDay) time() *time.Time {
	if d == nil {
		return nil
	}
	return d.t
}
