package api

import (
	"net/http"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/service"
	"github.com/shopspring/decimal"
)

type createJobRequest struct {
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	CustomerID        *string          `json:"customerId"`
	Priority          string           `json:"priority"`
	StartDate         *wireDay         `json:"startDate"`
	EndDate           *wireDay         `json:"endDate"`
	EstimatedHours    *decimal.Decimal `json:"estimatedHours"`
	EstimatedCost     *decimal.Decimal `json:"estimatedCost"`
	Address           string           `json:"address"`
	Notes             string           `json:"notes"`
	AssignedEmployees []string         `json:"assignedEmployees"`
}

// updateJobRequest is a partial update: absent keys leave the job unchanged.
type updateJobRequest struct {
	Title             *string          `json:"title"`
	Description       *string          `json:"description"`
	CustomerID        *string          `json:"customerId"`
	Status            *string          `json:"status"`
	Priority          *string          `json:"priority"`
	StartDate         *wireDay         `json:"startDate"`
	EndDate           *wireDay         `json:"endDate"`
	EstimatedHours    *decimal.Decimal `json:"estimatedHours"`
	EstimatedCost     *decimal.Decimal `json:"estimatedCost"`
	ActualCost        *decimal.Decimal `json:"actualCost"`
	Address           *string          `json:"address"`
	Notes             *string          `json:"notes"`
	AssignedEmployees []string         `json:"assignedEmployees"`
}

type assignRequest struct {
	EmployeeIDs []string `json:"employeeIds"`
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	jobs, err := s.svc.Jobs.List(r.Context(), caller, domain.JobStatus(r.URL.Query().Get("status")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"count": len(jobs), "jobs": toJobDTOs(jobs)})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	job, err := s.svc.Jobs.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"job": toJobDTO(job)})
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req createJobRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.svc.Jobs.Create(r.Context(), caller, service.JobInput{
		Title:               req.Title,
		Description:         req.Description,
		CustomerID:          req.CustomerID,
		Priority:            domain.JobPriority(req.Priority),
		StartDate:           req.StartDate.time(),
		EndDate:             req.EndDate.time(),
		EstimatedHours:      req.EstimatedHours,
		EstimatedCost:       req.EstimatedCost,
		Address:             req.Address,
		Notes:               req.Notes,
		AssignedEmployeeIDs: req.AssignedEmployees,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, envelope{"job": toJobDTO(job)})
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req updateJobRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch := service.JobPatch{
		Title:               req.Title,
		Description:         req.Description,
		CustomerID:          req.CustomerID,
		StartDate:           req.StartDate.time(),
		EndDate:             req.EndDate.time(),
		EstimatedHours:      req.EstimatedHours,
		EstimatedCost:       req.EstimatedCost,
		ActualCost:          req.ActualCost,
		Address:             req.Address,
		Notes:               req.Notes,
		AssignedEmployeeIDs: req.AssignedEmployees,
	}
	if req.Status != nil {
		st := domain.JobStatus(*req.Status)
		patch.Status = &st
	}
	if req.Priority != nil {
		p := domain.JobPriority(*req.Priority)
		patch.Priority = &p
	}

	job, err := s.svc.Jobs.Update(r.Context(), caller, r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"job": toJobDTO(job)})
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	if err := s.svc.Jobs.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Job deleted successfully"})
}

func (s *Server) assignJob(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req assignRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.svc.Jobs.Assign(r.Context(), caller, r.PathValue("id"), req.EmployeeIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"job": toJobDTO(job)})
}

func (s *Server) jobStats(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	st, err := s.svc.Jobs.Stats(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"stats": statsDTO{
		Total:     st.Total,
		Pending:   st.Pending,
		Active:    st.Active,
		Completed: st.Completed,
		Cancelled: st.Cancelled,
		ThisMonth: st.ThisMonth,
	}})
}
