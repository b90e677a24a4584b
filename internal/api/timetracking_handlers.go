package api

import (
	"errors"
	"net/http"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/service"
)

type clockInRequest struct {
	JobID string `json:"jobId"`
	Notes string `json:"notes"`
}

type clockOutRequest struct {
	BreakMinutes int    `json:"breakMinutes"`
	Notes        string `json:"notes"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) clockIn(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req clockInRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.svc.Ledger.ClockIn(r.Context(), caller, service.ClockInInput{JobID: req.JobID, Notes: req.Notes})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, envelope{"message": "Clocked in successfully", "timeEntry": toEntryDTO(entry)})
}

func (s *Server) clockOut(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req clockOutRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.svc.Ledger.ClockOut(r.Context(), caller, service.ClockOutInput{BreakMinutes: req.BreakMinutes, Notes: req.Notes})
	if err != nil {
		// Clocking out with nothing open is a bad request, not a missing route.
		if errors.Is(err, domain.ErrNotFound) {
			s.writeErrorStatus(w, r, err, http.StatusBadRequest)
			return
		}
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Clocked out successfully", "timeEntry": toEntryDTO(entry)})
}

func (s *Server) clockStatus(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	st, err := s.svc.Ledger.GetStatus(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var active any
	if st.ActiveEntry != nil {
		active = toEntryDetailDTO(st.ActiveEntry)
	}
	ok(w, http.StatusOK, envelope{"isClockedIn": st.IsClockedIn, "activeEntry": active})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	q := r.URL.Query()
	list, err := s.svc.Ledger.ListEntries(r.Context(), caller, service.EntryQuery{
		EmployeeID: q.Get("userId"),
		JobID:      q.Get("jobId"),
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries := make([]entryDTO, len(list.Entries))
	for i, e := range list.Entries {
		entries[i] = toEntryDetailDTO(e)
	}
	ok(w, http.StatusOK, envelope{
		"count":      list.Count,
		"totalHours": list.TotalHours.InexactFloat64(),
		"entries":    entries,
	})
}

func (s *Server) approveEntry(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	entry, err := s.svc.Ledger.ApproveEntry(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Time entry approved", "timeEntry": toEntryDTO(entry)})
}

func (s *Server) rejectEntry(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req rejectRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.svc.Ledger.RejectEntry(r.Context(), caller, r.PathValue("id"), req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Time entry rejected", "timeEntry": toEntryDTO(entry)})
}

func (s *Server) recalculateJob(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	job, err := s.svc.Ledger.RecalculateJobHours(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Job hours recalculated", "job": toJobDTO(job)})
}
