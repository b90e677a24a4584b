package api

import (
	"net/http"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/service"
)

type customerRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
	Status  *string `json:"status"`
	UserID  *string `json:"userId"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	customers, err := s.svc.Customers.List(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]customerDTO, len(customers))
	for i, c := range customers {
		out[i] = toCustomerDTO(c)
	}
	ok(w, http.StatusOK, envelope{"count": len(out), "customers": out})
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	c, err := s.svc.Customers.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"customer": toCustomerDTO(c)})
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req customerRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID != nil && *req.UserID == "" {
		req.UserID = nil
	}
	c := &domain.Customer{
		UserID:  req.UserID,
		Name:    deref(req.Name),
		Email:   deref(req.Email),
		Phone:   deref(req.Phone),
		Address: deref(req.Address),
		Notes:   deref(req.Notes),
		Status:  domain.CustomerStatus(deref(req.Status)),
	}
	if err := s.svc.Customers.Create(r.Context(), caller, c); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, envelope{"customer": toCustomerDTO(c)})
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req customerRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch := service.CustomerPatch{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Notes:   req.Notes,
		UserID:  req.UserID,
	}
	if req.Status != nil {
		st := domain.CustomerStatus(*req.Status)
		patch.Status = &st
	}
	c, err := s.svc.Customers.Update(r.Context(), caller, r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"customer": toCustomerDTO(c)})
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	if err := s.svc.Customers.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Customer deleted successfully"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	users, err := s.svc.Users.List(r.Context(), caller, domain.Role(r.URL.Query().Get("role")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]userDTO, len(users))
	for i, u := range users {
		out[i] = toUserDTO(u)
	}
	ok(w, http.StatusOK, envelope{"count": len(out), "users": out})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	var req userRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u := &domain.User{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
	}
	if err := s.svc.Users.Create(r.Context(), caller, u); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, envelope{"user": toUserDTO(u)})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	u, err := s.svc.Users.Get(r.Context(), caller, caller.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"user": toUserDTO(u)})
}

func (s *Server) deactivateUser(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	u, err := s.svc.Users.Deactivate(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"user": toUserDTO(u)})
}
