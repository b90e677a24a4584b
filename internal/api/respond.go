package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alexanderramin/roofline/internal/domain"
)

const (
	maxBodyBytes = 1 << 20
	serverError  = "Server error"
)

// envelope is the response body. Successful responses carry
// "success": true plus named payload keys.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, body envelope) {
	body["success"] = true
	writeJSON(w, status, body)
}

var statusByKind = map[string]int{
	"validation":      http.StatusBadRequest,
	"conflict":        http.StatusBadRequest,
	"invalid_state":   http.StatusBadRequest,
	"not_found":       http.StatusNotFound,
	"forbidden":       http.StatusForbidden,
	"unauthenticated": http.StatusUnauthorized,
}

// writeError maps err onto a status and envelope. Internal errors are
// logged and reported only as "Server error".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorStatus(w, r, err, 0)
}

// writeErrorStatus is writeError with the status forced when status != 0 and
// err is a domain error.
func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	kind := domain.ErrorKind(err)
	code, known := statusByKind[kind]
	if !known {
		s.logger.ErrorContext(r.Context(), "request_failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, envelope{"success": false, "error": "internal", "message": serverError})
		return
	}
	if status != 0 {
		code = status
	}
	writeJSON(w, code, envelope{"success": false, "error": kind, "message": domain.Message(err)})
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return domain.Validationf("request body exceeds %d bytes", tooBig.Limit)
	}
	return domain.Validationf("invalid JSON body: %v", err)
}
