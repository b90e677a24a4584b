package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
)

// UserHeader identifies the acting user on every /api request.
const UserHeader = "X-User-ID"

type callerHandler func(w http.ResponseWriter, r *http.Request, caller domain.Caller)

// authed resolves the caller from UserHeader before running h. Unknown and
// deactivated users get 401.
func (s *Server) authed(h callerHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := s.svc.Users.Resolve(r.Context(), r.Header.Get(UserHeader))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if rec, ok := w.(*statusRecorder); ok {
			rec.userID = caller.UserID
		}
		h(w, r, caller)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	userID string
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if rec.userID != "" {
			attrs = append(attrs, "user_id", rec.userID)
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "http_request", attrs...)
			return
		}
		s.logger.InfoContext(r.Context(), "http_request", attrs...)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.ErrorContext(r.Context(), "http_panic", "panic", v, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, envelope{"success": false, "error": "internal", "message": serverError})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
