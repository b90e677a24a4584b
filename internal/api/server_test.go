package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/repository"
	"github.com/alexanderramin/roofline/internal/service"
	"github.com/alexanderramin/roofline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

type apiHarness struct {
	clock   *testutil.Clock
	handler http.Handler
	logs    *bytes.Buffer

	owner *domain.User
	alice *domain.User
	bob   *domain.User
	job   *domain.Job
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	clock := testutil.NewClock(monday)
	opts := service.DefaultOptions()
	opts.Now = clock.Now

	users := repository.NewSQLiteUserRepo(database)
	customers := repository.NewSQLiteCustomerRepo(database)
	jobs := repository.NewSQLiteJobRepo(database)
	entries := repository.NewSQLiteTimeEntryRepo(database)
	uow := testutil.NewTestUoW(database)

	h := &apiHarness{
		clock: clock,
		logs:  &bytes.Buffer{},
		owner: testutil.NewTestUser("owner", domain.RoleOwner),
		alice: testutil.NewTestUser("alice", domain.RoleEmployee),
		bob:   testutil.NewTestUser("bob", domain.RoleEmployee),
	}
	for _, u := range []*domain.User{h.owner, h.alice, h.bob} {
		require.NoError(t, users.Create(ctx, u))
	}
	h.job = testutil.NewTestJob("Ridge vent install", testutil.WithAssigned(h.alice.ID))
	require.NoError(t, jobs.Create(ctx, h.job))

	logger := slog.New(slog.NewJSONHandler(h.logs, nil))
	srv := NewServer(Services{
		Ledger:    service.NewTimeTrackingService(entries, jobs, users, uow, opts),
		Jobs:      service.NewJobService(jobs, uow, opts),
		Customers: service.NewCustomerService(customers, users, opts),
		Users:     service.NewUserService(users, customers, opts),
	}, logger)
	h.handler = srv.Handler()
	return h
}

// do sends a request as userID (skipped when empty) and decodes the JSON reply.
func do(t *testing.T, handler http.Handler, method, path, userID string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return rec.Code, out
}

func TestHealthz(t *testing.T) {
	h := newAPIHarness(t)
	code, body := do(t, h.handler, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestUnknownCallerIsUnauthenticated(t *testing.T) {
	h := newAPIHarness(t)

	for _, id := range []string{"", "nobody"} {
		code, body := do(t, h.handler, http.MethodGet, "/api/time-tracking/status", id, nil)
		assert.Equal(t, http.StatusUnauthorized, code, "caller %q", id)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "unauthenticated", body["error"])
	}
}

func TestClockInAndOut(t *testing.T) {
	h := newAPIHarness(t)

	code, body := do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", h.alice.ID,
		map[string]any{"jobId": h.job.ID, "notes": "north slope"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Clocked in successfully", body["message"])
	entry := body["timeEntry"].(map[string]any)
	assert.Equal(t, "active", entry["status"])
	assert.Equal(t, "2024-01-15T09:00:00.000Z", entry["clockIn"])
	assert.Nil(t, entry["clockOut"])

	code, body = do(t, h.handler, http.MethodGet, "/api/time-tracking/status", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["isClockedIn"])
	active := body["activeEntry"].(map[string]any)
	assert.Equal(t, h.job.JobNumber, active["job"].(map[string]any)["jobNumber"])

	h.clock.Advance(8 * time.Hour)
	code, body = do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-out", h.alice.ID,
		map[string]any{"breakMinutes": 30})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Clocked out successfully", body["message"])
	entry = body["timeEntry"].(map[string]any)
	assert.Equal(t, "completed", entry["status"])
	assert.Equal(t, 7.5, entry["totalHours"])

	code, body = do(t, h.handler, http.MethodGet, "/api/jobs/"+h.job.ID, h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 7.5, body["job"].(map[string]any)["actualHours"])
}

func TestClockInFailures(t *testing.T) {
	h := newAPIHarness(t)
	other := map[string]any{"jobId": "missing"}

	code, body := do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", h.alice.ID, other)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])

	code, body = do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", h.bob.ID, map[string]any{"jobId": h.job.ID})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", body["error"])

	code, _ = do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", h.alice.ID, map[string]any{"jobId": h.job.ID})
	require.Equal(t, http.StatusCreated, code)
	code, body = do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", h.alice.ID, map[string]any{"jobId": h.job.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "conflict", body["error"])

	code, body = do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", h.owner.ID, map[string]any{"jobId": h.job.ID})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", body["error"])
}

func TestClockOutWithoutActiveEntryIsBadRequest(t *testing.T) {
	h := newAPIHarness(t)

	code, body := do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-out", h.alice.ID, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not_found", body["error"])
	assert.Contains(t, body["message"], "no active time entry found")
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	h := newAPIHarness(t)

	code, body := do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", h.alice.ID, `{"jobId": `)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", body["error"])
}

func TestListEntriesScopesEmployees(t *testing.T) {
	h := newAPIHarness(t)
	clockSession(t, h, h.alice, 4*time.Hour, 0)

	// Alice asking for Bob's entries still only sees her own.
	code, body := do(t, h.handler, http.MethodGet,
		"/api/time-tracking/entries?userId="+h.bob.ID+"&startDate=2024-01-15&endDate=2024-01-15", h.alice.ID, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(4), body["totalHours"])
	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, h.alice.ID, entries[0].(map[string]any)["employee"].(map[string]any)["id"])

	code, body = do(t, h.handler, http.MethodGet, "/api/time-tracking/entries?userId="+h.bob.ID, h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, []any{}, body["entries"])

	code, body = do(t, h.handler, http.MethodGet, "/api/time-tracking/entries?startDate=15-01-2024", h.owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", body["error"])
}

func TestApproveAndReject(t *testing.T) {
	h := newAPIHarness(t)

	_, body := do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", h.alice.ID, map[string]any{"jobId": h.job.ID})
	entryID := body["timeEntry"].(map[string]any)["id"].(string)

	code, body := do(t, h.handler, http.MethodPut, "/api/time-tracking/entries/"+entryID+"/approve", h.owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, code, "active entries cannot be approved")
	assert.Equal(t, "invalid_state", body["error"])

	h.clock.Advance(2 * time.Hour)
	_, _ = do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-out", h.alice.ID, nil)

	code, body = do(t, h.handler, http.MethodPut, "/api/time-tracking/entries/"+entryID+"/approve", h.alice.ID, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", body["error"])

	code, body = do(t, h.handler, http.MethodPut, "/api/time-tracking/entries/"+entryID+"/approve", h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Time entry approved", body["message"])
	entry := body["timeEntry"].(map[string]any)
	assert.Equal(t, "approved", entry["status"])
	assert.Equal(t, h.owner.ID, entry["approvedBy"])

	code, body = do(t, h.handler, http.MethodPut, "/api/time-tracking/entries/"+entryID+"/reject", h.owner.ID,
		map[string]any{"reason": "wrong job"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_state", body["error"])

	code, body = do(t, h.handler, http.MethodPut, "/api/time-tracking/entries/nope/approve", h.owner.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])
}

func TestRejectRemovesHoursFromJob(t *testing.T) {
	h := newAPIHarness(t)
	entryID := clockSession(t, h, h.alice, 3*time.Hour, 0)

	code, body := do(t, h.handler, http.MethodPut, "/api/time-tracking/entries/"+entryID+"/reject", h.owner.ID,
		map[string]any{"reason": "duplicate"})
	require.Equal(t, http.StatusOK, code, body)
	entry := body["timeEntry"].(map[string]any)
	assert.Equal(t, "rejected", entry["status"])
	assert.Equal(t, "duplicate", entry["rejectionReason"])

	code, body = do(t, h.handler, http.MethodPost, "/api/jobs/"+h.job.ID+"/recalculate", h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(0), body["job"].(map[string]any)["actualHours"])
}

func TestJobLifecycle(t *testing.T) {
	h := newAPIHarness(t)

	code, body := do(t, h.handler, http.MethodPost, "/api/jobs", h.owner.ID, map[string]any{
		"title":             "Gutter replacement",
		"priority":          "high",
		"startDate":         "2024-02-01",
		"endDate":           "2024-02-03T00:00:00Z",
		"estimatedHours":    12.5,
		"estimatedCost":     "1800.00",
		"assignedEmployees": []string{h.bob.ID},
	})
	require.Equal(t, http.StatusCreated, code, body)
	job := body["job"].(map[string]any)
	assert.Equal(t, "JOB-001", job["jobNumber"])
	assert.Equal(t, "pending", job["status"])
	assert.Equal(t, "2024-02-01", job["startDate"])
	assert.Equal(t, "2024-02-03", job["endDate"])
	assert.Equal(t, 12.5, job["estimatedHours"])
	assert.Equal(t, float64(1800), job["estimatedCost"])
	assert.Equal(t, []any{h.bob.ID}, job["assignedEmployees"])
	jobID := job["id"].(string)

	code, body = do(t, h.handler, http.MethodPost, "/api/jobs", h.alice.ID, map[string]any{"title": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = do(t, h.handler, http.MethodPut, "/api/jobs/"+jobID, h.owner.ID, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "active", body["job"].(map[string]any)["status"])
	assert.Equal(t, "Gutter replacement", body["job"].(map[string]any)["title"])

	code, body = do(t, h.handler, http.MethodPut, "/api/jobs/"+jobID+"/assign", h.owner.ID,
		map[string]any{"employeeIds": []string{h.alice.ID, h.bob.ID}})
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["job"].(map[string]any)["assignedEmployees"], 2)

	code, body = do(t, h.handler, http.MethodGet, "/api/jobs", h.alice.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["count"])

	code, body = do(t, h.handler, http.MethodGet, "/api/jobs/stats", h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["total"])
	assert.Equal(t, float64(2), stats["active"])

	code, body = do(t, h.handler, http.MethodDelete, "/api/jobs/"+jobID, h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Job deleted successfully", body["message"])

	code, body = do(t, h.handler, http.MethodGet, "/api/jobs/"+jobID, h.owner.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])
}

func TestJobCreateRejectsBadDate(t *testing.T) {
	h := newAPIHarness(t)

	code, body := do(t, h.handler, http.MethodPost, "/api/jobs", h.owner.ID,
		map[string]any{"title": "Flashing", "startDate": "next tuesday"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", body["error"])
}

func TestCustomersAndUsers(t *testing.T) {
	h := newAPIHarness(t)

	code, body := do(t, h.handler, http.MethodPost, "/api/users", h.owner.ID, map[string]any{
		"username": "carol", "email": "Carol@Example.com", "name": "Carol", "role": "customer",
	})
	require.Equal(t, http.StatusCreated, code, body)
	carol := body["user"].(map[string]any)
	assert.Equal(t, "carol@example.com", carol["email"])
	assert.Equal(t, true, carol["isActive"])

	code, body = do(t, h.handler, http.MethodPost, "/api/customers", h.owner.ID, map[string]any{
		"name": "Carol's Bakery", "email": "bakery@example.com", "userId": carol["id"],
	})
	require.Equal(t, http.StatusCreated, code, body)
	customer := body["customer"].(map[string]any)
	assert.Equal(t, "active", customer["status"])
	customerID := customer["id"].(string)

	code, body = do(t, h.handler, http.MethodGet, "/api/customers/"+customerID, "carol", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Carol's Bakery", body["customer"].(map[string]any)["name"])

	code, body = do(t, h.handler, http.MethodPut, "/api/customers/"+customerID, h.owner.ID, map[string]any{"phone": "555-0100"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "555-0100", body["customer"].(map[string]any)["phone"])

	code, body = do(t, h.handler, http.MethodGet, "/api/customers", h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, body = do(t, h.handler, http.MethodGet, "/api/users/me", "carol", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "customer", body["user"].(map[string]any)["role"])

	code, _ = do(t, h.handler, http.MethodGet, "/api/users", h.alice.ID, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = do(t, h.handler, http.MethodGet, "/api/users?role=employee", h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["count"])

	code, body = do(t, h.handler, http.MethodPut, "/api/users/"+h.bob.ID+"/deactivate", h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, false, body["user"].(map[string]any)["isActive"])

	code, _ = do(t, h.handler, http.MethodGet, "/api/time-tracking/status", h.bob.ID, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = do(t, h.handler, http.MethodDelete, "/api/customers/"+customerID, h.owner.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Customer deleted successfully", body["message"])
}

type failingLedger struct {
	service.TimeTrackingService
	err error
}

func (f failingLedger) GetStatus(context.Context, domain.Caller) (*service.ClockStatus, error) {
	return nil, f.err
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	h := newAPIHarness(t)
	database := testutil.NewTestDB(t)
	users := repository.NewSQLiteUserRepo(database)
	require.NoError(t, users.Create(context.Background(), h.alice))

	logs := &bytes.Buffer{}
	srv := NewServer(Services{
		Ledger: failingLedger{err: errors.New("database disk image is malformed")},
		Users:  service.NewUserService(users, repository.NewSQLiteCustomerRepo(database), service.DefaultOptions()),
	}, slog.New(slog.NewJSONHandler(logs, nil)))

	code, body := do(t, srv.Handler(), http.MethodGet, "/api/time-tracking/status", h.alice.ID, nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Server error", body["message"])
	assert.Equal(t, "internal", body["error"])
	assert.Contains(t, logs.String(), "database disk image is malformed")

	// A nil embedded service panics; the recovery middleware answers 500.
	code, body = do(t, srv.Handler(), http.MethodPost, "/api/time-tracking/clock-in", h.alice.ID, map[string]any{"jobId": "x"})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Server error", body["message"])
	assert.Contains(t, logs.String(), "http_panic")
}

func TestRequestsAreLogged(t *testing.T) {
	h := newAPIHarness(t)
	_, _ = do(t, h.handler, http.MethodGet, "/api/time-tracking/status", h.alice.ID, nil)

	lines := strings.Split(strings.TrimSpace(h.logs.String()), "\n")
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	assert.Equal(t, "http_request", rec["msg"])
	assert.Equal(t, "GET", rec["method"])
	assert.Equal(t, "/api/time-tracking/status", rec["path"])
	assert.Equal(t, float64(200), rec["status"])
	assert.Equal(t, h.alice.ID, rec["user_id"])
}

// clockSession runs one completed session for emp on the harness job and
// returns the entry id.
func clockSession(t *testing.T, h *apiHarness, emp *domain.User, d time.Duration, breakMinutes int) string {
	t.Helper()
	code, body := do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-in", emp.ID, map[string]any{"jobId": h.job.ID})
	require.Equal(t, http.StatusCreated, code, body)
	h.clock.Advance(d)
	code, body = do(t, h.handler, http.MethodPost, "/api/time-tracking/clock-out", emp.ID, map[string]any{"breakMinutes": breakMinutes})
	require.Equal(t, http.StatusOK, code, body)
	return body["timeEntry"].(map[string]any)["id"].(string)
}
