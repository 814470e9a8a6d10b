package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/rando-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/riskibarqy/rando-league/internal/platform/resilience"
	"github.com/riskibarqy/rando-league/internal/usecase"
)

const testJobToken = "secret-token"

type stubReadiness bool

func (s stubReadiness) Ready() bool { return bool(s) }

type stubJobRunner struct {
	refreshCalls  int
	reminderCalls int
	refreshErr    error
}

func (s *stubJobRunner) RunWeekRefresh(context.Context) (jobscheduler.RunEvent, error) {
	s.refreshCalls++
	event := jobscheduler.RunEvent{
		RunID:     "run-refresh",
		JobName:   jobscheduler.JobWeekRefresh,
		Week:      "2024-05-03",
		Status:    jobscheduler.StatusSucceeded,
		Attempts:  1,
		StartedAt: time.Date(2024, 5, 11, 1, 0, 0, 0, time.UTC),
	}
	if s.refreshErr != nil {
		event.Status = jobscheduler.StatusAbandoned
		event.Attempts = 2
		return event, s.refreshErr
	}
	return event, nil
}

func (s *stubJobRunner) RunReminder(context.Context) (jobscheduler.RunEvent, error) {
	s.reminderCalls++
	return jobscheduler.RunEvent{
		RunID:    "run-reminder",
		JobName:  jobscheduler.JobReminder,
		Week:     "2024-05-03",
		Status:   jobscheduler.StatusSkipped,
		Attempts: 1,
		Detail:   map[string]any{"reason": "week extended"},
	}, nil
}

func newTestRouter(ready bool, jobs *stubJobRunner, runs jobscheduler.Repository) http.Handler {
	handler := NewHandler(stubReadiness(ready), jobs, runs, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), nil, testJobToken)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v (body=%s)", err, rec.Body.String())
	}
	return body
}

func TestHandler_Readyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ready  bool
		status int
	}{
		{name: "before first refresh", ready: false, status: http.StatusServiceUnavailable},
		{name: "after first refresh", ready: true, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(tt.ready, &stubJobRunner{}, memory.NewJobRunRepository())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestHandler_Healthz(t *testing.T) {
	t.Parallel()

	router := newTestRouter(false, &stubJobRunner{}, memory.NewJobRunRepository())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestHandler_InternalJobsRequireToken(t *testing.T) {
	t.Parallel()

	jobs := &stubJobRunner{}
	router := newTestRouter(true, jobs, memory.NewJobRunRepository())

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/week-refresh", nil)
	req.Header.Set("X-Internal-Job-Token", "wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if jobs.refreshCalls != 0 {
		t.Fatalf("job must not run without a valid token")
	}
}

func TestHandler_RunWeekRefreshJob(t *testing.T) {
	t.Parallel()

	jobs := &stubJobRunner{}
	router := newTestRouter(true, jobs, memory.NewJobRunRepository())

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/week-refresh", strings.NewReader(`{"reason":"sheet fixed"}`))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if jobs.refreshCalls != 1 {
		t.Fatalf("expected one refresh call, got %d", jobs.refreshCalls)
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", body["data"])
	}
	if data["runId"] != "run-refresh" || data["status"] != "succeeded" || data["week"] != "2024-05-03" {
		t.Fatalf("unexpected run payload: %+v", data)
	}
}

func TestHandler_RunWeekRefreshJob_AbandonedMapsToUnavailable(t *testing.T) {
	t.Parallel()

	jobs := &stubJobRunner{
		refreshErr: fmt.Errorf("%w: %w", resilience.ErrRetryAbandoned, fmt.Errorf("%w: sheets down", usecase.ErrDependencyUnavailable)),
	}
	router := newTestRouter(true, jobs, memory.NewJobRunRepository())

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/week-refresh", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_RunReminderJob_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	jobs := &stubJobRunner{}
	router := newTestRouter(true, jobs, memory.NewJobRunRepository())

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/reminder", strings.NewReader(`{"week":"2024-05-03"}`))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if jobs.reminderCalls != 0 {
		t.Fatalf("reminder must not run on invalid payload")
	}
}

func TestHandler_ListJobRuns(t *testing.T) {
	t.Parallel()

	runs := memory.NewJobRunRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC)
	for i, job := range []string{jobscheduler.JobWeekRefresh, jobscheduler.JobReminder, jobscheduler.JobWeekRefresh} {
		err := runs.UpsertRun(ctx, jobscheduler.RunEvent{
			RunID:     fmt.Sprintf("run-%d", i),
			JobName:   job,
			Status:    jobscheduler.StatusSucceeded,
			Attempts:  1,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("seed run: %v", err)
		}
	}
	router := newTestRouter(true, &stubJobRunner{}, runs)

	req := httptest.NewRequest(http.MethodGet, "/v1/internal/jobs/runs?job=week_refresh&limit=1", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	items, ok := body["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one run, got %v", body["data"])
	}
	if got := items[0].(map[string]any)["runId"]; got != "run-2" {
		t.Fatalf("expected newest refresh run, got %v", got)
	}
}

func TestHandler_ListJobRuns_InvalidQuery(t *testing.T) {
	t.Parallel()

	router := newTestRouter(true, &stubJobRunner{}, memory.NewJobRunRepository())
	for _, query := range []string{"?limit=abc", "?limit=0", "?job=nightly"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/internal/jobs/runs"+query, nil)
		req.Header.Set("X-Internal-Job-Token", testJobToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected status 400, got %d", query, rec.Code)
		}
	}
}

func TestMapError_DomainErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{err: usecase.ErrAlreadySubmitted, status: http.StatusConflict},
		{err: usecase.ErrNotReady, status: http.StatusServiceUnavailable},
		{err: fmt.Errorf("%w: orirando 500", usecase.ErrSeedProvisioning), status: http.StatusBadGateway},
		{err: usecase.ErrNotFound, status: http.StatusNotFound},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapError(context.Background(), tt.err).HTTPStatus; got != tt.status {
			t.Fatalf("mapError(%v)=%d want=%d", tt.err, got, tt.status)
		}
	}
}
