package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/rando-league/internal/usecase"
)

const defaultRunListLimit = 20

type internalJobRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=200"`
}

type runListQuery struct {
	Job   string `validate:"omitempty,oneof=week_refresh reminder startup_refresh settings_refresh"`
	Limit int    `validate:"min=1,max=200"`
}

type runEventDTO struct {
	RunID        string         `json:"runId"`
	JobName      string         `json:"jobName"`
	Week         string         `json:"week"`
	Status       string         `json:"status"`
	Attempts     int            `json:"attempts"`
	Detail       map[string]any `json:"detail,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
}

func runEventToDTO(event jobscheduler.RunEvent) runEventDTO {
	return runEventDTO{
		RunID:        event.RunID,
		JobName:      event.JobName,
		Week:         event.Week,
		Status:       string(event.Status),
		Attempts:     event.Attempts,
		Detail:       event.Detail,
		ErrorMessage: event.ErrorMessage,
		StartedAt:    event.StartedAt,
		FinishedAt:   event.FinishedAt,
	}
}

func (h *Handler) RunWeekRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunWeekRefreshJob")
	defer span.End()

	h.runJob(ctx, w, r, jobscheduler.JobWeekRefresh, func(ctx context.Context) (jobscheduler.RunEvent, error) {
		return h.jobs.RunWeekRefresh(ctx)
	})
}

func (h *Handler) RunReminderJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReminderJob")
	defer span.End()

	h.runJob(ctx, w, r, jobscheduler.JobReminder, func(ctx context.Context) (jobscheduler.RunEvent, error) {
		return h.jobs.RunReminder(ctx)
	})
}

// runJob runs the job synchronously; a failing first attempt holds the
// request through the retry backoff.
func (h *Handler) runJob(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	job string,
	run func(ctx context.Context) (jobscheduler.RunEvent, error),
) {
	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: job runner is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeInternalJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual job triggered", "job", job, "reason", req.Reason, "remote_addr", r.RemoteAddr)
	event, err := run(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual job failed", "job", job, "run_id", event.RunID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runEventToDTO(event))
}

func (h *Handler) ListJobRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobRuns")
	defer span.End()

	if h.runs == nil {
		writeError(ctx, w, fmt.Errorf("%w: job run history is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	query := runListQuery{
		Job:   strings.TrimSpace(r.URL.Query().Get("job")),
		Limit: defaultRunListLimit,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a number", usecase.ErrInvalidInput))
			return
		}
		query.Limit = limit
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	events, err := h.runs.ListRuns(ctx, query.Job, query.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list job runs failed", "job", query.Job, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]runEventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, runEventToDTO(event))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func decodeInternalJobRequest(r *http.Request) (internalJobRequest, error) {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req internalJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return internalJobRequest{}, nil
		}
		return internalJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}
