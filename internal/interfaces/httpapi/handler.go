package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/riskibarqy/rando-league/internal/usecase"
)

// JobRunner runs the weekly jobs on demand.
type JobRunner interface {
	RunWeekRefresh(ctx context.Context) (jobscheduler.RunEvent, error)
	RunReminder(ctx context.Context) (jobscheduler.RunEvent, error)
}

type ReadinessChecker interface {
	Ready() bool
}

type Handler struct {
	readiness ReadinessChecker
	jobs      JobRunner
	runs      jobscheduler.Repository
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(readiness ReadinessChecker, jobs JobRunner, runs jobscheduler.Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		readiness: readiness,
		jobs:      jobs,
		runs:      runs,
		logger:    logger.Named("http"),
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the first league refresh has completed.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	if h.readiness == nil || !h.readiness.Ready() {
		writeError(ctx, w, fmt.Errorf("%w: league seed has not been provisioned yet", usecase.ErrNotReady))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
