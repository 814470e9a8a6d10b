package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/rando-league/internal/platform/querybuilder"
)


type JobRunRepository struct {
	db *sqlx.DB
}

func NewJobRunRepository(db *sqlx.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

func (r *JobRunRepository) UpsertRun(ctx context.Context, event jobscheduler.RunEvent) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}

	startedAt := event.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	detailJSON, err := marshalDetail(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal job run detail: %w", err)
	}

	model := jobRunTableModel{
		RunID:     runID,
		JobName:   jobName,
		WeekKey:   event.Week,
		Status:    string(event.Status),
		Attempts:  event.Attempts,
		Detail:    detailJSON,
		LastError: optionalString(event.ErrorMessage),
		StartedAt: formatTimestamp(startedAt),
	}
	if event.FinishedAt != nil {
		finished := formatTimestamp(*event.FinishedAt)
		model.FinishedAt = &finished
	}

	query, args, err := qb.UpsertModel("job_runs", model, []string{"run_id"}, "job_name", "week_key", "started_at")
	if err != nil {
		return fmt.Errorf("build upsert job run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("upsert job run run_id=%s status=%s: %w", runID, event.Status, err)
	}
	return nil
}

func (r *JobRunRepository) ListRuns(ctx context.Context, jobName string, limit int) ([]jobscheduler.RunEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	b := qb.Select("*").From("job_runs").OrderBy("started_at DESC").Limit(limit)
	if name := strings.TrimSpace(jobName); name != "" {
		b = b.Where(qb.Eq("job_name", name))
	}
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list job runs query: %w", err)
	}

	var rows []jobRunTableModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select job runs: %w", err)
	}

	out := make([]jobscheduler.RunEvent, 0, len(rows))
	for _, row := range rows {
		event := jobscheduler.RunEvent{
			RunID:     row.RunID,
			JobName:   row.JobName,
			Week:      row.WeekKey,
			Status:    jobscheduler.RunStatus(row.Status),
			Attempts:  row.Attempts,
			Detail:    unmarshalDetail(row.Detail),
			StartedAt: parseTimestamp(row.StartedAt),
		}
		if row.LastError != nil {
			event.ErrorMessage = *row.LastError
		}
		if row.FinishedAt != nil {
			finished := parseTimestamp(*row.FinishedAt)
			event.FinishedAt = &finished
		}
		out = append(out, event)
	}
	return out, nil
}

func marshalDetail(detail map[string]any) (string, error) {
	if len(detail) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(detail)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalDetail(raw string) map[string]any {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	_ = jsoniter.UnmarshalFromString(raw, &out)
	return out
}
