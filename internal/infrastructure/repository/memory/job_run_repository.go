package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
)

type JobRunRepository struct {
	mu    sync.RWMutex
	items map[string]jobscheduler.RunEvent
}

func NewJobRunRepository() *JobRunRepository {
	return &JobRunRepository{items: make(map[string]jobscheduler.RunEvent)}
}

func (r *JobRunRepository) UpsertRun(_ context.Context, event jobscheduler.RunEvent) error {
	if strings.TrimSpace(event.RunID) == "" {
		return fmt.Errorf("run id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[event.RunID] = cloneRunEvent(event)
	return nil
}

func (r *JobRunRepository) ListRuns(_ context.Context, jobName string, limit int) ([]jobscheduler.RunEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobscheduler.RunEvent, 0, len(r.items))
	for _, item := range r.items {
		if jobName != "" && item.JobName != jobName {
			continue
		}
		out = append(out, cloneRunEvent(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRunEvent(event jobscheduler.RunEvent) jobscheduler.RunEvent {
	if event.Detail != nil {
		detail := make(map[string]any, len(event.Detail))
		for k, v := range event.Detail {
			detail[k] = v
		}
		event.Detail = detail
	}
	if event.FinishedAt != nil {
		finished := *event.FinishedAt
		event.FinishedAt = &finished
	}
	return event
}
