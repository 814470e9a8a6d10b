package jobscheduler

import "context"

type Repository interface {
	UpsertRun(ctx context.Context, event RunEvent) error
	ListRuns(ctx context.Context, jobName string, limit int) ([]RunEvent, error)
}
