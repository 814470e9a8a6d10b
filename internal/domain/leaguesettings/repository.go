package leaguesettings

import "context"

// Repository persists per-week league setting overrides.
type Repository interface {
	Set(ctx context.Context, date string, entries []Entry) error
	GetAll(ctx context.Context, date string) ([]Setting, error)
	Get(ctx context.Context, date, name string) (Setting, bool, error)
	Clear(ctx context.Context, date string) (int64, error)
}
