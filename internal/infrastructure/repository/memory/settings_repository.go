package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
)

type SettingsRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]string
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{items: make(map[string]map[string]string)}
}

func (r *SettingsRepository) Set(_ context.Context, date string, entries []leaguesettings.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	week, ok := r.items[date]
	if !ok {
		week = make(map[string]string, len(entries))
		r.items[date] = week
	}
	for _, e := range entries {
		week[e.Name] = e.Value
	}
	return nil
}

func (r *SettingsRepository) GetAll(_ context.Context, date string) ([]leaguesettings.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	week := r.items[date]
	out := make([]leaguesettings.Setting, 0, len(week))
	for name, value := range week {
		out = append(out, leaguesettings.Setting{Date: date, Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *SettingsRepository) Get(_ context.Context, date, name string) (leaguesettings.Setting, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.items[date][name]
	if !ok {
		return leaguesettings.Setting{}, false, nil
	}
	return leaguesettings.Setting{Date: date, Name: name, Value: value}, true, nil
}

func (r *SettingsRepository) Clear(_ context.Context, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.items[date]))
	delete(r.items, date)
	return n, nil
}
