package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/rando-league/internal/domain/ledger"
)

// LedgerRepository keeps season rosters and submissions in memory.
type LedgerRepository struct {
	mu          sync.RWMutex
	rosters     map[int][]string
	submissions map[int][]ledger.Submission
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		rosters:     make(map[int][]string),
		submissions: make(map[int][]ledger.Submission),
	}
}

// SetRoster replaces the roster of a season, creating its tabs.
func (r *LedgerRepository) SetRoster(season int, runners ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rosters[season] = append([]string(nil), runners...)
	if _, ok := r.submissions[season]; !ok {
		r.submissions[season] = nil
	}
}

func (r *LedgerRepository) WorksheetTitles(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seasons := make([]int, 0, len(r.rosters))
	for season := range r.rosters {
		seasons = append(seasons, season)
	}
	sort.Ints(seasons)

	out := make([]string, 0, len(seasons)*2)
	for _, season := range seasons {
		out = append(out, ledger.RosterSheet(season), ledger.LedgerSheet(season))
	}
	return out, nil
}

func (r *LedgerRepository) Runners(_ context.Context, season int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster, ok := r.rosters[season]
	if !ok {
		return nil, fmt.Errorf("worksheet %q not found", ledger.RosterSheet(season))
	}
	return append([]string(nil), roster...), nil
}

func (r *LedgerRepository) Submissions(_ context.Context, season int, week string) ([]ledger.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, ok := r.submissions[season]
	if !ok {
		return nil, fmt.Errorf("worksheet %q not found", ledger.LedgerSheet(season))
	}
	out := make([]ledger.Submission, 0, len(rows))
	for _, row := range rows {
		if row.Week == week {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *LedgerRepository) Append(_ context.Context, season int, submissions []ledger.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.submissions[season]; !ok {
		return fmt.Errorf("worksheet %q not found", ledger.LedgerSheet(season))
	}
	r.submissions[season] = append(r.submissions[season], submissions...)
	return nil
}
