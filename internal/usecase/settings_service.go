package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
)

// ActiveWeekRefresher regenerates the live league seed. It reports false when
// week is not the live week.
type ActiveWeekRefresher interface {
	RefreshActiveWeek(ctx context.Context, week leagueweek.Key) (bool, error)
}

// SettingsChange describes a stored settings update. Reprovisioned is set when
// the update hit the live week and its seed was regenerated; ReprovisionErr
// holds the failure when regeneration was attempted and failed. The stored
// change stands either way.
type SettingsChange struct {
	Week           leagueweek.Key
	Removed        int64
	Reprovisioned  bool
	ReprovisionErr error
}

type SettingsService struct {
	repo      leaguesettings.Repository
	clock     *leagueweek.Clock
	refresher ActiveWeekRefresher
	logger    *logging.Logger
	now       func() time.Time
}

func NewSettingsService(
	repo leaguesettings.Repository,
	clock *leagueweek.Clock,
	refresher ActiveWeekRefresher,
	logger *logging.Logger,
) *SettingsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SettingsService{
		repo:      repo,
		clock:     clock,
		refresher: refresher,
		logger:    logger.Named("settings"),
		now:       time.Now,
	}
}

// ResolveWeek maps an optional YYYY-MM-DD date to a week key. An empty date
// means the current week.
func (s *SettingsService) ResolveWeek(date string) (leagueweek.Key, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.clock.KeyFor(s.now()), nil
	}
	key, err := s.clock.KeyForDate(date)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return key, nil
}

// Set stores settings for the week containing date and regenerates the live
// seed when that week is the live one.
func (s *SettingsService) Set(ctx context.Context, date string, entries []leaguesettings.Entry) (SettingsChange, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettingsService.Set")
	defer span.End()

	week, err := s.ResolveWeek(date)
	if err != nil {
		return SettingsChange{}, err
	}
	if len(entries) == 0 {
		return SettingsChange{}, fmt.Errorf("%w: at least one setting is required", ErrInvalidInput)
	}

	normalized := make([]leaguesettings.Entry, 0, len(entries))
	for _, e := range entries {
		e.Value = strings.TrimSpace(e.Value)
		if err := ValidateSetting(e); err != nil {
			return SettingsChange{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		normalized = append(normalized, e)
	}

	if err := s.repo.Set(ctx, string(week), normalized); err != nil {
		return SettingsChange{}, fmt.Errorf("store settings week=%s: %w", week, err)
	}
	s.logger.InfoContext(ctx, "league settings updated", "week", week, "count", len(normalized))
	return s.reprovision(ctx, SettingsChange{Week: week}), nil
}

func (s *SettingsService) View(ctx context.Context, date string) (leagueweek.Key, []leaguesettings.Setting, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettingsService.View")
	defer span.End()

	week, err := s.ResolveWeek(date)
	if err != nil {
		return "", nil, err
	}
	settings, err := s.repo.GetAll(ctx, string(week))
	if err != nil {
		return "", nil, fmt.Errorf("read settings week=%s: %w", week, err)
	}
	return week, settings, nil
}

func (s *SettingsService) Clear(ctx context.Context, date string) (SettingsChange, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettingsService.Clear")
	defer span.End()

	week, err := s.ResolveWeek(date)
	if err != nil {
		return SettingsChange{}, err
	}
	n, err := s.repo.Clear(ctx, string(week))
	if err != nil {
		return SettingsChange{}, fmt.Errorf("clear settings week=%s: %w", week, err)
	}
	s.logger.InfoContext(ctx, "league settings cleared", "week", week, "count", n)
	return s.reprovision(ctx, SettingsChange{Week: week, Removed: n}), nil
}

func (s *SettingsService) reprovision(ctx context.Context, change SettingsChange) SettingsChange {
	if s.refresher == nil {
		return change
	}
	refreshed, err := s.refresher.RefreshActiveWeek(ctx, change.Week)
	if err != nil {
		s.logger.ErrorContext(ctx, "regenerate live seed failed", "week", change.Week, "error", err)
		change.ReprovisionErr = err
		return change
	}
	change.Reprovisioned = refreshed
	return change
}

// ValidateSetting checks a setting value against the seed catalog.
func ValidateSetting(e leaguesettings.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	switch {
	case e.Name == leaguesettings.NameLogicMode:
		return oneOf(e, seed.LogicModes)
	case e.Name == leaguesettings.NameKeyMode:
		return oneOf(e, seed.KeyModeOrder)
	case e.Name == leaguesettings.NameGoalMode:
		return oneOf(e, seed.GoalModeOrder)
	case e.Name == leaguesettings.NameSpawn:
		return oneOf(e, seed.Spawns)
	case e.Name == leaguesettings.NameItemPool:
		return oneOf(e, seed.ItemPools)
	case leaguesettings.IsVariation(e.Name):
		return oneOf(e, seed.VariationOrder)
	case e.Name == leaguesettings.NameRelicCount:
		n, err := strconv.Atoi(e.Value)
		if err != nil || n < seed.MinRelicCount || n > seed.MaxRelicCount {
			return fmt.Errorf("relic_count must be between %d and %d", seed.MinRelicCount, seed.MaxRelicCount)
		}
	}
	return nil
}

func oneOf(e leaguesettings.Entry, allowed []string) error {
	for _, v := range allowed {
		if v == e.Value {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s", e.Name, strings.Join(allowed, ", "))
}
