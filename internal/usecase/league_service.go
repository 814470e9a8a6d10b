package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/domain/ledger"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	"github.com/riskibarqy/rando-league/internal/platform/cache"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

// LeagueState is the cached current-week state handed to runners.
type LeagueState struct {
	Week        leagueweek.Key
	Season      int
	Artifact    seed.Artifact
	RefreshedAt time.Time
}

type SubmitInput struct {
	Runner string
	Timer  string
	VOD    string
}

type SubmitResult struct {
	Week       leagueweek.Key
	Runner     string
	Time       string
	SpoilerURL string
}

type LeagueServiceConfig struct {
	ReadyTimeout time.Duration
}

type LeagueService struct {
	seeds        *SeedService
	reconciler   *ReconcilerService
	ledger       ledger.Repository
	clock        *leagueweek.Clock
	state        *cache.Snapshot[LeagueState]
	readyTimeout time.Duration
	logger       *logging.Logger
	now          func() time.Time
}

func NewLeagueService(
	seeds *SeedService,
	reconciler *ReconcilerService,
	ledgerRepo ledger.Repository,
	clock *leagueweek.Clock,
	cfg LeagueServiceConfig,
	logger *logging.Logger,
) *LeagueService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 10 * time.Second
	}
	return &LeagueService{
		seeds:        seeds,
		reconciler:   reconciler,
		ledger:       ledgerRepo,
		clock:        clock,
		state:        cache.NewSnapshot[LeagueState](),
		readyTimeout: cfg.ReadyTimeout,
		logger:       logger.Named("league"),
		now:          time.Now,
	}
}

func (s *LeagueService) Ready() bool {
	return s.state.Ready()
}

// Cached returns the last stored state without waiting.
func (s *LeagueService) Cached() (LeagueState, bool) {
	return s.state.Load()
}

// State waits for the first refresh, bounded by the ready timeout.
func (s *LeagueService) State(ctx context.Context) (LeagueState, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	defer cancel()

	st, err := s.state.Wait(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return LeagueState{}, ctx.Err()
		}
		return LeagueState{}, fmt.Errorf("%w: league seed is still being prepared", ErrNotReady)
	}
	return st, nil
}

// Refresh provisions the week containing now and caches it.
func (s *LeagueService) Refresh(ctx context.Context) (LeagueState, error) {
	return s.RefreshWeek(ctx, s.clock.KeyFor(s.now()))
}

// RefreshWeek loads the current season and provisions the week's seed
// concurrently, then replaces the cached state. The previous state is kept on
// failure.
func (s *LeagueService) RefreshWeek(ctx context.Context, week leagueweek.Key) (LeagueState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.RefreshWeek")
	defer span.End()

	now := s.now()

	var (
		season   int
		artifact seed.Artifact
	)
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		season, err = s.reconciler.CurrentSeason(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		artifact, err = s.seeds.Provision(ctx, week)
		return err
	})
	if err := p.Wait(); err != nil {
		return LeagueState{}, fmt.Errorf("refresh league state week=%s: %w", week, err)
	}

	st := LeagueState{
		Week:        week,
		Season:      season,
		Artifact:    artifact,
		RefreshedAt: now,
	}
	s.state.Store(st)
	s.logger.InfoContext(ctx, "league state refreshed", "week", week, "season", season, "seed_name", artifact.SeedName)
	return st, nil
}

// Seed returns the cached league seed.
func (s *LeagueService) Seed(ctx context.Context) (LeagueState, error) {
	return s.State(ctx)
}

// Submit records a runner's time for the cached league week. Two concurrent
// submissions from the same runner may both be recorded.
func (s *LeagueService) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Submit")
	defer span.End()

	runner := strings.TrimSpace(input.Runner)
	if runner == "" {
		return SubmitResult{}, fmt.Errorf("%w: runner name is required", ErrInvalidInput)
	}
	vod := strings.TrimSpace(input.VOD)
	if vod == "" {
		return SubmitResult{}, fmt.Errorf("%w: vod is required", ErrInvalidInput)
	}
	timer, err := ledger.ParseTimer(input.Timer)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	st, err := s.State(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	submitted, err := s.reconciler.Submissions(ctx, st.Season, st.Week)
	if err != nil {
		return SubmitResult{}, err
	}
	if submitted.Has(runner) {
		return SubmitResult{}, fmt.Errorf("%w: %s already submitted for week %s", ErrAlreadySubmitted, runner, st.Week)
	}

	row := ledger.Submission{
		Week:        string(st.Week),
		SubmittedAt: s.now().In(s.clock.Location()).Format(ledger.SubmittedAtLayout),
		Runner:      runner,
		Time:        timer,
		VOD:         vod,
	}
	if err := s.ledger.Append(ctx, st.Season, []ledger.Submission{row}); err != nil {
		return SubmitResult{}, fmt.Errorf("append submission week=%s runner=%s: %w", st.Week, runner, err)
	}

	s.logger.InfoContext(ctx, "submission recorded", "week", st.Week, "runner", runner, "time", timer)
	return SubmitResult{
		Week:       st.Week,
		Runner:     runner,
		Time:       timer,
		SpoilerURL: st.Artifact.SpoilerURL,
	}, nil
}

// IsUserError reports errors caused by the caller rather than a dependency.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotFound)
}
