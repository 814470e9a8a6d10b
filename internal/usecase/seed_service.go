package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	"github.com/riskibarqy/rando-league/internal/platform/cache"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
)

const DefaultDailyTimezone = "America/Los_Angeles"

type SeedServiceConfig struct {
	DailyLocation *time.Location
	DailyCacheTTL time.Duration
}

// SeedService derives league seed names and provisions seeds from the
// generator.
type SeedService struct {
	settings  leaguesettings.Repository
	generator seed.Generator
	clock     *leagueweek.Clock
	daily     *cache.Store[seed.Artifact]
	dailyLoc  *time.Location
	logger    *logging.Logger
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewSeedService(
	settings leaguesettings.Repository,
	generator seed.Generator,
	clock *leagueweek.Clock,
	cfg SeedServiceConfig,
	logger *logging.Logger,
) *SeedService {
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.DailyLocation
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultDailyTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	ttl := cfg.DailyCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &SeedService{
		settings:  settings,
		generator: generator,
		clock:     clock,
		daily:     cache.NewStore[seed.Artifact](ttl),
		dailyLoc:  loc,
		logger:    logger.Named("seed"),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DeriveSeedName returns the stored seed_name override for the week, or the
// deterministic name derived from the key.
func (s *SeedService) DeriveSeedName(ctx context.Context, week leagueweek.Key) (string, error) {
	stored, ok, err := s.settings.Get(ctx, string(week), leaguesettings.NameSeedName)
	if err != nil {
		return "", fmt.Errorf("read seed_name week=%s: %w", week, err)
	}
	if ok {
		if name := strings.TrimSpace(stored.Value); name != "" {
			return name, nil
		}
	}
	return seed.DeriveName(string(week)), nil
}

// ShouldExtendWeek reports whether the week's seed carries over into the
// next week: the next week's stored seed_name equals this week's name.
func (s *SeedService) ShouldExtendWeek(ctx context.Context, week leagueweek.Key) (bool, error) {
	next, ok, err := s.settings.Get(ctx, string(s.clock.Next(week)), leaguesettings.NameSeedName)
	if err != nil {
		return false, fmt.Errorf("read next seed_name week=%s: %w", week, err)
	}
	if !ok || strings.TrimSpace(next.Value) == "" {
		return false, nil
	}

	current, err := s.DeriveSeedName(ctx, week)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(next.Value) == current, nil
}

func (s *SeedService) ShouldExtend(ctx context.Context, now time.Time) (bool, error) {
	return s.ShouldExtendWeek(ctx, s.clock.KeyFor(now))
}

// LeagueOptions assembles the defaulted seed options for a week.
func (s *SeedService) LeagueOptions(ctx context.Context, week leagueweek.Key) (seed.Options, error) {
	settings, err := s.settings.GetAll(ctx, string(week))
	if err != nil {
		return seed.Options{}, fmt.Errorf("read settings week=%s: %w", week, err)
	}

	opts := seed.Options{}
	for _, setting := range settings {
		value := strings.TrimSpace(setting.Value)
		switch {
		case leaguesettings.IsVariation(setting.Name):
			if value != "" {
				opts.Variations = append(opts.Variations, value)
			}
		case setting.Name == leaguesettings.NameLogicMode:
			opts.LogicMode = value
		case setting.Name == leaguesettings.NameKeyMode:
			opts.KeyMode = value
		case setting.Name == leaguesettings.NameGoalMode:
			opts.GoalMode = value
		case setting.Name == leaguesettings.NameSpawn:
			opts.Spawn = value
		case setting.Name == leaguesettings.NameItemPool:
			opts.ItemPool = value
		case setting.Name == leaguesettings.NameSeedName:
			opts.SeedName = value
		case setting.Name == leaguesettings.NameRelicCount:
			n, err := strconv.Atoi(value)
			if err != nil {
				return seed.Options{}, fmt.Errorf("relic_count %q is not a number", value)
			}
			opts.RelicCount = n
		}
	}
	if opts.SeedName == "" {
		opts.SeedName = seed.DeriveName(string(week))
	}
	return opts.WithDefaults(), nil
}

// Provision generates the league seed for a week. Failures are not retried
// here and no stale artifact is substituted.
func (s *SeedService) Provision(ctx context.Context, week leagueweek.Key) (seed.Artifact, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeedService.Provision")
	defer span.End()

	opts, err := s.LeagueOptions(ctx, week)
	if err != nil {
		return seed.Artifact{}, fmt.Errorf("%w: %w", ErrSeedProvisioning, err)
	}
	if err := opts.Validate(); err != nil {
		return seed.Artifact{}, fmt.Errorf("%w: invalid settings for week %s: %v", ErrSeedProvisioning, week, err)
	}

	artifact, err := s.generator.GenerateSeed(ctx, opts)
	if err != nil {
		return seed.Artifact{}, fmt.Errorf("%w: generate seed week=%s: %w", ErrSeedProvisioning, week, err)
	}
	s.logger.InfoContext(ctx, "league seed provisioned", "week", week, "seed_name", artifact.SeedName, "header", artifact.Header)
	return artifact, nil
}

// Generate builds a one-off seed. A random name is used when none is given.
func (s *SeedService) Generate(ctx context.Context, opts seed.Options) (seed.Artifact, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeedService.Generate")
	defer span.End()

	opts.SeedName = strings.TrimSpace(opts.SeedName)
	if opts.SeedName == "" {
		s.rngMu.Lock()
		opts.SeedName = seed.RandomName(s.rng)
		s.rngMu.Unlock()
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return seed.Artifact{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	artifact, err := s.generator.GenerateSeed(ctx, opts)
	if err != nil {
		return seed.Artifact{}, fmt.Errorf("%w: %w", ErrSeedProvisioning, err)
	}
	return artifact, nil
}

// Daily builds the seed of the day. The name is today's date in the daily
// time zone and results are cached per date and option set.
func (s *SeedService) Daily(ctx context.Context, opts seed.Options) (seed.Artifact, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeedService.Daily")
	defer span.End()

	today := s.now().In(s.dailyLoc).Format("2006-01-02")
	opts.SeedName = today
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return seed.Artifact{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := "daily:" + today + ":" + opts.Fingerprint()
	artifact, err := s.daily.GetOrLoad(ctx, key, func(ctx context.Context) (seed.Artifact, error) {
		return s.generator.GenerateSeed(ctx, opts)
	})
	if err != nil {
		return seed.Artifact{}, fmt.Errorf("%w: %w", ErrSeedProvisioning, err)
	}
	return artifact, nil
}
