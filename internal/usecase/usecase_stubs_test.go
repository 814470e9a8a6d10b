package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	"github.com/riskibarqy/rando-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
)

type stubGenerator struct {
	mu    sync.Mutex
	calls []seed.Options
	errs  []error
}

func (g *stubGenerator) GenerateSeed(_ context.Context, opts seed.Options) (seed.Artifact, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, opts)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return seed.Artifact{}, err
		}
	}
	return seed.Artifact{
		SeedName:   opts.SeedName,
		Header:     opts.LogicMode + "|" + opts.SeedName,
		SpoilerURL: "https://orirando.com/spoiler/" + opts.SeedName,
		File:       []byte("seed " + opts.SeedName),
	}, nil
}

func (g *stubGenerator) Calls() []seed.Options {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]seed.Options(nil), g.calls...)
}

type stubNotifier struct {
	mu        sync.Mutex
	reminders []Reminder
	err       error
}

func (n *stubNotifier) Notify(_ context.Context, reminder Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.reminders = append(n.reminders, reminder)
	return nil
}

func (n *stubNotifier) Sent() []Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Reminder(nil), n.reminders...)
}

type fixture struct {
	clock      *leagueweek.Clock
	settings   *memory.SettingsRepository
	ledger     *memory.LedgerRepository
	runs       *memory.JobRunRepository
	generator  *stubGenerator
	notifier   *stubNotifier
	seeds      *SeedService
	reconciler *ReconcilerService
	league     *LeagueService
	scheduler  *WeekScheduler
	now        time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	clock, err := leagueweek.LoadClock("")
	if err != nil {
		t.Fatalf("load clock: %v", err)
	}

	f := &fixture{
		clock:     clock,
		settings:  memory.NewSettingsRepository(),
		ledger:    memory.NewLedgerRepository(),
		runs:      memory.NewJobRunRepository(),
		generator: &stubGenerator{},
		notifier:  &stubNotifier{},
		now:       now,
	}
	nowFn := func() time.Time { return f.now }
	logger := logging.NewNop()

	f.seeds = NewSeedService(f.settings, f.generator, clock, SeedServiceConfig{}, logger)
	f.seeds.now = nowFn
	f.reconciler = NewReconcilerService(f.ledger, f.notifier, logger)
	f.league = NewLeagueService(f.seeds, f.reconciler, f.ledger, clock, LeagueServiceConfig{ReadyTimeout: 50 * time.Millisecond}, logger)
	f.league.now = nowFn
	f.scheduler = NewWeekScheduler(f.league, f.seeds, f.reconciler, f.runs, clock, WeekSchedulerConfig{
		RetryBackoff: time.Minute,
		RetrySleep:   func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	}, logger)
	f.scheduler.now = nowFn
	return f
}

func eastern(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}
