package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/riskibarqy/rando-league/internal/platform/resilience"
	"github.com/sourcegraph/conc"
)

type WeekSchedulerConfig struct {
	// FireDelay pushes the Friday refresh past the boundary so the new key is unambiguous.
	FireDelay    time.Duration
	RetryBackoff time.Duration
	RetrySleep   func(ctx context.Context, d time.Duration) error
}

type noopRunRepository struct{}

func (noopRunRepository) UpsertRun(context.Context, jobscheduler.RunEvent) error {
	return nil
}

func (noopRunRepository) ListRuns(context.Context, string, int) ([]jobscheduler.RunEvent, error) {
	return []jobscheduler.RunEvent{}, nil
}

type actionFunc func(ctx context.Context, event *jobscheduler.RunEvent) (jobscheduler.RunStatus, error)

type attemptFunc func(ctx context.Context, name string, fn func(ctx context.Context, attempt int) error) error

func singleAttempt(ctx context.Context, _ string, fn func(ctx context.Context, attempt int) error) error {
	return fn(ctx, 1)
}

// WeekScheduler fires the Friday week refresh and the Thursday reminder.
// Each action runs on a single timeline shared by timers and manual triggers.
type WeekScheduler struct {
	league     *LeagueService
	seeds      *SeedService
	reconciler *ReconcilerService
	runs       jobscheduler.Repository
	clock      *leagueweek.Clock
	retrier    *resilience.Retrier
	cfg        WeekSchedulerConfig
	logger     *logging.Logger
	now        func() time.Time
	wait       func(ctx context.Context, d time.Duration) error

	refreshMu  sync.Mutex
	reminderMu sync.Mutex
}

func NewWeekScheduler(
	league *LeagueService,
	seeds *SeedService,
	reconciler *ReconcilerService,
	runs jobscheduler.Repository,
	clock *leagueweek.Clock,
	cfg WeekSchedulerConfig,
	logger *logging.Logger,
) *WeekScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if runs == nil {
		runs = noopRunRepository{}
	}
	if cfg.FireDelay < 0 {
		cfg.FireDelay = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 120 * time.Second
	}

	s := &WeekScheduler{
		league:     league,
		seeds:      seeds,
		reconciler: reconciler,
		runs:       runs,
		clock:      clock,
		cfg:        cfg,
		logger:     logger.Named("scheduler"),
		now:        time.Now,
		wait:       resilience.SleepContext,
	}
	s.retrier = resilience.NewRetrier(cfg.RetryBackoff,
		resilience.WithRetryObserver(s.observeRetry),
		resilience.WithRetrySleep(cfg.RetrySleep),
	)
	return s
}

// Run performs the startup refresh and then blocks running both timers until
// ctx is done. A failed startup is retried every RetryBackoff until the league
// state is ready.
func (s *WeekScheduler) Run(ctx context.Context) error {
	var wg conc.WaitGroup
	if _, err := s.RunStartup(ctx); err != nil {
		s.logger.ErrorContext(ctx, "startup refresh failed", "error", err, "retry_in", s.cfg.RetryBackoff.String())
		wg.Go(func() { s.recoverStartup(ctx) })
	}

	wg.Go(func() { s.loop(ctx, jobscheduler.JobWeekRefresh, time.Friday, s.cfg.FireDelay, s.RunWeekRefresh) })
	wg.Go(func() { s.loop(ctx, jobscheduler.JobReminder, time.Thursday, 0, s.RunReminder) })
	wg.Wait()
	return nil
}

func (s *WeekScheduler) loop(
	ctx context.Context,
	job string,
	weekday time.Weekday,
	delay time.Duration,
	run func(ctx context.Context) (jobscheduler.RunEvent, error),
) {
	for {
		next := s.clock.NextOccurrence(s.now(), weekday, delay)
		s.logger.InfoContext(ctx, "job scheduled", "job", job, "next_run", next.Format(time.RFC3339))
		if err := s.wait(ctx, next.Sub(s.now())); err != nil {
			return
		}
		if _, err := run(ctx); err != nil && ctx.Err() != nil {
			return
		}
	}
}

func (s *WeekScheduler) recoverStartup(ctx context.Context) {
	for !s.league.Ready() {
		if err := s.wait(ctx, s.cfg.RetryBackoff); err != nil {
			return
		}
		if s.league.Ready() {
			return
		}
		if _, err := s.RunStartup(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.ErrorContext(ctx, "startup refresh failed", "error", err, "retry_in", s.cfg.RetryBackoff.String())
		}
	}
}

// RunStartup populates the league state and opens the readiness gate.
func (s *WeekScheduler) RunStartup(ctx context.Context) (jobscheduler.RunEvent, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	week := s.clock.KeyFor(s.now())
	return s.execute(ctx, jobscheduler.JobStartup, week, func(ctx context.Context, event *jobscheduler.RunEvent) (jobscheduler.RunStatus, error) {
		st, err := s.league.Refresh(ctx)
		if err != nil {
			return jobscheduler.StatusFailed, err
		}
		event.Detail = map[string]any{"season": st.Season, "seed_name": st.Artifact.SeedName}
		return jobscheduler.StatusSucceeded, nil
	})
}

// RunWeekRefresh closes the previous week and provisions the new one. When the
// closing week is extended nothing happens and the cached seed stays live.
// Runners are only marked DNF once the cached week has ended, so a manual
// refresh mid-week just regenerates the seed.
func (s *WeekScheduler) RunWeekRefresh(ctx context.Context) (jobscheduler.RunEvent, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	current := s.clock.KeyFor(s.now())
	closing := s.clock.Previous(current)
	return s.execute(ctx, jobscheduler.JobWeekRefresh, current, func(ctx context.Context, event *jobscheduler.RunEvent) (jobscheduler.RunStatus, error) {
		extend, err := s.seeds.ShouldExtendWeek(ctx, closing)
		if err != nil {
			return jobscheduler.StatusFailed, err
		}
		if extend {
			event.Detail = map[string]any{"reason": "week extended", "closing_week": string(closing)}
			return jobscheduler.StatusSkipped, nil
		}

		detail := map[string]any{}
		dnfWeek, season := closing, 0
		st, cached := s.league.Cached()
		if cached {
			dnfWeek, season = st.Week, st.Season
		}

		if cached && dnfWeek >= current {
			detail["dnf_skipped"] = "week still open"
		} else {
			if season == 0 {
				if season, err = s.reconciler.CurrentSeason(ctx); err != nil {
					return jobscheduler.StatusFailed, err
				}
			}
			dnf, err := s.reconciler.AutoDNF(ctx, season, dnfWeek)
			if err != nil {
				return jobscheduler.StatusFailed, err
			}
			detail["dnf_week"] = string(dnfWeek)
			detail["dnf_count"] = len(dnf)
		}

		st, err = s.league.Refresh(ctx)
		if err != nil {
			return jobscheduler.StatusFailed, err
		}
		detail["season"] = st.Season
		detail["seed_name"] = st.Artifact.SeedName
		event.Detail = detail
		return jobscheduler.StatusSucceeded, nil
	})
}

// RefreshActiveWeek regenerates the cached week's seed after its settings
// changed, in a single attempt. It reports false without doing anything when
// week is not the cached week.
func (s *WeekScheduler) RefreshActiveWeek(ctx context.Context, week leagueweek.Key) (bool, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	st, ok := s.league.Cached()
	if !ok || st.Week != week {
		return false, nil
	}
	_, err := s.run(ctx, singleAttempt, jobscheduler.JobSettingsRefresh, week, func(ctx context.Context, event *jobscheduler.RunEvent) (jobscheduler.RunStatus, error) {
		st, err := s.league.RefreshWeek(ctx, week)
		if err != nil {
			return jobscheduler.StatusFailed, err
		}
		event.Detail = map[string]any{"season": st.Season, "seed_name": st.Artifact.SeedName}
		return jobscheduler.StatusSucceeded, nil
	})
	return true, err
}

// RunReminder pings runners who have not submitted for the cached week. It is
// skipped when the week containing now carries over into the next one; the
// deadline announced is the end of the week containing now, which is the
// extended deadline when the cached week is older.
func (s *WeekScheduler) RunReminder(ctx context.Context) (jobscheduler.RunEvent, error) {
	s.reminderMu.Lock()
	defer s.reminderMu.Unlock()

	now := s.now()
	week := s.clock.KeyFor(now)
	return s.execute(ctx, jobscheduler.JobReminder, week, func(ctx context.Context, event *jobscheduler.RunEvent) (jobscheduler.RunStatus, error) {
		extend, err := s.seeds.ShouldExtend(ctx, now)
		if err != nil {
			return jobscheduler.StatusFailed, err
		}
		if extend {
			event.Detail = map[string]any{"reason": "week extended"}
			return jobscheduler.StatusSkipped, nil
		}

		st, ok := s.league.Cached()
		if !ok {
			return jobscheduler.StatusFailed, fmt.Errorf("%w: no cached league week", ErrNotReady)
		}
		event.Week = string(st.Week)

		reminder, sent, err := s.reconciler.Remind(ctx, st.Season, st.Week, s.clock.DeadlineOf(week))
		if err != nil {
			return jobscheduler.StatusFailed, err
		}
		if !sent {
			event.Detail = map[string]any{"reason": "nobody to remind"}
			return jobscheduler.StatusSkipped, nil
		}
		event.Detail = map[string]any{"missing_count": len(reminder.Missing)}
		return jobscheduler.StatusSucceeded, nil
	})
}

func (s *WeekScheduler) execute(ctx context.Context, job string, week leagueweek.Key, action actionFunc) (jobscheduler.RunEvent, error) {
	return s.run(ctx, s.retrier.Do, job, week, action)
}

func (s *WeekScheduler) run(ctx context.Context, attempts attemptFunc, job string, week leagueweek.Key, action actionFunc) (jobscheduler.RunEvent, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WeekScheduler."+job)
	defer span.End()

	event := jobscheduler.RunEvent{
		RunID:     uuid.NewString(),
		JobName:   job,
		Week:      string(week),
		Status:    jobscheduler.StatusRunning,
		StartedAt: s.now(),
	}

	err := attempts(ctx, job, func(ctx context.Context, attempt int) error {
		event.Attempts = attempt
		event.Status = jobscheduler.StatusRunning
		s.record(ctx, event)

		status, err := action(ctx, &event)
		if err != nil {
			event.ErrorMessage = err.Error()
			return err
		}
		event.Status = status
		event.ErrorMessage = ""
		return nil
	})

	finished := s.now()
	event.FinishedAt = &finished
	if err != nil {
		event.Status = jobscheduler.StatusFailed
		if errors.Is(err, resilience.ErrRetryAbandoned) {
			event.Status = jobscheduler.StatusAbandoned
		}
		event.ErrorMessage = err.Error()
		s.logger.ErrorContext(ctx, "job failed", "job", job, "run_id", event.RunID, "week", event.Week, "status", string(event.Status), "error", err)
	} else {
		s.logger.InfoContext(ctx, "job finished", "job", job, "run_id", event.RunID, "status", string(event.Status), "attempts", event.Attempts)
	}
	s.record(ctx, event)
	return event, err
}

func (s *WeekScheduler) record(ctx context.Context, event jobscheduler.RunEvent) {
	if err := s.runs.UpsertRun(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WarnContext(ctx, "record job run failed", "run_id", event.RunID, "error", err)
	}
}

func (s *WeekScheduler) observeRetry(ctx context.Context, t resilience.RetryTransition) {
	if t.Err != nil {
		s.logger.WarnContext(ctx, "job attempt failed", "job", t.Name, "attempt", t.Attempt, "from", string(t.From), "to", string(t.To), "error", t.Err)
		return
	}
	s.logger.DebugContext(ctx, "job state", "job", t.Name, "attempt", t.Attempt, "from", string(t.From), "to", string(t.To))
}
