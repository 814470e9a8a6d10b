package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/domain/ledger"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
)

// Reminder is sent to runners who have not submitted before the deadline.
type Reminder struct {
	Week     leagueweek.Key
	Deadline time.Time
	Missing  []string
}

type Notifier interface {
	Notify(ctx context.Context, reminder Reminder) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Reminder) error {
	return nil
}

// ReconcilerService compares the season roster with the ledger.
type ReconcilerService struct {
	ledger   ledger.Repository
	notifier Notifier
	logger   *logging.Logger
}

func NewReconcilerService(
	ledgerRepo ledger.Repository,
	notifier Notifier,
	logger *logging.Logger,
) *ReconcilerService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcilerService{
		ledger:   ledgerRepo,
		notifier: notifier,
		logger:   logger.Named("reconciler"),
	}
}

func (s *ReconcilerService) CurrentSeason(ctx context.Context) (int, error) {
	titles, err := s.ledger.WorksheetTitles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list worksheets: %w", err)
	}
	season, err := ledger.ParseSeason(titles)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return season, nil
}

func (s *ReconcilerService) Runners(ctx context.Context, season int) (ledger.RunnerSet, error) {
	names, err := s.ledger.Runners(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("read roster season=%d: %w", season, err)
	}
	return ledger.NewRunnerSet(names...), nil
}

func (s *ReconcilerService) Submissions(ctx context.Context, season int, week leagueweek.Key) (ledger.RunnerSet, error) {
	rows, err := s.ledger.Submissions(ctx, season, string(week))
	if err != nil {
		return nil, fmt.Errorf("read submissions season=%d week=%s: %w", season, week, err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Runner)
	}
	return ledger.NewRunnerSet(names...), nil
}

// Missing lists roster runners without a submission for the week, sorted.
func (s *ReconcilerService) Missing(ctx context.Context, season int, week leagueweek.Key) ([]string, error) {
	submitted, err := s.Submissions(ctx, season, week)
	if err != nil {
		return nil, err
	}
	return s.missingGiven(ctx, season, submitted)
}

func (s *ReconcilerService) missingGiven(ctx context.Context, season int, submitted ledger.RunnerSet) ([]string, error) {
	roster, err := s.Runners(ctx, season)
	if err != nil {
		return nil, err
	}
	return roster.Minus(submitted), nil
}

// AutoDNF appends a DNF row for every missing runner. A week with no
// submissions at all is left untouched. Callers must not run it concurrently
// for the same week.
func (s *ReconcilerService) AutoDNF(ctx context.Context, season int, week leagueweek.Key) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcilerService.AutoDNF")
	defer span.End()

	submitted, err := s.Submissions(ctx, season, week)
	if err != nil {
		return nil, err
	}
	if len(submitted) == 0 {
		s.logger.InfoContext(ctx, "auto dnf skipped, no submissions", "season", season, "week", week)
		return nil, nil
	}

	missing, err := s.missingGiven(ctx, season, submitted)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return nil, nil
	}

	rows := make([]ledger.Submission, 0, len(missing))
	for _, runner := range missing {
		rows = append(rows, ledger.DNFSubmission(string(week), runner))
	}
	if err := s.ledger.Append(ctx, season, rows); err != nil {
		return nil, fmt.Errorf("append dnf rows season=%d week=%s: %w", season, week, err)
	}

	s.logger.InfoContext(ctx, "auto dnf appended", "season", season, "week", week, "runners", missing)
	return missing, nil
}

// Remind notifies runners missing from the week's submissions that the
// deadline is near. It reports whether a reminder was sent. Whether a reminder
// is due at all is the caller's decision.
func (s *ReconcilerService) Remind(ctx context.Context, season int, week leagueweek.Key, deadline time.Time) (Reminder, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcilerService.Remind")
	defer span.End()

	submitted, err := s.Submissions(ctx, season, week)
	if err != nil {
		return Reminder{}, false, err
	}
	if len(submitted) == 0 {
		s.logger.InfoContext(ctx, "reminder skipped, no submissions", "week", week)
		return Reminder{}, false, nil
	}

	missing, err := s.missingGiven(ctx, season, submitted)
	if err != nil {
		return Reminder{}, false, err
	}
	if len(missing) == 0 {
		return Reminder{}, false, nil
	}

	reminder := Reminder{
		Week:     week,
		Deadline: deadline,
		Missing:  missing,
	}
	if err := s.notifier.Notify(ctx, reminder); err != nil {
		return Reminder{}, false, fmt.Errorf("%w: send reminder: %v", ErrDependencyUnavailable, err)
	}
	s.logger.InfoContext(ctx, "reminder sent", "week", week, "missing", missing)
	return reminder, true, nil
}
