package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	leaguesettingsmock "github.com/riskibarqy/rando-league/internal/mocks/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func newSettingsServiceForTest(t *testing.T, repo leaguesettings.Repository, now time.Time) *SettingsService {
	t.Helper()
	clock, err := leagueweek.LoadClock("")
	if err != nil {
		t.Fatalf("load clock: %v", err)
	}
	svc := NewSettingsService(repo, clock, nil, logging.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestSettingsService_Set_NormalizesDateUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := leaguesettingsmock.NewRepository(t)
	svc := newSettingsServiceForTest(t, repo, time.Now())

	want := []leaguesettings.Entry{
		{Name: leaguesettings.NameLogicMode, Value: "Expert"},
		{Name: leaguesettings.NameVariation1, Value: "Extra Copies"},
	}
	repo.
		On("Set", mock.Anything, "2024-05-03", want).
		Return(nil).
		Once()

	change, err := svc.Set(ctx, "2024-05-07", []leaguesettings.Entry{
		{Name: leaguesettings.NameLogicMode, Value: " Expert "},
		{Name: leaguesettings.NameVariation1, Value: "Extra Copies"},
	})
	if err != nil {
		t.Fatalf("set settings: %v", err)
	}
	if change.Week != "2024-05-03" || change.Reprovisioned {
		t.Fatalf("unexpected change: %+v", change)
	}
}

func TestSettingsService_Set_RejectsUnknownValuesUsingMockery(t *testing.T) {
	t.Parallel()

	repo := leaguesettingsmock.NewRepository(t)
	svc := newSettingsServiceForTest(t, repo, time.Now())

	cases := [][]leaguesettings.Entry{
		{{Name: leaguesettings.NameLogicMode, Value: "Insane"}},
		{{Name: leaguesettings.NameRelicCount, Value: "12"}},
		{{Name: "difficulty", Value: "Hard"}},
		{},
	}
	for _, entries := range cases {
		if _, err := svc.Set(context.Background(), "", entries); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", entries, err)
		}
	}

	if _, err := svc.Set(context.Background(), "May 3rd", []leaguesettings.Entry{{Name: "spawn", Value: "Horu"}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}
}

func TestSettingsService_ViewAndClear_DefaultToCurrentWeekUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := leaguesettingsmock.NewRepository(t)
	svc := newSettingsServiceForTest(t, repo, time.Date(2024, 5, 8, 15, 0, 0, 0, time.UTC))

	repo.
		On("GetAll", mock.Anything, "2024-05-03").
		Return([]leaguesettings.Setting{{Date: "2024-05-03", Name: "spawn", Value: "Horu"}}, nil).
		Once()
	repo.
		On("Clear", mock.Anything, "2024-05-03").
		Return(int64(1), nil).
		Once()

	week, settings, err := svc.View(ctx, "")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if week != "2024-05-03" || len(settings) != 1 {
		t.Fatalf("unexpected view: %s %+v", week, settings)
	}

	change, err := svc.Clear(ctx, "")
	if err != nil || change.Removed != 1 {
		t.Fatalf("clear: change=%+v err=%v", change, err)
	}
}

func TestSettingsService_PropagatesRepositoryErrorUsingMockery(t *testing.T) {
	t.Parallel()

	repo := leaguesettingsmock.NewRepository(t)
	svc := newSettingsServiceForTest(t, repo, time.Now())
	boom := errors.New("db down")

	repo.On("GetAll", mock.Anything, "2024-05-03").Return(nil, boom).Once()

	if _, _, err := svc.View(context.Background(), "2024-05-03"); !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestSettingsService_RegeneratesLiveWeekSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := startedFixture(t)
	svc := NewSettingsService(f.settings, f.clock, f.scheduler, logging.NewNop())
	svc.now = func() time.Time { return f.now }

	change, err := svc.Set(ctx, "", []leaguesettings.Entry{{Name: leaguesettings.NameSeedName, Value: "42"}})
	if err != nil {
		t.Fatalf("set settings: %v", err)
	}
	if change.Week != "2024-05-03" || !change.Reprovisioned || change.ReprovisionErr != nil {
		t.Fatalf("unexpected change: %+v", change)
	}
	st, err := f.league.Seed(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if st.Artifact.SeedName != "42" || st.Week != "2024-05-03" {
		t.Fatalf("live seed = %s week=%s, want 42", st.Artifact.SeedName, st.Week)
	}

	change, err = svc.Clear(ctx, "")
	if err != nil || !change.Reprovisioned {
		t.Fatalf("clear: change=%+v err=%v", change, err)
	}
	st, _ = f.league.Seed(ctx)
	if st.Artifact.SeedName != seed.DeriveName("2024-05-03") {
		t.Fatalf("cleared live seed = %s", st.Artifact.SeedName)
	}

	runs, _ := f.runs.ListRuns(ctx, jobscheduler.JobSettingsRefresh, 10)
	if len(runs) != 2 || runs[0].Attempts != 1 {
		t.Fatalf("unexpected run history: %+v", runs)
	}
}

func TestSettingsService_LeavesOtherWeeksAlone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := startedFixture(t)
	svc := NewSettingsService(f.settings, f.clock, f.scheduler, logging.NewNop())
	svc.now = func() time.Time { return f.now }

	change, err := svc.Set(ctx, "2024-05-10", []leaguesettings.Entry{{Name: leaguesettings.NameSpawn, Value: "Horu"}})
	if err != nil {
		t.Fatalf("set settings: %v", err)
	}
	if change.Week != "2024-05-10" || change.Reprovisioned {
		t.Fatalf("unexpected change: %+v", change)
	}
	if len(f.generator.Calls()) != 1 {
		t.Fatalf("future week settings must not regenerate the live seed")
	}
}

func TestSettingsService_ReportsFailedRegeneration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := startedFixture(t)
	svc := NewSettingsService(f.settings, f.clock, f.scheduler, logging.NewNop())
	svc.now = func() time.Time { return f.now }
	boom := errors.New("orirando returned 502")
	f.generator.errs = []error{boom}

	change, err := svc.Set(ctx, "", []leaguesettings.Entry{{Name: leaguesettings.NameSeedName, Value: "42"}})
	if err != nil {
		t.Fatalf("stored change must succeed: %v", err)
	}
	if change.Reprovisioned || !errors.Is(change.ReprovisionErr, boom) {
		t.Fatalf("unexpected change: %+v", change)
	}
	if len(f.generator.Calls()) != 2 {
		t.Fatalf("regeneration must run a single attempt, got %d calls", len(f.generator.Calls()))
	}

	stored, ok, _ := f.settings.Get(ctx, "2024-05-03", leaguesettings.NameSeedName)
	if !ok || stored.Value != "42" {
		t.Fatalf("setting must be stored, got %+v ok=%v", stored, ok)
	}
	st, _ := f.league.Seed(ctx)
	if st.Artifact.SeedName != seed.DeriveName("2024-05-03") {
		t.Fatalf("failed regeneration must keep the previous seed, got %s", st.Artifact.SeedName)
	}
}
