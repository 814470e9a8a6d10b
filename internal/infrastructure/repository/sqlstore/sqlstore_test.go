package sqlstore

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/rando-league/db"
	"github.com/riskibarqy/rando-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	files, err := fs.Glob(db.Migrations, path.Join(db.MigrationsDir, "*.up.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	sort.Strings(files)
	for _, file := range files {
		raw, err := fs.ReadFile(db.Migrations, file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		for _, stmt := range strings.Split(string(raw), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := conn.Exec(stmt); err != nil {
				t.Fatalf("apply %s: %v", file, err)
			}
		}
	}
	return conn
}

func TestSettingsRepository_UpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSettingsRepository(newTestDB(t))

	entries := []leaguesettings.Entry{
		{Name: leaguesettings.NameLogicMode, Value: "Expert"},
		{Name: leaguesettings.NameSeedName, Value: "42"},
	}
	for i := 0; i < 2; i++ {
		if err := repo.Set(ctx, "2024-05-03", entries); err != nil {
			t.Fatalf("set #%d: %v", i+1, err)
		}
	}

	got, err := repo.GetAll(ctx, "2024-05-03")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 settings, got %+v", got)
	}
	if got[0].Name != leaguesettings.NameLogicMode || got[1].Name != leaguesettings.NameSeedName {
		t.Fatalf("settings must be ordered by name: %+v", got)
	}
}

func TestSettingsRepository_LastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSettingsRepository(newTestDB(t))

	if err := repo.Set(ctx, "2024-05-03", []leaguesettings.Entry{{Name: "spawn", Value: "Glades"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "2024-05-03", []leaguesettings.Entry{{Name: "spawn", Value: "Horu"}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := repo.Get(ctx, "2024-05-03", "spawn")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Value != "Horu" {
		t.Fatalf("value = %q, want Horu", got.Value)
	}

	if _, ok, err := repo.Get(ctx, "2024-05-10", "spawn"); err != nil || ok {
		t.Fatalf("expected no setting for other date: ok=%v err=%v", ok, err)
	}
}

func TestSettingsRepository_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSettingsRepository(newTestDB(t))

	_ = repo.Set(ctx, "2024-05-03", []leaguesettings.Entry{{Name: "spawn", Value: "Horu"}, {Name: "key_mode", Value: "Shards"}})
	_ = repo.Set(ctx, "2024-05-10", []leaguesettings.Entry{{Name: "spawn", Value: "Grove"}})

	n, err := repo.Clear(ctx, "2024-05-03")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("cleared %d rows, want 2", n)
	}

	got, err := repo.GetAll(ctx, "2024-05-03")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty settings, got %+v", got)
	}
	other, _ := repo.GetAll(ctx, "2024-05-10")
	if len(other) != 1 {
		t.Fatalf("other week must be untouched, got %+v", other)
	}
}

func TestJobRunRepository_UpsertAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewJobRunRepository(newTestDB(t))
	started := time.Date(2024, 5, 4, 1, 0, 30, 0, time.UTC)

	event := jobscheduler.RunEvent{
		RunID:     "run-1",
		JobName:   jobscheduler.JobWeekRefresh,
		Week:      "2024-05-03",
		Status:    jobscheduler.StatusRunning,
		Attempts:  1,
		StartedAt: started,
	}
	if err := repo.UpsertRun(ctx, event); err != nil {
		t.Fatalf("upsert running: %v", err)
	}

	finished := started.Add(2 * time.Minute)
	event.Status = jobscheduler.StatusSucceeded
	event.Attempts = 2
	event.Detail = map[string]any{"dnf_count": 3}
	event.FinishedAt = &finished
	if err := repo.UpsertRun(ctx, event); err != nil {
		t.Fatalf("upsert succeeded: %v", err)
	}

	if err := repo.UpsertRun(ctx, jobscheduler.RunEvent{
		RunID:     "run-2",
		JobName:   jobscheduler.JobReminder,
		Status:    jobscheduler.StatusSkipped,
		StartedAt: started.Add(time.Hour),
	}); err != nil {
		t.Fatalf("upsert reminder: %v", err)
	}

	runs, err := repo.ListRuns(ctx, jobscheduler.JobWeekRefresh, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one week refresh run, got %d", len(runs))
	}
	got := runs[0]
	if got.Status != jobscheduler.StatusSucceeded || got.Attempts != 2 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Fatalf("unexpected finished at: %v", got.FinishedAt)
	}
	if got.Detail["dnf_count"] != float64(3) {
		t.Fatalf("unexpected detail: %+v", got.Detail)
	}

	all, err := repo.ListRuns(ctx, "", 10)
	if err != nil {
		t.Fatalf("list all runs: %v", err)
	}
	if len(all) != 2 || all[0].RunID != "run-2" {
		t.Fatalf("runs must be newest first: %+v", all)
	}
}

func TestJobRunRepository_RequiresRunID(t *testing.T) {
	t.Parallel()

	repo := NewJobRunRepository(newTestDB(t))
	if err := repo.UpsertRun(context.Background(), jobscheduler.RunEvent{}); err == nil {
		t.Fatalf("expected error for missing run id")
	}
}
