package gsheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/rando-league/internal/domain/ledger"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"google.golang.org/api/option"
)

type fakeSheetsServer struct {
	mu       sync.Mutex
	appended [][]any
	query    string
	driveHit int
}

func (f *fakeSheetsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "application/json")
	path := r.URL.Path

	switch {
	case path == "/files":
		f.mu.Lock()
		f.driveHit++
		f.query = r.URL.Query().Get("q")
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"files":[{"id":"sheet-1","name":"Ori Rando League Leaderboard"}]}`))
	case strings.HasSuffix(path, ":append"):
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			http.Error(w, `{"error":{"code":400,"message":"bad input option"}}`, http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.appended = append(f.appended, body.Values...)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case strings.Contains(path, "/values/'S3 Names'"):
		_, _ = w.Write([]byte(`{"majorDimension":"COLUMNS","values":[["Runners","Name","Alice","","Bob"]]}`))
	case strings.Contains(path, "/values/'S3 Raw Data'"):
		_, _ = w.Write([]byte(`{"values":[
			["Week","Submitted","Runner","Time","VOD"],
			["2024-05-03","2024-05-04 10:00:00","Alice","01:00:00.000","https://vod/1"],
			["2024-04-26","n/a","Bob","DNF","n/a"],
			["2024-05-03","2024-05-05 10:00:00","Bob","01:10:00.000"]
		]}`))
	case strings.Contains(path, "/values/'S9 Names'"):
		http.Error(w, `{"error":{"code":400,"message":"Unable to parse range: 'S9 Names'!A:A"}}`, http.StatusBadRequest)
	case strings.HasPrefix(path, "/v4/spreadsheets/sheet-1"):
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"S2 Names"}},{"properties":{"title":"S3 Names"}},{"properties":{"title":"S3 Raw Data"}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestRepository(t *testing.T, spreadsheetID string) (*Repository, *fakeSheetsServer) {
	t.Helper()

	fake := &fakeSheetsServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	repo, err := New(context.Background(), Config{
		SpreadsheetID: spreadsheetID,
		Logger:        logging.NewNop(),
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithHTTPClient(srv.Client()),
			option.WithoutAuthentication(),
		},
	})
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo, fake
}

func TestRepository_WorksheetTitlesResolvesByTitle(t *testing.T) {
	t.Parallel()

	repo, fake := newTestRepository(t, "")
	titles, err := repo.WorksheetTitles(context.Background())
	if err != nil {
		t.Fatalf("worksheet titles: %v", err)
	}
	season, err := ledger.ParseSeason(titles)
	if err != nil || season != 3 {
		t.Fatalf("season = %d, err = %v", season, err)
	}

	if _, err := repo.WorksheetTitles(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.driveHit != 1 {
		t.Fatalf("spreadsheet lookup must be cached, drive hits=%d", fake.driveHit)
	}
	if !strings.Contains(fake.query, "Ori Rando League Leaderboard") {
		t.Fatalf("unexpected drive query %q", fake.query)
	}
}

func TestRepository_Runners(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t, "sheet-1")
	runners, err := repo.Runners(context.Background(), 3)
	if err != nil {
		t.Fatalf("runners: %v", err)
	}
	if len(runners) != 2 || runners[0] != "Alice" || runners[1] != "Bob" {
		t.Fatalf("unexpected runners: %v", runners)
	}
}

func TestRepository_RunnersMissingWorksheet(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t, "sheet-1")
	_, err := repo.Runners(context.Background(), 9)
	if !crerr.Is(err, ErrWorksheetNotFound) {
		t.Fatalf("expected worksheet not found, got %v", err)
	}
}

func TestRepository_SubmissionsFiltersWeek(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t, "sheet-1")
	subs, err := repo.Submissions(context.Background(), 3, "2024-05-03")
	if err != nil {
		t.Fatalf("submissions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %+v", subs)
	}
	set := ledger.NewRunnerSet(subs[0].Runner, subs[1].Runner)
	if !set.Has("Alice") || !set.Has("Bob") {
		t.Fatalf("unexpected runners: %+v", subs)
	}
	if subs[1].VOD != "" {
		t.Fatalf("short rows must yield empty cells, got %q", subs[1].VOD)
	}
}

func TestRepository_AppendUsesUserEntered(t *testing.T) {
	t.Parallel()

	repo, fake := newTestRepository(t, "sheet-1")
	err := repo.Append(context.Background(), 3, []ledger.Submission{
		ledger.DNFSubmission("2024-05-03", "Carol"),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.appended) != 1 {
		t.Fatalf("expected one appended row, got %v", fake.appended)
	}
	row := fake.appended[0]
	if row[2] != "Carol" || row[3] != "DNF" || row[1] != "n/a" {
		t.Fatalf("unexpected row: %v", row)
	}

}

func TestRepository_AppendEmptyIsNoop(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t, "sheet-1")
	if err := repo.Append(context.Background(), 3, nil); err != nil {
		t.Fatalf("empty append must be a no-op: %v", err)
	}
}

func TestRun_HonorsCallerContext(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t, "sheet-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := run(ctx, repo, "noop", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestQuoteRange(t *testing.T) {
	t.Parallel()

	if got := quoteRange("S3 Names", "A:A"); got != "'S3 Names'!A:A" {
		t.Fatalf("unexpected range %q", got)
	}
	if got := quoteRange("Rob's", ""); got != "'Rob''s'" {
		t.Fatalf("unexpected range %q", got)
	}
}

func TestRecordsForWeek_ResolvesColumnsByHeader(t *testing.T) {
	t.Parallel()

	values := [][]any{
		{"VOD", "Runner", "Time", "Week", "Submitted"},
		{"https://youtu.be/a", "Alice", "45:10", "2024-05-03", "2024-05-04 10:00:00"},
		{"https://youtu.be/b", "Bob", "50:00", "2024-04-26", "2024-04-27 10:00:00"},
	}
	got := recordsForWeek(values, "2024-05-03")
	want := []ledger.Submission{{
		Week:        "2024-05-03",
		SubmittedAt: "2024-05-04 10:00:00",
		Runner:      "Alice",
		Time:        "45:10",
		VOD:         "https://youtu.be/a",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("records = %+v, want %+v", got, want)
	}

	missing := recordsForWeek([][]any{{"Week", "Runner"}, {"2024-05-03", "Alice"}}, "2024-05-03")
	if len(missing) != 1 || missing[0].Time != "" || missing[0].VOD != "" || missing[0].SubmittedAt != "" {
		t.Fatalf("absent columns must read empty, got %+v", missing)
	}
}
