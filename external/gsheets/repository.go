// Package gsheets reads and appends the league ledger in a Google spreadsheet.
package gsheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/rando-league/internal/domain/ledger"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/riskibarqy/rando-league/internal/usecase"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	DefaultSpreadsheetTitle = "Ori Rando League Leaderboard"

	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	valueInputOption    = "USER_ENTERED"
	rosterHeaderRows    = 2
)

var (
	ErrSpreadsheetNotFound = crerr.New("spreadsheet not found")
	ErrWorksheetNotFound   = crerr.New("worksheet not found")
	errPoolClosed          = crerr.New("sheets worker pool is closed")
)

type Config struct {
	CredentialsFile  string
	SpreadsheetID    string
	SpreadsheetTitle string
	Workers          int
	Timeout          time.Duration
	Logger           *logging.Logger
	// ClientOptions replace the credentials file option when set.
	ClientOptions []option.ClientOption
}

type Repository struct {
	sheets  *sheets.Service
	drive   *drive.Service
	pool    *ants.Pool
	logger  *logging.Logger
	timeout time.Duration
	title   string

	mu            sync.Mutex
	spreadsheetID string
}

func New(ctx context.Context, cfg Config) (*Repository, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	opts := cfg.ClientOptions
	if len(opts) == 0 {
		if strings.TrimSpace(cfg.CredentialsFile) == "" {
			return nil, fmt.Errorf("google credentials file is required")
		}
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope),
		}
	}

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create sheets worker pool: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	title := strings.TrimSpace(cfg.SpreadsheetTitle)
	if title == "" {
		title = DefaultSpreadsheetTitle
	}

	return &Repository{
		sheets:        sheetsSvc,
		drive:         driveSvc,
		pool:          pool,
		logger:        logger.Named("gsheets"),
		timeout:       timeout,
		title:         title,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
	}, nil
}

func (r *Repository) Close() {
	r.pool.Release()
}

func (r *Repository) WorksheetTitles(ctx context.Context) ([]string, error) {
	return run(ctx, r, "list worksheets", func(ctx context.Context) ([]string, error) {
		id, err := r.resolveSpreadsheetID(ctx)
		if err != nil {
			return nil, err
		}
		doc, err := r.sheets.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(doc.Sheets))
		for _, s := range doc.Sheets {
			if s.Properties != nil {
				out = append(out, s.Properties.Title)
			}
		}
		return out, nil
	})
}

func (r *Repository) Runners(ctx context.Context, season int) ([]string, error) {
	sheet := ledger.RosterSheet(season)
	return run(ctx, r, "read roster", func(ctx context.Context) ([]string, error) {
		id, err := r.resolveSpreadsheetID(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := r.sheets.Spreadsheets.Values.Get(id, quoteRange(sheet, "A:A")).
			MajorDimension("COLUMNS").
			Context(ctx).
			Do()
		if err != nil {
			return nil, wrapRangeError(err, sheet)
		}
		if len(resp.Values) == 0 {
			return []string{}, nil
		}
		column := resp.Values[0]
		if len(column) <= rosterHeaderRows {
			return []string{}, nil
		}
		out := make([]string, 0, len(column)-rosterHeaderRows)
		for _, cell := range column[rosterHeaderRows:] {
			name := strings.TrimSpace(cellString(cell))
			if name != "" {
				out = append(out, name)
			}
		}
		return out, nil
	})
}

func (r *Repository) Submissions(ctx context.Context, season int, week string) ([]ledger.Submission, error) {
	sheet := ledger.LedgerSheet(season)
	return run(ctx, r, "read ledger", func(ctx context.Context) ([]ledger.Submission, error) {
		id, err := r.resolveSpreadsheetID(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := r.sheets.Spreadsheets.Values.Get(id, quoteRange(sheet, "")).Context(ctx).Do()
		if err != nil {
			return nil, wrapRangeError(err, sheet)
		}
		return recordsForWeek(resp.Values, week), nil
	})
}

func (r *Repository) Append(ctx context.Context, season int, submissions []ledger.Submission) error {
	if len(submissions) == 0 {
		return nil
	}
	sheet := ledger.LedgerSheet(season)
	_, err := run(ctx, r, "append ledger", func(ctx context.Context) (struct{}, error) {
		id, err := r.resolveSpreadsheetID(ctx)
		if err != nil {
			return struct{}{}, err
		}
		rows := make([][]any, 0, len(submissions))
		for _, s := range submissions {
			rows = append(rows, s.Row())
		}
		_, err = r.sheets.Spreadsheets.Values.Append(id, quoteRange(sheet, ""), &sheets.ValueRange{Values: rows}).
			ValueInputOption(valueInputOption).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		if err != nil {
			return struct{}{}, wrapRangeError(err, sheet)
		}
		return struct{}{}, nil
	})
	return err
}

func (r *Repository) resolveSpreadsheetID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spreadsheetID != "" {
		return r.spreadsheetID, nil
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(r.title, "'", `\'`), spreadsheetMimeType)
	list, err := r.drive.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search spreadsheet %q: %w", r.title, err)
	}
	if len(list.Files) == 0 {
		return "", crerr.Wrapf(ErrSpreadsheetNotFound, "title=%q", r.title)
	}
	r.spreadsheetID = list.Files[0].Id
	r.logger.InfoContext(ctx, "spreadsheet resolved", "title", r.title, "spreadsheet_id", r.spreadsheetID)
	return r.spreadsheetID, nil
}

// run executes fn on the worker pool and waits for its result.
func run[T any](ctx context.Context, r *Repository, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	type result struct {
		val T
		err error
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan result, 1)
	if err := r.pool.Submit(func() {
		val, err := fn(callCtx)
		done <- result{val: val, err: err}
	}); err != nil {
		return zero, fmt.Errorf("%w: %s: %v", usecase.ErrDependencyUnavailable, op, crerr.CombineErrors(errPoolClosed, err))
	}

	select {
	case res := <-done:
		if res.err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			r.logger.WarnContext(ctx, "sheets call failed", "op", op, "error", res.err)
			if crerr.Is(res.err, ErrWorksheetNotFound) || crerr.Is(res.err, ErrSpreadsheetNotFound) {
				return zero, fmt.Errorf("%s: %w", op, res.err)
			}
			return zero, fmt.Errorf("%w: %s: %v", usecase.ErrDependencyUnavailable, op, res.err)
		}
		return res.val, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func recordsForWeek(values [][]any, week string) []ledger.Submission {
	if len(values) == 0 {
		return []ledger.Submission{}
	}

	header := make(map[string]int, len(values[0]))
	for i, cell := range values[0] {
		header[strings.TrimSpace(cellString(cell))] = i
	}
	weekIdx, ok := header[ledger.WeekColumn]
	if !ok {
		return []ledger.Submission{}
	}
	runnerIdx, ok := header[ledger.RunnerColumn]
	if !ok {
		return []ledger.Submission{}
	}

	// Optional columns read as empty when absent.
	optional := func(name string) int {
		if idx, ok := header[name]; ok {
			return idx
		}
		return -1
	}
	submittedIdx := optional(ledger.SubmittedAtColumn)
	timeIdx := optional(ledger.TimeColumn)
	vodIdx := optional(ledger.VODColumn)

	out := make([]ledger.Submission, 0)
	for _, row := range values[1:] {
		if strings.TrimSpace(cellAt(row, weekIdx)) != week {
			continue
		}
		out = append(out, ledger.Submission{
			Week:        week,
			SubmittedAt: cellAt(row, submittedIdx),
			Runner:      strings.TrimSpace(cellAt(row, runnerIdx)),
			Time:        cellAt(row, timeIdx),
			VOD:         cellAt(row, vodIdx),
		})
	}
	return out
}

func cellAt(row []any, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cellString(row[idx])
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func quoteRange(sheet, cells string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}

func wrapRangeError(err error, sheet string) error {
	if strings.Contains(err.Error(), "Unable to parse range") {
		return crerr.Wrapf(ErrWorksheetNotFound, "%s", sheet)
	}
	return err
}
