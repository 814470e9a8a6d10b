package ledger

import "context"

// Repository reads and appends league spreadsheet data.
type Repository interface {
	WorksheetTitles(ctx context.Context) ([]string, error)
	Runners(ctx context.Context, season int) ([]string, error)
	Submissions(ctx context.Context, season int, week string) ([]Submission, error)
	Append(ctx context.Context, season int, submissions []Submission) error
}
