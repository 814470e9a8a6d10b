// Package sqlstore implements repositories on sqlx for sqlite and postgres.
package sqlstore

import (
	"database/sql"
	"errors"
	"time"
)

const timestampLayout = time.RFC3339Nano

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
