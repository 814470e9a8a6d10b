package app

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// dbTarget describes where settings and job runs live. A memory target keeps
// both in process.
type dbTarget struct {
	Memory     bool
	Driver     string
	DSN        string
	MigrateURL string
}

func parseDBURL(raw string, disablePreparedBinaryResult bool) (dbTarget, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return dbTarget{}, fmt.Errorf("DB_URL is empty")
	}

	scheme, rest, found := strings.Cut(trimmed, "://")
	if !found {
		// Bare paths are sqlite files.
		return dbTarget{Driver: driverSQLite, DSN: trimmed, MigrateURL: "sqlite://" + trimmed}, nil
	}

	switch strings.ToLower(scheme) {
	case "memory":
		return dbTarget{Memory: true}, nil
	case "sqlite", "sqlite3", "file":
		if strings.TrimSpace(rest) == "" {
			return dbTarget{}, fmt.Errorf("sqlite DB_URL needs a file path")
		}
		return dbTarget{Driver: driverSQLite, DSN: rest, MigrateURL: "sqlite://" + rest}, nil
	case "postgres", "postgresql":
		dsn := normalizeDBURL(trimmed, disablePreparedBinaryResult)
		return dbTarget{Driver: driverPostgres, DSN: dsn, MigrateURL: dsn}, nil
	default:
		return dbTarget{}, fmt.Errorf("unsupported DB_URL scheme %q", scheme)
	}
}

func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return trimmed
}
