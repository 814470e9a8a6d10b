package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/rando-league/db"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	_ "modernc.org/sqlite"
)

func openDB(ctx context.Context, target dbTarget, logger *logging.Logger) (*sqlx.DB, error) {
	conn, err := otelsqlx.Open(target.Driver, target.DSN,
		otelsql.WithDBSystem(target.Driver),
		otelsql.WithDBName(dbNameFromURL(target.DSN)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", target.Driver, err)
	}
	if target.Driver == driverSQLite {
		// Serialize writers on the single sqlite file.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", target.Driver, err)
	}

	logger.InfoContext(ctx, "database connected", "driver", target.Driver, "db_name", dbNameFromURL(target.DSN))
	return conn, nil
}

// migrateDB applies the embedded migrations through the open connection.
func migrateDB(ctx context.Context, conn *sqlx.DB, target dbTarget, logger *logging.Logger) error {
	source, err := iofs.New(db.Migrations, db.MigrationsDir)
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var driver database.Driver
	switch target.Driver {
	case driverSQLite:
		driver, err = migratesqlite.WithInstance(conn.DB, &migratesqlite.Config{})
	case driverPostgres:
		driver, err = migratepostgres.WithInstance(conn.DB, &migratepostgres.Config{})
	default:
		return fmt.Errorf("no migration driver for %q", target.Driver)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, target.Driver, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.InfoContext(ctx, "database schema up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.InfoContext(ctx, "database migrated", "version", version)
	return nil
}
