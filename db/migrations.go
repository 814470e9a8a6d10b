// Package db carries the schema migrations.
package db

import "embed"

// Migrations holds the migration files under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
