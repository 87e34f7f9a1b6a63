package db

import "embed"

// MigrationFS holds the SQL migrations applied by internal/db/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
