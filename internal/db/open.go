package db

import (
	"context"
	"database/sql"

	"dashboard/backend/internal/config"
)

// Open connects to the database named by cfg and reports its dialect.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, Dialect, error) {
	if cfg.DBDriver == config.DriverPostgres {
		database, err := OpenPostgres(ctx, cfg.DatabaseURL)
		return database, Postgres, err
	}
	database, err := OpenSQLite(cfg.DBPath)
	return database, SQLite, err
}
