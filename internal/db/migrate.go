package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

func RunMigrations(database *sql.DB, dialect Dialect, migrationsDir string) error {
	if _, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return errors.Wrap(err, "read migrations dir")
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, name := range files {
		applied, err := isMigrationApplied(database, dialect, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		path := filepath.Join(migrationsDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}

		tx, err := database.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin migration tx %s", name)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "execute migration %s", name)
		}

		if _, err := tx.Exec(
			Rebind(dialect, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`),
			name,
			time.Now().UTC().Format(time.RFC3339Nano),
		); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "record migration %s", name)
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit migration %s", name)
		}
	}

	return nil
}

func isMigrationApplied(database *sql.DB, dialect Dialect, name string) (bool, error) {
	var count int
	if err := database.QueryRow(
		Rebind(dialect, `SELECT COUNT(1) FROM schema_migrations WHERE name = ?`),
		name,
	).Scan(&count); err != nil {
		return false, errors.Wrapf(err, "check migration %s", name)
	}
	return count > 0, nil
}
