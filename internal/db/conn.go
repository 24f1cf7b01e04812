// Package db stores annotation corpora in SQLite so they can be imported
// once and loaded without re-reading the source document.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abdulachik/fathom/internal/db/migrations"
	_ "modernc.org/sqlite"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Store wraps the database connection and provides access to queries.
type Store struct {
	*sql.DB
	*Queries
}

// NewStore opens the database at dbPath, creating its directory if needed.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite doesn't handle concurrent writes well
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(pragma), err)
		}
	}

	return &Store{
		DB:      sqlDB,
		Queries: New(sqlDB),
	}, nil
}

// Migrate applies pending migrations and returns the names of those applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	_, err := s.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := s.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	files, err := migrationFiles()
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, file := range files {
		if done[file] {
			slog.Debug("migration already applied", "file", file)
			continue
		}
		if err := s.apply(ctx, file); err != nil {
			return ran, err
		}
		ran = append(ran, file)
	}

	if len(ran) > 0 {
		slog.Info("database migrated", "applied", len(ran))
	}
	return ran, nil
}

func (s *Store) apply(ctx context.Context, file string) error {
	slog.Info("applying migration", "file", file)

	content, err := fs.ReadFile(migrations.FS, file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, extractUpMigration(string(content))); err != nil {
		return fmt.Errorf("execute migration %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", file); err != nil {
		return fmt.Errorf("record migration %s: %w", file, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}

// AppliedMigrations lists applied migration versions in order. It returns
// nothing for a database that has never been migrated.
func (s *Store) AppliedMigrations(ctx context.Context) ([]string, error) {
	var exists int
	err := s.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'").Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check migrations table: %w", err)
	}
	if exists == 0 {
		return nil, nil
	}

	rows, err := s.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migrations: %w", err)
	}
	return versions, nil
}

func migrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// extractUpMigration returns the statements between the Up and Down markers.
func extractUpMigration(content string) string {
	if idx := strings.Index(content, downMarker); idx != -1 {
		content = content[:idx]
	}
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, upMarker)
	return strings.TrimSpace(content)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}
