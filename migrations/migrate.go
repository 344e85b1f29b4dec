// Package migrations embeds the Postgres schema and applies it in version order.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"
)

//go:embed *.sql
var files embed.FS

const createVersionTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version           TEXT PRIMARY KEY,
		applied_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		execution_time_ms BIGINT NOT NULL DEFAULT 0
	)`

// Migration is one embedded SQL file. Version is the file name without extension.
type Migration struct {
	Version string
	SQL     string
}

// List returns the embedded migrations sorted by version.
func List() ([]Migration, error) {
	return list(files)
}

func list(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]Migration, 0, len(names))
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{Version: strings.TrimSuffix(name, ".sql"), SQL: string(raw)})
	}
	return out, nil
}

// Apply runs every embedded migration not yet recorded in schema_migrations. Each file runs in
// its own transaction together with its version row. It returns how many files were applied.
func Apply(ctx context.Context, db *sql.DB, logger *slog.Logger) (int, error) {
	all, err := List()
	if err != nil {
		return 0, err
	}
	return apply(ctx, db, logger, all)
}

func apply(ctx context.Context, db *sql.DB, logger *slog.Logger, all []Migration) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.ExecContext(ctx, createVersionTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied := 0
	for _, m := range all {
		var exists bool
		if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", m.Version, err)
		}
		if exists {
			continue
		}
		start := time.Now()
		if err := applyOne(ctx, db, m, start); err != nil {
			return applied, err
		}
		applied++
		logger.InfoContext(ctx, "migration applied", "version", m.Version, "duration_ms", time.Since(start).Milliseconds())
	}
	return applied, nil
}

func applyOne(ctx context.Context, db *sql.DB, m Migration, start time.Time) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.Version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("execute migration %s: %w", m.Version, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, execution_time_ms) VALUES ($1, $2)`,
		m.Version, time.Since(start).Milliseconds()); err != nil {
		return fmt.Errorf("record migration %s: %w", m.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.Version, err)
	}
	return nil
}
