// Package db opens the agent's SQLite database and applies the embedded
// schema migrations.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// DB wraps the single SQLite connection shared by the catalog and the save
// history.
type DB struct {
	conn   *sql.DB
	path   string
	logger *slog.Logger
}

// New opens (creating if needed) the database at dbPath, migrates it and
// fails any save left unfinished by a previous run.
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	d := &DB{conn: conn, path: dbPath, logger: logger}
	if err := d.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) init(ctx context.Context) error {
	if err := d.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	for _, p := range pragmas {
		if _, err := d.conn.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := d.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	n, err := d.failInterruptedSaves(ctx)
	switch {
	case err != nil && d.logger != nil:
		d.logger.Warn("failed to mark interrupted saves", "error", err)
	case n > 0 && d.logger != nil:
		d.logger.Warn("saves interrupted by restart marked failed", "count", n)
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) Path() string {
	return d.path
}

// migrate applies every embedded migration not yet recorded in _migrations,
// in file name order, each in its own transaction.
func (d *DB) migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	applied, err := d.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, path := range names {
		name := filepath.Base(path)
		if applied[name] {
			continue
		}
		body, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := d.apply(ctx, name, string(body)); err != nil {
			return err
		}
		if d.logger != nil {
			d.logger.Info("applied migration", "name", name)
		}
	}
	return nil
}

func (d *DB) apply(ctx context.Context, name, body string) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	return tx.Commit()
}

// appliedMigrations returns the recorded migration names. A fresh database
// has no _migrations table yet; the first migration creates it.
func (d *DB) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	var n int
	err := d.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = '_migrations'").Scan(&n)
	if err != nil || n == 0 {
		return applied, err
	}

	rows, err := d.conn.QueryContext(ctx, "SELECT name FROM _migrations")
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// failInterruptedSaves fails saves that were pending or running when the
// previous process exited and returns how many it touched.
func (d *DB) failInterruptedSaves(ctx context.Context) (int64, error) {
	res, err := d.conn.ExecContext(ctx,
		`UPDATE save_jobs
		    SET status = 'failed', error_code = 'BACKEND_ERROR', error = 'interrupted by restart',
		        updated_at = datetime('now')
		  WHERE status IN ('pending', 'running')`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
