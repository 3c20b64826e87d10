package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/exportdesk/debt-ledger/internal/logger"
)

// RunMigrations applies every pending .sql file from migrationsDir in
// lexicographic order, one transaction per file, tracked in schema_migrations.
func RunMigrations(ctx context.Context, dsn, migrationsDir string) error {
	db, err := Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	const ddl = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	files, err := pendingMigrations(ctx, db, migrationsDir)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := applyMigration(ctx, db, migrationsDir, file); err != nil {
			return err
		}
		logger.Info("migration applied", logger.Fields{"version": file})
	}

	return nil
}

func pendingMigrations(ctx context.Context, db *sql.DB, migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory %q: %w", migrationsDir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".sql") {
			continue
		}

		var count int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = $1`, entry.Name()).Scan(&count); err != nil {
			return nil, fmt.Errorf("check migration %q status: %w", entry.Name(), err)
		}
		if count == 0 {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

func applyMigration(ctx context.Context, db *sql.DB, migrationsDir, file string) error {
	sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir, file))
	if err != nil {
		return fmt.Errorf("read migration %q: %w", file, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for migration %q: %w", file, err)
	}

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("execute migration %q: %w", file, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, file); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %q: %w", file, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %q: %w", file, err)
	}

	return nil
}
