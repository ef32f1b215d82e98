package testhelpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"
)

// MigrationsDir is the repository migrations directory relative to the postgres package
const MigrationsDir = "../../../migrations"

// EnsureSchema creates the documents table from the .up.sql migrations
// unless a previous run already did. It returns the applied file names.
func EnsureSchema(ctx context.Context, db *sqlx.DB, dir string) ([]string, error) {
	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT to_regclass('public.documents') IS NOT NULL`); err != nil {
		return nil, fmt.Errorf("check documents table: %w", err)
	}
	if exists {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(files)

	applied := make([]string, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", filepath.Base(file), err)
		}
		applied = append(applied, filepath.Base(file))
	}
	return applied, nil
}
