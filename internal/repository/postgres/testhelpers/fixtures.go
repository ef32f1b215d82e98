package testhelpers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SeedDocuments inserts raw JSON documents keyed by path
func SeedDocuments(ctx context.Context, db *sqlx.DB, docs map[string]string) error {
	for path, data := range docs {
		collection := ""
		if i := strings.LastIndex(path, "/"); i >= 0 {
			collection = path[:i]
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO documents (path, collection, data) VALUES ($1, $2, $3::jsonb)`,
			path, collection, data)
		if err != nil {
			return fmt.Errorf("seed document %s: %w", path, err)
		}
	}
	return nil
}

// CountDocuments returns the number of stored documents under a path prefix
func CountDocuments(ctx context.Context, db *sqlx.DB, prefix string) (int, error) {
	var n int
	err := db.GetContext(ctx, &n,
		`SELECT count(*) FROM documents WHERE path = $1 OR path LIKE $1 || '/%'`, prefix)
	if err != nil {
		return 0, fmt.Errorf("count documents under %s: %w", prefix, err)
	}
	return n, nil
}
