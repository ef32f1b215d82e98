package testhelpers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// TestDB wraps the connection used by the document store suite
type TestDB struct {
	DB     *sqlx.DB
	Logger *zap.Logger
}

// testDSN prefers TEST_DATABASE_URL and falls back to TEST_DB_* parts
func testDSN() string {
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=2",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5433"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "route_drafts_test"),
		getEnv("TEST_DB_SSLMODE", "disable"),
	)
}

// SetupTestDB connects with a short backoff and skips the test when Postgres is unreachable
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	attempts := getEnvInt("TEST_DB_RETRIES", 3)
	delay := 250 * time.Millisecond

	var lastErr error
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		db, err := sqlx.ConnectContext(ctx, "postgres", testDSN())
		cancel()
		if err == nil {
			db.SetMaxOpenConns(4)
			return &TestDB{DB: db, Logger: zap.NewNop()}
		}

		lastErr = err
		if i < attempts {
			t.Logf("Postgres not ready (%d/%d): %v", i, attempts, err)
			time.Sleep(delay)
			delay *= 2
		}
	}

	t.Skipf("Postgres unavailable, skipping: %v", lastErr)
	return nil
}

func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
}

// Cleanup empties the documents table between tests
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	if _, err := tdb.DB.ExecContext(ctx, "TRUNCATE TABLE documents"); err != nil {
		return fmt.Errorf("truncate documents: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
