package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/repository/postgres"
	"go.uber.org/zap"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewDocumentStoreForTest creates a document store with test database and logger
func NewDocumentStoreForTest(db *sqlx.DB, logger *zap.Logger) repository.DocumentStore {
	return postgres.NewDocumentStore(NewDBForTest(db, logger))
}
