package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	getDocumentQuery = `SELECT data::text FROM documents WHERE path = $1`

	getDocumentsQuery = `SELECT path, data::text AS data FROM documents WHERE path = ANY($1::text[])`

	setDocumentQuery = `
		INSERT INTO documents (path, collection, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (path) DO UPDATE
		SET data = EXCLUDED.data, updated_at = now()`

	// || в JSONB заменяет совпадающие ключи верхнего уровня и добавляет новые
	mergeDocumentQuery = `
		INSERT INTO documents (path, collection, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (path) DO UPDATE
		SET data = documents.data || EXCLUDED.data, updated_at = now()`

	deleteDocumentQuery = `DELETE FROM documents WHERE path = $1`

	deleteTreeQuery = `DELETE FROM documents WHERE path = $1 OR path LIKE $2 ESCAPE '\'`

	findByFieldQuery = `
		SELECT path, data::text AS data
		FROM documents
		WHERE collection = $1 AND data->>$2 = $3
		ORDER BY path`
)

type documentRow struct {
	Path string `db:"path"`
	Data string `db:"data"`
}

// execer - общий интерфейс *sqlx.DB и *sqlx.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type documentStore struct {
	db     *DB
	logger *zap.Logger
}

// NewDocumentStore создает хранилище документов в таблице documents (JSONB)
func NewDocumentStore(db *DB) repository.DocumentStore {
	return &documentStore{
		db:     db,
		logger: db.logger,
	}
}

func (s *documentStore) Get(ctx context.Context, path string) ([]byte, error) {
	var data string
	err := s.db.GetContext(ctx, &data, getDocumentQuery, path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrDocumentNotFound
	}
	if err != nil {
		s.logger.Error("Failed to get document", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("get document: %w", err)
	}
	return []byte(data), nil
}

func (s *documentStore) GetMany(ctx context.Context, paths []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(paths))
	if len(paths) == 0 {
		return result, nil
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, getDocumentsQuery, pq.Array(paths)); err != nil {
		s.logger.Error("Failed to get documents", zap.Int("count", len(paths)), zap.Error(err))
		return nil, fmt.Errorf("get documents: %w", err)
	}

	for _, row := range rows {
		result[row.Path] = []byte(row.Data)
	}
	return result, nil
}

func (s *documentStore) Set(ctx context.Context, path string, data []byte) error {
	return s.write(ctx, s.db, domain.WriteOp{Type: domain.WriteOpSet, Path: path, Data: data})
}

func (s *documentStore) Merge(ctx context.Context, path string, data []byte) error {
	return s.write(ctx, s.db, domain.WriteOp{Type: domain.WriteOpMerge, Path: path, Data: data})
}

func (s *documentStore) Delete(ctx context.Context, path string) error {
	return s.write(ctx, s.db, domain.WriteOp{Type: domain.WriteOpDelete, Path: path})
}

func (s *documentStore) DeleteTree(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, deleteTreeQuery, path, escapeLike(path)+"/%")
	if err != nil {
		s.logger.Error("Failed to delete document tree", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("delete document tree: %w", err)
	}

	affected, _ := res.RowsAffected()
	s.logger.Debug("Document tree deleted", zap.String("path", path), zap.Int64("documents", affected))
	return nil
}

func (s *documentStore) FindByField(ctx context.Context, collection, field, value string) ([]domain.Document, error) {
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, findByFieldQuery, collection, field, value); err != nil {
		s.logger.Error("Failed to find documents",
			zap.String("collection", collection),
			zap.String("field", field),
			zap.Error(err))
		return nil, fmt.Errorf("find documents: %w", err)
	}

	docs := make([]domain.Document, len(rows))
	for i, row := range rows {
		docs[i] = domain.Document{Path: row.Path, Data: []byte(row.Data)}
	}
	return docs, nil
}

// Commit выполняет все операции батча в одной транзакции
func (s *documentStore) Commit(ctx context.Context, batch *domain.WriteBatch) error {
	ops := batch.Ops()
	for _, op := range ops {
		if op.Type == domain.WriteOpDelete {
			continue
		}
		if err := ensureObject(op.Data); err != nil {
			return fmt.Errorf("%s: %w", op.Path, err)
		}
	}

	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, op := range ops {
			if err := s.write(ctx, tx, op); err != nil {
				return err
			}
		}
		s.logger.Debug("Batch committed", zap.Int("ops", len(ops)))
		return nil
	})
}

func (s *documentStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func (s *documentStore) write(ctx context.Context, ex execer, op domain.WriteOp) error {
	var err error
	switch op.Type {
	case domain.WriteOpSet, domain.WriteOpMerge:
		if err := ensureObject(op.Data); err != nil {
			return err
		}
		query := setDocumentQuery
		if op.Type == domain.WriteOpMerge {
			query = mergeDocumentQuery
		}
		_, err = ex.ExecContext(ctx, query, op.Path, parentCollection(op.Path), string(op.Data))
	case domain.WriteOpDelete:
		_, err = ex.ExecContext(ctx, deleteDocumentQuery, op.Path)
	default:
		return fmt.Errorf("unknown write op %d", op.Type)
	}

	if err != nil {
		s.logger.Error("Failed to write document",
			zap.String("op", op.Type.String()),
			zap.String("path", op.Path),
			zap.Error(err))
		return fmt.Errorf("%s document: %w", op.Type, err)
	}
	return nil
}

// parentCollection - путь коллекции, в которой лежит документ
func parentCollection(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func ensureObject(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return fmt.Errorf("%w: document is not a JSON object", repository.ErrEncoding)
	}
	return nil
}
