package repository

import (
	"context"
	"errors"

	"github.com/route-draft-service/internal/domain"
)

var (
	// ErrDocumentNotFound - документа по пути нет
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSchemaMismatch - документ не соответствует текущей схеме
	ErrSchemaMismatch = errors.New("document schema mismatch")

	// ErrEncoding - данные нельзя привести к схеме хранения
	ErrEncoding = errors.New("document encoding failed")
)

// DocumentStore - хранилище документов, адресуемых путём вида "collection/id/collection/id".
// Данные документа - JSON объект.
type DocumentStore interface {
	// Get возвращает документ или ErrDocumentNotFound
	Get(ctx context.Context, path string) ([]byte, error)

	// GetMany возвращает найденные документы по путям, отсутствующие пропускаются
	GetMany(ctx context.Context, paths []string) (map[string][]byte, error)

	// Set полностью заменяет документ
	Set(ctx context.Context, path string, data []byte) error

	// Merge перезаписывает только поля верхнего уровня из data, создаёт документ при отсутствии
	Merge(ctx context.Context, path string, data []byte) error

	// Delete удаляет документ, отсутствие документа не ошибка
	Delete(ctx context.Context, path string) error

	// DeleteTree удаляет документ и все вложенные пути
	DeleteTree(ctx context.Context, path string) error

	// FindByField возвращает документы коллекции, у которых строковое поле равно value
	FindByField(ctx context.Context, collection, field, value string) ([]domain.Document, error)

	// Commit применяет все операции батча атомарно
	Commit(ctx context.Context, batch *domain.WriteBatch) error

	// Health проверяет доступность хранилища
	Health(ctx context.Context) error
}
