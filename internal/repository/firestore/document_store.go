package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errInvalidPath = errors.New("invalid document path")

type documentStore struct {
	client *Client
	logger *zap.Logger
}

// NewDocumentStore создает хранилище документов поверх Cloud Firestore.
// Пути документов совпадают с путями Firestore (коллекция/документ/...)
func NewDocumentStore(client *Client) repository.DocumentStore {
	return &documentStore{
		client: client,
		logger: client.logger,
	}
}

func (s *documentStore) Get(ctx context.Context, path string) ([]byte, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, repository.ErrDocumentNotFound
	}
	if err != nil {
		s.logger.Error("Failed to get document", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("get document: %w", err)
	}
	return encodeSnapshot(snap)
}

func (s *documentStore) GetMany(ctx context.Context, paths []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(paths))
	if len(paths) == 0 {
		return result, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(paths))
	for _, p := range paths {
		ref, err := s.doc(p)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		s.logger.Error("Failed to get documents", zap.Int("count", len(paths)), zap.Error(err))
		return nil, fmt.Errorf("get documents: %w", err)
	}

	for i, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		data, err := encodeSnapshot(snap)
		if err != nil {
			return nil, err
		}
		result[paths[i]] = data
	}
	return result, nil
}

func (s *documentStore) Set(ctx context.Context, path string, data []byte) error {
	return s.runWrites(ctx, []domain.WriteOp{{Type: domain.WriteOpSet, Path: path, Data: data}})
}

func (s *documentStore) Merge(ctx context.Context, path string, data []byte) error {
	return s.runWrites(ctx, []domain.WriteOp{{Type: domain.WriteOpMerge, Path: path, Data: data}})
}

func (s *documentStore) Delete(ctx context.Context, path string) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		s.logger.Error("Failed to delete document", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// DeleteTree удаляет документ и все вложенные подколлекции.
// Firestore не удаляет подколлекции вместе с родителем, поэтому обходим дерево сами
func (s *documentStore) DeleteTree(ctx context.Context, path string) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}

	deleted, err := s.deleteRecursive(ctx, ref)
	if err != nil {
		s.logger.Error("Failed to delete document tree", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("delete document tree: %w", err)
	}

	s.logger.Debug("Document tree deleted", zap.String("path", path), zap.Int("documents", deleted))
	return nil
}

func (s *documentStore) deleteRecursive(ctx context.Context, ref *firestore.DocumentRef) (int, error) {
	deleted := 0

	collections := ref.Collections(ctx)
	for {
		coll, err := collections.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return deleted, err
		}

		// DocumentRefs возвращает и "пустые" документы, у которых есть только подколлекции
		docs := coll.DocumentRefs(ctx)
		for {
			child, err := docs.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return deleted, err
			}
			n, err := s.deleteRecursive(ctx, child)
			deleted += n
			if err != nil {
				return deleted, err
			}
		}
	}

	if _, err := ref.Delete(ctx); err != nil {
		return deleted, err
	}
	return deleted + 1, nil
}

func (s *documentStore) FindByField(ctx context.Context, collection, field, value string) ([]domain.Document, error) {
	iter := s.client.Collection(collection).Where(field, "==", value).Documents(ctx)
	defer iter.Stop()

	var docs []domain.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			s.logger.Error("Failed to find documents",
				zap.String("collection", collection),
				zap.String("field", field),
				zap.Error(err))
			return nil, fmt.Errorf("find documents: %w", err)
		}

		data, err := encodeSnapshot(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{Path: collection + "/" + snap.Ref.ID, Data: data})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Commit применяет батч в одной транзакции Firestore
func (s *documentStore) Commit(ctx context.Context, batch *domain.WriteBatch) error {
	return s.runWrites(ctx, batch.Ops())
}

func (s *documentStore) Health(ctx context.Context) error {
	iter := s.client.Collections(ctx)
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

type preparedWrite struct {
	op     domain.WriteOp
	ref    *firestore.DocumentRef
	fields map[string]interface{}
}

func (s *documentStore) runWrites(ctx context.Context, ops []domain.WriteOp) error {
	// Всё декодируем до начала транзакции: ошибка кодирования не должна оставить частичную запись
	prepared := make([]preparedWrite, 0, len(ops))
	for _, op := range ops {
		ref, err := s.doc(op.Path)
		if err != nil {
			return err
		}
		w := preparedWrite{op: op, ref: ref}
		if op.Type != domain.WriteOpDelete {
			if w.fields, err = decodeFields(op.Data); err != nil {
				return fmt.Errorf("%s: %w", op.Path, err)
			}
		}
		prepared = append(prepared, w)
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, w := range prepared {
			var err error
			switch w.op.Type {
			case domain.WriteOpSet:
				err = tx.Set(w.ref, w.fields)
			case domain.WriteOpMerge:
				if len(w.fields) == 0 {
					err = tx.Set(w.ref, w.fields, firestore.MergeAll)
					break
				}
				err = tx.Set(w.ref, w.fields, firestore.Merge(topLevelPaths(w.fields)...))
			case domain.WriteOpDelete:
				err = tx.Delete(w.ref)
			default:
				err = fmt.Errorf("unknown write op %d", w.op.Type)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to commit writes", zap.Int("ops", len(ops)), zap.Error(err))
		return fmt.Errorf("commit writes: %w", err)
	}
	return nil
}

func (s *documentStore) doc(path string) (*firestore.DocumentRef, error) {
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("%w: %s", errInvalidPath, path)
	}
	return ref, nil
}

// topLevelPaths - слияние только по полям верхнего уровня, вложенные объекты заменяются целиком
func topLevelPaths(fields map[string]interface{}) []firestore.FieldPath {
	paths := make([]firestore.FieldPath, 0, len(fields))
	for k := range fields {
		paths = append(paths, firestore.FieldPath{k})
	}
	return paths
}

func decodeFields(data []byte) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: document is not a JSON object", repository.ErrEncoding)
	}
	return fields, nil
}

func encodeSnapshot(snap *firestore.DocumentSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap.Data())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrEncoding, snap.Ref.Path, err)
	}
	return data, nil
}
