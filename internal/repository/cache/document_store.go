package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	docKeyPrefix  = "doc:"
	scanBatchSize = 200
)

// documentStore хранит каждый документ как HASH: поле верхнего уровня -> JSON значение.
// Merge превращается в HSET, Set - в DEL+HSET, батчи выполняются в MULTI/EXEC.
type documentStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewDocumentStore создает хранилище документов на Redis
func NewDocumentStore(redis *Redis) repository.DocumentStore {
	return &documentStore{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func docKey(path string) string {
	return docKeyPrefix + path
}

func (s *documentStore) Get(ctx context.Context, path string) ([]byte, error) {
	fields, err := s.client.HGetAll(ctx, docKey(path)).Result()
	if err != nil {
		s.logger.Error("Failed to read document", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, repository.ErrDocumentNotFound
	}
	return joinFields(fields)
}

func (s *documentStore) GetMany(ctx context.Context, paths []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(paths))
	if len(paths) == 0 {
		return result, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(paths))
	for i, path := range paths {
		cmds[i] = pipe.HGetAll(ctx, docKey(path))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to read documents", zap.Int("count", len(paths)), zap.Error(err))
		return nil, fmt.Errorf("redis pipeline: %w", err)
	}

	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		data, err := joinFields(fields)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
		result[paths[i]] = data
	}
	return result, nil
}

func (s *documentStore) Set(ctx context.Context, path string, data []byte) error {
	values, err := splitFields(data)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, docKey(path))
		pipe.HSet(ctx, docKey(path), values)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to set document", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("redis set document: %w", err)
	}
	return nil
}

func (s *documentStore) Merge(ctx context.Context, path string, data []byte) error {
	values, err := splitFields(data)
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, docKey(path), values).Err(); err != nil {
		s.logger.Error("Failed to merge document", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("redis merge document: %w", err)
	}
	return nil
}

func (s *documentStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, docKey(path)).Err(); err != nil {
		s.logger.Error("Failed to delete document", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("redis delete document: %w", err)
	}
	return nil
}

func (s *documentStore) DeleteTree(ctx context.Context, path string) error {
	keys, err := s.scan(ctx, docKey(path)+"/*")
	if err != nil {
		return err
	}
	keys = append(keys, docKey(path))

	for start := 0; start < len(keys); start += scanBatchSize {
		end := start + scanBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			s.logger.Error("Failed to delete document tree", zap.String("path", path), zap.Error(err))
			return fmt.Errorf("redis delete tree: %w", err)
		}
	}

	s.logger.Debug("Document tree deleted", zap.String("path", path), zap.Int("documents", len(keys)))
	return nil
}

func (s *documentStore) FindByField(ctx context.Context, collection, field, value string) ([]domain.Document, error) {
	keys, err := s.scan(ctx, docKey(collection)+"/*")
	if err != nil {
		return nil, err
	}

	want, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	prefix := docKey(collection) + "/"
	var docs []domain.Document
	for _, key := range keys {
		// только прямые дочерние документы коллекции
		if strings.Contains(strings.TrimPrefix(key, prefix), "/") {
			continue
		}

		got, err := s.client.HGet(ctx, key, field).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			s.logger.Error("Failed to read document field", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("redis hget: %w", err)
		}
		if got != string(want) {
			continue
		}

		path := strings.TrimPrefix(key, docKeyPrefix)
		data, err := s.Get(ctx, path)
		if errors.Is(err, repository.ErrDocumentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{Path: path, Data: data})
	}
	return docs, nil
}

// Commit применяет батч в MULTI/EXEC. Все документы разбираются до отправки,
// поэтому при ошибке кодирования в Redis ничего не пишется.
func (s *documentStore) Commit(ctx context.Context, batch *domain.WriteBatch) error {
	ops := batch.Ops()
	values := make([]map[string]interface{}, len(ops))
	for i, op := range ops {
		if op.Type == domain.WriteOpDelete {
			continue
		}
		v, err := splitFields(op.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", op.Path, err)
		}
		values[i] = v
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, op := range ops {
			key := docKey(op.Path)
			switch op.Type {
			case domain.WriteOpSet:
				pipe.Del(ctx, key)
				pipe.HSet(ctx, key, values[i])
			case domain.WriteOpMerge:
				pipe.HSet(ctx, key, values[i])
			case domain.WriteOpDelete:
				pipe.Del(ctx, key)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to commit batch", zap.Int("ops", len(ops)), zap.Error(err))
		return fmt.Errorf("redis commit: %w", err)
	}
	return nil
}

func (s *documentStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *documentStore) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(pattern), scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Error("Failed to scan keys", zap.String("pattern", pattern), zap.Error(err))
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// escapeGlob экранирует спецсимволы glob в пути, оставляя завершающий "*"
func escapeGlob(pattern string) string {
	body := strings.TrimSuffix(pattern, "*")
	var b strings.Builder
	for _, r := range body {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	if strings.HasSuffix(pattern, "*") {
		b.WriteRune('*')
	}
	return b.String()
}

func splitFields(data []byte) (map[string]interface{}, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: document is not a JSON object: %v", repository.ErrEncoding, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty document", repository.ErrEncoding)
	}

	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = string(v)
	}
	return values, nil
}

func joinFields(fields map[string]string) ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		obj[k] = json.RawMessage(v)
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrSchemaMismatch, err)
	}
	return data, nil
}
