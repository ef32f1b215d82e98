package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/repository/cache"
	"github.com/route-draft-service/internal/repository/document"
)

// MockMediaService is a mock of MediaService
type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) Upload(ctx context.Context, req domain.UploadRequest) (*domain.MediaRef, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaRef), args.Error(1)
}

func (m *MockMediaService) Delete(ctx context.Context, publicRef string) error {
	args := m.Called(ctx, publicRef)
	return args.Error(0)
}

// MockStaticMapRenderer is a mock of StaticMapRenderer
type MockStaticMapRenderer struct {
	mock.Mock
}

func (m *MockStaticMapRenderer) Render(ctx context.Context, req domain.StaticMapRequest) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// failingTreeStore breaks recursive deletes, everything else goes to the real store
type failingTreeStore struct {
	repository.DocumentStore
}

func (s failingTreeStore) DeleteTree(ctx context.Context, path string) error {
	return errors.New("delete tree: connection reset")
}

// testEnv is a Redis-backed document store on miniredis plus the route read cache
type testEnv struct {
	server *miniredis.Miniredis
	store  repository.DocumentStore
	routes repository.RouteRepository
	cache  repository.CacheRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := cache.NewRedisForTest(client, zap.NewNop())
	store := cache.NewDocumentStore(r)
	return &testEnv{
		server: server,
		store:  store,
		routes: document.NewRouteRepository(store, zap.NewNop()),
		cache:  cache.NewCacheRepository(r),
	}
}

// withFailingDeletes rebuilds the route repository over a store whose DeleteTree fails
func (e *testEnv) withFailingDeletes() repository.RouteRepository {
	return document.NewRouteRepository(failingTreeStore{DocumentStore: e.store}, zap.NewNop())
}

func ptr[T any](v T) *T {
	return &v
}

func testSegment(id string, distance float64, coords ...domain.Position) domain.Segment {
	return domain.Segment{
		SegmentMeta: domain.SegmentMeta{
			SegmentID:  id,
			Name:       "Segment " + id,
			Statistics: domain.SegmentStatistics{TotalDistance: distance, ElevationGain: 120},
			Metadata:   domain.SegmentMetadata{Country: "Spain", Region: "Catalonia"},
		},
		Coordinates:     coords,
		Elevation:       []float64{},
		UnpavedSections: []domain.UnpavedSection{},
	}
}
