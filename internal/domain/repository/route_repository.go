package repository

import (
	"context"

	"github.com/route-draft-service/internal/domain"
)

// RouteRepository - схема документов маршрута поверх DocumentStore
type RouteRepository interface {
	// GetRecord возвращает главный документ маршрута или ErrDocumentNotFound
	GetRecord(ctx context.Context, kind domain.RouteKind, id string) (*domain.RouteRecord, error)

	// LoadRoute собирает полный маршрут: главный документ, сегменты с геометрией и фрагменты
	LoadRoute(ctx context.Context, kind domain.RouteKind, id string) (*domain.Route, error)

	// GetSegments возвращает метаданные сегментов без геометрии
	GetSegments(ctx context.Context, kind domain.RouteKind, id string) ([]domain.SegmentMeta, error)

	GetPOIs(ctx context.Context, kind domain.RouteKind, id string) (domain.POIBuckets, error)
	GetLines(ctx context.Context, kind domain.RouteKind, id string) ([]domain.Line, error)
	GetPhotos(ctx context.Context, kind domain.RouteKind, id string) ([]domain.PhotoRef, error)

	// FindDraftsByOwner возвращает главные документы черновиков пользователя
	FindDraftsByOwner(ctx context.Context, ownerID string) ([]domain.RouteRecord, error)

	// NewBatch создаёт батч для маршрута
	NewBatch(kind domain.RouteKind, id string) RouteBatch

	// Commit применяет батч атомарно
	Commit(ctx context.Context, batch RouteBatch) error

	// DeleteRoute удаляет маршрут со всеми вложенными документами
	DeleteRoute(ctx context.Context, kind domain.RouteKind, id string) error

	GetUserIndex(ctx context.Context, userID string) (*domain.UserRouteIndex, error)
	PutUserIndex(ctx context.Context, index *domain.UserRouteIndex) error
}

// RouteBatch - типизированный набор записей одного маршрута
type RouteBatch interface {
	Kind() domain.RouteKind
	RouteID() string

	SetRecord(record domain.RouteRecord) error
	MergeRecord(patch domain.RecordPatch) error
	SetSegments(segments []domain.SegmentMeta) error
	SetSegmentGeometry(segment domain.Segment) error
	DeleteSegmentGeometry(segmentID string)
	SetPOIs(pois domain.POIBuckets) error
	SetLines(lines []domain.Line) error
	SetPhotos(photos []domain.PhotoRef) error
	SetDescription(description domain.Description) error
	SetMasterRoute(master domain.MasterRoute) error
	DeleteMasterRoute()
	SetMapOverview(overview domain.MapOverview) error

	Len() int
}
