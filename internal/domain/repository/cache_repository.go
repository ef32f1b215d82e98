package repository

import (
	"context"
	"time"

	"github.com/route-draft-service/internal/domain"
)

// CacheRepository - кеш чтения сохранённых маршрутов
type CacheRepository interface {
	// GetRoute возвращает маршрут из кеша, nil при промахе
	GetRoute(ctx context.Context, routeID string) (*domain.Route, error)
	SetRoute(ctx context.Context, route *domain.Route, ttl time.Duration) error
	InvalidateRoute(ctx context.Context, routeID string) error
}
