package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"go.uber.org/zap"
)

// routeKeyPrefix меняется вместе с JSON-формой domain.Route
const routeKeyPrefix = "route:v1:"

type routeCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository - кеш чтения сохранённых маршрутов поверх Redis
func NewCacheRepository(r *Redis) repository.CacheRepository {
	return &routeCache{
		client: r.Client(),
		logger: r.logger.With(zap.String("component", "route_cache")),
	}
}

func routeKey(routeID string) string {
	return routeKeyPrefix + routeID
}

// GetRoute возвращает nil при промахе. Нечитаемая запись удаляется и считается промахом
func (c *routeCache) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	key := routeKey(routeID)

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Route cache read failed", zap.String("route_id", routeID), zap.Error(err))
		return nil, fmt.Errorf("route cache get: %w", err)
	}

	var route domain.Route
	if err := json.Unmarshal(raw, &route); err != nil {
		c.logger.Warn("Dropping undecodable cached route", zap.String("route_id", routeID), zap.Error(err))
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			c.logger.Error("Failed to drop cached route", zap.String("route_id", routeID), zap.Error(delErr))
		}
		return nil, nil
	}
	if route.ID != routeID {
		c.logger.Warn("Cached route id mismatch", zap.String("route_id", routeID), zap.String("cached_id", route.ID))
		return nil, nil
	}

	c.logger.Debug("Route cache hit", zap.String("route_id", routeID))
	return &route, nil
}

func (c *routeCache) SetRoute(ctx context.Context, route *domain.Route, ttl time.Duration) error {
	if route == nil || route.ID == "" {
		return errors.New("route cache set: empty route id")
	}

	raw, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("route cache marshal %s: %w", route.ID, err)
	}
	if err := c.client.Set(ctx, routeKey(route.ID), raw, ttl).Err(); err != nil {
		c.logger.Error("Route cache write failed", zap.String("route_id", route.ID), zap.Error(err))
		return fmt.Errorf("route cache set: %w", err)
	}

	c.logger.Debug("Route cached", zap.String("route_id", route.ID), zap.Int("bytes", len(raw)), zap.Duration("ttl", ttl))
	return nil
}

// InvalidateRoute вызывается после каждой записи в маршрут
func (c *routeCache) InvalidateRoute(ctx context.Context, routeID string) error {
	if err := c.client.Del(ctx, routeKey(routeID)).Err(); err != nil {
		c.logger.Error("Route cache invalidation failed", zap.String("route_id", routeID), zap.Error(err))
		return fmt.Errorf("route cache delete: %w", err)
	}
	return nil
}
