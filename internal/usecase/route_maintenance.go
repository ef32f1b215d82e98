package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// routeMaintenance - побочные обновления после записи в сохранённый маршрут:
// статистика, запись индекса пользователя и кеш чтения. Ошибки становятся предупреждениями
type routeMaintenance struct {
	routes repository.RouteRepository
	index  *UserIndexMaintainer
	cache  repository.CacheRepository
	logger *zap.Logger
}

func newRouteMaintenance(
	routes repository.RouteRepository,
	cache repository.CacheRepository,
	logger *zap.Logger,
) *routeMaintenance {
	return &routeMaintenance{
		routes: routes,
		index:  NewUserIndexMaintainer(routes, logger),
		cache:  cache,
		logger: logger,
	}
}

// refreshSaved пересчитывает статистику сохранённого маршрута и обновляет индекс
func (m *routeMaintenance) refreshSaved(ctx context.Context, routeID string, result *dto.Result) {
	route, err := m.routes.LoadRoute(ctx, domain.RouteKindSaved, routeID)
	if err != nil {
		m.logger.Error("Failed to load route for summary refresh", zap.String("route_id", routeID), zap.Error(err))
		result.Warn(dto.WarningSummaryRefreshFailed, fmt.Sprintf("route %s summary not refreshed: %v", routeID, err))
		return
	}

	summary := CalculateSummary(route.Segments)
	batch := m.routes.NewBatch(domain.RouteKindSaved, routeID)
	err = batch.MergeRecord(domain.RecordPatch{Statistics: &summary})
	if err == nil {
		err = m.routes.Commit(ctx, batch)
	}
	if err != nil {
		m.logger.Error("Failed to store refreshed summary", zap.String("route_id", routeID), zap.Error(err))
		result.Warn(dto.WarningSummaryRefreshFailed, fmt.Sprintf("route %s summary not stored: %v", routeID, err))
	}

	route.Statistics = &summary
	m.syncIndex(ctx, &route.RouteRecord, result)
}

// syncIndex записывает запись индекса по главному документу
func (m *routeMaintenance) syncIndex(ctx context.Context, record *domain.RouteRecord, result *dto.Result) {
	if err := m.index.Upsert(ctx, record.OwnerID, domain.IndexEntryFromRecord(record)); err != nil {
		result.Warn(dto.WarningIndexUpdateFailed, fmt.Sprintf("user index not updated for route %s: %v", record.ID, err))
	}
}

// invalidate сбрасывает кеш чтения сохранённого маршрута
func (m *routeMaintenance) invalidate(ctx context.Context, routeID string, result *dto.Result) {
	if m.cache == nil {
		return
	}
	if err := m.cache.InvalidateRoute(ctx, routeID); err != nil {
		m.logger.Warn("Failed to invalidate route cache", zap.String("route_id", routeID), zap.Error(err))
		result.Warn(dto.WarningCacheInvalidation, fmt.Sprintf("cached copy of route %s may be stale", routeID))
	}
}

// afterSavedWrite - общий хвост любой записи в сохранённый маршрут
func (m *routeMaintenance) afterSavedWrite(ctx context.Context, routeID string, refreshSummary bool, result *dto.Result) {
	if refreshSummary {
		m.refreshSaved(ctx, routeID, result)
	} else if record, err := m.routes.GetRecord(ctx, domain.RouteKindSaved, routeID); err == nil {
		m.syncIndex(ctx, record, result)
	} else {
		result.Warn(dto.WarningIndexUpdateFailed, fmt.Sprintf("user index not updated for route %s: %v", routeID, err))
	}
	m.invalidate(ctx, routeID, result)
}

// applyRouteType добавляет в батч смену типа маршрута: для Bikepacking создаётся
// документ masterRoute, при уходе с Bikepacking он удаляется
func applyRouteType(batch repository.RouteBatch, patch *domain.RecordPatch, current, next domain.RouteType) error {
	if next == "" || next == current {
		return nil
	}
	patch.RouteType = &next

	switch {
	case next == domain.RouteTypeBikepacking:
		return batch.SetMasterRoute(domain.MasterRoute{})
	case current == domain.RouteTypeBikepacking:
		batch.DeleteMasterRoute()
	}
	return nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
