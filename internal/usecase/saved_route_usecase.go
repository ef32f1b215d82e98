package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// SavedRouteUseCase - чтение и изменение сохранённых маршрутов
type SavedRouteUseCase struct {
	routes     repository.RouteRepository
	cache      repository.CacheRepository
	thumbnails *ThumbnailUseCase
	maint      *routeMaintenance
	cacheTTL   time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewSavedRouteUseCase: cache и thumbnails могут быть nil
func NewSavedRouteUseCase(
	routes repository.RouteRepository,
	cache repository.CacheRepository,
	thumbnails *ThumbnailUseCase,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *SavedRouteUseCase {
	return &SavedRouteUseCase{
		routes:     routes,
		cache:      cache,
		thumbnails: thumbnails,
		maint:      newRouteMaintenance(routes, cache, logger),
		cacheTTL:   cacheTTL,
		now:        utcNow,
		logger:     logger,
	}
}

// GetRoute читает сохранённый маршрут через кеш. Невидимый маршрут не отличается от отсутствующего
func (uc *SavedRouteUseCase) GetRoute(ctx context.Context, routeID, viewerID string) (*domain.Route, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}

	if uc.cache != nil {
		cached, err := uc.cache.GetRoute(ctx, routeID)
		if err != nil {
			uc.logger.Warn("Route cache read failed", zap.String("route_id", routeID), zap.Error(err))
		}
		if cached != nil {
			if !cached.VisibleTo(viewerID) {
				return nil, errors.ErrRouteNotFound
			}
			return cached, nil
		}
	}

	route, err := uc.routes.LoadRoute(ctx, domain.RouteKindSaved, routeID)
	if err != nil {
		return nil, storeError(err)
	}
	if uc.cache != nil {
		if err := uc.cache.SetRoute(ctx, route, uc.cacheTTL); err != nil {
			uc.logger.Warn("Route cache write failed", zap.String("route_id", routeID), zap.Error(err))
		}
	}
	if !route.VisibleTo(viewerID) {
		return nil, errors.ErrRouteNotFound
	}
	return route, nil
}

// ListUserRoutes возвращает записи индекса пользователя
func (uc *SavedRouteUseCase) ListUserRoutes(ctx context.Context, ownerID string) (*dto.RouteListResponse, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	if ownerID == "" {
		return nil, errors.ErrUnauthorized
	}

	entries, err := uc.maint.index.List(ctx, ownerID)
	if err != nil {
		return nil, storeError(err)
	}
	return &dto.RouteListResponse{Routes: entries, Total: len(entries)}, nil
}

// UpdateSavedRoute меняет имя, видимость, теги и описание сохранённого маршрута
func (uc *SavedRouteUseCase) UpdateSavedRoute(ctx context.Context, routeID string, req dto.UpdateSavedRouteRequest, ownerID string) (*dto.UpdateResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	if _, err := ownedRecord(ctx, uc.maint, domain.RouteKindSaved, routeID, ownerID); err != nil {
		return nil, err
	}

	now := uc.now()
	patch := domain.RecordPatch{
		Name:        req.Name,
		IsPublic:    req.IsPublic,
		Tags:        req.Tags,
		Description: req.Description,
		UpdatedAt:   &now,
	}

	batch := uc.routes.NewBatch(domain.RouteKindSaved, routeID)
	if err := batch.MergeRecord(patch); err != nil {
		return nil, storeError(err)
	}
	if req.Description != nil {
		// фото описания сохраняются, меняется только текст
		route, err := uc.routes.LoadRoute(ctx, domain.RouteKindSaved, routeID)
		if err != nil {
			return nil, storeError(err)
		}
		doc := domain.Description{Text: *req.Description, Photos: []domain.PhotoRef{}}
		if route.DescriptionDoc != nil && route.DescriptionDoc.Photos != nil {
			doc.Photos = route.DescriptionDoc.Photos
		}
		if err := batch.SetDescription(doc); err != nil {
			return nil, storeError(err)
		}
	}
	if err := uc.routes.Commit(ctx, batch); err != nil {
		uc.logger.Error("Failed to update saved route", zap.String("route_id", routeID), zap.Error(err))
		return nil, storeError(err)
	}

	result := &dto.UpdateResult{Result: dto.NewResult(), RouteID: routeID}
	uc.maint.afterSavedWrite(ctx, routeID, false, &result.Result)

	uc.logger.Info("Saved route updated", zap.String("route_id", routeID), zap.String("owner_id", ownerID))
	return result, nil
}

// UpdateSavedSegment меняет имя и цвет сегмента сохранённого маршрута
func (uc *SavedRouteUseCase) UpdateSavedSegment(ctx context.Context, routeID, segmentID string, req dto.UpdateSavedSegmentRequest, ownerID string) (*dto.UpdateResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	update := domain.SegmentUpdate{Name: req.Name, Color: req.Color}
	return updateSegment(ctx, uc.maint, domain.RouteKindSaved, routeID, segmentID, update, ownerID, uc.now())
}

// DeleteSegment удаляет сегмент сохранённого маршрута и пересчитывает статистику
func (uc *SavedRouteUseCase) DeleteSegment(ctx context.Context, routeID, segmentID, ownerID string) (*dto.DeleteSegmentResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	return deleteSegment(ctx, uc.maint, domain.RouteKindSaved, routeID, segmentID, ownerID, uc.now())
}

// DeleteSavedRoute удаляет маршрут со всеми документами и запись индекса.
// Если маршрута уже нет, удаляется только запись индекса
func (uc *SavedRouteUseCase) DeleteSavedRoute(ctx context.Context, routeID, ownerID string) (*dto.DeleteRouteResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	if ownerID == "" {
		return nil, errors.ErrUnauthorized
	}

	result := &dto.DeleteRouteResult{Result: dto.NewResult(), RouteID: routeID}

	record, err := uc.routes.GetRecord(ctx, domain.RouteKindSaved, routeID)
	if isNotFound(err) {
		if err := uc.maint.index.Remove(ctx, ownerID, routeID); err != nil {
			return nil, storeError(err)
		}
		uc.maint.invalidate(ctx, routeID, &result.Result)
		uc.logger.Info("Saved route already gone, index entry removed", zap.String("route_id", routeID))
		return result, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	if !record.OwnedBy(ownerID) {
		uc.logger.Warn("Delete owner mismatch", zap.String("route_id", routeID), zap.String("owner_id", ownerID))
		return nil, errors.ErrPermissionDenied
	}
	result.Existed = true

	if err := uc.routes.DeleteRoute(ctx, domain.RouteKindSaved, routeID); err != nil {
		uc.logger.Error("Failed to delete saved route", zap.String("route_id", routeID), zap.Error(err))
		return nil, storeError(err)
	}

	if err := uc.maint.index.Remove(ctx, ownerID, routeID); err != nil {
		result.Warn(dto.WarningIndexUpdateFailed, fmt.Sprintf("index entry for route %s not removed: %v", routeID, err))
	}

	if record.ThumbnailRef != "" {
		if uc.thumbnails == nil {
			result.Warn(dto.WarningMediaCleanupFailed, fmt.Sprintf("thumbnail %s not deleted: %v", record.ThumbnailRef, ErrThumbnailDisabled))
		} else if err := uc.thumbnails.Delete(ctx, record.ThumbnailRef); err != nil {
			uc.logger.Warn("Failed to delete thumbnail", zap.String("public_ref", record.ThumbnailRef), zap.Error(err))
			result.Warn(dto.WarningMediaCleanupFailed, fmt.Sprintf("thumbnail %s not deleted: %v", record.ThumbnailRef, err))
		}
	}

	uc.maint.invalidate(ctx, routeID, &result.Result)

	uc.logger.Info("Saved route deleted", zap.String("route_id", routeID), zap.String("owner_id", ownerID))
	return result, nil
}
