package usecase

import (
	"context"
	"fmt"

	"github.com/route-draft-service/internal/config"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// ErrThumbnailDisabled - не настроен рендерер карты или медиасервис
var ErrThumbnailDisabled = fmt.Errorf("thumbnail generation is not configured")

// ThumbnailUseCase рисует миниатюру маршрута и загружает её в медиасервис
type ThumbnailUseCase struct {
	routes   repository.RouteRepository
	renderer repository.StaticMapRenderer
	media    repository.MediaService
	maint    *routeMaintenance
	cfg      config.ThumbnailConfig
	logger   *zap.Logger
}

func NewThumbnailUseCase(
	routes repository.RouteRepository,
	renderer repository.StaticMapRenderer,
	media repository.MediaService,
	cache repository.CacheRepository,
	cfg config.ThumbnailConfig,
	logger *zap.Logger,
) *ThumbnailUseCase {
	return &ThumbnailUseCase{
		routes:   routes,
		renderer: renderer,
		media:    media,
		maint:    newRouteMaintenance(routes, cache, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Generate рисует карту по геометрии сегментов и загружает PNG в thumbnails/{routeId}
func (uc *ThumbnailUseCase) Generate(ctx context.Context, routeID string, segments []domain.Segment) (*domain.MediaRef, error) {
	if uc.renderer == nil || uc.media == nil {
		return nil, ErrThumbnailDisabled
	}

	paths := SamplePaths(segments, uc.cfg.MaxPoints, uc.cfg.Color)
	if len(paths) == 0 {
		return nil, fmt.Errorf("route %s has no drawable geometry", routeID)
	}

	image, err := uc.renderer.Render(ctx, domain.StaticMapRequest{
		Paths:  paths,
		Width:  uc.cfg.Width,
		Height: uc.cfg.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("render static map: %w", err)
	}

	ref, err := uc.media.Upload(ctx, domain.UploadRequest{
		Data:        image,
		Filename:    routeID + ".png",
		ContentType: "image/png",
		Folder:      mediaFolderThumbnails,
		PublicID:    routeID,
	})
	if err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}

	uc.logger.Info("Thumbnail generated",
		zap.String("route_id", routeID),
		zap.Int("paths", len(paths)),
		zap.String("public_ref", ref.PublicRef))
	return ref, nil
}

// Delete удаляет миниатюру. Пустая ссылка не ошибка
func (uc *ThumbnailUseCase) Delete(ctx context.Context, publicRef string) error {
	if publicRef == "" {
		return nil
	}
	if uc.media == nil {
		return ErrThumbnailDisabled
	}
	return uc.media.Delete(ctx, publicRef)
}

// Backfill догоняет миниатюру для маршрута, сохранённого без неё.
// Маршрут, у которого миниатюра уже есть, пропускается
func (uc *ThumbnailUseCase) Backfill(ctx context.Context, event domain.RoutePromotedEvent) (*dto.UpdateResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}

	route, err := uc.routes.LoadRoute(ctx, domain.RouteKindSaved, event.RouteID)
	if err != nil {
		return nil, storeError(err)
	}

	result := &dto.UpdateResult{Result: dto.NewResult(), RouteID: event.RouteID}
	if route.ThumbnailURL != "" {
		uc.logger.Debug("Route already has thumbnail", zap.String("route_id", event.RouteID))
		return result, nil
	}

	ref, err := uc.Generate(ctx, route.ID, route.Segments)
	if err != nil {
		return nil, err
	}

	batch := uc.routes.NewBatch(domain.RouteKindSaved, route.ID)
	if err := batch.MergeRecord(domain.RecordPatch{ThumbnailRef: &ref.PublicRef, ThumbnailURL: &ref.URL}); err != nil {
		return nil, storeError(err)
	}
	if err := uc.routes.Commit(ctx, batch); err != nil {
		uc.logger.Error("Failed to store thumbnail reference", zap.String("route_id", route.ID), zap.Error(err))
		if derr := uc.media.Delete(ctx, ref.PublicRef); derr != nil {
			uc.logger.Warn("Failed to delete orphaned thumbnail", zap.String("public_ref", ref.PublicRef), zap.Error(derr))
		}
		return nil, storeError(err)
	}

	route.ThumbnailRef = ref.PublicRef
	route.ThumbnailURL = ref.URL
	uc.maint.syncIndex(ctx, &route.RouteRecord, &result.Result)
	uc.maint.invalidate(ctx, route.ID, &result.Result)
	return result, nil
}

// SamplePaths превращает сегменты в линии статической карты, всего не больше maxPoints точек.
// Бюджет делится поровну между сегментами, первая и последняя точки сегмента сохраняются
func SamplePaths(segments []domain.Segment, maxPoints int, color string) []domain.StaticMapPath {
	drawable := make([]domain.Segment, 0, len(segments))
	for _, s := range segments {
		if len(s.Coordinates) >= 2 {
			drawable = append(drawable, s)
		}
	}
	if len(drawable) == 0 || maxPoints < 2 {
		return nil
	}
	if len(drawable)*2 > maxPoints {
		drawable = drawable[:maxPoints/2]
	}

	budget := maxPoints / len(drawable)
	paths := make([]domain.StaticMapPath, 0, len(drawable))
	for _, s := range drawable {
		pathColor := color
		if s.Color != "" {
			pathColor = s.Color
		}
		paths = append(paths, domain.StaticMapPath{
			Color:  pathColor,
			Points: samplePositions(s.Coordinates, budget),
		})
	}
	return paths
}

func samplePositions(coords []domain.Position, budget int) []domain.LngLat {
	n := len(coords)
	if budget > n {
		budget = n
	}

	out := make([]domain.LngLat, 0, budget)
	for i := 0; i < budget; i++ {
		idx := i * (n - 1) / (budget - 1)
		out = append(out, domain.LngLat{Lng: coords[idx][0], Lat: coords[idx][1]})
	}
	return out
}
