package usecase

import (
	"context"
	"sort"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/pkg/merge"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// DraftUseCase - запись фрагментов в черновик или сохранённый маршрут
type DraftUseCase struct {
	routes       repository.RouteRepository
	materializer *MediaMaterializer
	maint        *routeMaintenance
	resolver     *targetResolver
	logger       *zap.Logger
}

// NewDraftUseCase создаёт usecase. routes == nil означает, что хранилище не настроено
func NewDraftUseCase(
	routes repository.RouteRepository,
	materializer *MediaMaterializer,
	cache repository.CacheRepository,
	logger *zap.Logger,
) *DraftUseCase {
	return &DraftUseCase{
		routes:       routes,
		materializer: materializer,
		maint:        newRouteMaintenance(routes, cache, logger),
		resolver:     newTargetResolver(routes, logger),
		logger:       logger,
	}
}

// ResolveOrCreateDraft возвращает id, который вызывающий передаёт в последующие сохранения
func (uc *DraftUseCase) ResolveOrCreateDraft(ctx context.Context, req dto.ResolveDraftRequest, ownerID string) (*dto.ResolveResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}

	target, err := uc.resolver.resolve(ctx, req.Target, ownerID, true)
	if err != nil {
		return nil, err
	}

	if target.Created {
		target.Record.Name = req.Name
		batch := uc.routes.NewBatch(target.Kind, target.ID)
		if err := batch.MergeRecord(domain.PatchFromRecord(target.Record)); err != nil {
			return nil, storeError(err)
		}
		if err := uc.routes.Commit(ctx, batch); err != nil {
			uc.logger.Error("Failed to create draft", zap.String("route_id", target.ID), zap.Error(err))
			return nil, storeError(err)
		}
	}

	return &dto.ResolveResult{RouteID: target.ID, Kind: target.Kind, Created: target.Created}, nil
}

// SaveRouteFragment сохраняет сегмент. Геометрия заменяется целиком, метаданные сегмента
// обновляются на месте или добавляются в конец
func (uc *DraftUseCase) SaveRouteFragment(ctx context.Context, req dto.SaveSegmentRequest, ownerID string) (*dto.SaveResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	if req.Segment.SegmentID == "" {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"field": "segment.segmentId"})
	}

	target, err := uc.resolver.resolve(ctx, req.Target, ownerID, true)
	if err != nil {
		return nil, err
	}

	segments := []domain.SegmentMeta{}
	if !target.Created {
		if segments, err = uc.routes.GetSegments(ctx, target.Kind, target.ID); err != nil {
			return nil, storeError(err)
		}
	}

	now := uc.resolver.now()
	segment := req.Segment
	if idx := findSegmentMeta(segments, segment.SegmentID); idx >= 0 {
		if segment.AddedAt.IsZero() {
			segment.AddedAt = segments[idx].AddedAt
		}
		segments[idx] = segment.SegmentMeta
	} else {
		if segment.AddedAt.IsZero() {
			segment.AddedAt = now
		}
		segments = append(segments, segment.SegmentMeta)
	}

	if target.Created {
		target.Record.Name = firstNonEmpty(req.RouteName, segment.Name)
		target.Record.SourceFileName = segment.SourceFileName
	}
	patch := target.recordPatch(now)
	if !target.Created && req.RouteName != "" {
		patch.Name = &req.RouteName
	}

	batch := uc.routes.NewBatch(target.Kind, target.ID)
	if !target.permanent() {
		if err := applyRouteType(batch, &patch, target.Record.RouteType, req.RouteType); err != nil {
			return nil, storeError(err)
		}
	}
	if err := batch.MergeRecord(patch); err != nil {
		return nil, storeError(err)
	}
	if err := batch.SetSegments(segments); err != nil {
		return nil, storeError(err)
	}
	if err := batch.SetSegmentGeometry(segment); err != nil {
		return nil, storeError(err)
	}
	if err := uc.routes.Commit(ctx, batch); err != nil {
		uc.logger.Error("Failed to save segment",
			zap.String("route_id", target.ID),
			zap.String("segment_id", segment.SegmentID),
			zap.Error(err))
		return nil, storeError(err)
	}

	result := newSaveResult(target)
	if target.permanent() {
		uc.maint.afterSavedWrite(ctx, target.ID, true, &result.Result)
	}

	uc.logger.Info("Segment saved",
		zap.String("route_id", target.ID),
		zap.String("segment_id", segment.SegmentID),
		zap.Bool("created", target.Created),
		zap.Int("points", len(segment.Coordinates)))
	return result, nil
}

// MergePOIs объединяет точки интереса по id. Для сохранённого маршрута корзины заменяются
func (uc *DraftUseCase) MergePOIs(ctx context.Context, req dto.MergePOIsRequest, ownerID string) (*dto.SaveResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	if err := requirePOIIDs(req.Draggable, req.Places); err != nil {
		return nil, err
	}

	target, err := uc.resolver.resolve(ctx, req.Target, ownerID, true)
	if err != nil {
		return nil, err
	}

	existing := domain.POIBuckets{}
	if !target.Created {
		if existing, err = uc.routes.GetPOIs(ctx, target.Kind, target.ID); err != nil {
			return nil, storeError(err)
		}
	}

	mode := mergeMode(target)
	if req.Draggable != nil {
		existing.Draggable = merge.ByID(existing.Draggable, req.Draggable, mode)
	}
	if req.Places != nil {
		existing.Places = merge.ByID(existing.Places, req.Places, mode)
	}

	batch := uc.routes.NewBatch(target.Kind, target.ID)
	if err := batch.SetPOIs(existing); err != nil {
		return nil, storeError(err)
	}
	result, err := uc.commitFragment(ctx, target, batch, "pois")
	if err != nil {
		return nil, err
	}

	uc.logger.Info("POIs merged",
		zap.String("route_id", target.ID),
		zap.Int("draggable", len(existing.Draggable)),
		zap.Int("places", len(existing.Places)))
	return result, nil
}

// MergeLines загружает фото линий и объединяет линии по id
func (uc *DraftUseCase) MergeLines(ctx context.Context, req dto.MergeLinesRequest, ownerID string) (*dto.SaveResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	for _, line := range req.Lines {
		if line.ID == "" {
			return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"field": "lines.id"})
		}
	}

	target, err := uc.resolver.resolve(ctx, req.Target, ownerID, true)
	if err != nil {
		return nil, err
	}

	incoming, warnings := uc.materializer.MaterializeLines(ctx, req.Lines)
	if target.permanent() {
		for i := range incoming {
			incoming[i].Photos = domain.MinimizeLocalPhotos(incoming[i].Photos)
		}
	}

	existing := []domain.Line{}
	if !target.Created {
		if existing, err = uc.routes.GetLines(ctx, target.Kind, target.ID); err != nil {
			return nil, storeError(err)
		}
	}
	lines := merge.ByID(existing, incoming, mergeMode(target))

	batch := uc.routes.NewBatch(target.Kind, target.ID)
	if err := batch.SetLines(lines); err != nil {
		return nil, storeError(err)
	}
	result, err := uc.commitFragment(ctx, target, batch, "lines")
	if err != nil {
		return nil, err
	}
	result.AddWarnings(warnings)

	uc.logger.Info("Lines merged", zap.String("route_id", target.ID), zap.Int("lines", len(lines)))
	return result, nil
}

// MergePhotos загружает локальные фото и объединяет фото по id
func (uc *DraftUseCase) MergePhotos(ctx context.Context, req dto.MergePhotosRequest, ownerID string) (*dto.SaveResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	for _, photo := range req.Photos {
		if photo.ID == "" {
			return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"field": "photos.id"})
		}
	}

	target, err := uc.resolver.resolve(ctx, req.Target, ownerID, true)
	if err != nil {
		return nil, err
	}

	incoming, warnings := uc.materializer.MaterializePhotos(ctx, req.Photos)
	if target.permanent() {
		incoming = domain.MinimizeLocalPhotos(incoming)
	}

	existing := []domain.PhotoRef{}
	if !target.Created {
		if existing, err = uc.routes.GetPhotos(ctx, target.Kind, target.ID); err != nil {
			return nil, storeError(err)
		}
	}
	photos := merge.ByID(existing, incoming, mergeMode(target))

	batch := uc.routes.NewBatch(target.Kind, target.ID)
	if err := batch.SetPhotos(photos); err != nil {
		return nil, storeError(err)
	}
	result, err := uc.commitFragment(ctx, target, batch, "photos")
	if err != nil {
		return nil, err
	}
	result.AddWarnings(warnings)

	uc.logger.Info("Photos merged", zap.String("route_id", target.ID), zap.Int("photos", len(photos)))
	return result, nil
}

// SaveDescription сохраняет текстовое описание. Локальные фото сокращаются до метаданных
func (uc *DraftUseCase) SaveDescription(ctx context.Context, req dto.SaveDescriptionRequest, ownerID string) (*dto.SaveResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}

	target, err := uc.resolver.resolve(ctx, req.Target, ownerID, true)
	if err != nil {
		return nil, err
	}

	photos, warnings := uc.materializer.MaterializePhotos(ctx, req.Photos)
	photos = domain.MinimizeLocalPhotos(photos)
	if photos == nil {
		photos = []domain.PhotoRef{}
	}

	now := uc.resolver.now()
	patch := target.recordPatch(now)
	if target.permanent() {
		patch.Description = &req.Description
	}

	batch := uc.routes.NewBatch(target.Kind, target.ID)
	if err := batch.MergeRecord(patch); err != nil {
		return nil, storeError(err)
	}
	if err := batch.SetDescription(domain.Description{Text: req.Description, Photos: photos}); err != nil {
		return nil, storeError(err)
	}
	if err := uc.routes.Commit(ctx, batch); err != nil {
		uc.logger.Error("Failed to save description", zap.String("route_id", target.ID), zap.Error(err))
		return nil, storeError(err)
	}

	result := newSaveResult(target)
	result.AddWarnings(warnings)
	if target.permanent() {
		uc.maint.afterSavedWrite(ctx, target.ID, false, &result.Result)
	}
	return result, nil
}

// SaveMapOverview сохраняет обзорный текст над картой
func (uc *DraftUseCase) SaveMapOverview(ctx context.Context, req dto.SaveMapOverviewRequest, ownerID string) (*dto.SaveResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}

	target, err := uc.resolver.resolve(ctx, req.Target, ownerID, true)
	if err != nil {
		return nil, err
	}

	batch := uc.routes.NewBatch(target.Kind, target.ID)
	if err := batch.SetMapOverview(domain.MapOverview{Description: req.Description}); err != nil {
		return nil, storeError(err)
	}
	return uc.commitFragment(ctx, target, batch, "mapOverview")
}

// UpdateHeaderSettings загружает логотип и записывает оформление шапки.
// Маршрут должен уже существовать
func (uc *DraftUseCase) UpdateHeaderSettings(ctx context.Context, req dto.UpdateHeaderSettingsRequest, ownerID string) (*dto.SaveResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}

	target, err := uc.resolver.resolve(ctx, req.Target, ownerID, false)
	if err != nil {
		return nil, err
	}

	settings := req.Settings
	warnings := uc.materializer.MaterializeLogo(ctx, &settings)

	now := uc.resolver.now()
	patch := target.recordPatch(now)
	patch.HeaderSettings = &settings

	batch := uc.routes.NewBatch(target.Kind, target.ID)
	if err := batch.MergeRecord(patch); err != nil {
		return nil, storeError(err)
	}
	if err := uc.routes.Commit(ctx, batch); err != nil {
		uc.logger.Error("Failed to update header settings", zap.String("route_id", target.ID), zap.Error(err))
		return nil, storeError(err)
	}

	result := newSaveResult(target)
	result.AddWarnings(warnings)
	if target.permanent() {
		uc.maint.invalidate(ctx, target.ID, &result.Result)
	}
	return result, nil
}

// UpdateSegmentProperties меняет имя, цвет сегмента черновика и тип маршрута
func (uc *DraftUseCase) UpdateSegmentProperties(ctx context.Context, draftID, segmentID string, req dto.UpdateSegmentRequest, ownerID string) (*dto.UpdateResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	return updateSegment(ctx, uc.maint, domain.RouteKindDraft, draftID, segmentID, req.ToDomain(), ownerID, uc.resolver.now())
}

// DeleteSegment удаляет сегмент черновика
func (uc *DraftUseCase) DeleteSegment(ctx context.Context, draftID, segmentID, ownerID string) (*dto.DeleteSegmentResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	return deleteSegment(ctx, uc.maint, domain.RouteKindDraft, draftID, segmentID, ownerID, uc.resolver.now())
}

// UpdateMasterRoute обновляет сводный документ bikepacking черновика
func (uc *DraftUseCase) UpdateMasterRoute(ctx context.Context, draftID string, req dto.UpdateMasterRouteRequest, ownerID string) (*dto.UpdateResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}

	record, err := ownedRecord(ctx, uc.maint, domain.RouteKindDraft, draftID, ownerID)
	if err != nil {
		return nil, err
	}
	if record.RouteType != domain.RouteTypeBikepacking {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reason":    "route is not Bikepacking",
			"routeType": record.RouteType,
		})
	}

	now := uc.resolver.now()
	batch := uc.routes.NewBatch(domain.RouteKindDraft, draftID)
	if err := batch.SetMasterRoute(domain.MasterRoute{Description: req.Description, Statistics: req.Statistics}); err != nil {
		return nil, storeError(err)
	}
	if err := batch.MergeRecord(domain.RecordPatch{UpdatedAt: &now}); err != nil {
		return nil, storeError(err)
	}
	if err := uc.routes.Commit(ctx, batch); err != nil {
		return nil, storeError(err)
	}
	return &dto.UpdateResult{Result: dto.NewResult(), RouteID: draftID}, nil
}

// LoadDraft читает полный черновик. Чужой черновик не отличается от отсутствующего
func (uc *DraftUseCase) LoadDraft(ctx context.Context, draftID, ownerID string) (*domain.Route, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	if ownerID == "" {
		return nil, errors.ErrUnauthorized
	}

	route, err := uc.routes.LoadRoute(ctx, domain.RouteKindDraft, draftID)
	if err != nil {
		return nil, storeError(err)
	}
	if !route.VisibleTo(ownerID) {
		return nil, errors.ErrRouteNotFound
	}
	return route, nil
}

// LatestDraft возвращает последний изменённый черновик пользователя в статусе pending_action
func (uc *DraftUseCase) LatestDraft(ctx context.Context, ownerID string) (*domain.Route, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	if ownerID == "" {
		return nil, errors.ErrUnauthorized
	}

	records, err := uc.routes.FindDraftsByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err)
	}

	pending := make([]domain.RouteRecord, 0, len(records))
	for _, r := range records {
		if r.Status == domain.DraftStatusPendingAction {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return nil, errors.ErrRouteNotFound
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].UpdatedAt.After(pending[j].UpdatedAt)
	})

	return uc.LoadDraft(ctx, pending[0].ID, ownerID)
}

// commitFragment дописывает в батч обновление главного документа и применяет его
func (uc *DraftUseCase) commitFragment(ctx context.Context, target *resolvedTarget, batch repository.RouteBatch, fragment string) (*dto.SaveResult, error) {
	if err := batch.MergeRecord(target.recordPatch(uc.resolver.now())); err != nil {
		return nil, storeError(err)
	}
	if err := uc.routes.Commit(ctx, batch); err != nil {
		uc.logger.Error("Failed to commit fragment",
			zap.String("route_id", target.ID),
			zap.String("fragment", fragment),
			zap.Error(err))
		return nil, storeError(err)
	}

	result := newSaveResult(target)
	if target.permanent() {
		uc.maint.afterSavedWrite(ctx, target.ID, false, &result.Result)
	}
	return result, nil
}

func newSaveResult(target *resolvedTarget) *dto.SaveResult {
	return &dto.SaveResult{
		Result:  dto.NewResult(),
		RouteID: target.ID,
		Kind:    target.Kind,
		Created: target.Created,
	}
}

// mergeMode - черновики сливаются, сохранённые маршруты заменяются
func mergeMode(target *resolvedTarget) merge.Mode {
	if target.permanent() {
		return merge.ModeReplace
	}
	return merge.ModeMerge
}

func requirePOIIDs(buckets ...[]domain.POI) error {
	for _, bucket := range buckets {
		for _, p := range bucket {
			if p.ID == "" {
				return errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"field": "pois.id"})
			}
		}
	}
	return nil
}
