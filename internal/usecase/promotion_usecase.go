package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// PromotionUseCase превращает черновик в постоянный маршрут
type PromotionUseCase struct {
	routes       repository.RouteRepository
	materializer *MediaMaterializer
	thumbnails   *ThumbnailUseCase
	stream       repository.StreamRepository
	index        *UserIndexMaintainer
	now          func() time.Time
	newID        func() string
	logger       *zap.Logger
}

// NewPromotionUseCase: thumbnails и stream могут быть nil, тогда эти шаги пропускаются
func NewPromotionUseCase(
	routes repository.RouteRepository,
	materializer *MediaMaterializer,
	thumbnails *ThumbnailUseCase,
	stream repository.StreamRepository,
	logger *zap.Logger,
) *PromotionUseCase {
	return &PromotionUseCase{
		routes:       routes,
		materializer: materializer,
		thumbnails:   thumbnails,
		stream:       stream,
		index:        NewUserIndexMaintainer(routes, logger),
		now:          utcNow,
		newID:        uuid.NewString,
		logger:       logger,
	}
}

// PromoteDraft сохраняет черновик как постоянный маршрут.
// Ошибка возвращается, только если маршрут не записан. Миниатюра, индекс,
// удаление черновика и событие выполняются по возможности и дают предупреждения
func (uc *PromotionUseCase) PromoteDraft(ctx context.Context, draftID string, req dto.PromoteDraftRequest, ownerID string) (*dto.PromoteResult, error) {
	if uc.routes == nil {
		return nil, errors.ErrNotInitialized
	}
	if ownerID == "" {
		return nil, errors.ErrUnauthorized
	}

	draft, err := uc.routes.LoadRoute(ctx, domain.RouteKindDraft, draftID)
	if err != nil {
		uc.logger.Error("Failed to load draft for promotion", zap.String("draft_id", draftID), zap.Error(err))
		return nil, storeError(err)
	}
	if !draft.OwnedBy(ownerID) {
		uc.logger.Warn("Promotion owner mismatch", zap.String("draft_id", draftID), zap.String("owner_id", ownerID))
		return nil, errors.ErrPermissionDenied
	}
	if draft.Status != domain.DraftStatusPendingAction {
		uc.logger.Warn("Draft is not promotable",
			zap.String("draft_id", draftID),
			zap.String("status", string(draft.Status)))
		return nil, errors.ErrRouteNotFound
	}

	routeID := uc.newID()
	now := uc.now()
	result := &dto.PromoteResult{Result: dto.NewResult(), RouteID: routeID, DraftID: draftID}

	var thumbnail *domain.MediaRef
	if uc.thumbnails != nil {
		thumbnail, err = uc.thumbnails.Generate(ctx, routeID, draft.Segments)
		if err != nil {
			uc.logger.Warn("Thumbnail generation failed", zap.String("route_id", routeID), zap.Error(err))
			result.Warn(dto.WarningThumbnailUnavailable, err.Error())
			thumbnail = nil
		}
	} else {
		result.Warn(dto.WarningThumbnailUnavailable, ErrThumbnailDisabled.Error())
	}

	photos, warnings := uc.materializer.MaterializePhotos(ctx, draft.Photos)
	result.AddWarnings(warnings)
	lines, warnings := uc.materializer.MaterializeLines(ctx, draft.Lines)
	result.AddWarnings(warnings)
	for i := range lines {
		lines[i].Photos = domain.MinimizeLocalPhotos(lines[i].Photos)
	}

	var description *domain.Description
	if draft.DescriptionDoc != nil {
		descPhotos, warnings := uc.materializer.MaterializePhotos(ctx, draft.DescriptionDoc.Photos)
		result.AddWarnings(warnings)
		description = &domain.Description{Text: draft.DescriptionDoc.Text, Photos: domain.MinimizeLocalPhotos(descPhotos)}
		if description.Photos == nil {
			description.Photos = []domain.PhotoRef{}
		}
	}

	summary := CalculateSummary(draft.Segments)
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	record := domain.RouteRecord{
		ID:             routeID,
		Kind:           domain.RouteKindSaved,
		OwnerID:        ownerID,
		RouteType:      draft.RouteType,
		Name:           req.Name,
		SourceFileName: draft.SourceFileName,
		HeaderSettings: draft.HeaderSettings,
		IsPublic:       req.IsPublic,
		Tags:           tags,
		Statistics:     &summary,
		PromotedFrom:   draftID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if thumbnail != nil {
		record.ThumbnailRef = thumbnail.PublicRef
		record.ThumbnailURL = thumbnail.URL
	}
	if description != nil {
		record.Description = description.Text
	}

	batch, err := uc.buildBatch(record, draft, photos, lines, description)
	if err == nil {
		err = uc.routes.Commit(ctx, batch)
	}
	if err != nil {
		uc.logger.Error("Failed to write promoted route",
			zap.String("draft_id", draftID),
			zap.String("route_id", routeID),
			zap.Error(err))
		if thumbnail != nil {
			if derr := uc.thumbnails.Delete(ctx, thumbnail.PublicRef); derr != nil {
				uc.logger.Warn("Failed to delete orphaned thumbnail", zap.String("public_ref", thumbnail.PublicRef), zap.Error(derr))
			}
		}
		return nil, storeError(err)
	}

	if err := uc.index.Upsert(ctx, ownerID, domain.IndexEntryFromRecord(&record)); err != nil {
		result.Warn(dto.WarningIndexUpdateFailed, fmt.Sprintf("user index not updated for route %s: %v", routeID, err))
	}

	if err := uc.routes.DeleteRoute(ctx, domain.RouteKindDraft, draftID); err != nil {
		uc.logger.Warn("Draft cleanup failed after promotion",
			zap.String("draft_id", draftID),
			zap.String("route_id", routeID),
			zap.Error(err))
		result.Warn(dto.WarningDraftCleanupFailed, fmt.Sprintf("draft %s was not deleted: %v", draftID, err))
		uc.retireDraft(ctx, draftID, now)
	}

	uc.publish(ctx, record, result)

	result.Statistics = &summary
	result.ThumbnailURL = record.ThumbnailURL

	uc.logger.Info("Draft promoted",
		zap.String("draft_id", draftID),
		zap.String("route_id", routeID),
		zap.String("owner_id", ownerID),
		zap.Int("segments", len(draft.Segments)),
		zap.String("outcome", string(result.Outcome)))
	return result, nil
}

// buildBatch собирает полную запись маршрута. Фрагменты заменяют содержимое целиком
func (uc *PromotionUseCase) buildBatch(
	record domain.RouteRecord,
	draft *domain.Route,
	photos []domain.PhotoRef,
	lines []domain.Line,
	description *domain.Description,
) (repository.RouteBatch, error) {
	batch := uc.routes.NewBatch(domain.RouteKindSaved, record.ID)

	if err := batch.SetRecord(record); err != nil {
		return nil, err
	}

	metas := make([]domain.SegmentMeta, 0, len(draft.Segments))
	for _, s := range draft.Segments {
		metas = append(metas, s.SegmentMeta)
		if err := batch.SetSegmentGeometry(s); err != nil {
			return nil, err
		}
	}
	if err := batch.SetSegments(metas); err != nil {
		return nil, err
	}
	if err := batch.SetPOIs(draft.POIs); err != nil {
		return nil, err
	}
	if err := batch.SetLines(lines); err != nil {
		return nil, err
	}
	if err := batch.SetPhotos(domain.MinimizeLocalPhotos(photos)); err != nil {
		return nil, err
	}
	if description != nil {
		if err := batch.SetDescription(*description); err != nil {
			return nil, err
		}
	}
	if draft.MasterRoute != nil {
		if err := batch.SetMasterRoute(*draft.MasterRoute); err != nil {
			return nil, err
		}
	}
	if draft.MapOverview != nil {
		if err := batch.SetMapOverview(*draft.MapOverview); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// retireDraft помечает неудалённый черновик как promoted: резолвер и LatestDraft его больше не выбирают,
// повторное сохранение отклоняется
func (uc *PromotionUseCase) retireDraft(ctx context.Context, draftID string, now time.Time) {
	status := domain.DraftStatusPromoted
	batch := uc.routes.NewBatch(domain.RouteKindDraft, draftID)
	err := batch.MergeRecord(domain.RecordPatch{Status: &status, UpdatedAt: &now})
	if err == nil {
		err = uc.routes.Commit(ctx, batch)
	}
	if err != nil {
		uc.logger.Error("Failed to mark leftover draft as promoted", zap.String("draft_id", draftID), zap.Error(err))
	}
}

func (uc *PromotionUseCase) publish(ctx context.Context, record domain.RouteRecord, result *dto.PromoteResult) {
	if uc.stream == nil {
		return
	}
	event := domain.RoutePromotedEvent{
		RouteID:      record.ID,
		OwnerID:      record.OwnerID,
		DraftID:      record.PromotedFrom,
		HasThumbnail: record.ThumbnailURL != "",
		PromotedAt:   record.CreatedAt,
	}
	if err := uc.stream.PublishToStream(ctx, domain.StreamRoutePromoted, event); err != nil {
		uc.logger.Warn("Failed to publish promotion event", zap.String("route_id", record.ID), zap.Error(err))
		result.Warn(dto.WarningEventPublishFailed, err.Error())
	}
}
