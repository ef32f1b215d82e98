package usecase

import (
	"context"
	"time"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// ownedRecord читает главный документ и проверяет владельца
func ownedRecord(ctx context.Context, m *routeMaintenance, kind domain.RouteKind, routeID, ownerID string) (*domain.RouteRecord, error) {
	if ownerID == "" {
		return nil, errors.ErrUnauthorized
	}
	record, err := m.routes.GetRecord(ctx, kind, routeID)
	if err != nil {
		return nil, storeError(err)
	}
	if !record.OwnedBy(ownerID) {
		m.logger.Warn("Route owner mismatch",
			zap.String("route_id", routeID),
			zap.String("kind", string(kind)),
			zap.String("owner_id", ownerID))
		return nil, errors.ErrPermissionDenied
	}
	return record, nil
}

// updateSegment меняет свойства сегмента. Смена типа маршрута допускается только у черновиков
func updateSegment(
	ctx context.Context,
	m *routeMaintenance,
	kind domain.RouteKind,
	routeID, segmentID string,
	update domain.SegmentUpdate,
	ownerID string,
	now time.Time,
) (*dto.UpdateResult, error) {
	record, err := ownedRecord(ctx, m, kind, routeID, ownerID)
	if err != nil {
		return nil, err
	}

	segments, err := m.routes.GetSegments(ctx, kind, routeID)
	if err != nil {
		return nil, storeError(err)
	}
	idx := findSegmentMeta(segments, segmentID)
	if idx < 0 {
		return nil, errors.ErrSegmentNotFound
	}
	update.Apply(&segments[idx])

	batch := m.routes.NewBatch(kind, routeID)
	patch := domain.RecordPatch{UpdatedAt: &now}
	if update.RouteType != nil && kind == domain.RouteKindDraft {
		if err := applyRouteType(batch, &patch, record.RouteType, *update.RouteType); err != nil {
			return nil, storeError(err)
		}
	}
	if err := batch.MergeRecord(patch); err != nil {
		return nil, storeError(err)
	}
	if err := batch.SetSegments(segments); err != nil {
		return nil, storeError(err)
	}
	if err := m.routes.Commit(ctx, batch); err != nil {
		return nil, storeError(err)
	}

	result := &dto.UpdateResult{Result: dto.NewResult(), RouteID: routeID}
	if kind == domain.RouteKindSaved {
		m.afterSavedWrite(ctx, routeID, false, &result.Result)
	}

	m.logger.Info("Segment updated",
		zap.String("route_id", routeID),
		zap.String("segment_id", segmentID),
		zap.String("kind", string(kind)))
	return result, nil
}

// deleteSegment удаляет геометрию и метаданные сегмента.
// Удаление последнего сегмента черновика удаляет весь черновик
func deleteSegment(
	ctx context.Context,
	m *routeMaintenance,
	kind domain.RouteKind,
	routeID, segmentID, ownerID string,
	now time.Time,
) (*dto.DeleteSegmentResult, error) {
	if _, err := ownedRecord(ctx, m, kind, routeID, ownerID); err != nil {
		return nil, err
	}

	segments, err := m.routes.GetSegments(ctx, kind, routeID)
	if err != nil {
		return nil, storeError(err)
	}
	idx := findSegmentMeta(segments, segmentID)
	if idx < 0 {
		return nil, errors.ErrSegmentNotFound
	}

	result := &dto.DeleteSegmentResult{Result: dto.NewResult(), RouteID: routeID}

	if kind == domain.RouteKindDraft && len(segments) == 1 {
		if err := m.routes.DeleteRoute(ctx, kind, routeID); err != nil {
			return nil, storeError(err)
		}
		result.RouteDeleted = true
		m.logger.Info("Last segment removed, draft deleted", zap.String("route_id", routeID))
		return result, nil
	}

	remaining := make([]domain.SegmentMeta, 0, len(segments)-1)
	remaining = append(remaining, segments[:idx]...)
	remaining = append(remaining, segments[idx+1:]...)

	batch := m.routes.NewBatch(kind, routeID)
	batch.DeleteSegmentGeometry(segmentID)
	if err := batch.SetSegments(remaining); err != nil {
		return nil, storeError(err)
	}
	if err := batch.MergeRecord(domain.RecordPatch{UpdatedAt: &now}); err != nil {
		return nil, storeError(err)
	}
	if err := m.routes.Commit(ctx, batch); err != nil {
		return nil, storeError(err)
	}

	if kind == domain.RouteKindSaved {
		m.afterSavedWrite(ctx, routeID, true, &result.Result)
	}

	m.logger.Info("Segment deleted",
		zap.String("route_id", routeID),
		zap.String("segment_id", segmentID),
		zap.Int("remaining", len(remaining)))
	return result, nil
}

func findSegmentMeta(segments []domain.SegmentMeta, segmentID string) int {
	for i := range segments {
		if segments[i].SegmentID == segmentID {
			return i
		}
	}
	return -1
}
