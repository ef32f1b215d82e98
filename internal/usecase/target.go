package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// resolvedTarget - маршрут, к которому относится запись.
// Для нового черновика Record заполнен, но ещё не сохранён
type resolvedTarget struct {
	Kind    domain.RouteKind
	ID      string
	Record  *domain.RouteRecord
	Created bool
}

func (t *resolvedTarget) permanent() bool {
	return t.Kind == domain.RouteKindSaved
}

// targetResolver выбирает маршрут для записи фрагмента
type targetResolver struct {
	routes repository.RouteRepository
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func newTargetResolver(routes repository.RouteRepository, logger *zap.Logger) *targetResolver {
	return &targetResolver{
		routes: routes,
		now:    utcNow,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// resolve: постоянный id всегда побеждает, затем проверенный draftId, затем id из сессии.
// Чужой, удалённый или уже сохранённый черновик считается отсутствующим.
// create=false возвращает ROUTE_NOT_FOUND вместо создания нового черновика
func (r *targetResolver) resolve(ctx context.Context, target dto.SaveTarget, ownerID string, create bool) (*resolvedTarget, error) {
	if ownerID == "" {
		return nil, errors.ErrUnauthorized
	}

	if target.PermanentID != "" {
		record, err := r.routes.GetRecord(ctx, domain.RouteKindSaved, target.PermanentID)
		if err != nil {
			return nil, storeError(err)
		}
		if !record.OwnedBy(ownerID) {
			r.logger.Warn("Permanent route owner mismatch",
				zap.String("route_id", target.PermanentID),
				zap.String("owner_id", ownerID))
			return nil, errors.ErrPermissionDenied
		}
		return &resolvedTarget{Kind: domain.RouteKindSaved, ID: record.ID, Record: record}, nil
	}

	for _, candidate := range []string{target.DraftID, target.SessionDraftID} {
		if candidate == "" {
			continue
		}
		record, err := r.routes.GetRecord(ctx, domain.RouteKindDraft, candidate)
		if isNotFound(err) {
			r.logger.Debug("Draft hint not found, ignoring", zap.String("draft_id", candidate))
			continue
		}
		if err != nil {
			return nil, storeError(err)
		}
		if !record.OwnedBy(ownerID) || record.Status != domain.DraftStatusPendingAction {
			r.logger.Debug("Draft hint not usable, ignoring",
				zap.String("draft_id", candidate),
				zap.String("status", string(record.Status)))
			continue
		}
		return &resolvedTarget{Kind: domain.RouteKindDraft, ID: record.ID, Record: record}, nil
	}

	if !create {
		return nil, errors.ErrRouteNotFound
	}

	now := r.now()
	id := r.newID()
	r.logger.Info("Creating new draft", zap.String("draft_id", id), zap.String("owner_id", ownerID))

	return &resolvedTarget{
		Kind: domain.RouteKindDraft,
		ID:   id,
		Record: &domain.RouteRecord{
			ID:        id,
			Kind:      domain.RouteKindDraft,
			OwnerID:   ownerID,
			Status:    domain.DraftStatusPendingAction,
			RouteType: domain.RouteTypeSingle,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Created: true,
	}, nil
}

// recordPatch - для нового черновика все поля записи, иначе только updatedAt
func (t *resolvedTarget) recordPatch(now time.Time) domain.RecordPatch {
	if t.Created {
		t.Record.UpdatedAt = now
		return domain.PatchFromRecord(t.Record)
	}
	t.Record.UpdatedAt = now
	return domain.RecordPatch{UpdatedAt: &now}
}
