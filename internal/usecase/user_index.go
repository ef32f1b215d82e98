package usecase

import (
	"context"
	"errors"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"go.uber.org/zap"
)

// UserIndexMaintainer ведёт индекс сохранённых маршрутов пользователя (один документ на пользователя).
// Блокировок нет: параллельные изменения одного индекса перезаписывают друг друга
type UserIndexMaintainer struct {
	routes repository.RouteRepository
	logger *zap.Logger
}

func NewUserIndexMaintainer(routes repository.RouteRepository, logger *zap.Logger) *UserIndexMaintainer {
	return &UserIndexMaintainer{
		routes: routes,
		logger: logger,
	}
}

// Upsert заменяет запись с тем же routeId на месте (createdAt сохраняется) или добавляет новую.
// Повторный вызов с теми же данными ничего не меняет
func (m *UserIndexMaintainer) Upsert(ctx context.Context, userID string, entry domain.UserIndexEntry) error {
	index, err := m.load(ctx, userID)
	if err != nil {
		return err
	}

	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	replaced := false
	for i := range index.Routes {
		if index.Routes[i].RouteID != entry.RouteID {
			continue
		}
		if !index.Routes[i].CreatedAt.IsZero() {
			entry.CreatedAt = index.Routes[i].CreatedAt
		}
		index.Routes[i] = entry
		replaced = true
		break
	}
	if !replaced {
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = entry.UpdatedAt
		}
		index.Routes = append(index.Routes, entry)
	}

	if index.CreatedAt.IsZero() {
		index.CreatedAt = entry.CreatedAt
	}
	if entry.UpdatedAt.After(index.UpdatedAt) {
		index.UpdatedAt = entry.UpdatedAt
	}

	if err := m.routes.PutUserIndex(ctx, index); err != nil {
		m.logger.Error("Failed to upsert user index entry",
			zap.String("user_id", userID),
			zap.String("route_id", entry.RouteID),
			zap.Error(err))
		return err
	}
	return nil
}

// Remove удаляет запись по routeId. Отсутствие записи или индекса - не ошибка
func (m *UserIndexMaintainer) Remove(ctx context.Context, userID, routeID string) error {
	index, err := m.routes.GetUserIndex(ctx, userID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	kept := make([]domain.UserIndexEntry, 0, len(index.Routes))
	for _, e := range index.Routes {
		if e.RouteID != routeID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(index.Routes) {
		return nil
	}

	index.Routes = kept
	if err := m.routes.PutUserIndex(ctx, index); err != nil {
		m.logger.Error("Failed to remove user index entry",
			zap.String("user_id", userID),
			zap.String("route_id", routeID),
			zap.Error(err))
		return err
	}
	return nil
}

// List возвращает записи индекса пользователя, пустой список если индекса нет
func (m *UserIndexMaintainer) List(ctx context.Context, userID string) ([]domain.UserIndexEntry, error) {
	index, err := m.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return index.Routes, nil
}

func (m *UserIndexMaintainer) load(ctx context.Context, userID string) (*domain.UserRouteIndex, error) {
	index, err := m.routes.GetUserIndex(ctx, userID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return &domain.UserRouteIndex{UserID: userID, Routes: []domain.UserIndexEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return index, nil
}
