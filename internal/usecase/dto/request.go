package dto

import "github.com/route-draft-service/internal/domain"

// SaveTarget - куда относится фрагмент. Порядок выбора: PermanentID, затем DraftID,
// затем SessionDraftID (последний известный id из сессии вызывающего), иначе новый черновик
type SaveTarget struct {
	PermanentID    string `json:"permanentId,omitempty" validate:"omitempty,max=128,excludesall=/"`
	DraftID        string `json:"draftId,omitempty" validate:"omitempty,max=128,excludesall=/"`
	SessionDraftID string `json:"sessionDraftId,omitempty" validate:"omitempty,max=128,excludesall=/"`
}

// ResolveDraftRequest - явный запрос "найти или создать черновик"
type ResolveDraftRequest struct {
	Target SaveTarget `json:"target"`
	Name   string     `json:"name,omitempty" validate:"max=200"`
}

// SaveSegmentRequest - сохранение сегмента (геометрия заменяется целиком)
type SaveSegmentRequest struct {
	Target    SaveTarget       `json:"target"`
	Segment   domain.Segment   `json:"segment"`
	RouteName string           `json:"routeName,omitempty" validate:"max=200"`
	RouteType domain.RouteType `json:"routeType,omitempty" validate:"omitempty,oneof=Single Bikepacking"`
}

// MergePOIsRequest - nil корзина не изменяется
type MergePOIsRequest struct {
	Target    SaveTarget   `json:"target"`
	Draggable []domain.POI `json:"draggable"`
	Places    []domain.POI `json:"places"`
}

type MergeLinesRequest struct {
	Target SaveTarget    `json:"target"`
	Lines  []domain.Line `json:"lines" validate:"required"`
}

type MergePhotosRequest struct {
	Target SaveTarget        `json:"target"`
	Photos []domain.PhotoRef `json:"photos" validate:"required"`
}

type SaveDescriptionRequest struct {
	Target      SaveTarget        `json:"target"`
	Description string            `json:"description" validate:"max=20000"`
	Photos      []domain.PhotoRef `json:"photos"`
}

type SaveMapOverviewRequest struct {
	Target      SaveTarget `json:"target"`
	Description string     `json:"description" validate:"max=20000"`
}

type UpdateHeaderSettingsRequest struct {
	Target   SaveTarget            `json:"target"`
	Settings domain.HeaderSettings `json:"settings"`
}

// UpdateSegmentRequest - изменение свойств сегмента черновика
type UpdateSegmentRequest struct {
	Name      *string           `json:"name,omitempty" validate:"omitempty,max=200"`
	Color     *string           `json:"color,omitempty" validate:"omitempty,max=32"`
	RouteType *domain.RouteType `json:"routeType,omitempty" validate:"omitempty,oneof=Single Bikepacking"`
}

func (r UpdateSegmentRequest) ToDomain() domain.SegmentUpdate {
	return domain.SegmentUpdate{Name: r.Name, Color: r.Color, RouteType: r.RouteType}
}

type UpdateMasterRouteRequest struct {
	Description string               `json:"description" validate:"max=20000"`
	Statistics  *domain.RouteSummary `json:"statistics,omitempty"`
}

// PromoteDraftRequest - сохранение черновика как постоянного маршрута
type PromoteDraftRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	IsPublic bool     `json:"isPublic"`
	Tags     []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// UpdateSavedRouteRequest - изменение полей верхнего уровня сохранённого маршрута
type UpdateSavedRouteRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	IsPublic    *bool     `json:"isPublic,omitempty"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=20000"`
}

// UpdateSavedSegmentRequest - у сохранённого маршрута меняются только имя и цвет сегмента
type UpdateSavedSegmentRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}
