package domain

import "time"

// UserIndexEntry - запись о сохранённом маршруте в индексе пользователя
type UserIndexEntry struct {
	RouteID      string        `json:"routeId"`
	Name         string        `json:"name"`
	ThumbnailRef string        `json:"thumbnailRef,omitempty"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	Statistics   *RouteSummary `json:"statistics,omitempty"`
	Tags         []string      `json:"tags"`
	IsPublic     bool          `json:"isPublic"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// UserRouteIndex - индекс маршрутов пользователя, один документ на пользователя
type UserRouteIndex struct {
	UserID    string           `json:"userId"`
	Routes    []UserIndexEntry `json:"routes"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// IndexEntryFromRecord собирает запись индекса из главного документа
func IndexEntryFromRecord(r *RouteRecord) UserIndexEntry {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return UserIndexEntry{
		RouteID:      r.ID,
		Name:         r.Name,
		ThumbnailRef: r.ThumbnailRef,
		ThumbnailURL: r.ThumbnailURL,
		Statistics:   r.Statistics,
		Tags:         tags,
		IsPublic:     r.IsPublic,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
