package domain

import "time"

// Stream names
const (
	StreamRoutePromoted = "stream:route:promoted"
)

// RoutePromotedEvent - событие о сохранении черновика как постоянного маршрута
type RoutePromotedEvent struct {
	RouteID      string    `json:"route_id"`
	OwnerID      string    `json:"owner_id"`
	DraftID      string    `json:"draft_id"`
	HasThumbnail bool      `json:"has_thumbnail"`
	PromotedAt   time.Time `json:"promoted_at"`
}

// NeedsThumbnail - миниатюру не удалось сделать при сохранении
func (e *RoutePromotedEvent) NeedsThumbnail() bool {
	return !e.HasThumbnail && e.RouteID != ""
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
