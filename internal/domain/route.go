package domain

import "time"

// RouteKind различает черновик и сохранённый маршрут
type RouteKind string

const (
	RouteKindDraft RouteKind = "draft"
	RouteKindSaved RouteKind = "saved"
)

// Namespace возвращает корневую коллекцию документов для вида маршрута
func (k RouteKind) Namespace() string {
	if k == RouteKindSaved {
		return "routes"
	}
	return "drafts"
}

func (k RouteKind) Valid() bool {
	return k == RouteKindDraft || k == RouteKindSaved
}

// DraftStatus - статус черновика. У сохранённых маршрутов статуса нет.
type DraftStatus string

const (
	DraftStatusPendingAction DraftStatus = "pending_action"
	DraftStatusPromoted      DraftStatus = "promoted"
	DraftStatusDeleted       DraftStatus = "deleted"
)

type RouteType string

const (
	RouteTypeSingle      RouteType = "Single"
	RouteTypeBikepacking RouteType = "Bikepacking"
)

// HeaderSettings - оформление шапки маршрута
type HeaderSettings struct {
	Color         string `json:"color,omitempty"`
	Username      string `json:"username,omitempty"`
	LogoURL       string `json:"logoUrl,omitempty"`
	LogoPublicRef string `json:"logoPublicRef,omitempty"`

	LogoAsset *RawAsset `json:"logoAsset,omitempty"`
}

// RouteRecord - главный документ маршрута (черновика или сохранённого)
type RouteRecord struct {
	ID             string          `json:"id"`
	Kind           RouteKind       `json:"kind"`
	OwnerID        string          `json:"ownerId"`
	Status         DraftStatus     `json:"status,omitempty"`
	RouteType      RouteType       `json:"routeType,omitempty"`
	Name           string          `json:"name"`
	SourceFileName string          `json:"sourceFileName,omitempty"`
	HeaderSettings *HeaderSettings `json:"headerSettings,omitempty"`
	IsPublic       bool            `json:"isPublic"`
	Tags           []string        `json:"tags,omitempty"`
	ThumbnailRef   string          `json:"thumbnailRef,omitempty"`
	ThumbnailURL   string          `json:"thumbnailUrl,omitempty"`
	Statistics     *RouteSummary   `json:"statistics,omitempty"`
	Description    string          `json:"description,omitempty"`
	PromotedFrom   string          `json:"promotedFrom,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OwnedBy проверяет владельца маршрута
func (r *RouteRecord) OwnedBy(userID string) bool {
	return userID != "" && r.OwnerID == userID
}

// VisibleTo - черновик виден только владельцу, сохранённый маршрут ещё и всем, если он публичный
func (r *RouteRecord) VisibleTo(userID string) bool {
	if r.OwnedBy(userID) {
		return true
	}
	return r.Kind == RouteKindSaved && r.IsPublic
}

// Route - полный граф маршрута в памяти
type Route struct {
	RouteRecord
	Segments       []Segment    `json:"segments"`
	POIs           POIBuckets   `json:"pois"`
	Lines          []Line       `json:"lines"`
	Photos         []PhotoRef   `json:"photos"`
	DescriptionDoc *Description `json:"descriptionDoc,omitempty"`
	MasterRoute    *MasterRoute `json:"masterRoute,omitempty"`
	MapOverview    *MapOverview `json:"mapOverview,omitempty"`
}

// FindSegment возвращает индекс сегмента или -1
func (r *Route) FindSegment(segmentID string) int {
	for i := range r.Segments {
		if r.Segments[i].SegmentID == segmentID {
			return i
		}
	}
	return -1
}

// Description - текстовое описание маршрута с фотографиями
type Description struct {
	Text   string     `json:"description"`
	Photos []PhotoRef `json:"photos"`
}

// MasterRoute - сводный документ для bikepacking маршрутов
type MasterRoute struct {
	Description string        `json:"description"`
	Statistics  *RouteSummary `json:"statistics,omitempty"`
}

// MapOverview - обзорный текст над картой
type MapOverview struct {
	Description string `json:"description"`
}

// RouteSummary - агрегированная статистика маршрута
type RouteSummary struct {
	TotalDistanceKm   float64  `json:"totalDistanceKm"`
	TotalAscentM      int      `json:"totalAscentM"`
	UnpavedPercentage int      `json:"unpavedPercentage"`
	IsLoop            bool     `json:"isLoop"`
	Countries         []string `json:"countries"`
	States            []string `json:"states"`
	Regions           []string `json:"regions"`
}

// RecordPatch - частичное обновление главного документа, nil поля не трогаются
type RecordPatch struct {
	ID             string          `json:"id,omitempty"`
	Kind           RouteKind       `json:"kind,omitempty"`
	OwnerID        string          `json:"ownerId,omitempty"`
	Status         *DraftStatus    `json:"status,omitempty"`
	RouteType      *RouteType      `json:"routeType,omitempty"`
	Name           *string         `json:"name,omitempty"`
	SourceFileName *string         `json:"sourceFileName,omitempty"`
	HeaderSettings *HeaderSettings `json:"headerSettings,omitempty"`
	IsPublic       *bool           `json:"isPublic,omitempty"`
	Tags           *[]string       `json:"tags,omitempty"`
	ThumbnailRef   *string         `json:"thumbnailRef,omitempty"`
	ThumbnailURL   *string         `json:"thumbnailUrl,omitempty"`
	Statistics     *RouteSummary   `json:"statistics,omitempty"`
	Description    *string         `json:"description,omitempty"`
	PromotedFrom   *string         `json:"promotedFrom,omitempty"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
}

// PatchFromRecord переносит все поля записи в патч, используется при создании документа
func PatchFromRecord(r *RouteRecord) RecordPatch {
	p := RecordPatch{
		ID:             r.ID,
		Kind:           r.Kind,
		OwnerID:        r.OwnerID,
		Name:           &r.Name,
		HeaderSettings: r.HeaderSettings,
		IsPublic:       &r.IsPublic,
		Statistics:     r.Statistics,
		CreatedAt:      &r.CreatedAt,
		UpdatedAt:      &r.UpdatedAt,
	}
	if r.Status != "" {
		p.Status = &r.Status
	}
	if r.RouteType != "" {
		p.RouteType = &r.RouteType
	}
	if r.SourceFileName != "" {
		p.SourceFileName = &r.SourceFileName
	}
	if r.Tags != nil {
		p.Tags = &r.Tags
	}
	if r.ThumbnailRef != "" {
		p.ThumbnailRef = &r.ThumbnailRef
	}
	if r.ThumbnailURL != "" {
		p.ThumbnailURL = &r.ThumbnailURL
	}
	if r.Description != "" {
		p.Description = &r.Description
	}
	if r.PromotedFrom != "" {
		p.PromotedFrom = &r.PromotedFrom
	}
	return p
}
