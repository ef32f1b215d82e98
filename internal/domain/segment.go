package domain

import "time"

// Position - точка трека в памяти: [lng, lat] или [lng, lat, elevation]
type Position []float64

// Point - представление точки, пригодное для хранения (без вложенных массивов)
type Point struct {
	Lng       float64  `json:"lng"`
	Lat       float64  `json:"lat"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// UnpavedSection - участок без покрытия в памяти
type UnpavedSection struct {
	StartIndex  int        `json:"startIndex"`
	EndIndex    int        `json:"endIndex"`
	SurfaceType string     `json:"surfaceType,omitempty"`
	Coordinates []Position `json:"coordinates,omitempty"`
}

// StoredUnpavedSection - участок без покрытия в виде для хранения
type StoredUnpavedSection struct {
	StartIndex  int     `json:"startIndex"`
	EndIndex    int     `json:"endIndex"`
	SurfaceType string  `json:"surfaceType"`
	Coordinates []Point `json:"coordinates"`
}

type SegmentStatistics struct {
	TotalDistance float64 `json:"totalDistance"`
	ElevationGain float64 `json:"elevationGain"`
	ElevationLoss float64 `json:"elevationLoss"`
	MaxElevation  float64 `json:"maxElevation"`
	MinElevation  float64 `json:"minElevation"`
}

// SegmentMetadata - географические метки сегмента
type SegmentMetadata struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	Region  string `json:"region,omitempty"`
}

// SegmentMeta - описание сегмента без геометрии
type SegmentMeta struct {
	SegmentID      string            `json:"segmentId"`
	Name           string            `json:"name"`
	SourceFileName string            `json:"sourceFileName,omitempty"`
	Color          string            `json:"color,omitempty"`
	Statistics     SegmentStatistics `json:"statistics"`
	Metadata       SegmentMetadata   `json:"metadata"`
	AddedAt        time.Time         `json:"addedAt"`
}

// Segment - сегмент маршрута вместе с геометрией.
// Геометрия всегда заменяется целиком при повторном сохранении.
type Segment struct {
	SegmentMeta
	Coordinates     []Position       `json:"coordinates"`
	Elevation       []float64        `json:"elevation"`
	UnpavedSections []UnpavedSection `json:"unpavedSections"`
}

// HasUnpaved сообщает, есть ли у сегмента хотя бы один участок без покрытия
func (s *Segment) HasUnpaved() bool {
	return len(s.UnpavedSections) > 0
}

// SegmentUpdate - изменяемые свойства сегмента
type SegmentUpdate struct {
	Name      *string    `json:"name,omitempty"`
	Color     *string    `json:"color,omitempty"`
	RouteType *RouteType `json:"routeType,omitempty"`
}

// Apply применяет изменения к метаданным сегмента
func (u SegmentUpdate) Apply(meta *SegmentMeta) {
	if u.Name != nil {
		meta.Name = *u.Name
	}
	if u.Color != nil {
		meta.Color = *u.Color
	}
}
