package domain

import (
	"strings"
	"time"
)

// LngLat - одиночная координата фрагмента
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// ExternalPlaceRef - ссылка на внешнее место. Полные данные провайдера не храним.
type ExternalPlaceRef struct {
	PlaceID string `json:"placeId"`
	URL     string `json:"url,omitempty"`
}

type POIStyle struct {
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
}

// POI - точка интереса, id стабилен между правками
type POI struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Category         string            `json:"category,omitempty"`
	Icon             string            `json:"icon,omitempty"`
	Style            *POIStyle         `json:"style,omitempty"`
	Coordinates      *LngLat           `json:"coordinates,omitempty"`
	ExternalPlaceRef *ExternalPlaceRef `json:"externalPlaceRef,omitempty"`
}

func (p POI) FragmentID() string { return p.ID }

// POIBuckets - точки, поставленные пользователем (draggable), и внешние места (places)
type POIBuckets struct {
	Draggable []POI `json:"draggable"`
	Places    []POI `json:"places"`
}

// Line - линия, нарисованная поверх карты
type Line struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Color       string     `json:"color,omitempty"`
	Width       float64    `json:"width,omitempty"`
	Coordinates []LngLat   `json:"coordinates"`
	Photos      []PhotoRef `json:"photos"`
}

func (l Line) FragmentID() string { return l.ID }

// PhotoRef - ссылка на фотографию.
// Состояния: загружена (PublicRef+URL), ждёт загрузки (PendingUpload) или локальная (IsLocal).
type PhotoRef struct {
	ID               string     `json:"id"`
	Name             string     `json:"name,omitempty"`
	Caption          string     `json:"caption,omitempty"`
	DateAdded        *time.Time `json:"dateAdded,omitempty"`
	PublicRef        string     `json:"publicRef,omitempty"`
	URL              string     `json:"url,omitempty"`
	ThumbnailURL     string     `json:"thumbnailUrl,omitempty"`
	PendingUpload    bool       `json:"pendingUpload,omitempty"`
	IsLocal          bool       `json:"isLocal,omitempty"`
	Coordinates      *LngLat    `json:"coordinates,omitempty"`
	IsManuallyPlaced bool       `json:"isManuallyPlaced,omitempty"`

	Asset *RawAsset `json:"asset,omitempty"`
}

func (p PhotoRef) FragmentID() string { return p.ID }

// IsMaterialized - фото уже лежит в медиасервисе
func (p PhotoRef) IsMaterialized() bool {
	return p.PublicRef != "" && p.URL != "" && !IsLocalURL(p.URL)
}

// NeedsUpload - фото нужно загрузить перед сохранением
func (p PhotoRef) NeedsUpload() bool {
	if p.IsLocal && p.Asset == nil {
		return false
	}
	return p.PendingUpload || p.Asset != nil || IsLocalURL(p.URL)
}

// Minimal оставляет только метаданные локальной фотографии
func (p PhotoRef) Minimal() PhotoRef {
	return PhotoRef{
		ID:        p.ID,
		Name:      p.Name,
		Caption:   p.Caption,
		DateAdded: p.DateAdded,
		IsLocal:   p.IsLocal,
	}
}

// MinimizeLocalPhotos сокращает локальные фото до метаданных
func MinimizeLocalPhotos(photos []PhotoRef) []PhotoRef {
	if photos == nil {
		return nil
	}
	out := make([]PhotoRef, len(photos))
	for i, p := range photos {
		if p.IsLocal {
			out[i] = p.Minimal()
			continue
		}
		out[i] = p
	}
	return out
}

// IsLocalURL - ссылки blob: и data: живут только в браузере и не сохраняются
func IsLocalURL(url string) bool {
	return strings.HasPrefix(url, "blob:") || strings.HasPrefix(url, "data:")
}
