// Package geometry converts in-memory track geometry to the storage-safe
// representation and back.
package geometry

import (
	stderrors "errors"
	"fmt"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/pkg/utils"
)

// DefaultSurfaceType используется, если у участка не указан тип покрытия
const DefaultSurfaceType = "unpaved"

// ErrMalformedGeometry - геометрию нельзя сохранить
var ErrMalformedGeometry = stderrors.New("malformed geometry")

// EncodeCoordinates переводит кортежи [lng, lat, elevation?] в точки.
// Записи, которые не являются кортежами из 2 или 3 чисел, отбрасываются.
// Если высоты нет в кортеже, но она есть в elevation по тому же индексу, она подставляется.
func EncodeCoordinates(positions []domain.Position, elevation []float64) ([]domain.Point, error) {
	points := make([]domain.Point, 0, len(positions))
	for i, pos := range positions {
		if len(pos) != 2 && len(pos) != 3 {
			continue
		}
		if !utils.IsFinite(pos...) {
			return nil, fmt.Errorf("%w: non-finite value at index %d", ErrMalformedGeometry, i)
		}

		point := domain.Point{Lng: pos[0], Lat: pos[1]}
		switch {
		case len(pos) == 3:
			ele := pos[2]
			point.Elevation = &ele
		case i < len(elevation):
			if !utils.IsFinite(elevation[i]) {
				return nil, fmt.Errorf("%w: non-finite elevation at index %d", ErrMalformedGeometry, i)
			}
			ele := elevation[i]
			point.Elevation = &ele
		}
		points = append(points, point)
	}
	return points, nil
}

// DecodeCoordinates - обратное преобразование. Кортеж из 3 элементов только при наличии высоты.
func DecodeCoordinates(points []domain.Point) []domain.Position {
	positions := make([]domain.Position, len(points))
	for i, p := range points {
		if p.Elevation != nil {
			positions[i] = domain.Position{p.Lng, p.Lat, *p.Elevation}
			continue
		}
		positions[i] = domain.Position{p.Lng, p.Lat}
	}
	return positions
}

// EncodeUnpavedSection кодирует участок без покрытия.
// Без явных координат участок берёт срез parent по [StartIndex, EndIndex] включительно,
// границы обрезаются до допустимых.
func EncodeUnpavedSection(section domain.UnpavedSection, parent []domain.Position) (domain.StoredUnpavedSection, error) {
	if section.EndIndex < section.StartIndex {
		return domain.StoredUnpavedSection{}, fmt.Errorf("%w: section end %d before start %d",
			ErrMalformedGeometry, section.EndIndex, section.StartIndex)
	}

	coords := section.Coordinates
	if len(coords) == 0 {
		coords = sliceInclusive(parent, section.StartIndex, section.EndIndex)
	}

	points, err := EncodeCoordinates(coords, nil)
	if err != nil {
		return domain.StoredUnpavedSection{}, err
	}

	surface := section.SurfaceType
	if surface == "" {
		surface = DefaultSurfaceType
	}

	return domain.StoredUnpavedSection{
		StartIndex:  section.StartIndex,
		EndIndex:    section.EndIndex,
		SurfaceType: surface,
		Coordinates: points,
	}, nil
}

// DecodeUnpavedSection - обратное преобразование участка
func DecodeUnpavedSection(stored domain.StoredUnpavedSection) domain.UnpavedSection {
	return domain.UnpavedSection{
		StartIndex:  stored.StartIndex,
		EndIndex:    stored.EndIndex,
		SurfaceType: stored.SurfaceType,
		Coordinates: DecodeCoordinates(stored.Coordinates),
	}
}

// EncodeUnpavedSections кодирует все участки сегмента
func EncodeUnpavedSections(sections []domain.UnpavedSection, parent []domain.Position) ([]domain.StoredUnpavedSection, error) {
	stored := make([]domain.StoredUnpavedSection, 0, len(sections))
	for i, section := range sections {
		s, err := EncodeUnpavedSection(section, parent)
		if err != nil {
			return nil, fmt.Errorf("unpaved section %d: %w", i, err)
		}
		stored = append(stored, s)
	}
	return stored, nil
}

// DecodeUnpavedSections декодирует все участки сегмента
func DecodeUnpavedSections(stored []domain.StoredUnpavedSection) []domain.UnpavedSection {
	sections := make([]domain.UnpavedSection, len(stored))
	for i, s := range stored {
		sections[i] = DecodeUnpavedSection(s)
	}
	return sections
}

func sliceInclusive(parent []domain.Position, start, end int) []domain.Position {
	if start < 0 {
		start = 0
	}
	if end >= len(parent) {
		end = len(parent) - 1
	}
	if start > end {
		return nil
	}
	return parent[start : end+1]
}
