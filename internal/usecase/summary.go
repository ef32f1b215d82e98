package usecase

import (
	"math"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/pkg/utils"
)

const (
	// loopThresholdMeters - начало и конец ближе этого расстояния считаются кольцом
	loopThresholdMeters = 5000.0

	// unpavedSegmentFraction - грубая оценка: сегмент с любым грунтовым участком даёт 10% грунта
	unpavedSegmentFraction = 0.10
)

// CalculateSummary считает агрегированную статистику маршрута по сегментам
func CalculateSummary(segments []domain.Segment) domain.RouteSummary {
	var totalMeters, totalAscent, unpavedMeters float64
	for i := range segments {
		stats := segments[i].Statistics
		totalMeters += stats.TotalDistance
		totalAscent += stats.ElevationGain
		if segments[i].HasUnpaved() {
			unpavedMeters += stats.TotalDistance * unpavedSegmentFraction
		}
	}

	summary := domain.RouteSummary{
		TotalDistanceKm: math.Round(totalMeters/1000*10) / 10,
		TotalAscentM:    int(math.Round(totalAscent)),
		IsLoop:          IsLoop(segments),
		Countries:       []string{},
		States:          []string{},
		Regions:         []string{},
	}
	if totalMeters > 0 {
		summary.UnpavedPercentage = int(math.Round(100 * unpavedMeters / totalMeters))
	}

	countries := newStringSet()
	states := newStringSet()
	regions := newStringSet()
	for i := range segments {
		meta := segments[i].Metadata
		summary.Countries = countries.add(summary.Countries, meta.Country)
		summary.States = states.add(summary.States, meta.State)
		summary.Regions = regions.add(summary.Regions, meta.Region)
	}

	return summary
}

// IsLoop - все сегменты замкнуты, либо начало первого и конец последнего сегмента рядом.
// Сегменты без координат не учитываются. Маршрут совсем без геометрии кольцом не считается:
// флаг в сводке должен подтверждаться координатами
func IsLoop(segments []domain.Segment) bool {
	var first, last domain.Position
	evaluated := 0
	allLoops := true

	for i := range segments {
		coords := segments[i].Coordinates
		if len(coords) == 0 {
			continue
		}
		start, end := coords[0], coords[len(coords)-1]
		if first == nil {
			first = start
		}
		last = end
		evaluated++

		if !isClose(start, end) {
			allLoops = false
		}
	}

	if evaluated == 0 {
		return false
	}
	if allLoops {
		return true
	}
	return isClose(first, last)
}

func isClose(a, b domain.Position) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	return utils.EquirectangularDistance(a[0], a[1], b[0], b[1]) < loopThresholdMeters
}

// stringSet сохраняет порядок первого появления
type stringSet map[string]struct{}

func newStringSet() stringSet {
	return make(stringSet)
}

func (s stringSet) add(list []string, value string) []string {
	if value == "" {
		return list
	}
	if _, ok := s[value]; ok {
		return list
	}
	s[value] = struct{}{}
	return append(list, value)
}
