package utils

import "math"

// metersPerDegree - длина одного градуса широты в метрах
const metersPerDegree = 111320.0

// EquirectangularDistance возвращает приближённое расстояние между двумя точками в метрах.
// Достаточно для сравнения с порогами в километры, не для точной геодезии.
func EquirectangularDistance(lon1, lat1, lon2, lat2 float64) float64 {
	avgLat := (lat1 + lat2) / 2 * math.Pi / 180.0
	dx := (lon2 - lon1) * math.Cos(avgLat)
	dy := lat2 - lat1
	return math.Sqrt(dx*dx+dy*dy) * metersPerDegree
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// IsFinite проверяет, что все значения можно сохранить в JSON
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
