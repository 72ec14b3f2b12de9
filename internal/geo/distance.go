package geo

import (
	"fmt"
	"math"
	"strings"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
)

// Тип дороги между городами, влияет на поправочный коэффициент
const (
	RoadTypeUrban   = "urban"
	RoadTypeHighway = "highway"
)

// Поправочные коэффициенты: дорога не бывает короче прямой,
// поэтому все коэффициенты >= 1
const (
	urbanFactor   = 1.4
	highwayFactor = 1.2
	defaultFactor = 1.3
)

// knownDistances содержит выверенные дорожные расстояния между парами
// городов. Значение из таблицы имеет приоритет над геометрическим расчетом.
// Ключ не зависит от порядка городов в паре.
var knownDistances = map[string]float64{
	pairKey("Delhi", "Jaipur"):     280,
	pairKey("Delhi", "Chandigarh"): 250,
	pairKey("Delhi", "Agra"):       230,
	pairKey("Delhi", "Lucknow"):    555,
	pairKey("Mumbai", "Pune"):      150,
	pairKey("Mumbai", "Surat"):     285,
	pairKey("Mumbai", "Jaipur"):    1140,
	pairKey("Bangalore", "Chennai"): 345,
	pairKey("Bangalore", "Hyderabad"): 570,
	pairKey("Chennai", "Hyderabad"): 630,
}

// pairKey строит симметричный ключ для пары городов
func pairKey(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s|%s", a, b)
}

// HaversineDistance вычисляет расстояние по дуге большого круга в километрах.
// Входные координаты в градусах.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	dφ := (lat2 - lat1) * math.Pi / 180
	dλ := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dφ/2)*math.Sin(dφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	// Защита от выхода за область определения из-за ошибок округления
	// на нулевых и антиподальных точках
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// RoadDistance приближает дорожное расстояние через региональный коэффициент
func RoadDistance(straightLineKm float64, roadType string) float64 {
	switch roadType {
	case RoadTypeUrban:
		return straightLineKm * urbanFactor
	case RoadTypeHighway:
		return straightLineKm * highwayFactor
	default:
		return straightLineKm * defaultFactor
	}
}

// DistanceBetweenCities возвращает дорожное расстояние между городами.
// Если для пары есть выверенное расстояние, возвращается оно как есть,
// иначе берется гаверсинус с поправкой на тип дороги.
func DistanceBetweenCities(a, b *models.City, roadType string) (float64, *apperrors.Error) {
	if a == nil || b == nil {
		return 0, apperrors.Validation("Оба города должны быть указаны")
	}
	if known, ok := knownDistances[pairKey(a.Name, b.Name)]; ok {
		return known, nil
	}
	if !a.HasCoordinates() || !b.HasCoordinates() {
		return 0, apperrors.Validation("У города не заданы координаты, расчет расстояния невозможен")
	}
	straight := HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	return RoadDistance(straight, roadType), nil
}
