package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
)

func TestHaversineDistanceZero(t *testing.T) {
	assert.Equal(t, 0.0, HaversineDistance(28.61, 77.21, 28.61, 77.21))
}

func TestHaversineDistanceKnownPair(t *testing.T) {
	// Дели — Мумбаи, по прямой примерно 1150 км
	d := HaversineDistance(28.6139, 77.2090, 19.0760, 72.8777)
	assert.InDelta(t, 1150, d, 20)
}

func TestHaversineDistanceSymmetric(t *testing.T) {
	ab := HaversineDistance(28.6139, 77.2090, 19.0760, 72.8777)
	ba := HaversineDistance(19.0760, 72.8777, 28.6139, 77.2090)
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestRoadDistanceFactors(t *testing.T) {
	assert.InDelta(t, 140, RoadDistance(100, RoadTypeUrban), 1e-9)
	assert.InDelta(t, 120, RoadDistance(100, RoadTypeHighway), 1e-9)
	assert.InDelta(t, 130, RoadDistance(100, ""), 1e-9)
	assert.InDelta(t, 130, RoadDistance(100, "unknown"), 1e-9)
}

func TestDistanceBetweenCitiesKnownPairWinsOverGeometry(t *testing.T) {
	mumbai := &models.City{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777}
	jaipur := &models.City{Name: "Jaipur", Latitude: 26.9124, Longitude: 75.7873}

	d, err := DistanceBetweenCities(mumbai, jaipur, RoadTypeHighway)
	require.Nil(t, err)
	// Выверенное значение возвращается как есть, без коэффициентов
	assert.Equal(t, 1140.0, d)
}

func TestDistanceBetweenCitiesIgnoresPairOrderAndCase(t *testing.T) {
	a := &models.City{Name: "jaipur"}
	b := &models.City{Name: "MUMBAI"}

	d, err := DistanceBetweenCities(a, b, "")
	require.Nil(t, err)
	assert.Equal(t, 1140.0, d)
}

func TestDistanceBetweenCitiesGeometryFallback(t *testing.T) {
	delhi := &models.City{Name: "Delhi2", Latitude: 28.6139, Longitude: 77.2090}
	mumbai := &models.City{Name: "Mumbai2", Latitude: 19.0760, Longitude: 72.8777}

	d, err := DistanceBetweenCities(delhi, mumbai, RoadTypeHighway)
	require.Nil(t, err)

	straight := HaversineDistance(delhi.Latitude, delhi.Longitude, mumbai.Latitude, mumbai.Longitude)
	assert.InDelta(t, straight*1.2, d, 1e-9)
}

func TestDistanceBetweenCitiesRequiresCoordinates(t *testing.T) {
	withCoords := &models.City{Name: "CityA", Latitude: 10, Longitude: 10}
	noCoords := &models.City{Name: "CityB"}

	_, err := DistanceBetweenCities(withCoords, noCoords, "")
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)
}

func TestDistanceBetweenCitiesNilCity(t *testing.T) {
	_, err := DistanceBetweenCities(nil, &models.City{Name: "CityB"}, "")
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)
}
