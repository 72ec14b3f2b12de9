package fare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
)

func TestCalculateWithExtraKm(t *testing.T) {
	cab := &models.CabType{
		BaseKmPrice:    10,
		ExtraKmPrice:   12,
		IncludedKm:     80,
		FuelIncluded:   true,
		DriverIncluded: true,
		NightIncluded:  true,
	}

	b, err := Calculate(100, cab, false)
	require.Nil(t, err)

	assert.Equal(t, 1000.0, b.BaseFare)
	assert.Equal(t, 240.0, b.ExtraKmFare)
	assert.Equal(t, 0.0, b.FuelCharge)
	assert.Equal(t, 0.0, b.DriverCharge)
	assert.Equal(t, 0.0, b.NightCharge)
	assert.Equal(t, 1240.0, b.TotalFare)
}

func TestCalculateAllInclusiveHasNoSurcharges(t *testing.T) {
	cab := &models.CabType{
		BaseKmPrice:    15,
		ExtraKmPrice:   18,
		IncludedKm:     500,
		FuelIncluded:   true,
		FuelCharge:     300,
		DriverIncluded: true,
		DriverCharge:   400,
		NightIncluded:  true,
		NightCharge:    250,
	}

	b, err := Calculate(200, cab, true)
	require.Nil(t, err)

	// Включенные в базу надбавки не добавляются даже ночью
	assert.Equal(t, 0.0, b.FuelCharge)
	assert.Equal(t, 0.0, b.DriverCharge)
	assert.Equal(t, 0.0, b.NightCharge)
	assert.Equal(t, b.BaseFare, b.TotalFare)
}

func TestCalculateExcludedSurcharges(t *testing.T) {
	cab := &models.CabType{
		BaseKmPrice:    10,
		ExtraKmPrice:   12,
		IncludedKm:     100,
		FuelIncluded:   false,
		FuelCharge:     300,
		DriverIncluded: false,
		DriverCharge:   400,
		NightIncluded:  false,
		NightCharge:    250,
	}

	day, err := Calculate(100, cab, false)
	require.Nil(t, err)
	assert.Equal(t, 300.0, day.FuelCharge)
	assert.Equal(t, 400.0, day.DriverCharge)
	assert.Equal(t, 0.0, day.NightCharge)
	assert.Equal(t, 1700.0, day.TotalFare)

	night, err := Calculate(100, cab, true)
	require.Nil(t, err)
	assert.Equal(t, 250.0, night.NightCharge)
	assert.Equal(t, 1950.0, night.TotalFare)
}

func TestCalculateRejectsBadInput(t *testing.T) {
	cab := &models.CabType{BaseKmPrice: 10}

	_, err := Calculate(0, cab, false)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)

	_, err = Calculate(100, nil, false)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidation, err.Kind)
}

func TestIsNightPickup(t *testing.T) {
	cases := []struct {
		time  string
		night bool
	}{
		{"22:00", true},
		{"23:45", true},
		{"00:30", true},
		{"05:59", true},
		{"06:00", false},
		{"12:00", false},
		{"21:59", false},
		{"", false},
		{"abc", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.night, IsNightPickup(tc.time), "время %q", tc.time)
	}
}

func TestNightSurchargeTotal(t *testing.T) {
	nightCharge, total := NightSurchargeTotal(1000, true)
	assert.Equal(t, 100.0, nightCharge)
	assert.Equal(t, 1100.0, total)

	nightCharge, total = NightSurchargeTotal(1000, false)
	assert.Equal(t, 0.0, nightCharge)
	assert.Equal(t, 1000.0, total)
}

func TestNightSurchargeRounds(t *testing.T) {
	nightCharge, total := NightSurchargeTotal(1005, true)
	assert.Equal(t, 101.0, nightCharge)
	assert.Equal(t, 1106.0, total)
}
