package fare

import (
	"math"
	"strconv"
	"strings"

	"cab-backend/internal/apperrors"
	"cab-backend/internal/models"
)

// Breakdown представляет детализацию стоимости поездки по тарифному профилю
type Breakdown struct {
	BaseFare     float64 `json:"base_fare"`
	ExtraKmFare  float64 `json:"extra_km_fare"`
	FuelCharge   float64 `json:"fuel_charge"`
	DriverCharge float64 `json:"driver_charge"`
	NightCharge  float64 `json:"night_charge"`
	TotalFare    float64 `json:"total_fare"`
	Distance     float64 `json:"distance"`
}

// Calculate считает детализированную стоимость по тарифному профилю.
// Фиксированные надбавки (топливо, водитель, ночь) добавляются только если
// они не включены в базовую цену. Все суммы округляются до целой единицы.
func Calculate(distanceKm float64, cab *models.CabType, isNightTime bool) (*Breakdown, *apperrors.Error) {
	if distanceKm <= 0 {
		return nil, apperrors.Validation("Расстояние поездки не указано")
	}
	if cab == nil {
		return nil, apperrors.Validation("Тарифный профиль не указан")
	}

	baseFare := cab.BaseKmPrice * distanceKm

	extraKm := distanceKm - cab.IncludedKm
	if extraKm < 0 {
		extraKm = 0
	}
	extraKmFare := extraKm * cab.ExtraKmPrice

	var fuelCharge, driverCharge, nightCharge float64
	if !cab.FuelIncluded {
		fuelCharge = cab.FuelCharge
	}
	if !cab.DriverIncluded {
		driverCharge = cab.DriverCharge
	}
	if isNightTime && !cab.NightIncluded {
		nightCharge = cab.NightCharge
	}

	b := &Breakdown{
		BaseFare:     math.Round(baseFare),
		ExtraKmFare:  math.Round(extraKmFare),
		FuelCharge:   math.Round(fuelCharge),
		DriverCharge: math.Round(driverCharge),
		NightCharge:  math.Round(nightCharge),
		Distance:     distanceKm,
	}
	b.TotalFare = b.BaseFare + b.ExtraKmFare + b.FuelCharge + b.DriverCharge + b.NightCharge
	return b, nil
}

// IsNightPickup определяет ночную подачу по строке времени "HH:MM".
// Ночным считается интервал с 22:00 до 05:59 включительно.
func IsNightPickup(pickupTime string) bool {
	parts := strings.Split(strings.TrimSpace(pickupTime), ":")
	if len(parts) < 1 || parts[0] == "" {
		return false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	return hour >= 22 || hour <= 5
}

// NightSurchargeTotal — упрощенная формула пути создания бронирования:
// к базовой сумме добавляется плоская ночная надбавка 10%.
// Сознательно не объединена с Calculate: это две независимые формулы
// с разными точками входа (см. DESIGN.md).
func NightSurchargeTotal(baseAmount float64, isNightTime bool) (nightCharge, total float64) {
	if isNightTime {
		nightCharge = math.Round(baseAmount * 0.10)
	}
	return nightCharge, baseAmount + nightCharge
}
