package models

import (
	"time"
)

// CabType представляет тарифный профиль класса автомобиля.
// Используется как входной параметр расчета стоимости, мутируется
// только через админский CRUD.
type CabType struct {
	ID              uint      `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	Name            string    `json:"name" gorm:"column:name;unique;not null;type:varchar(100)"`
	Description     string    `json:"description" gorm:"column:description;default:''"`
	Seats           int       `json:"seats" gorm:"column:seats;default:4"`
	BaseKmPrice     float64   `json:"base_km_price" gorm:"column:base_km_price;not null"`
	ExtraKmPrice    float64   `json:"extra_km_price" gorm:"column:extra_km_price;not null"`
	IncludedKm      float64   `json:"included_km" gorm:"column:included_km;default:0"`
	FuelIncluded    bool      `json:"fuel_included" gorm:"column:fuel_included;default:true"`
	FuelCharge      float64   `json:"fuel_charge" gorm:"column:fuel_charge;default:0"`
	DriverIncluded  bool      `json:"driver_included" gorm:"column:driver_included;default:true"`
	DriverCharge    float64   `json:"driver_charge" gorm:"column:driver_charge;default:0"`
	NightIncluded   bool      `json:"night_included" gorm:"column:night_included;default:true"`
	NightCharge     float64   `json:"night_charge" gorm:"column:night_charge;default:0"`
	IsActive        bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`
}
