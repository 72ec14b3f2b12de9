package models

import (
	"time"
)

// Кто выставил оценку
const (
	RatingByUser   = "user"   // Пассажир оценил водителя
	RatingByDriver = "driver" // Водитель оценил пассажира
)

// RatingRecord хранит историю оценок по бронированиям
type RatingRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	BookingID uint      `json:"booking_id" gorm:"column:booking_id;not null"`
	DriverID  uint      `json:"driver_id" gorm:"column:driver_id;not null"`
	UserID    uint      `json:"user_id" gorm:"column:user_id;not null"`
	RatedBy   string    `json:"rated_by" gorm:"column:rated_by;not null;type:varchar(10)"`
	Score     int       `json:"score" gorm:"column:score;not null"`
	Comment   string    `json:"comment" gorm:"column:comment;default:''"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
}
