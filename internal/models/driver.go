package models

import (
	"time"
)

// Driver представляет профиль водителя.
// Инвариант: если current_booking_id заполнен, то is_available = false.
// Обратное не гарантируется мгновенно, расхождение чинится при чтении
// (см. reconcileDriverBooking в хендлерах).
type Driver struct {
	ID               uint      `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	Name             string    `json:"name" gorm:"column:name;not null;type:varchar(255)"`
	Email            string    `json:"email" gorm:"column:email;unique;not null;type:varchar(255)"`
	Phone            string    `json:"phone" gorm:"column:phone;not null;type:varchar(20)"`
	PasswordHash     string    `json:"-" gorm:"column:password_hash;not null;type:text"`
	LicenseNumber    string    `json:"license_number" gorm:"column:license_number;unique;not null;type:varchar(50)"`
	VehicleNumber    string    `json:"vehicle_number" gorm:"column:vehicle_number;unique;not null;type:varchar(20)"`
	CabTypeID        *uint     `json:"cab_type_id,omitempty" gorm:"column:cab_type_id"`
	IsApproved       bool      `json:"is_approved" gorm:"column:is_approved;default:false"`
	IsAvailable      bool      `json:"is_available" gorm:"column:is_available;default:true"`
	CurrentBookingID *uint     `json:"current_booking_id,omitempty" gorm:"column:current_booking_id"`
	Ratings          float64   `json:"ratings" gorm:"column:ratings;default:0"`
	TotalRides       int       `json:"total_rides" gorm:"column:total_rides;default:0"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`
	CabType          *CabType  `json:"cab_type,omitempty" gorm:"foreignKey:CabTypeID"`
}

type DriverResponse struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	LicenseNumber string  `json:"license_number"`
	VehicleNumber string  `json:"vehicle_number"`
	IsApproved    bool    `json:"is_approved"`
	IsAvailable   bool    `json:"is_available"`
	Ratings       float64 `json:"ratings"`
	TotalRides    int     `json:"total_rides"`
}

// AttachBooking занимает водителя под бронирование
func (d *Driver) AttachBooking(bookingID uint) {
	d.CurrentBookingID = &bookingID
	d.IsAvailable = false
}

// Release освобождает водителя после завершения или отмены поездки
func (d *Driver) Release() {
	d.CurrentBookingID = nil
	d.IsAvailable = true
}

// ApplyRating пересчитывает скользящий средний рейтинг водителя.
// Счетчик total_rides общий с завершением поездки, поэтому среднее
// считается по значению счетчика до инкремента.
func (d *Driver) ApplyRating(score int) {
	oldCount := float64(d.TotalRides)
	d.Ratings = (d.Ratings*oldCount + float64(score)) / (oldCount + 1)
	d.TotalRides++
}

func (d *Driver) ToResponse() DriverResponse {
	return DriverResponse{
		ID:            d.ID,
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		LicenseNumber: d.LicenseNumber,
		VehicleNumber: d.VehicleNumber,
		IsApproved:    d.IsApproved,
		IsAvailable:   d.IsAvailable,
		Ratings:       d.Ratings,
		TotalRides:    d.TotalRides,
	}
}
