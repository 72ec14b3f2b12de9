package models

import (
	"time"
)

// City представляет город отправления или назначения.
// Координаты обязательны для геометрического расчета расстояния.
type City struct {
	ID        uint      `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	Name      string    `json:"name" gorm:"column:name;unique;not null;type:varchar(100)"`
	State     string    `json:"state" gorm:"column:state;default:'';type:varchar(100)"`
	Latitude  float64   `json:"latitude" gorm:"column:latitude;default:0"`
	Longitude float64   `json:"longitude" gorm:"column:longitude;default:0"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`
}

// HasCoordinates сообщает, заданы ли у города координаты
func (c *City) HasCoordinates() bool {
	return c.Latitude != 0 || c.Longitude != 0
}
