package models

import (
	"time"
)

// Роли участников системы
const (
	RoleUser   = "user"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	Name         string    `json:"name" gorm:"column:name;not null;type:varchar(255)"`
	Email        string    `json:"email" gorm:"column:email;unique;not null;type:varchar(255)"`
	Phone        string    `json:"phone" gorm:"column:phone;not null;type:varchar(20)"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null;type:text"`
	Role         string    `json:"role" gorm:"column:role;default:'user';type:varchar(20)"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
