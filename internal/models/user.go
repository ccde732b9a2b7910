package models

import (
	"time"

	"gorm.io/gorm"
)

// Credential roles. Only staff may use the customer API.
const (
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

// User is a login credential: staff members and customers provisioned at registration.
type User struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string         `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(200)"`
	Password  string         `json:"-" gorm:"type:varchar(255)"` // bcrypt hash
	Role      string         `json:"role" gorm:"type:varchar(20);not null;default:staff"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
