// Package models contains data structures for the portal's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole distinguishes supplier accounts from back-office staff.
type UserRole string

const (
	RoleSupplier UserRole = "supplier"
	RoleStaff    UserRole = "staff"
	RoleAdmin    UserRole = "admin"
)

// User represents an account in the supplier portal. Supplier accounts are
// created automatically when an application is approved; they carry a
// temporary password that must be changed at first login.
type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Username           string         `gorm:"unique;not null" json:"username"`
	Email              string         `gorm:"unique;not null" json:"email"`
	Password           string         `gorm:"not null" json:"-"`
	Phone              string         `json:"phone"`
	Role               UserRole       `gorm:"not null;default:supplier" json:"role"`
	MustChangePassword bool           `gorm:"default:false" json:"must_change_password"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsStaff reports whether the account may access back-office routes.
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}
