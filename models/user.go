package models

import (
	"time"
)

// Role is the closed set of identities that can hold a session token
type Role string

const (
	RoleStudent Role = "Student"
	RoleStaff   Role = "Staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsUser reports whether r is a role held by a regular (non-admin) account
func (r Role) IsUser() bool {
	return r == RoleStudent || r == RoleStaff
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string    `json:"phone" gorm:"not null"`
	Role         Role      `json:"role" gorm:"not null"`
	StudentID    string    `json:"studentId,omitempty"`
	StaffID      string    `json:"staffId,omitempty"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Admin is a canteen operator account. Its role is always RoleAdmin.
type Admin struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null"` // canteen name, used to log in
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string    `json:"phone" gorm:"not null"`
	Address      string    `json:"address" gorm:"not null"`
	CanteenID    string    `json:"canteenId" gorm:"not null"`
	CanteenPhoto string    `json:"canteenPhoto,omitempty"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Admin) Role() Role { return RoleAdmin }
