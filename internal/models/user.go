package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleManager  UserRole = "MANAGER"
	RoleEngineer UserRole = "ENGINEER"
	RoleGuest    UserRole = "GUEST"
)

// ValidUserRole reports whether r is one of the fixed role values.
func ValidUserRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEngineer, RoleGuest:
		return true
	}
	return false
}

type User struct {
	ID           uint64                      `gorm:"primarykey" json:"id"`
	FullName     string                      `gorm:"type:varchar(255);not null" json:"full_name"`
	Email        string                      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string                      `gorm:"type:varchar(255);not null" json:"-"`
	Phone        string                      `gorm:"type:varchar(50)" json:"phone"`
	Picture      string                      `gorm:"type:text" json:"picture"`
	Skills       datatypes.JSONSlice[string] `json:"skills"`
	Roles        datatypes.JSONSlice[string] `json:"roles"`

	TwoFactorEnabled bool   `json:"two_factor_enabled"`
	TwoFactorSecret  string `gorm:"type:varchar(255)" json:"-"`
	ResetToken       string `gorm:"type:varchar(255)" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedTasks  []Task         `gorm:"foreignKey:CreatorID" json:"-"`
	Assignments   []TaskAssignee `gorm:"foreignKey:UserID" json:"-"`
	Teams         []TeamMember   `gorm:"foreignKey:UserID" json:"-"`
	Notifications []Notification `gorm:"foreignKey:ReceiverID" json:"-"`
}
