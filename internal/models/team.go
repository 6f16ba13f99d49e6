package models

import (
	"time"

	"gorm.io/gorm"
)

type Team struct {
	ID          uint64 `gorm:"primarykey" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CreatorID   uint64 `gorm:"not null;index" json:"creator_id"`
	// Picture holds a base64 blob or an external image URL.
	Picture string `gorm:"type:mediumtext" json:"picture"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}
