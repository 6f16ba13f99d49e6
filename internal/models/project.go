package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID          uint64 `gorm:"primarykey" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Manager     string `gorm:"type:varchar(255)" json:"manager"`
	Priority    string `gorm:"type:varchar(20)" json:"priority"`
	Status      string `gorm:"type:varchar(20)" json:"status"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tasks []Task `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}
