package models

import "time"

type TaskComment struct {
	ID      uint64 `gorm:"primarykey" json:"id"`
	TaskID  uint64 `gorm:"not null;index" json:"task_id"`
	Content string `gorm:"type:text;not null" json:"content"`
	// Image is a pre-resized base64 payload supplied by the client.
	Image     string    `gorm:"type:mediumtext" json:"image,omitempty"`
	AuthorID  uint64    `gorm:"not null" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
