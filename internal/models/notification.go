package models

import "time"

// Notification is a fire-and-forget record. Delivery beyond the inbox is
// best effort and never blocks the operation that produced it.
type Notification struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	ReceiverID uint64    `gorm:"not null;index" json:"receiver_id"`
	Link       string    `gorm:"type:varchar(512)" json:"link"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Receiver User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}
