package dto

import (
	"time"

	"github.com/taskify-dev/taskify-api/internal/models"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID        uint64    `json:"id"`
	Link      string    `json:"link,omitempty"`
	Text      string    `json:"text"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ToNotificationDTO converts a Notification model to NotificationDTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Link:      n.Link,
		Text:      n.Text,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// ToNotificationDTOs converts a slice of notifications
func ToNotificationDTOs(list []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, len(list))
	for i, n := range list {
		out[i] = ToNotificationDTO(n)
	}
	return out
}
