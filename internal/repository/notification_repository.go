package repository

import (
	"github.com/taskify-dev/taskify-api/internal/database"
	"github.com/taskify-dev/taskify-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// CreateBatch persists a batch of notifications
func (r *GormNotificationRepository) CreateBatch(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.Create(&notifications).Error
}

// ListByReceiver lists notifications for a user, newest first
func (r *GormNotificationRepository) ListByReceiver(receiverID uint64, page, pageSize int) ([]models.Notification, int64, error) {
	var notifications []models.Notification

	query := r.db.Model(&models.Notification{}).Where("receiver_id = ?", receiverID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Scopes(database.Paginate(page, pageSize)).
		Order("notifications.created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead marks a notification as read
func (r *GormNotificationRepository) MarkRead(id, receiverID uint64) error {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND receiver_id = ?", id, receiverID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
