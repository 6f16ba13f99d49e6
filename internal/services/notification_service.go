package services

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Dispatcher pushes notifications to an external channel. The default
// implementation only records them for the in-app inbox.
type Dispatcher interface {
	Dispatch(notification models.Notification) error
}

// NoopDispatcher records nothing beyond the database row.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(models.Notification) error { return nil }

// NotificationService persists notifications and fans them out.
type NotificationService struct {
	repo       repository.NotificationRepository
	dispatcher Dispatcher
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repository.NotificationRepository, dispatcher Dispatcher) *NotificationService {
	if dispatcher == nil {
		dispatcher = NoopDispatcher{}
	}
	return &NotificationService{
		repo:       repo,
		dispatcher: dispatcher,
	}
}

// Notify records a notification for each receiver and dispatches them in
// the background. Failures are logged and never surfaced to the caller.
func (s *NotificationService) Notify(receiverIDs []uint64, link, text string) {
	if len(receiverIDs) == 0 {
		return
	}

	notifications := make([]models.Notification, len(receiverIDs))
	for i, id := range receiverIDs {
		notifications[i] = models.Notification{
			ReceiverID: id,
			Link:       link,
			Text:       text,
		}
	}

	if err := s.repo.CreateBatch(notifications); err != nil {
		slog.Error("failed to record notifications", "count", len(notifications), "error", err)
		return
	}

	go func() {
		for _, n := range notifications {
			if err := s.dispatcher.Dispatch(n); err != nil {
				slog.Error("failed to dispatch notification", "receiver_id", n.ReceiverID, "error", err)
			}
		}
	}()
}

// ListNotifications returns a user's inbox, newest first.
func (s *NotificationService) ListNotifications(receiverID uint64, page, pageSize int) ([]models.Notification, int64, error) {
	notifications, total, err := s.repo.ListByReceiver(receiverID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(id, receiverID uint64) error {
	if err := s.repo.MarkRead(id, receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
