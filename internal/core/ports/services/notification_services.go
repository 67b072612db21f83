package services

import (
	"context"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
)

// NotificationSvcFacade covers deadline reminders.
type NotificationSvcFacade interface {
	ListNotifications(ctx context.Context, unreadOnly bool) ([]domain.Notification, error)
	// UpsertNotification creates or refreshes the single notification for (type, relatedId).
	UpsertNotification(ctx context.Context, req dto.UpsertNotificationRequest) (*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
	DeleteNotification(ctx context.Context, notificationID string) error
	// ScanDeadlines refreshes overdue loans and reminders and returns how many
	// notifications were created or changed.
	ScanDeadlines(ctx context.Context, now time.Time) (int, error)
}
