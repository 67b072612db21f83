package dto

import (
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
)

// UpsertNotificationRequest creates or refreshes the notification for (type, relatedId).
type UpsertNotificationRequest struct {
	Type        domain.NotificationType `json:"type" binding:"required,oneof=loan_due loan_overdue goal_deadline"`
	Title       string                  `json:"title" binding:"required,max=200"`
	Message     string                  `json:"message" binding:"max=1000"`
	DueDate     *time.Time              `json:"dueDate"`
	RelatedID   string                  `json:"relatedId" binding:"required"`
	RelatedType string                  `json:"relatedType"`
}
