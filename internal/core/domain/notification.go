package domain

import "time"

// NotificationType names the deadline a notification warns about.
type NotificationType string

const (
	NotifyLoanDue      NotificationType = "loan_due"
	NotifyLoanOverdue  NotificationType = "loan_overdue"
	NotifyGoalDeadline NotificationType = "goal_deadline"
)

// Notification is a reminder generated by the deadline scan.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	DueDate     *time.Time       `json:"dueDate,omitempty"`
	IsRead      bool             `json:"isRead"`
	RelatedID   string           `json:"relatedId,omitempty"`
	RelatedType string           `json:"relatedType,omitempty"`
	DedupKey    string           `json:"dedupKey"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (n Notification) RecordKey() string { return n.ID }

// NotificationDedupKey identifies the notification for one (type, related entity) pair.
func NotificationDedupKey(t NotificationType, relatedID string) string {
	return string(t) + ":" + relatedID
}
