package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/core/queries"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type notificationService struct {
	BaseService
}

// NewNotificationService creates the reminder service.
func NewNotificationService(st *store.Store, opts ...ServiceOption) portssvc.NotificationSvcFacade {
	return &notificationService{BaseService: newBaseService(st, opts...)}
}

var _ portssvc.NotificationSvcFacade = (*notificationService)(nil)

func (s *notificationService) ListNotifications(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	var list []domain.Notification
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		list, err = queries.Notifications(unreadOnly)(ctx, r)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list notifications")
		return nil, err
	}
	return list, nil
}

func (s *notificationService) UpsertNotification(ctx context.Context, req dto.UpsertNotificationRequest) (*domain.Notification, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid notification")
		return nil, err
	}

	var result domain.Notification
	err := s.runInTx(ctx, "notification.upsert", []string{domain.TableNotifications}, func(_ context.Context, tx *store.Tx) error {
		var err error
		result, _, err = s.upsert(tx, domain.Notification{
			Type:        req.Type,
			Title:       req.Title,
			Message:     req.Message,
			DueDate:     req.DueDate,
			RelatedID:   req.RelatedID,
			RelatedType: req.RelatedType,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to upsert notification", slog.String("related_id", req.RelatedID))
		return nil, err
	}
	return &result, nil
}

// upsert keeps a single notification per (type, related entity). An unchanged
// notification is not rewritten. A moved due date makes it unread again.
func (s *notificationService) upsert(tx *store.Tx, n domain.Notification) (domain.Notification, bool, error) {
	n.DedupKey = domain.NotificationDedupKey(n.Type, n.RelatedID)
	existing, err := store.QueryAs[domain.Notification](tx, domain.TableNotifications, "dedupKey", n.DedupKey)
	if err != nil {
		return n, false, err
	}

	if len(existing) == 0 {
		n.ID = uuid.NewString()
		n.CreatedAt = s.now()
		_, err := tx.Put(domain.TableNotifications, n)
		return n, err == nil, err
	}

	current := existing[0]
	next := current
	next.Title = n.Title
	next.Message = n.Message
	next.DueDate = n.DueDate
	next.RelatedType = n.RelatedType
	if !sameDay(current.DueDate, n.DueDate) {
		next.IsRead = false
	}
	if next.Title == current.Title && next.Message == current.Message &&
		next.RelatedType == current.RelatedType && next.IsRead == current.IsRead && sameDay(current.DueDate, next.DueDate) {
		return current, false, nil
	}
	_, err = tx.Put(domain.TableNotifications, next)
	return next, err == nil, err
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Format(dateLayout) == b.Format(dateLayout)
}

func (s *notificationService) MarkNotificationRead(ctx context.Context, notificationID string) error {
	err := s.runInTx(ctx, "notification.read", []string{domain.TableNotifications}, func(_ context.Context, tx *store.Tx) error {
		n, err := mustGet[domain.Notification](tx, domain.TableNotifications, notificationID)
		if err != nil {
			return err
		}
		if n.IsRead {
			return nil
		}
		n.IsRead = true
		_, err = tx.Put(domain.TableNotifications, n)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to mark notification read", slog.String("notification_id", notificationID))
		return err
	}
	return nil
}

func (s *notificationService) DeleteNotification(ctx context.Context, notificationID string) error {
	err := s.runInTx(ctx, "notification.delete", []string{domain.TableNotifications}, func(_ context.Context, tx *store.Tx) error {
		if _, err := mustGet[domain.Notification](tx, domain.TableNotifications, notificationID); err != nil {
			return err
		}
		return tx.Delete(domain.TableNotifications, notificationID)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to delete notification", slog.String("notification_id", notificationID))
		return err
	}
	return nil
}

func (s *notificationService) ScanDeadlines(ctx context.Context, now time.Time) (int, error) {
	if now.IsZero() {
		now = s.now()
	}
	horizon := now.AddDate(0, 0, s.leadDays)
	changed := 0

	tables := []string{domain.TableLoans, domain.TableGoals, domain.TableNotifications}
	err := s.runInTx(ctx, "notification.scan", tables, func(_ context.Context, tx *store.Tx) error {
		changed = 0
		loans, err := store.GetAllAs[domain.Loan](tx, domain.TableLoans)
		if err != nil {
			return err
		}
		for _, loan := range loans {
			if loan.Status == domain.LoanCompleted {
				continue
			}
			if loan.RefreshStatus(now) {
				if _, err := tx.Put(domain.TableLoans, loan); err != nil {
					return err
				}
			}
			n, ok := loanReminder(loan, horizon)
			if !ok {
				continue
			}
			_, wrote, err := s.upsert(tx, n)
			if err != nil {
				return err
			}
			if wrote {
				changed++
			}
		}

		goals, err := store.GetAllAs[domain.Goal](tx, domain.TableGoals)
		if err != nil {
			return err
		}
		for _, goal := range goals {
			if goal.IsDeleted() || goal.Reached() || goal.TargetDate.After(horizon) {
				continue
			}
			due := goal.TargetDate
			_, wrote, err := s.upsert(tx, domain.Notification{
				Type:        domain.NotifyGoalDeadline,
				Title:       "Goal deadline approaching",
				Message:     fmt.Sprintf("%s needs %s more by %s", goal.Name, goal.TargetAmount.Sub(goal.CurrentAmount).StringFixed(2), due.Format(dateLayout)),
				DueDate:     &due,
				RelatedID:   goal.ID,
				RelatedType: domain.TableGoals,
			})
			if err != nil {
				return err
			}
			if wrote {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Deadline scan failed")
		return 0, err
	}

	if changed > 0 {
		s.LogInfo(ctx, "Deadline scan updated notifications", slog.Int("changed", changed))
	}
	return changed, nil
}

func loanReminder(loan domain.Loan, horizon time.Time) (domain.Notification, bool) {
	if loan.DueDate == nil {
		return domain.Notification{}, false
	}
	due := *loan.DueDate
	n := domain.Notification{
		DueDate:     &due,
		RelatedID:   loan.ID,
		RelatedType: domain.TableLoans,
	}
	switch {
	case loan.Status == domain.LoanOverdue:
		n.Type = domain.NotifyLoanOverdue
		n.Title = "Loan overdue"
		n.Message = fmt.Sprintf("%s was due on %s, %s outstanding", loan.Name, due.Format(dateLayout), loan.OutstandingBalance.StringFixed(2))
	case !due.After(horizon):
		n.Type = domain.NotifyLoanDue
		n.Title = "Loan due soon"
		n.Message = fmt.Sprintf("%s is due on %s, %s outstanding", loan.Name, due.Format(dateLayout), loan.OutstandingBalance.StringFixed(2))
	default:
		return domain.Notification{}, false
	}
	return n, true
}
