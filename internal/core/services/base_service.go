package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/go-playground/validator/v10"
)

// DeletePolicy decides what happens when a deleted parent still has children.
type DeletePolicy string

const (
	// DeleteOrphan deletes the parent and leaves children referencing it.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteReject refuses the delete with ErrHasDependents.
	DeleteReject DeletePolicy = "reject"
)

const (
	defaultRetryBound = 3
	defaultRetryDelay = 20 * time.Millisecond
	defaultLeadDays   = 3
)

// BaseService provides common functionality for all services
type BaseService struct {
	store        *store.Store
	recorder     portsrepo.ChangeRecorder
	validate     *validator.Validate
	retryBound   int
	retryDelay   time.Duration
	deletePolicy DeletePolicy
	leadDays     int
	now          func() time.Time
}

// ServiceOption is a functional option shared by every service constructor
type ServiceOption func(*BaseService)

// WithChangeRecorder appends a change record to every successful mutation.
func WithChangeRecorder(r portsrepo.ChangeRecorder) ServiceOption {
	return func(s *BaseService) {
		s.recorder = r
	}
}

// WithRetryBound sets how many times a conflicting transaction is attempted.
func WithRetryBound(n int) ServiceOption {
	return func(s *BaseService) {
		if n > 0 {
			s.retryBound = n
		}
	}
}

// WithRetryDelay sets the base pause between conflicting attempts.
func WithRetryDelay(d time.Duration) ServiceOption {
	return func(s *BaseService) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// WithDeletePolicy sets the parent delete policy.
func WithDeletePolicy(p DeletePolicy) ServiceOption {
	return func(s *BaseService) {
		if p == DeleteOrphan || p == DeleteReject {
			s.deletePolicy = p
		}
	}
}

// WithNotificationLeadDays sets how far ahead deadlines are announced.
func WithNotificationLeadDays(days int) ServiceOption {
	return func(s *BaseService) {
		if days >= 0 {
			s.leadDays = days
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *BaseService) {
		if now != nil {
			s.now = now
		}
	}
}

func newBaseService(st *store.Store, opts ...ServiceOption) BaseService {
	s := BaseService{
		store:        st,
		validate:     dto.NewValidator(),
		retryBound:   defaultRetryBound,
		retryDelay:   defaultRetryDelay,
		deletePolicy: DeleteOrphan,
		leadDays:     defaultLeadDays,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// LogFailure logs business rejections at debug level and everything else as an error.
func (s *BaseService) LogFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if isExpected(err) {
		args := append([]any{slog.String("reason", err.Error())}, keyvals...)
		s.LogDebug(ctx, msg, args...)
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}

func isExpected(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrInsufficientFunds) ||
		errors.Is(err, apperrors.ErrHasDependents)
}

// ValidateRequest runs the binding tags of a request DTO.
func (s *BaseService) ValidateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return nil
}

// runInTx runs fn as one atomic operation over tables. The change record is appended
// in the same transaction. Lock conflicts are retried up to the retry bound and then
// reported as *apperrors.ConsistencyConflictError.
func (s *BaseService) runInTx(ctx context.Context, kind string, tables []string, fn func(ctx context.Context, tx *store.Tx) error) error {
	scope := tables
	if s.recorder != nil {
		scope = append(append([]string{}, tables...), domain.TableChanges)
	}

	for attempt := 1; ; attempt++ {
		err := s.store.Transact(ctx, scope, func(ctx context.Context, tx *store.Tx) error {
			if err := fn(ctx, tx); err != nil {
				return err
			}
			if s.recorder != nil {
				return s.recorder.Append(tx, kind)
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrTransactionConflict) {
			return err
		}
		if attempt >= s.retryBound {
			s.LogError(ctx, err, "Operation kept conflicting, giving up", slog.String("operation", kind), slog.Int("attempts", attempt))
			return &apperrors.ConsistencyConflictError{Operation: kind, Attempts: attempt, Err: err}
		}
		s.LogDebug(ctx, "Transaction conflict, retrying", slog.String("operation", kind), slog.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
	}
}

// read runs fn against a consistent snapshot.
func (s *BaseService) read(ctx context.Context, fn func(r store.Reader) error) error {
	return s.store.View(ctx, fn)
}

func (s *BaseService) orNow(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// mustGet loads one record, reporting a missing key as ErrNotFound.
func mustGet[T any](r store.Reader, table, id string) (T, error) {
	v, found, err := store.GetAs[T](r, table, id)
	if err != nil {
		return v, err
	}
	if !found {
		return v, fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, table, id)
	}
	return v, nil
}

// loadAccount loads a non-deleted account.
func loadAccount(r store.Reader, id string) (domain.Account, error) {
	acc, err := mustGet[domain.Account](r, domain.TableAccounts, id)
	if err != nil {
		return acc, err
	}
	if acc.IsDeleted() {
		return acc, fmt.Errorf("%w: account %s is deleted", apperrors.ErrNotFound, id)
	}
	return acc, nil
}

// loadSpendableAccount loads an account that may take new ledger rows.
func loadSpendableAccount(r store.Reader, id string) (domain.Account, error) {
	acc, err := loadAccount(r, id)
	if err != nil {
		return acc, err
	}
	if !acc.IsActive {
		return acc, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
	}
	return acc, nil
}

func putAll(tx *store.Tx, table string, recs ...store.Record) error {
	for _, rec := range recs {
		if _, err := tx.Put(table, rec); err != nil {
			return err
		}
	}
	return nil
}

// hasDependents reports whether any record of table has field equal to id.
func hasDependents(r store.Reader, table, field, id string) (bool, error) {
	rows, err := r.Query(table, field, id)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// deleteRelatedNotifications removes reminders pointing at a deleted entity.
func deleteRelatedNotifications(tx *store.Tx, relatedID string) error {
	rows, err := tx.Query(domain.TableNotifications, "relatedId", relatedID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := tx.Delete(domain.TableNotifications, row.Key); err != nil {
			return err
		}
	}
	return nil
}
