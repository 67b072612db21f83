package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrTransactionConflict is returned by the store when the tables of a transaction
// could not be locked in time. It is transient: the whole body should be retried.
var ErrTransactionConflict = errors.New("transaction conflict")

// ErrInsufficientFunds is matched by InsufficientFundsError.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrTableNotInScope indicates a transaction body touched a table it did not declare.
var ErrTableNotInScope = errors.New("table not in transaction scope")

// ErrHasDependents indicates a delete was rejected because live child records reference the entity.
var ErrHasDependents = errors.New("entity has dependent records")

// ErrSyncInFlight indicates a drain was requested while another one is running.
var ErrSyncInFlight = errors.New("sync already in progress")

// AppError carries a status-like code for adapter failures (remote endpoints, sinks).
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// SchemaUpgradeError is fatal at startup. The store keeps its previous version.
type SchemaUpgradeError struct {
	FromVersion uint
	ToVersion   uint
	Step        uint
	Err         error
}

func (e *SchemaUpgradeError) Error() string {
	if e.Step == 0 {
		return fmt.Sprintf("schema upgrade %d -> %d failed: %v", e.FromVersion, e.ToVersion, e.Err)
	}
	return fmt.Sprintf("schema upgrade %d -> %d failed at step %d: %v", e.FromVersion, e.ToVersion, e.Step, e.Err)
}

func (e *SchemaUpgradeError) Unwrap() error { return e.Err }

// UnindexedFieldError is a programmer error: a query used a field that is not indexed.
type UnindexedFieldError struct {
	Table string
	Field string
}

func (e *UnindexedFieldError) Error() string {
	return fmt.Sprintf("field %q is not indexed on table %q", e.Field, e.Table)
}

// ConsistencyConflictError is returned when a compound operation kept conflicting
// after every retry.
type ConsistencyConflictError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *ConsistencyConflictError) Error() string {
	return fmt.Sprintf("%s could not be completed after %d attempts, try again: %v", e.Operation, e.Attempts, e.Err)
}

func (e *ConsistencyConflictError) Unwrap() error { return e.Err }

// InsufficientFundsError is an expected business-rule rejection.
type InsufficientFundsError struct {
	AccountID string
	Balance   decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: balance %s, required %s", e.AccountID, e.Balance.String(), e.Required.String())
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// IncompatibleSnapshotError rejects a snapshot import wholesale.
type IncompatibleSnapshotError struct {
	Reason string
	Err    error
}

func (e *IncompatibleSnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("incompatible snapshot: %s: %v", e.Reason, e.Err)
	}
	return "incompatible snapshot: " + e.Reason
}

func (e *IncompatibleSnapshotError) Unwrap() error { return e.Err }
