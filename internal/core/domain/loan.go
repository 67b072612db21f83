package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanType is the direction of a loan.
type LoanType string

const (
	Borrowed LoanType = "borrowed"
	Lent     LoanType = "lent"
	EMI      LoanType = "emi"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanOverdue   LoanStatus = "overdue"
	LoanCompleted LoanStatus = "completed"
)

// Loan is money owed by or to the user. OutstandingBalance only moves through
// recorded payments or an explicit correction.
type Loan struct {
	ID                 string           `json:"id"`
	Type               LoanType         `json:"type"`
	Name               string           `json:"name"`
	PrincipalAmount    decimal.Decimal  `json:"principalAmount"`
	OutstandingBalance decimal.Decimal  `json:"outstandingBalance"`
	InterestRate       *decimal.Decimal `json:"interestRate,omitempty"`
	EMIAmount          *decimal.Decimal `json:"emiAmount,omitempty"`
	DueDate            *time.Time       `json:"dueDate,omitempty"`
	Status             LoanStatus       `json:"status"`
	FriendID           string           `json:"friendId,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	Timestamps
}

func (l Loan) RecordKey() string { return l.ID }

// PaysIn reports whether payments on this loan bring money into the paying account.
func (l Loan) PaysIn() bool {
	return l.Type == Lent
}

// ApplyPayment reduces the outstanding balance, never below zero, and completes the
// loan when nothing is left.
func (l *Loan) ApplyPayment(amount decimal.Decimal, now time.Time) {
	l.SetOutstanding(l.OutstandingBalance.Sub(amount), now)
}

// SetOutstanding sets the outstanding balance and derives the status from it.
func (l *Loan) SetOutstanding(outstanding decimal.Decimal, now time.Time) {
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	l.OutstandingBalance = outstanding
	l.Status = l.statusAt(now)
	l.UpdatedAt = now
}

// RefreshStatus recomputes the status for the given time and reports whether it changed.
func (l *Loan) RefreshStatus(now time.Time) bool {
	next := l.statusAt(now)
	if next == l.Status {
		return false
	}
	l.Status = next
	l.UpdatedAt = now
	return true
}

func (l Loan) statusAt(now time.Time) LoanStatus {
	switch {
	case l.OutstandingBalance.IsZero():
		return LoanCompleted
	case l.DueDate != nil && l.DueDate.Before(now):
		return LoanOverdue
	default:
		return LoanActive
	}
}

// LoanPayment is one payment against a loan.
type LoanPayment struct {
	ID        string          `json:"id"`
	LoanID    string          `json:"loanId"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (p LoanPayment) RecordKey() string { return p.ID }
