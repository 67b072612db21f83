package dto

import (
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLoanRequest defines a new loan.
type CreateLoanRequest struct {
	Type            domain.LoanType  `json:"type" binding:"required,oneof=borrowed lent emi"`
	Name            string           `json:"name" binding:"required,max=100"`
	PrincipalAmount decimal.Decimal  `json:"principalAmount" binding:"gt=0"`
	InterestRate    *decimal.Decimal `json:"interestRate" binding:"omitempty,gte=0"`
	EMIAmount       *decimal.Decimal `json:"emiAmount" binding:"omitempty,gt=0"`
	DueDate         *time.Time       `json:"dueDate"`
	FriendID        string           `json:"friendId"`
	Notes           string           `json:"notes" binding:"max=500"`
}

// UpdateLoanRequest edits the descriptive fields of a loan. Outstanding balance and
// status are not editable here.
type UpdateLoanRequest struct {
	Name         *string          `json:"name" binding:"omitempty,max=100"`
	InterestRate *decimal.Decimal `json:"interestRate" binding:"omitempty,gte=0"`
	EMIAmount    *decimal.Decimal `json:"emiAmount" binding:"omitempty,gt=0"`
	DueDate      *time.Time       `json:"dueDate"`
	FriendID     *string          `json:"friendId"`
	Notes        *string          `json:"notes" binding:"omitempty,max=500"`
}

// RecordLoanPaymentRequest pays part of a loan from an account.
type RecordLoanPaymentRequest struct {
	LoanID    string          `json:"loanId" binding:"required"`
	AccountID string          `json:"accountId" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"gt=0"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// CorrectLoanOutstandingRequest sets the outstanding balance explicitly.
type CorrectLoanOutstandingRequest struct {
	OutstandingBalance decimal.Decimal `json:"outstandingBalance" binding:"gte=0"`
	Reason             string          `json:"reason" binding:"required,max=200"`
}
