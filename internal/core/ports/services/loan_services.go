package services

import (
	"context"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
)

// LoanSvcFacade covers loans and their payments.
type LoanSvcFacade interface {
	GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)
	ListLoans(ctx context.Context, status domain.LoanStatus) ([]domain.Loan, error)
	ListLoanPayments(ctx context.Context, loanID string) ([]domain.LoanPayment, error)

	AddLoan(ctx context.Context, req dto.CreateLoanRequest) (*domain.Loan, error)
	UpdateLoan(ctx context.Context, loanID string, req dto.UpdateLoanRequest) (*domain.Loan, error)
	// RecordLoanPayment inserts the payment, reduces the outstanding balance and
	// moves the paying account's balance, all in one transaction.
	RecordLoanPayment(ctx context.Context, req dto.RecordLoanPaymentRequest) (*domain.LoanPayment, error)
	CorrectLoanOutstanding(ctx context.Context, loanID string, req dto.CorrectLoanOutstandingRequest) (*domain.Loan, error)
	DeleteLoan(ctx context.Context, loanID string) error
}
