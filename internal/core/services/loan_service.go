package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/core/queries"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/google/uuid"
)

const (
	loanPaymentCategory = "Loan Payment"
	loanReceiptCategory = "Loan Repayment"
)

type loanService struct {
	BaseService
}

// NewLoanService creates the loan service.
func NewLoanService(st *store.Store, opts ...ServiceOption) portssvc.LoanSvcFacade {
	return &loanService{BaseService: newBaseService(st, opts...)}
}

var _ portssvc.LoanSvcFacade = (*loanService)(nil)

func (s *loanService) GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	var loan domain.Loan
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		loan, err = mustGet[domain.Loan](r, domain.TableLoans, loanID)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to get loan", slog.String("loan_id", loanID))
		return nil, err
	}
	return &loan, nil
}

func (s *loanService) ListLoans(ctx context.Context, status domain.LoanStatus) ([]domain.Loan, error) {
	var loans []domain.Loan
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		loans, err = queries.Loans(status)(ctx, r)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list loans")
		return nil, err
	}
	return loans, nil
}

func (s *loanService) ListLoanPayments(ctx context.Context, loanID string) ([]domain.LoanPayment, error) {
	var payments []domain.LoanPayment
	err := s.read(ctx, func(r store.Reader) error {
		if _, err := mustGet[domain.Loan](r, domain.TableLoans, loanID); err != nil {
			return err
		}
		var err error
		payments, err = queries.LoanPayments(loanID)(ctx, r)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to list loan payments", slog.String("loan_id", loanID))
		return nil, err
	}
	return payments, nil
}

func (s *loanService) AddLoan(ctx context.Context, req dto.CreateLoanRequest) (*domain.Loan, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid loan request")
		return nil, err
	}

	var loan domain.Loan
	err := s.runInTx(ctx, "loan.add", []string{domain.TableLoans, domain.TableFriends}, func(_ context.Context, tx *store.Tx) error {
		if err := checkFriend(tx, req.FriendID); err != nil {
			return err
		}
		now := s.now()
		loan = domain.Loan{
			ID:                 uuid.NewString(),
			Type:               req.Type,
			Name:               req.Name,
			PrincipalAmount:    req.PrincipalAmount,
			OutstandingBalance: req.PrincipalAmount,
			InterestRate:       req.InterestRate,
			EMIAmount:          req.EMIAmount,
			DueDate:            req.DueDate,
			Status:             domain.LoanActive,
			FriendID:           req.FriendID,
			Notes:              req.Notes,
			Timestamps:         domain.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		loan.RefreshStatus(now)
		_, err := tx.Put(domain.TableLoans, loan)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to save loan")
		return nil, err
	}

	s.LogInfo(ctx, "Loan created", slog.String("loan_id", loan.ID), slog.String("type", string(loan.Type)))
	return &loan, nil
}

func (s *loanService) UpdateLoan(ctx context.Context, loanID string, req dto.UpdateLoanRequest) (*domain.Loan, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid loan update", slog.String("loan_id", loanID))
		return nil, err
	}

	var loan domain.Loan
	err := s.runInTx(ctx, "loan.update", []string{domain.TableLoans, domain.TableFriends}, func(_ context.Context, tx *store.Tx) error {
		var err error
		loan, err = mustGet[domain.Loan](tx, domain.TableLoans, loanID)
		if err != nil {
			return err
		}
		if req.FriendID != nil {
			if err := checkFriend(tx, *req.FriendID); err != nil {
				return err
			}
			loan.FriendID = *req.FriendID
		}
		if req.Name != nil {
			loan.Name = *req.Name
		}
		if req.InterestRate != nil {
			loan.InterestRate = req.InterestRate
		}
		if req.EMIAmount != nil {
			loan.EMIAmount = req.EMIAmount
		}
		if req.DueDate != nil {
			loan.DueDate = req.DueDate
		}
		if req.Notes != nil {
			loan.Notes = *req.Notes
		}
		now := s.now()
		loan.UpdatedAt = now
		loan.RefreshStatus(now)
		_, err = tx.Put(domain.TableLoans, loan)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update loan", slog.String("loan_id", loanID))
		return nil, err
	}
	return &loan, nil
}

func (s *loanService) RecordLoanPayment(ctx context.Context, req dto.RecordLoanPaymentRequest) (*domain.LoanPayment, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid loan payment")
		return nil, err
	}

	var payment domain.LoanPayment
	tables := []string{domain.TableLoans, domain.TableLoanPayments, domain.TableAccounts, domain.TableTransactions}
	err := s.runInTx(ctx, "loan.payment", tables, func(_ context.Context, tx *store.Tx) error {
		loan, err := mustGet[domain.Loan](tx, domain.TableLoans, req.LoanID)
		if err != nil {
			return err
		}
		if loan.Status == domain.LoanCompleted {
			return fmt.Errorf("%w: loan %s is already settled", apperrors.ErrValidation, loan.ID)
		}
		account, err := loadSpendableAccount(tx, req.AccountID)
		if err != nil {
			return err
		}
		if !loan.PaysIn() && !account.CanCover(req.Amount) {
			return &apperrors.InsufficientFundsError{AccountID: account.ID, Balance: account.Balance, Required: req.Amount}
		}

		now := s.now()
		payment = domain.LoanPayment{
			ID:        uuid.NewString(),
			LoanID:    loan.ID,
			AccountID: account.ID,
			Amount:    req.Amount,
			Date:      s.orNow(req.Date),
			Notes:     req.Notes,
			CreatedAt: now,
		}
		loan.ApplyPayment(req.Amount, now)

		mirror := domain.Transaction{
			ID:          uuid.NewString(),
			Type:        domain.Expense,
			Amount:      req.Amount,
			AccountID:   account.ID,
			Category:    loanPaymentCategory,
			Description: loan.Name,
			Date:        payment.Date,
			SourceKind:  domain.SourceLoanPayment,
			SourceID:    payment.ID,
			Timestamps:  domain.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		if loan.PaysIn() {
			mirror.Type = domain.Income
			mirror.Category = loanReceiptCategory
		}
		account.Balance = account.Balance.Add(mirror.SignedAmount())
		account.UpdatedAt = now

		if err := putAll(tx, domain.TableLoanPayments, payment); err != nil {
			return err
		}
		if err := putAll(tx, domain.TableLoans, loan); err != nil {
			return err
		}
		if err := putAll(tx, domain.TableTransactions, mirror); err != nil {
			return err
		}
		return putAll(tx, domain.TableAccounts, account)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to record loan payment",
			slog.String("loan_id", req.LoanID),
			slog.String("account_id", req.AccountID))
		return nil, err
	}

	s.LogInfo(ctx, "Loan payment recorded",
		slog.String("loan_id", req.LoanID),
		slog.String("payment_id", payment.ID),
		slog.String("amount", req.Amount.String()))
	return &payment, nil
}

func (s *loanService) CorrectLoanOutstanding(ctx context.Context, loanID string, req dto.CorrectLoanOutstandingRequest) (*domain.Loan, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid outstanding correction", slog.String("loan_id", loanID))
		return nil, err
	}

	var loan domain.Loan
	err := s.runInTx(ctx, "loan.correct", []string{domain.TableLoans}, func(_ context.Context, tx *store.Tx) error {
		var err error
		loan, err = mustGet[domain.Loan](tx, domain.TableLoans, loanID)
		if err != nil {
			return err
		}
		loan.SetOutstanding(req.OutstandingBalance, s.now())
		_, err = tx.Put(domain.TableLoans, loan)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to correct loan outstanding", slog.String("loan_id", loanID))
		return nil, err
	}

	s.LogInfo(ctx, "Loan outstanding corrected",
		slog.String("loan_id", loanID),
		slog.String("outstanding", loan.OutstandingBalance.String()),
		slog.String("reason", req.Reason))
	return &loan, nil
}

func (s *loanService) DeleteLoan(ctx context.Context, loanID string) error {
	tables := []string{domain.TableLoans, domain.TableLoanPayments, domain.TableNotifications}
	err := s.runInTx(ctx, "loan.delete", tables, func(_ context.Context, tx *store.Tx) error {
		if _, err := mustGet[domain.Loan](tx, domain.TableLoans, loanID); err != nil {
			return err
		}
		if s.deletePolicy == DeleteReject {
			found, err := hasDependents(tx, domain.TableLoanPayments, "loanId", loanID)
			if err != nil {
				return err
			}
			if found {
				return fmt.Errorf("%w: loan %s has payments", apperrors.ErrHasDependents, loanID)
			}
		}
		if err := deleteRelatedNotifications(tx, loanID); err != nil {
			return err
		}
		return tx.Delete(domain.TableLoans, loanID)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to delete loan", slog.String("loan_id", loanID))
		return err
	}

	s.LogInfo(ctx, "Loan deleted", slog.String("loan_id", loanID))
	return nil
}

func checkFriend(r store.Reader, friendID string) error {
	if friendID == "" {
		return nil
	}
	_, found, err := store.GetAs[domain.Friend](r, domain.TableFriends, friendID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: friend %s does not exist", apperrors.ErrValidation, friendID)
	}
	return nil
}
