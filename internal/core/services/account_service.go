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

type accountService struct {
	BaseService
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(st *store.Store, opts ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{BaseService: newBaseService(st, opts...)}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) AddAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid account request")
		return nil, err
	}

	now := s.now()
	account := domain.Account{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Type:           req.Type,
		Balance:        req.OpeningBalance,
		OpeningBalance: req.OpeningBalance,
		Currency:       req.Currency,
		IsActive:       true,
		Timestamps:     domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}

	err := s.runInTx(ctx, "account.add", []string{domain.TableAccounts}, func(_ context.Context, tx *store.Tx) error {
		_, err := tx.Put(domain.TableAccounts, account)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to save account", slog.String("account_id", account.ID))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully", slog.String("account_id", account.ID))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	var account *domain.Account
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		account, err = queries.AccountByID(accountID)(ctx, r)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	var accounts []domain.Account
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		if activeOnly {
			accounts, err = queries.ActiveAccounts(ctx, r)
		} else {
			accounts, err = queries.Accounts(ctx, r)
		}
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid account update", slog.String("account_id", accountID))
		return nil, err
	}

	var account domain.Account
	err := s.runInTx(ctx, "account.update", []string{domain.TableAccounts}, func(_ context.Context, tx *store.Tx) error {
		var err error
		account, err = loadAccount(tx, accountID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			account.Name = *req.Name
		}
		if req.Type != nil {
			account.Type = *req.Type
		}
		if req.Currency != nil {
			account.Currency = *req.Currency
		}
		if req.IsActive != nil {
			account.IsActive = *req.IsActive
		}
		account.UpdatedAt = s.now()
		_, err = tx.Put(domain.TableAccounts, account)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account updated successfully", slog.String("account_id", accountID))
	return &account, nil
}

func (s *accountService) DeleteAccount(ctx context.Context, accountID string) error {
	tables := []string{domain.TableAccounts, domain.TableTransactions, domain.TableLoanPayments, domain.TableGoalContributions}
	err := s.runInTx(ctx, "account.delete", tables, func(_ context.Context, tx *store.Tx) error {
		account, err := loadAccount(tx, accountID)
		if err != nil {
			return err
		}
		if s.deletePolicy == DeleteReject {
			if err := s.checkAccountDependents(tx, accountID); err != nil {
				return err
			}
		}
		now := s.now()
		account.DeletedAt = &now
		account.IsActive = false
		account.UpdatedAt = now
		_, err = tx.Put(domain.TableAccounts, account)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		return err
	}

	s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID))
	return nil
}

func (s *accountService) checkAccountDependents(r store.Reader, accountID string) error {
	txns, err := store.QueryAs[domain.Transaction](r, domain.TableTransactions, "accountId", accountID)
	if err != nil {
		return err
	}
	for _, t := range txns {
		if !t.IsDeleted() {
			return fmt.Errorf("%w: account %s has transactions", apperrors.ErrHasDependents, accountID)
		}
	}
	for _, child := range []string{domain.TableLoanPayments, domain.TableGoalContributions} {
		found, err := hasDependents(r, child, "accountId", accountID)
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("%w: account %s has %s", apperrors.ErrHasDependents, accountID, child)
		}
	}
	return nil
}
