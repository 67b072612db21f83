package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/core/queries"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/SscSPs/mma_local/internal/utils/accounting"
	"github.com/SscSPs/mma_local/internal/utils/pagination"
	"github.com/google/uuid"
)

const (
	defaultPageSize  = 50
	transferCategory = "Transfer"
)

type ledgerService struct {
	BaseService
}

// NewLedgerService creates the service that books income, expenses and transfers.
func NewLedgerService(st *store.Store, opts ...ServiceOption) portssvc.LedgerSvcFacade {
	return &ledgerService{BaseService: newBaseService(st, opts...)}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) AddTransaction(ctx context.Context, req dto.AddTransactionRequest) ([]domain.Transaction, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid transaction request")
		return nil, err
	}
	if req.Type == domain.Transfer && req.TransferAccountID == req.AccountID {
		err := fmt.Errorf("%w: cannot transfer to the same account", apperrors.ErrValidation)
		s.LogFailure(ctx, err, "Invalid transfer", slog.String("account_id", req.AccountID))
		return nil, err
	}

	var booked []domain.Transaction
	tables := []string{domain.TableAccounts, domain.TableTransactions}
	err := s.runInTx(ctx, "transaction.add", tables, func(_ context.Context, tx *store.Tx) error {
		account, err := loadSpendableAccount(tx, req.AccountID)
		if err != nil {
			return err
		}

		now := s.now()
		row := domain.Transaction{
			Type:        req.Type,
			Amount:      req.Amount,
			AccountID:   account.ID,
			Category:    req.Category,
			Subcategory: req.Subcategory,
			Description: req.Description,
			Date:        s.orNow(req.Date),
			Timestamps:  domain.Timestamps{CreatedAt: now, UpdatedAt: now},
		}

		if req.Type != domain.Transfer {
			row.ID = uuid.NewString()
			account.Balance = account.Balance.Add(row.SignedAmount())
			account.UpdatedAt = now
			booked = []domain.Transaction{row}
			if err := putAll(tx, domain.TableTransactions, row); err != nil {
				return err
			}
			return putAll(tx, domain.TableAccounts, account)
		}

		dest, err := loadSpendableAccount(tx, req.TransferAccountID)
		if err != nil {
			return err
		}
		if !account.CanCover(req.Amount) {
			return &apperrors.InsufficientFundsError{AccountID: account.ID, Balance: account.Balance, Required: req.Amount}
		}
		if row.Category == "" {
			row.Category = transferCategory
		}

		pairID := uuid.NewString()
		out := row
		out.ID = uuid.NewString()
		out.TransferAccountID = dest.ID
		out.TransferPairID = pairID
		out.TransferDirection = domain.TransferOut

		in := row
		in.ID = uuid.NewString()
		in.AccountID = dest.ID
		in.TransferAccountID = account.ID
		in.TransferPairID = pairID
		in.TransferDirection = domain.TransferIn

		if err := accounting.ValidateTransferLegs(out, in); err != nil {
			return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}

		account.Balance = account.Balance.Add(out.SignedAmount())
		account.UpdatedAt = now
		dest.Balance = dest.Balance.Add(in.SignedAmount())
		dest.UpdatedAt = now

		booked = []domain.Transaction{out, in}
		if err := putAll(tx, domain.TableTransactions, out, in); err != nil {
			return err
		}
		return putAll(tx, domain.TableAccounts, account, dest)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to add transaction",
			slog.String("account_id", req.AccountID),
			slog.String("type", string(req.Type)))
		return nil, err
	}

	s.LogInfo(ctx, "Transaction booked",
		slog.String("transaction_id", booked[0].ID),
		slog.String("type", string(req.Type)),
		slog.String("amount", req.Amount.String()))
	return booked, nil
}

func (s *ledgerService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		txn, err = mustGet[domain.Transaction](r, domain.TableTransactions, transactionID)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to get transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}
	return &txn, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if err := s.ValidateRequest(params); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit == 0 {
		limit = defaultPageSize
	}

	resp := &dto.ListTransactionsResponse{}
	err := s.read(ctx, func(r store.Reader) error {
		if params.AccountID != "" {
			return s.accountPage(ctx, r, params.AccountID, limit, params.NextToken, resp)
		}
		cursor, err := pagination.DecodeCursor(params.NextToken)
		if err != nil {
			return fmt.Errorf("%w: invalid next token: %s", apperrors.ErrValidation, err.Error())
		}
		txns, next, err := queries.TransactionsPage(r, limit, cursor)
		if err != nil {
			return err
		}
		resp.Transactions = txns
		resp.NextToken = pagination.EncodeCursor(next)
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to list transactions", slog.String("account_id", params.AccountID))
		return nil, err
	}
	return resp, nil
}

// accountPage pages one account's rows. The token carries the date and id of the
// last row of the previous page.
func (s *ledgerService) accountPage(ctx context.Context, r store.Reader, accountID string, limit int, token string, resp *dto.ListTransactionsResponse) error {
	txns, err := queries.TransactionsByAccount(accountID)(ctx, r)
	if err != nil {
		return err
	}

	start := 0
	if token != "" {
		date, lastID, err := pagination.DecodeToken(token)
		if err != nil {
			return fmt.Errorf("%w: invalid next token: %s", apperrors.ErrValidation, err.Error())
		}
		// Resume after the token position, which still works when its row is gone.
		start = sort.Search(len(txns), func(i int) bool {
			t := txns[i]
			return !queries.TransactionBefore(t, date, lastID) && !(t.Date.Equal(date) && t.ID == lastID)
		})
	}

	end := start + limit
	if end >= len(txns) {
		resp.Transactions = txns[start:]
		return nil
	}
	resp.Transactions = txns[start:end]
	last := txns[end-1]
	resp.NextToken = pagination.EncodeToken(last.Date, last.ID)
	return nil
}

func (s *ledgerService) UpdateTransaction(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid transaction update", slog.String("transaction_id", transactionID))
		return nil, err
	}

	var txn domain.Transaction
	tables := []string{domain.TableAccounts, domain.TableTransactions}
	err := s.runInTx(ctx, "transaction.update", tables, func(_ context.Context, tx *store.Tx) error {
		var err error
		txn, err = mustGet[domain.Transaction](tx, domain.TableTransactions, transactionID)
		if err != nil {
			return err
		}
		switch {
		case txn.IsDeleted():
			return fmt.Errorf("%w: transaction %s is deleted", apperrors.ErrNotFound, transactionID)
		case txn.Type == domain.Transfer:
			return fmt.Errorf("%w: transfers cannot be edited, delete and re-create them", apperrors.ErrValidation)
		case txn.IsSourceManaged():
			return fmt.Errorf("%w: transaction is managed by a %s", apperrors.ErrValidation, txn.SourceKind)
		}

		account, err := mustGet[domain.Account](tx, domain.TableAccounts, txn.AccountID)
		if err != nil {
			return err
		}
		previous := txn.SignedAmount()

		if req.Type != nil {
			txn.Type = *req.Type
		}
		if req.Amount != nil {
			txn.Amount = *req.Amount
		}
		if req.Category != nil {
			txn.Category = *req.Category
		}
		if req.Subcategory != nil {
			txn.Subcategory = *req.Subcategory
		}
		if req.Description != nil {
			txn.Description = *req.Description
		}
		if req.Date != nil {
			txn.Date = *req.Date
		}
		now := s.now()
		txn.UpdatedAt = now

		if delta := txn.SignedAmount().Sub(previous); !delta.IsZero() {
			account.Balance = account.Balance.Add(delta)
			account.UpdatedAt = now
			if err := putAll(tx, domain.TableAccounts, account); err != nil {
				return err
			}
		}
		return putAll(tx, domain.TableTransactions, txn)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}

	s.LogInfo(ctx, "Transaction updated", slog.String("transaction_id", transactionID))
	return &txn, nil
}

func (s *ledgerService) DeleteTransaction(ctx context.Context, transactionID string) error {
	tables := []string{domain.TableAccounts, domain.TableTransactions}
	err := s.runInTx(ctx, "transaction.delete", tables, func(_ context.Context, tx *store.Tx) error {
		txn, err := mustGet[domain.Transaction](tx, domain.TableTransactions, transactionID)
		if err != nil {
			return err
		}
		if txn.IsDeleted() {
			return fmt.Errorf("%w: transaction %s is deleted", apperrors.ErrNotFound, transactionID)
		}
		if txn.IsSourceManaged() {
			return fmt.Errorf("%w: transaction is managed by a %s", apperrors.ErrValidation, txn.SourceKind)
		}

		legs := []domain.Transaction{txn}
		if txn.Type == domain.Transfer && txn.TransferPairID != "" {
			pair, err := store.QueryAs[domain.Transaction](tx, domain.TableTransactions, "transferPairId", txn.TransferPairID)
			if err != nil {
				return err
			}
			legs = legs[:0]
			for _, leg := range pair {
				if !leg.IsDeleted() {
					legs = append(legs, leg)
				}
			}
		}

		now := s.now()
		for _, leg := range legs {
			account, err := mustGet[domain.Account](tx, domain.TableAccounts, leg.AccountID)
			if err != nil {
				return err
			}
			account.Balance = account.Balance.Sub(leg.SignedAmount())
			account.UpdatedAt = now
			leg.DeletedAt = &now
			leg.UpdatedAt = now
			if err := putAll(tx, domain.TableTransactions, leg); err != nil {
				return err
			}
			if err := putAll(tx, domain.TableAccounts, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to delete transaction", slog.String("transaction_id", transactionID))
		return err
	}

	s.LogInfo(ctx, "Transaction deleted", slog.String("transaction_id", transactionID))
	return nil
}
