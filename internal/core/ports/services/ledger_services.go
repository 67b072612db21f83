package services

import (
	"context"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
)

// LedgerReaderSvc defines read operations for transactions
type LedgerReaderSvc interface {
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// LedgerWriterSvc defines the balance-affecting ledger operations
type LedgerWriterSvc interface {
	// AddTransaction books one row, or two linked rows for a transfer, and adjusts balances.
	AddTransaction(ctx context.Context, req dto.AddTransactionRequest) ([]domain.Transaction, error)

	// UpdateTransaction replaces the balance effect of a plain income or expense row.
	UpdateTransaction(ctx context.Context, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error)

	// DeleteTransaction soft-deletes a row, both legs for a transfer, and reverses its effect.
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// LedgerSvcFacade combines ledger reads and writes
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
