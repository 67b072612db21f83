package dto

import (
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AddTransactionRequest is the intent to book income, an expense or a transfer.
type AddTransactionRequest struct {
	AccountID         string                 `json:"accountId" binding:"required"`
	Type              domain.TransactionType `json:"type" binding:"required,oneof=expense income transfer"`
	Amount            decimal.Decimal        `json:"amount" binding:"gt=0"`
	Category          string                 `json:"category" binding:"max=60"`
	Subcategory       string                 `json:"subcategory" binding:"max=60"`
	Description       string                 `json:"description" binding:"max=500"`
	Date              time.Time              `json:"date"`
	TransferAccountID string                 `json:"transferAccountId" binding:"required_if=Type transfer"`
}

// UpdateTransactionRequest edits a plain income or expense row.
type UpdateTransactionRequest struct {
	Type        *domain.TransactionType `json:"type" binding:"omitempty,oneof=expense income"`
	Amount      *decimal.Decimal        `json:"amount" binding:"omitempty,gt=0"`
	Category    *string                 `json:"category" binding:"omitempty,max=60"`
	Subcategory *string                 `json:"subcategory" binding:"omitempty,max=60"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Date        *time.Time              `json:"date"`
}

// ListTransactionsParams selects a page of transactions.
type ListTransactionsParams struct {
	AccountID string `form:"accountId"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
	NextToken string `form:"nextToken"`
}

// ListTransactionsResponse is one page of transactions, newest first.
type ListTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	NextToken    string               `json:"nextToken,omitempty"`
}
