package dto

import (
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required,max=100"`
	Type           domain.AccountType `json:"type" binding:"required,oneof=bank card cash wallet"`
	Currency       string             `json:"currency" binding:"required,len=3"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Balance is deliberately absent: it only moves through ledger operations.
type UpdateAccountRequest struct {
	Name     *string             `json:"name" binding:"omitempty,max=100"`
	Type     *domain.AccountType `json:"type" binding:"omitempty,oneof=bank card cash wallet"`
	Currency *string             `json:"currency" binding:"omitempty,len=3"`
	IsActive *bool               `json:"isActive"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Type           domain.AccountType `json:"type"`
	Balance        decimal.Decimal    `json:"balance"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	Currency       string             `json:"currency"`
	IsActive       bool               `json:"isActive"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		ID:             acc.ID,
		Name:           acc.Name,
		Type:           acc.Type,
		Balance:        acc.Balance,
		OpeningBalance: acc.OpeningBalance,
		Currency:       acc.Currency,
		IsActive:       acc.IsActive,
		CreatedAt:      acc.CreatedAt,
		UpdatedAt:      acc.UpdatedAt,
	}
}

// ToListAccountsResponse converts a slice of accounts.
func ToListAccountsResponse(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, ToAccountResponse(&accounts[i]))
	}
	return out
}
