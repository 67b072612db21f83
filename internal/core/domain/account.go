package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType is the kind of money holder an account represents.
type AccountType string

const (
	Bank   AccountType = "bank"
	Card   AccountType = "card"
	Cash   AccountType = "cash"
	Wallet AccountType = "wallet"
)

// Account represents a money holder. Balance is maintained incrementally by the
// consistency rules and must equal OpeningBalance plus the signed amounts of all
// non-deleted transactions booked against it.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Currency       string          `json:"currency"`
	IsActive       bool            `json:"isActive"`
	Timestamps
	SoftDelete
}

func (a Account) RecordKey() string { return a.ID }

// CanCover reports whether the balance covers amount.
func (a Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
