package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger row.
type TransactionType string

const (
	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"
)

// TransferDirection tells the two legs of a transfer apart.
type TransferDirection string

const (
	TransferOut TransferDirection = "out"
	TransferIn  TransferDirection = "in"
)

// SourceKind names the compound operation that created a ledger row on the user's behalf.
type SourceKind string

const (
	SourceLoanPayment      SourceKind = "loanPayment"
	SourceGoalContribution SourceKind = "goalContribution"
)

// Transaction is one ledger row against one account. Amount is always positive;
// the sign comes from Type and TransferDirection.
type Transaction struct {
	ID                string            `json:"id"`
	Type              TransactionType   `json:"type"`
	Amount            decimal.Decimal   `json:"amount"`
	AccountID         string            `json:"accountId"`
	Category          string            `json:"category"`
	Subcategory       string            `json:"subcategory,omitempty"`
	Description       string            `json:"description,omitempty"`
	Date              time.Time         `json:"date"`
	TransferAccountID string            `json:"transferAccountId,omitempty"`
	TransferPairID    string            `json:"transferPairId,omitempty"`
	TransferDirection TransferDirection `json:"transferDirection,omitempty"`
	SourceKind        SourceKind        `json:"sourceKind,omitempty"`
	SourceID          string            `json:"sourceId,omitempty"`
	Timestamps
	SoftDelete
}

func (t Transaction) RecordKey() string { return t.ID }

// SignedAmount is the effect of the row on its account's balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case Income:
		return t.Amount
	case Transfer:
		if t.TransferDirection == TransferIn {
			return t.Amount
		}
		return t.Amount.Neg()
	default:
		return t.Amount.Neg()
	}
}

// IsSourceManaged reports whether the row mirrors a loan payment or goal contribution.
func (t Transaction) IsSourceManaged() bool {
	return t.SourceKind != ""
}
