package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentType is the asset class of a holding.
type InvestmentType string

const (
	Stock        InvestmentType = "stock"
	MutualFund   InvestmentType = "mutual_fund"
	Crypto       InvestmentType = "crypto"
	Gold         InvestmentType = "gold"
	FixedDeposit InvestmentType = "fd"
	OtherAsset   InvestmentType = "other"
)

// Investment is one holding. The derived value fields are computed when the record is written.
type Investment struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol,omitempty"`
	Type          InvestmentType  `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	BuyPrice      decimal.Decimal `json:"buyPrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	TotalInvested decimal.Decimal `json:"totalInvested"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	ProfitLoss    decimal.Decimal `json:"profitLoss"`
	PurchaseDate  time.Time       `json:"purchaseDate"`
	Timestamps
	SoftDelete
}

func (i Investment) RecordKey() string { return i.ID }

// Recompute refreshes the derived value fields from quantity and prices.
func (i *Investment) Recompute() {
	i.TotalInvested = i.Quantity.Mul(i.BuyPrice)
	i.CurrentValue = i.Quantity.Mul(i.CurrentPrice)
	i.ProfitLoss = i.CurrentValue.Sub(i.TotalInvested)
}
