package dto

import (
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateInvestmentRequest defines a new holding.
type CreateInvestmentRequest struct {
	Name         string                `json:"name" binding:"required,max=100"`
	Symbol       string                `json:"symbol" binding:"max=20"`
	Type         domain.InvestmentType `json:"type" binding:"required,oneof=stock mutual_fund crypto gold fd other"`
	Quantity     decimal.Decimal       `json:"quantity" binding:"gt=0"`
	BuyPrice     decimal.Decimal       `json:"buyPrice" binding:"gte=0"`
	CurrentPrice *decimal.Decimal      `json:"currentPrice" binding:"omitempty,gte=0"`
	PurchaseDate time.Time             `json:"purchaseDate"`
}

// UpdateInvestmentPriceRequest records a new market price.
type UpdateInvestmentPriceRequest struct {
	CurrentPrice decimal.Decimal `json:"currentPrice" binding:"gte=0"`
}
