package services

import (
	"context"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
)

// InvestmentSvcFacade covers holdings.
type InvestmentSvcFacade interface {
	ListInvestments(ctx context.Context) ([]domain.Investment, error)
	AddInvestment(ctx context.Context, req dto.CreateInvestmentRequest) (*domain.Investment, error)
	UpdateInvestmentPrice(ctx context.Context, investmentID string, req dto.UpdateInvestmentPriceRequest) (*domain.Investment, error)
	DeleteInvestment(ctx context.Context, investmentID string) error
}
