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

type investmentService struct {
	BaseService
}

// NewInvestmentService creates the holdings service.
func NewInvestmentService(st *store.Store, opts ...ServiceOption) portssvc.InvestmentSvcFacade {
	return &investmentService{BaseService: newBaseService(st, opts...)}
}

var _ portssvc.InvestmentSvcFacade = (*investmentService)(nil)

func (s *investmentService) ListInvestments(ctx context.Context) ([]domain.Investment, error) {
	var list []domain.Investment
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		list, err = queries.Investments(ctx, r)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list investments")
		return nil, err
	}
	return list, nil
}

func (s *investmentService) AddInvestment(ctx context.Context, req dto.CreateInvestmentRequest) (*domain.Investment, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid investment request")
		return nil, err
	}

	now := s.now()
	inv := domain.Investment{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Symbol:       req.Symbol,
		Type:         req.Type,
		Quantity:     req.Quantity,
		BuyPrice:     req.BuyPrice,
		CurrentPrice: req.BuyPrice,
		PurchaseDate: s.orNow(req.PurchaseDate),
		Timestamps:   domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	if req.CurrentPrice != nil {
		inv.CurrentPrice = *req.CurrentPrice
	}
	inv.Recompute()

	err := s.runInTx(ctx, "investment.add", []string{domain.TableInvestments}, func(_ context.Context, tx *store.Tx) error {
		_, err := tx.Put(domain.TableInvestments, inv)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to save investment")
		return nil, err
	}

	s.LogInfo(ctx, "Investment created", slog.String("investment_id", inv.ID))
	return &inv, nil
}

func (s *investmentService) UpdateInvestmentPrice(ctx context.Context, investmentID string, req dto.UpdateInvestmentPriceRequest) (*domain.Investment, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid price update", slog.String("investment_id", investmentID))
		return nil, err
	}

	var inv domain.Investment
	err := s.runInTx(ctx, "investment.price", []string{domain.TableInvestments}, func(_ context.Context, tx *store.Tx) error {
		var err error
		inv, err = mustGet[domain.Investment](tx, domain.TableInvestments, investmentID)
		if err != nil {
			return err
		}
		if inv.IsDeleted() {
			return fmt.Errorf("%w: investment %s is deleted", apperrors.ErrNotFound, investmentID)
		}
		inv.CurrentPrice = req.CurrentPrice
		inv.Recompute()
		inv.UpdatedAt = s.now()
		_, err = tx.Put(domain.TableInvestments, inv)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update investment price", slog.String("investment_id", investmentID))
		return nil, err
	}
	return &inv, nil
}

func (s *investmentService) DeleteInvestment(ctx context.Context, investmentID string) error {
	err := s.runInTx(ctx, "investment.delete", []string{domain.TableInvestments}, func(_ context.Context, tx *store.Tx) error {
		inv, err := mustGet[domain.Investment](tx, domain.TableInvestments, investmentID)
		if err != nil {
			return err
		}
		if inv.IsDeleted() {
			return nil
		}
		now := s.now()
		inv.DeletedAt = &now
		inv.UpdatedAt = now
		_, err = tx.Put(domain.TableInvestments, inv)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to delete investment", slog.String("investment_id", investmentID))
		return err
	}
	return nil
}
