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
	"github.com/shopspring/decimal"
)

const goalCategory = "Savings"

type goalService struct {
	BaseService
}

// NewGoalService creates the savings goal service.
func NewGoalService(st *store.Store, opts ...ServiceOption) portssvc.GoalSvcFacade {
	return &goalService{BaseService: newBaseService(st, opts...)}
}

var _ portssvc.GoalSvcFacade = (*goalService)(nil)

func loadGoal(r store.Reader, goalID string) (domain.Goal, error) {
	goal, err := mustGet[domain.Goal](r, domain.TableGoals, goalID)
	if err != nil {
		return goal, err
	}
	if goal.IsDeleted() {
		return goal, fmt.Errorf("%w: goal %s is deleted", apperrors.ErrNotFound, goalID)
	}
	return goal, nil
}

func (s *goalService) GetGoalByID(ctx context.Context, goalID string) (*domain.Goal, error) {
	var goal domain.Goal
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		goal, err = mustGet[domain.Goal](r, domain.TableGoals, goalID)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to get goal", slog.String("goal_id", goalID))
		return nil, err
	}
	return &goal, nil
}

func (s *goalService) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	var goals []domain.Goal
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		goals, err = queries.Goals(ctx, r)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list goals")
		return nil, err
	}
	return goals, nil
}

func (s *goalService) AddGoal(ctx context.Context, req dto.CreateGoalRequest) (*domain.Goal, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid goal request")
		return nil, err
	}

	now := s.now()
	goal := domain.Goal{
		ID:            uuid.NewString(),
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: decimal.Zero,
		TargetDate:    req.TargetDate,
		Category:      req.Category,
		Timestamps:    domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	err := s.runInTx(ctx, "goal.add", []string{domain.TableGoals}, func(_ context.Context, tx *store.Tx) error {
		_, err := tx.Put(domain.TableGoals, goal)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to save goal")
		return nil, err
	}

	s.LogInfo(ctx, "Goal created", slog.String("goal_id", goal.ID))
	return &goal, nil
}

func (s *goalService) UpdateGoal(ctx context.Context, goalID string, req dto.UpdateGoalRequest) (*domain.Goal, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid goal update", slog.String("goal_id", goalID))
		return nil, err
	}

	var goal domain.Goal
	err := s.runInTx(ctx, "goal.update", []string{domain.TableGoals}, func(_ context.Context, tx *store.Tx) error {
		var err error
		goal, err = loadGoal(tx, goalID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			goal.Name = *req.Name
		}
		if req.TargetAmount != nil {
			goal.TargetAmount = *req.TargetAmount
		}
		if req.TargetDate != nil {
			goal.TargetDate = *req.TargetDate
		}
		if req.Category != nil {
			goal.Category = *req.Category
		}
		goal.UpdatedAt = s.now()
		_, err = tx.Put(domain.TableGoals, goal)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update goal", slog.String("goal_id", goalID))
		return nil, err
	}
	return &goal, nil
}

func (s *goalService) ContributeToGoal(ctx context.Context, req dto.ContributeToGoalRequest) (*domain.GoalContribution, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid goal contribution")
		return nil, err
	}

	var contribution domain.GoalContribution
	tables := []string{domain.TableGoals, domain.TableGoalContributions, domain.TableAccounts, domain.TableTransactions}
	err := s.runInTx(ctx, "goal.contribute", tables, func(_ context.Context, tx *store.Tx) error {
		goal, err := loadGoal(tx, req.GoalID)
		if err != nil {
			return err
		}
		account, err := loadSpendableAccount(tx, req.AccountID)
		if err != nil {
			return err
		}
		if !account.CanCover(req.Amount) {
			return &apperrors.InsufficientFundsError{AccountID: account.ID, Balance: account.Balance, Required: req.Amount}
		}

		now := s.now()
		contribution = domain.GoalContribution{
			ID:        uuid.NewString(),
			GoalID:    goal.ID,
			AccountID: account.ID,
			Amount:    req.Amount,
			Date:      s.orNow(req.Date),
			Notes:     req.Notes,
			CreatedAt: now,
		}
		goal.CurrentAmount = goal.CurrentAmount.Add(req.Amount)
		goal.UpdatedAt = now

		mirror := domain.Transaction{
			ID:          uuid.NewString(),
			Type:        domain.Expense,
			Amount:      req.Amount,
			AccountID:   account.ID,
			Category:    goalCategory,
			Description: goal.Name,
			Date:        contribution.Date,
			SourceKind:  domain.SourceGoalContribution,
			SourceID:    contribution.ID,
			Timestamps:  domain.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		account.Balance = account.Balance.Add(mirror.SignedAmount())
		account.UpdatedAt = now

		if err := putAll(tx, domain.TableGoalContributions, contribution); err != nil {
			return err
		}
		if err := putAll(tx, domain.TableGoals, goal); err != nil {
			return err
		}
		if err := putAll(tx, domain.TableTransactions, mirror); err != nil {
			return err
		}
		return putAll(tx, domain.TableAccounts, account)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to contribute to goal",
			slog.String("goal_id", req.GoalID),
			slog.String("account_id", req.AccountID))
		return nil, err
	}

	s.LogInfo(ctx, "Goal contribution recorded",
		slog.String("goal_id", req.GoalID),
		slog.String("amount", req.Amount.String()))
	return &contribution, nil
}

func (s *goalService) DeleteGoal(ctx context.Context, goalID string) error {
	tables := []string{domain.TableGoals, domain.TableGoalContributions, domain.TableNotifications}
	err := s.runInTx(ctx, "goal.delete", tables, func(_ context.Context, tx *store.Tx) error {
		goal, err := loadGoal(tx, goalID)
		if err != nil {
			return err
		}
		if s.deletePolicy == DeleteReject {
			found, err := hasDependents(tx, domain.TableGoalContributions, "goalId", goalID)
			if err != nil {
				return err
			}
			if found {
				return fmt.Errorf("%w: goal %s has contributions", apperrors.ErrHasDependents, goalID)
			}
		}
		if err := deleteRelatedNotifications(tx, goalID); err != nil {
			return err
		}
		now := s.now()
		goal.DeletedAt = &now
		goal.UpdatedAt = now
		_, err = tx.Put(domain.TableGoals, goal)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to delete goal", slog.String("goal_id", goalID))
		return err
	}

	s.LogInfo(ctx, "Goal deleted", slog.String("goal_id", goalID))
	return nil
}
