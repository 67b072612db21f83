package services

import (
	"context"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
)

// GoalSvcFacade covers savings goals and contributions.
type GoalSvcFacade interface {
	GetGoalByID(ctx context.Context, goalID string) (*domain.Goal, error)
	ListGoals(ctx context.Context) ([]domain.Goal, error)

	AddGoal(ctx context.Context, req dto.CreateGoalRequest) (*domain.Goal, error)
	UpdateGoal(ctx context.Context, goalID string, req dto.UpdateGoalRequest) (*domain.Goal, error)
	ContributeToGoal(ctx context.Context, req dto.ContributeToGoalRequest) (*domain.GoalContribution, error)
	DeleteGoal(ctx context.Context, goalID string) error
}
