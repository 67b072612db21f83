package services

import (
	"context"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
)

// GroupExpenseSvcFacade covers shared bills.
type GroupExpenseSvcFacade interface {
	ListGroupExpenses(ctx context.Context) ([]domain.GroupExpense, error)
	AddGroupExpense(ctx context.Context, req dto.CreateGroupExpenseRequest) (*domain.GroupExpense, error)
	MarkGroupMemberPaid(ctx context.Context, expenseID string, req dto.MarkMemberPaidRequest) (*domain.GroupExpense, error)
	DeleteGroupExpense(ctx context.Context, expenseID string) error
}
