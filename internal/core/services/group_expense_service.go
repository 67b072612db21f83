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

type groupExpenseService struct {
	BaseService
}

// NewGroupExpenseService creates the shared bill service.
func NewGroupExpenseService(st *store.Store, opts ...ServiceOption) portssvc.GroupExpenseSvcFacade {
	return &groupExpenseService{BaseService: newBaseService(st, opts...)}
}

var _ portssvc.GroupExpenseSvcFacade = (*groupExpenseService)(nil)

func (s *groupExpenseService) ListGroupExpenses(ctx context.Context) ([]domain.GroupExpense, error) {
	var list []domain.GroupExpense
	err := s.read(ctx, func(r store.Reader) error {
		var err error
		list, err = queries.GroupExpenses(ctx, r)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list group expenses")
		return nil, err
	}
	return list, nil
}

func (s *groupExpenseService) AddGroupExpense(ctx context.Context, req dto.CreateGroupExpenseRequest) (*domain.GroupExpense, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid group expense request")
		return nil, err
	}

	members, err := splitMembers(req)
	if err != nil {
		s.LogFailure(ctx, err, "Invalid group expense split")
		return nil, err
	}

	now := s.now()
	expense := domain.GroupExpense{
		ID:          uuid.NewString(),
		Title:       req.Title,
		TotalAmount: req.TotalAmount,
		Date:        s.orNow(req.Date),
		PaidBy:      req.PaidBy,
		SplitMethod: req.SplitMethod,
		Members:     members,
		Timestamps:  domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	for _, item := range req.Items {
		expense.Items = append(expense.Items, domain.GroupItem{Name: item.Name, Amount: item.Amount})
	}

	err = s.runInTx(ctx, "groupExpense.add", []string{domain.TableGroupExpenses}, func(_ context.Context, tx *store.Tx) error {
		_, err := tx.Put(domain.TableGroupExpenses, expense)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to save group expense")
		return nil, err
	}

	s.LogInfo(ctx, "Group expense created", slog.String("expense_id", expense.ID), slog.Int("members", len(members)))
	return &expense, nil
}

// splitMembers derives member shares. Custom shares must add up to the total.
func splitMembers(req dto.CreateGroupExpenseRequest) ([]domain.GroupMember, error) {
	members := make([]domain.GroupMember, len(req.Members))
	for i, m := range req.Members {
		members[i] = domain.GroupMember{FriendID: m.FriendID, Name: m.Name, Paid: m.Paid}
	}

	if req.SplitMethod == domain.SplitEqual {
		for i, share := range domain.EqualShares(req.TotalAmount, len(members)) {
			members[i].Share = share
		}
		return members, nil
	}

	for i, m := range req.Members {
		if m.Share == nil {
			return nil, fmt.Errorf("%w: member %q has no share", apperrors.ErrValidation, m.Name)
		}
		members[i].Share = *m.Share
	}
	expense := domain.GroupExpense{Members: members}
	if total := expense.SharesTotal(); !total.Equal(req.TotalAmount) {
		return nil, fmt.Errorf("%w: shares add up to %s, expected %s", apperrors.ErrValidation, total.String(), req.TotalAmount.String())
	}
	return members, nil
}

func (s *groupExpenseService) MarkGroupMemberPaid(ctx context.Context, expenseID string, req dto.MarkMemberPaidRequest) (*domain.GroupExpense, error) {
	if err := s.ValidateRequest(req); err != nil {
		s.LogFailure(ctx, err, "Invalid member update", slog.String("expense_id", expenseID))
		return nil, err
	}

	var expense domain.GroupExpense
	err := s.runInTx(ctx, "groupExpense.memberPaid", []string{domain.TableGroupExpenses}, func(_ context.Context, tx *store.Tx) error {
		var err error
		expense, err = mustGet[domain.GroupExpense](tx, domain.TableGroupExpenses, expenseID)
		if err != nil {
			return err
		}
		idx := *req.MemberIndex
		if idx >= len(expense.Members) {
			return fmt.Errorf("%w: member index %d out of range", apperrors.ErrValidation, idx)
		}
		expense.Members[idx].Paid = req.Paid
		expense.UpdatedAt = s.now()
		_, err = tx.Put(domain.TableGroupExpenses, expense)
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to update group member", slog.String("expense_id", expenseID))
		return nil, err
	}
	return &expense, nil
}

func (s *groupExpenseService) DeleteGroupExpense(ctx context.Context, expenseID string) error {
	err := s.runInTx(ctx, "groupExpense.delete", []string{domain.TableGroupExpenses}, func(_ context.Context, tx *store.Tx) error {
		if _, err := mustGet[domain.GroupExpense](tx, domain.TableGroupExpenses, expenseID); err != nil {
			return err
		}
		return tx.Delete(domain.TableGroupExpenses, expenseID)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to delete group expense", slog.String("expense_id", expenseID))
		return err
	}
	return nil
}
