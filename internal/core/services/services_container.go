package services

import (
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/store"
)

// NewServiceContainer creates every service over one store with shared options.
func NewServiceContainer(st *store.Store, opts ...ServiceOption) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Account:      NewAccountService(st, opts...),
		Ledger:       NewLedgerService(st, opts...),
		Loan:         NewLoanService(st, opts...),
		Goal:         NewGoalService(st, opts...),
		Investment:   NewInvestmentService(st, opts...),
		Friend:       NewFriendService(st, opts...),
		GroupExpense: NewGroupExpenseService(st, opts...),
		Notification: NewNotificationService(st, opts...),
	}
}
