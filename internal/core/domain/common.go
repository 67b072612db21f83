package domain

import "time"

// Table names of the on-device store.
const (
	TableAccounts          = "accounts"
	TableTransactions      = "transactions"
	TableLoans             = "loans"
	TableLoanPayments      = "loanPayments"
	TableFriends           = "friends"
	TableGoals             = "goals"
	TableGoalContributions = "goalContributions"
	TableGroupExpenses     = "groupExpenses"
	TableInvestments       = "investments"
	TableNotifications     = "notifications"
	TableChanges           = "changes"
	TableSyncState         = "syncState"
)

// EntityTables lists every table holding user data, in snapshot order.
var EntityTables = []string{
	TableAccounts,
	TableTransactions,
	TableLoans,
	TableLoanPayments,
	TableFriends,
	TableGoals,
	TableGoalContributions,
	TableGroupExpenses,
	TableInvestments,
	TableNotifications,
}

// IsInternalTable reports whether table belongs to the sync machinery rather than user data.
func IsInternalTable(table string) bool {
	return table == TableChanges || table == TableSyncState
}

// Timestamps holds creation and update times for domain entities.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SoftDelete marks an entity as deleted without removing its row.
type SoftDelete struct {
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// IsDeleted reports whether the entity has been soft-deleted.
func (s SoftDelete) IsDeleted() bool {
	return s.DeletedAt != nil
}
