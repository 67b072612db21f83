// Package schema declares the versioned table layout of the on-device store.
package schema

import (
	"encoding/json"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/store"
)

// Migrations returns the ordered schema versions. Never edit a released version;
// append a new one.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "core ledger tables",
			Tables: []store.TableDef{
				{Name: domain.TableAccounts},
				{Name: domain.TableTransactions, Indexes: []string{"accountId", "date", "type"}},
				{Name: domain.TableLoans, Indexes: []string{"status", "friendId"}},
				{Name: domain.TableLoanPayments, Indexes: []string{"loanId", "accountId"}},
				{Name: domain.TableFriends},
				{Name: domain.TableGoals, Indexes: []string{"category"}},
				{Name: domain.TableGoalContributions, Indexes: []string{"goalId", "accountId"}},
			},
		},
		{
			Version:     2,
			Description: "group expenses, investments and notifications",
			Tables: []store.TableDef{
				{Name: domain.TableGroupExpenses, Indexes: []string{"date"}},
				{Name: domain.TableInvestments, Indexes: []string{"type", "symbol"}},
				{Name: domain.TableNotifications, Indexes: []string{"dedupKey", "isRead", "relatedId"}},
			},
		},
		{
			Version:     3,
			Description: "sync queue, transfer pairs and active accounts",
			Tables: []store.TableDef{
				{Name: domain.TableChanges},
				{Name: domain.TableSyncState},
			},
			AddIndexes: map[string][]string{
				domain.TableTransactions: {"transferPairId"},
				domain.TableAccounts:     {"isActive"},
			},
			Up: backfillAccounts,
		},
	}
}

// backfillAccounts fills isActive and openingBalance on accounts written before v3.
// Accounts that already carry both fields are left alone, so the step can re-run.
func backfillAccounts(tx *store.Tx) error {
	rows, err := tx.GetAll(domain.TableAccounts)
	if err != nil {
		return err
	}
	for _, row := range rows {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(row.Value, &fields); err != nil {
			return err
		}
		patch := map[string]any{}
		if _, ok := fields["isActive"]; !ok {
			patch["isActive"] = true
		}
		if _, ok := fields["openingBalance"]; !ok {
			if bal, ok := fields["balance"]; ok {
				patch["openingBalance"] = bal
			} else {
				patch["openingBalance"] = "0"
			}
		}
		if len(patch) == 0 {
			continue
		}
		if err := tx.Patch(domain.TableAccounts, row.Key, patch); err != nil {
			return err
		}
	}
	return nil
}
