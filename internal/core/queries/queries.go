// Package queries holds the read models observed by the UI. Every function has the
// shape of a live query and only reads through the store.Reader it is given.
package queries

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/shopspring/decimal"
)

// ActiveAccounts returns accounts that are active and not deleted, ordered by name.
func ActiveAccounts(_ context.Context, r store.Reader) ([]domain.Account, error) {
	accounts, err := store.QueryAs[domain.Account](r, domain.TableAccounts, "isActive", true)
	if err != nil {
		return nil, err
	}
	return sortAccounts(liveOnly(accounts, func(a domain.Account) bool { return a.IsDeleted() })), nil
}

// Accounts returns every non-deleted account, ordered by name.
func Accounts(_ context.Context, r store.Reader) ([]domain.Account, error) {
	accounts, err := store.GetAllAs[domain.Account](r, domain.TableAccounts)
	if err != nil {
		return nil, err
	}
	return sortAccounts(liveOnly(accounts, func(a domain.Account) bool { return a.IsDeleted() })), nil
}

// AccountByID returns a query for one account. The value is nil when it does not exist.
func AccountByID(id string) func(context.Context, store.Reader) (*domain.Account, error) {
	return func(_ context.Context, r store.Reader) (*domain.Account, error) {
		acc, found, err := store.GetAs[domain.Account](r, domain.TableAccounts, id)
		if err != nil || !found {
			return nil, err
		}
		return &acc, nil
	}
}

// TransactionsByAccount returns a query for an account's non-deleted rows, newest first.
func TransactionsByAccount(accountID string) func(context.Context, store.Reader) ([]domain.Transaction, error) {
	return func(_ context.Context, r store.Reader) ([]domain.Transaction, error) {
		txns, err := store.QueryAs[domain.Transaction](r, domain.TableTransactions, "accountId", accountID)
		if err != nil {
			return nil, err
		}
		txns = liveOnly(txns, func(t domain.Transaction) bool { return t.IsDeleted() })
		SortTransactionsNewestFirst(txns)
		return txns, nil
	}
}

// RecentTransactions returns a query for the newest non-deleted rows across all accounts.
func RecentTransactions(limit int) func(context.Context, store.Reader) ([]domain.Transaction, error) {
	return func(_ context.Context, r store.Reader) ([]domain.Transaction, error) {
		page, _, err := TransactionsPage(r, limit, "")
		return page, err
	}
}

// TransactionsPage scans non-deleted transactions by date, newest first, starting
// after cursor. It returns the cursor for the next page, empty at the end.
func TransactionsPage(r store.Reader, limit int, cursor string) ([]domain.Transaction, string, error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("%w: limit must be positive", apperrors.ErrValidation)
	}
	out := make([]domain.Transaction, 0, limit)
	after := cursor
	for len(out) < limit {
		rows, err := r.Scan(domain.TableTransactions, store.ScanOptions{Index: "date", Reverse: true, After: after, Limit: limit})
		if err != nil {
			return nil, "", err
		}
		for _, row := range rows {
			txn, err := decode[domain.Transaction](row)
			if err != nil {
				return nil, "", err
			}
			after = row.Cursor
			if txn.IsDeleted() {
				continue
			}
			out = append(out, txn)
			if len(out) == limit {
				break
			}
		}
		if len(rows) < limit {
			return out, "", nil
		}
	}
	return out, after, nil
}

// Loans returns every loan, optionally of one status, ordered by creation.
func Loans(status domain.LoanStatus) func(context.Context, store.Reader) ([]domain.Loan, error) {
	return func(_ context.Context, r store.Reader) ([]domain.Loan, error) {
		var (
			loans []domain.Loan
			err   error
		)
		if status == "" {
			loans, err = store.GetAllAs[domain.Loan](r, domain.TableLoans)
		} else {
			loans, err = store.QueryAs[domain.Loan](r, domain.TableLoans, "status", string(status))
		}
		if err != nil {
			return nil, err
		}
		sort.SliceStable(loans, func(i, j int) bool { return loans[i].CreatedAt.Before(loans[j].CreatedAt) })
		return loans, nil
	}
}

// LoanPayments returns a query for the payments of one loan, oldest first.
func LoanPayments(loanID string) func(context.Context, store.Reader) ([]domain.LoanPayment, error) {
	return func(_ context.Context, r store.Reader) ([]domain.LoanPayment, error) {
		payments, err := store.QueryAs[domain.LoanPayment](r, domain.TableLoanPayments, "loanId", loanID)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(payments, func(i, j int) bool { return payments[i].Date.Before(payments[j].Date) })
		return payments, nil
	}
}

// Goals returns every non-deleted goal, nearest target date first.
func Goals(_ context.Context, r store.Reader) ([]domain.Goal, error) {
	goals, err := store.GetAllAs[domain.Goal](r, domain.TableGoals)
	if err != nil {
		return nil, err
	}
	goals = liveOnly(goals, func(g domain.Goal) bool { return g.IsDeleted() })
	sort.SliceStable(goals, func(i, j int) bool { return goals[i].TargetDate.Before(goals[j].TargetDate) })
	return goals, nil
}

// Investments returns every non-deleted holding.
func Investments(_ context.Context, r store.Reader) ([]domain.Investment, error) {
	inv, err := store.GetAllAs[domain.Investment](r, domain.TableInvestments)
	if err != nil {
		return nil, err
	}
	inv = liveOnly(inv, func(i domain.Investment) bool { return i.IsDeleted() })
	sort.SliceStable(inv, func(i, j int) bool { return inv[i].PurchaseDate.Before(inv[j].PurchaseDate) })
	return inv, nil
}

// Friends returns every friend ordered by name.
func Friends(_ context.Context, r store.Reader) ([]domain.Friend, error) {
	friends, err := store.GetAllAs[domain.Friend](r, domain.TableFriends)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(friends, func(i, j int) bool { return friends[i].Name < friends[j].Name })
	return friends, nil
}

// GroupExpenses returns every shared bill, newest first.
func GroupExpenses(_ context.Context, r store.Reader) ([]domain.GroupExpense, error) {
	rows, err := r.Scan(domain.TableGroupExpenses, store.ScanOptions{Index: "date", Reverse: true})
	if err != nil {
		return nil, err
	}
	out := make([]domain.GroupExpense, 0, len(rows))
	for _, row := range rows {
		g, err := decode[domain.GroupExpense](row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Notifications returns notifications, newest first, optionally only unread ones.
func Notifications(unreadOnly bool) func(context.Context, store.Reader) ([]domain.Notification, error) {
	return func(_ context.Context, r store.Reader) ([]domain.Notification, error) {
		var (
			list []domain.Notification
			err  error
		)
		if unreadOnly {
			list, err = store.QueryAs[domain.Notification](r, domain.TableNotifications, "isRead", false)
		} else {
			list, err = store.GetAllAs[domain.Notification](r, domain.TableNotifications)
		}
		if err != nil {
			return nil, err
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
		return list, nil
	}
}

// NetWorth summarises balances, holdings and debts.
type NetWorth struct {
	Cash        decimal.Decimal `json:"cash"`
	Investments decimal.Decimal `json:"investments"`
	Receivable  decimal.Decimal `json:"receivable"`
	Payable     decimal.Decimal `json:"payable"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeNetWorth reads accounts, investments and open loans.
func ComputeNetWorth(ctx context.Context, r store.Reader) (NetWorth, error) {
	nw := NetWorth{Cash: decimal.Zero, Investments: decimal.Zero, Receivable: decimal.Zero, Payable: decimal.Zero}

	accounts, err := Accounts(ctx, r)
	if err != nil {
		return nw, err
	}
	for _, a := range accounts {
		nw.Cash = nw.Cash.Add(a.Balance)
	}

	inv, err := Investments(ctx, r)
	if err != nil {
		return nw, err
	}
	for _, i := range inv {
		nw.Investments = nw.Investments.Add(i.CurrentValue)
	}

	loans, err := Loans("")(ctx, r)
	if err != nil {
		return nw, err
	}
	for _, l := range loans {
		if l.Status == domain.LoanCompleted {
			continue
		}
		if l.Type == domain.Lent {
			nw.Receivable = nw.Receivable.Add(l.OutstandingBalance)
		} else {
			nw.Payable = nw.Payable.Add(l.OutstandingBalance)
		}
	}

	nw.Total = nw.Cash.Add(nw.Investments).Add(nw.Receivable).Sub(nw.Payable)
	return nw, nil
}

// SortTransactionsNewestFirst orders by date, then id, descending. This is the order
// of the date index scanned in reverse.
func SortTransactionsNewestFirst(txns []domain.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return TransactionBefore(txns[i], txns[j].Date, txns[j].ID)
	})
}

// TransactionBefore reports whether t comes before the position (date, id) in
// newest-first order.
func TransactionBefore(t domain.Transaction, date time.Time, id string) bool {
	if !t.Date.Equal(date) {
		return t.Date.After(date)
	}
	return t.ID > id
}

func sortAccounts(accounts []domain.Account) []domain.Account {
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Name != accounts[j].Name {
			return accounts[i].Name < accounts[j].Name
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts
}

func liveOnly[T any](in []T, deleted func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if !deleted(v) {
			out = append(out, v)
		}
	}
	return out
}
