package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransaction_SignedAmount(t *testing.T) {
	tests := []struct {
		name string
		txn  domain.Transaction
		want string
	}{
		{"income", domain.Transaction{Type: domain.Income, Amount: d("40")}, "40"},
		{"expense", domain.Transaction{Type: domain.Expense, Amount: d("40")}, "-40"},
		{"transfer out", domain.Transaction{Type: domain.Transfer, TransferDirection: domain.TransferOut, Amount: d("12.5")}, "-12.5"},
		{"transfer in", domain.Transaction{Type: domain.Transfer, TransferDirection: domain.TransferIn, Amount: d("12.5")}, "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, d(tt.want).Equal(tt.txn.SignedAmount()), "got %s", tt.txn.SignedAmount())
		})
	}
}

func TestLoan_ApplyPayment(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	loan := domain.Loan{PrincipalAmount: d("500"), OutstandingBalance: d("500"), Status: domain.LoanActive}

	loan.ApplyPayment(d("20"), now)
	assert.True(t, d("480").Equal(loan.OutstandingBalance))
	assert.Equal(t, domain.LoanActive, loan.Status)

	loan.ApplyPayment(d("1000"), now)
	assert.True(t, loan.OutstandingBalance.IsZero())
	assert.Equal(t, domain.LoanCompleted, loan.Status)
}

func TestLoan_RefreshStatus(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	loan := domain.Loan{OutstandingBalance: d("10"), DueDate: &due, Status: domain.LoanActive}

	assert.False(t, loan.RefreshStatus(due.Add(-time.Hour)))
	assert.True(t, loan.RefreshStatus(due.Add(time.Hour)))
	assert.Equal(t, domain.LoanOverdue, loan.Status)
}

func TestEqualShares(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  []string
	}{
		{"even", "90", 3, []string{"30", "30", "30"}},
		{"remainder cents go first", "100", 3, []string{"33.34", "33.33", "33.33"}},
		{"two cents left", "0.05", 3, []string{"0.02", "0.02", "0.01"}},
		{"single", "12.34", 1, []string{"12.34"}},
		{"sub-cent total", "10.005", 2, []string{"5.005", "5"}},
		{"cents and sub-cent", "100.019", 3, []string{"33.349", "33.34", "33.33"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := domain.EqualShares(d(tt.total), tt.n)
			require.Len(t, shares, len(tt.want))
			sum := decimal.Zero
			for i, s := range shares {
				assert.True(t, d(tt.want[i]).Equal(s), "share %d: got %s", i, s)
				sum = sum.Add(s)
			}
			assert.True(t, d(tt.total).Equal(sum))
		})
	}
	assert.Nil(t, domain.EqualShares(d("10"), 0))
}

func TestInvestment_Recompute(t *testing.T) {
	inv := domain.Investment{Quantity: d("10"), BuyPrice: d("100"), CurrentPrice: d("112.5")}
	inv.Recompute()
	assert.True(t, d("1000").Equal(inv.TotalInvested))
	assert.True(t, d("1125").Equal(inv.CurrentValue))
	assert.True(t, d("125").Equal(inv.ProfitLoss))
}

func TestGoal_Progress(t *testing.T) {
	g := domain.Goal{TargetAmount: d("200"), CurrentAmount: d("50")}
	assert.True(t, d("0.25").Equal(g.Progress()))
	assert.False(t, g.Reached())

	g.CurrentAmount = d("250")
	assert.True(t, d("1").Equal(g.Progress()))
	assert.True(t, g.Reached())
}
