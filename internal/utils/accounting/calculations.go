package accounting

import (
	"fmt"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerBalance recomputes an account balance from its opening balance and every
// non-deleted transaction booked against it.
func LedgerBalance(opening decimal.Decimal, accountID string, transactions []domain.Transaction) decimal.Decimal {
	balance := opening
	for _, txn := range transactions {
		if txn.AccountID != accountID || txn.IsDeleted() {
			continue
		}
		balance = balance.Add(txn.SignedAmount())
	}
	return balance
}

// ValidateTransferLegs checks that two rows form one transfer: same pair, opposite
// directions, same positive amount, and that together they move no money in or out.
func ValidateTransferLegs(out, in domain.Transaction) error {
	if out.Type != domain.Transfer || in.Type != domain.Transfer {
		return fmt.Errorf("transfer legs must both be transfers")
	}
	if out.TransferPairID == "" || out.TransferPairID != in.TransferPairID {
		return fmt.Errorf("transfer legs %s and %s are not paired", out.ID, in.ID)
	}
	if out.TransferDirection != domain.TransferOut || in.TransferDirection != domain.TransferIn {
		return fmt.Errorf("transfer legs have wrong directions")
	}
	if out.AccountID == in.AccountID {
		return fmt.Errorf("transfer source and destination are the same account")
	}
	if !out.Amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive")
	}
	if sum := out.SignedAmount().Add(in.SignedAmount()); !sum.IsZero() {
		return fmt.Errorf("transfer legs do not balance to zero: sum is %s", sum.String())
	}
	return nil
}

// LoanOutstanding recomputes a loan's outstanding balance from its payments, floored at zero.
func LoanOutstanding(principal decimal.Decimal, loanID string, payments []domain.LoanPayment) decimal.Decimal {
	outstanding := principal
	for _, p := range payments {
		if p.LoanID == loanID {
			outstanding = outstanding.Sub(p.Amount)
		}
	}
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}
