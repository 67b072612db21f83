package services_test

import (
	"sync"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/utils/accounting"
)

func (suite *ServicesTestSuite) transfer(from, to, amount string) ([]domain.Transaction, error) {
	return suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{
		AccountID:         from,
		TransferAccountID: to,
		Type:              domain.Transfer,
		Amount:            dec(amount),
	})
}

func (suite *ServicesTestSuite) assertLedgerConsistent(accountIDs ...string) {
	txns := suite.allTransactions()
	for _, id := range accountIDs {
		acc, err := suite.svc.Account.GetAccountByID(suite.ctx, id)
		suite.Require().NoError(err)
		want := accounting.LedgerBalance(acc.OpeningBalance, id, txns)
		suite.True(acc.Balance.Equal(want), "account %s: stored %s, ledger %s", id, acc.Balance.String(), want.String())
	}
}

func (suite *ServicesTestSuite) TestAddTransaction_ExpenseAndIncome() {
	acc := suite.addAccount("Bank", "100")

	suite.addExpense(acc.ID, "40")
	suite.assertBalance(acc.ID, "60")

	rows, err := suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{
		AccountID: acc.ID, Type: domain.Income, Amount: dec("15.50"), Category: "Salary",
	})
	suite.Require().NoError(err)
	suite.Equal(suite.now, rows[0].Date)
	suite.assertBalance(acc.ID, "75.50")
	suite.assertLedgerConsistent(acc.ID)
}

func (suite *ServicesTestSuite) TestAddTransaction_RejectsBadInput() {
	acc := suite.addAccount("Bank", "100")

	_, err := suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{AccountID: acc.ID, Type: domain.Expense, Amount: dec("0")})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{AccountID: "nope", Type: domain.Expense, Amount: dec("1")})
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{AccountID: acc.ID, Type: domain.Transfer, Amount: dec("1")})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.transfer(acc.ID, acc.ID, "1")
	suite.ErrorIs(err, apperrors.ErrValidation)

	inactive := false
	_, err = suite.svc.Account.UpdateAccount(suite.ctx, acc.ID, dto.UpdateAccountRequest{IsActive: &inactive})
	suite.Require().NoError(err)
	_, err = suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{AccountID: acc.ID, Type: domain.Expense, Amount: dec("1")})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.assertBalance(acc.ID, "100")
}

func (suite *ServicesTestSuite) TestTransfer_MovesMoneyAndLinksLegs() {
	a := suite.addAccount("A", "100")
	b := suite.addAccount("B", "5")

	legs, err := suite.transfer(a.ID, b.ID, "30")
	suite.Require().NoError(err)
	suite.Require().Len(legs, 2)
	suite.NoError(accounting.ValidateTransferLegs(legs[0], legs[1]))
	suite.Equal(b.ID, legs[0].TransferAccountID)
	suite.Equal(a.ID, legs[1].TransferAccountID)
	suite.Equal("Transfer", legs[0].Category)

	suite.assertBalance(a.ID, "70")
	suite.assertBalance(b.ID, "35")
	suite.assertLedgerConsistent(a.ID, b.ID)
}

func (suite *ServicesTestSuite) TestTransfer_InsufficientFundsChangesNothing() {
	a := suite.addAccount("A", "10")
	b := suite.addAccount("B", "0")

	_, err := suite.transfer(a.ID, b.ID, "10.01")
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)

	var insufficient *apperrors.InsufficientFundsError
	suite.Require().ErrorAs(err, &insufficient)
	suite.Equal(a.ID, insufficient.AccountID)

	suite.assertBalance(a.ID, "10")
	suite.assertBalance(b.ID, "0")
	suite.Empty(suite.allTransactions())
}

func (suite *ServicesTestSuite) TestUpdateTransaction_ReplacesEffect() {
	acc := suite.addAccount("Bank", "100")
	txn := suite.addExpense(acc.ID, "40")

	income := domain.Income
	amount := dec("25")
	updated, err := suite.svc.Ledger.UpdateTransaction(suite.ctx, txn.ID, dto.UpdateTransactionRequest{Type: &income, Amount: &amount})
	suite.Require().NoError(err)
	suite.Equal(domain.Income, updated.Type)
	suite.assertBalance(acc.ID, "125")

	note := "lunch"
	_, err = suite.svc.Ledger.UpdateTransaction(suite.ctx, txn.ID, dto.UpdateTransactionRequest{Description: &note})
	suite.Require().NoError(err)
	suite.assertBalance(acc.ID, "125")
	suite.assertLedgerConsistent(acc.ID)
}

func (suite *ServicesTestSuite) TestUpdateTransaction_TransferRejected() {
	a := suite.addAccount("A", "100")
	b := suite.addAccount("B", "0")
	legs, err := suite.transfer(a.ID, b.ID, "10")
	suite.Require().NoError(err)

	amount := dec("20")
	_, err = suite.svc.Ledger.UpdateTransaction(suite.ctx, legs[0].ID, dto.UpdateTransactionRequest{Amount: &amount})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.assertBalance(a.ID, "90")
}

func (suite *ServicesTestSuite) TestDeleteTransaction_TransferRemovesBothLegs() {
	a := suite.addAccount("A", "100")
	b := suite.addAccount("B", "0")
	legs, err := suite.transfer(a.ID, b.ID, "60")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.svc.Ledger.DeleteTransaction(suite.ctx, legs[1].ID))
	suite.assertBalance(a.ID, "100")
	suite.assertBalance(b.ID, "0")

	for _, leg := range legs {
		got, err := suite.svc.Ledger.GetTransactionByID(suite.ctx, leg.ID)
		suite.Require().NoError(err)
		suite.True(got.IsDeleted())
	}
	suite.ErrorIs(suite.svc.Ledger.DeleteTransaction(suite.ctx, legs[0].ID), apperrors.ErrNotFound)
	suite.assertLedgerConsistent(a.ID, b.ID)
}

func (suite *ServicesTestSuite) TestConcurrentExpenses_KeepBalanceExact() {
	acc := suite.addAccount("Shared", "100")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{
				AccountID: acc.ID, Type: domain.Expense, Amount: dec("1.25"),
			})
			suite.NoError(err)
		}()
	}
	wg.Wait()

	suite.assertBalance(acc.ID, "75")
	suite.Len(suite.allTransactions(), 20)
	suite.assertLedgerConsistent(acc.ID)
}

func (suite *ServicesTestSuite) TestListTransactions_PagesNewestFirst() {
	a := suite.addAccount("A", "1000")
	b := suite.addAccount("B", "1000")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		for _, id := range []string{a.ID, b.ID} {
			_, err := suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{
				AccountID: id, Type: domain.Expense, Amount: dec("1"), Date: base.AddDate(0, 0, i),
			})
			suite.Require().NoError(err)
		}
	}

	var all []domain.Transaction
	token := ""
	for pages := 0; pages < 10; pages++ {
		page, err := suite.svc.Ledger.ListTransactions(suite.ctx, dto.ListTransactionsParams{Limit: 3, NextToken: token})
		suite.Require().NoError(err)
		all = append(all, page.Transactions...)
		token = page.NextToken
		if token == "" {
			break
		}
	}
	suite.Len(all, 10)
	for i := 1; i < len(all); i++ {
		suite.False(all[i].Date.After(all[i-1].Date))
	}

	var mine []domain.Transaction
	token = ""
	for pages := 0; pages < 10; pages++ {
		page, err := suite.svc.Ledger.ListTransactions(suite.ctx, dto.ListTransactionsParams{AccountID: a.ID, Limit: 2, NextToken: token})
		suite.Require().NoError(err)
		mine = append(mine, page.Transactions...)
		token = page.NextToken
		if token == "" {
			break
		}
	}
	suite.Require().Len(mine, 5)
	suite.Equal(base.AddDate(0, 0, 4), mine[0].Date)
	suite.Equal(base, mine[4].Date)

	_, err := suite.svc.Ledger.ListTransactions(suite.ctx, dto.ListTransactionsParams{NextToken: "%%%"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ServicesTestSuite) TestListTransactions_ResumesAfterDeletedCursorRow() {
	a := suite.addAccount("A", "1000")
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{
			AccountID: a.ID, Type: domain.Expense, Amount: dec("1"), Date: day,
		})
		suite.Require().NoError(err)
	}

	first, err := suite.svc.Ledger.ListTransactions(suite.ctx, dto.ListTransactionsParams{AccountID: a.ID, Limit: 1})
	suite.Require().NoError(err)
	suite.Require().Len(first.Transactions, 1)
	suite.Require().NotEmpty(first.NextToken)

	suite.Require().NoError(suite.svc.Ledger.DeleteTransaction(suite.ctx, first.Transactions[0].ID))

	second, err := suite.svc.Ledger.ListTransactions(suite.ctx, dto.ListTransactionsParams{AccountID: a.ID, Limit: 5, NextToken: first.NextToken})
	suite.Require().NoError(err)
	suite.Len(second.Transactions, 2)
	suite.Empty(second.NextToken)
	for _, t := range second.Transactions {
		suite.Less(t.ID, first.Transactions[0].ID)
	}
}
