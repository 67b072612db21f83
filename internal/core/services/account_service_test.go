package services_test

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/core/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/schema"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/stretchr/testify/mock"
)

func (suite *ServicesTestSuite) TestAddAccount_StartsAtOpeningBalance() {
	acc := suite.addAccount("Savings", "250.75")

	suite.True(acc.IsActive)
	suite.True(acc.Balance.Equal(dec("250.75")))
	suite.True(acc.OpeningBalance.Equal(dec("250.75")))
	suite.Equal(suite.now, acc.CreatedAt)
	suite.assertBalance(acc.ID, "250.75")
}

func (suite *ServicesTestSuite) TestAddAccount_Validation() {
	_, err := suite.svc.Account.AddAccount(suite.ctx, dto.CreateAccountRequest{Name: "X", Type: "safe", Currency: "INR"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.Account.AddAccount(suite.ctx, dto.CreateAccountRequest{Name: "X", Type: domain.Cash, Currency: "RUPEE"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ServicesTestSuite) TestUpdateAccount_NeverTouchesBalance() {
	acc := suite.addAccount("Wallet", "100")
	suite.addExpense(acc.ID, "30")

	name := "Daily wallet"
	inactive := false
	updated, err := suite.svc.Account.UpdateAccount(suite.ctx, acc.ID, dto.UpdateAccountRequest{Name: &name, IsActive: &inactive})
	suite.Require().NoError(err)
	suite.Equal("Daily wallet", updated.Name)
	suite.False(updated.IsActive)
	suite.True(updated.Balance.Equal(dec("70")))

	active, err := suite.svc.Account.ListAccounts(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Empty(active)
}

func (suite *ServicesTestSuite) TestGetAccount_NotFound() {
	_, err := suite.svc.Account.GetAccountByID(suite.ctx, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ServicesTestSuite) TestDeleteAccount_OrphanPolicyKeepsTransactions() {
	acc := suite.addAccount("Old bank", "50")
	txn := suite.addExpense(acc.ID, "10")

	suite.Require().NoError(suite.svc.Account.DeleteAccount(suite.ctx, acc.ID))

	got, err := suite.svc.Account.GetAccountByID(suite.ctx, acc.ID)
	suite.Require().NoError(err)
	suite.True(got.IsDeleted())
	suite.False(got.IsActive)

	list, err := suite.svc.Account.ListAccounts(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Empty(list)

	row, err := suite.svc.Ledger.GetTransactionByID(suite.ctx, txn.ID)
	suite.Require().NoError(err)
	suite.False(row.IsDeleted())

	suite.ErrorIs(suite.svc.Account.DeleteAccount(suite.ctx, acc.ID), apperrors.ErrNotFound)
}

func (suite *ServicesTestSuite) TestDeleteAccount_RejectPolicy() {
	suite.svc = suite.container(services.WithDeletePolicy(services.DeleteReject))
	used := suite.addAccount("Used", "50")
	suite.addExpense(used.ID, "10")
	unused := suite.addAccount("Unused", "0")

	err := suite.svc.Account.DeleteAccount(suite.ctx, used.ID)
	suite.ErrorIs(err, apperrors.ErrHasDependents)
	suite.NoError(suite.svc.Account.DeleteAccount(suite.ctx, unused.ID))
}

func (suite *ServicesTestSuite) TestChangeRecorder_AppendedInSameTransaction() {
	recorder := new(MockChangeRecorder)
	recorder.On("Append", mock.AnythingOfType("*store.Tx"), "account.add").Return(nil).Once()
	suite.svc = suite.container(services.WithChangeRecorder(recorder))

	suite.addAccount("Tracked", "10")
	recorder.AssertExpectations(suite.T())
}

func (suite *ServicesTestSuite) TestChangeRecorder_FailureRollsBack() {
	recorder := new(MockChangeRecorder)
	recorder.On("Append", mock.Anything, "account.add").Return(errors.New("change log full"))
	suite.svc = suite.container(services.WithChangeRecorder(recorder))

	_, err := suite.svc.Account.AddAccount(suite.ctx, dto.CreateAccountRequest{Name: "Lost", Type: domain.Cash, Currency: "INR"})
	suite.EqualError(err, "change log full")

	err = suite.store.View(suite.ctx, func(r store.Reader) error {
		n, err := r.Count(domain.TableAccounts)
		suite.Zero(n)
		return err
	})
	suite.NoError(err)
}

func (suite *ServicesTestSuite) TestConflict_RetriesThenGivesUp() {
	suite.Require().NoError(suite.store.Close())
	st, err := store.Open(suite.path, schema.Migrations(), store.WithLockTimeout(30*time.Millisecond))
	suite.Require().NoError(err)
	suite.store = st
	suite.svc = suite.container(services.WithRetryBound(2), services.WithRetryDelay(0))

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- st.Transact(context.Background(), []string{domain.TableAccounts}, func(ctx context.Context, tx *store.Tx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	_, err = suite.svc.Account.AddAccount(suite.ctx, dto.CreateAccountRequest{Name: "Blocked", Type: domain.Cash, Currency: "INR"})
	close(release)
	suite.Require().NoError(<-done)

	var conflict *apperrors.ConsistencyConflictError
	suite.Require().ErrorAs(err, &conflict)
	suite.Equal(2, conflict.Attempts)
	suite.Equal("account.add", conflict.Operation)
	suite.ErrorIs(err, apperrors.ErrTransactionConflict)

	// the lock is free again, so the same request now succeeds
	_, err = suite.svc.Account.AddAccount(suite.ctx, dto.CreateAccountRequest{Name: "Unblocked", Type: domain.Cash, Currency: "INR"})
	suite.NoError(err)
}
