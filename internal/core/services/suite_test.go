package services_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/core/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/schema"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockChangeRecorder is a mock type for the ChangeRecorder interface
type MockChangeRecorder struct {
	mock.Mock
}

func (m *MockChangeRecorder) Append(tx *store.Tx, kind string) error {
	args := m.Called(tx, kind)
	return args.Error(0)
}

type ServicesTestSuite struct {
	suite.Suite
	ctx   context.Context
	path  string
	store *store.Store
	svc   *portssvc.ServiceContainer
	now   time.Time
}

func (suite *ServicesTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	suite.path = filepath.Join(suite.T().TempDir(), "services.db")
	st, err := store.Open(suite.path, schema.Migrations())
	suite.Require().NoError(err)
	suite.store = st
	suite.svc = suite.container()
}

func (suite *ServicesTestSuite) TearDownTest() {
	if suite.store != nil {
		_ = suite.store.Close()
	}
}

func (suite *ServicesTestSuite) container(opts ...services.ServiceOption) *portssvc.ServiceContainer {
	clock := services.WithClock(func() time.Time { return suite.now })
	return services.NewServiceContainer(suite.store, append([]services.ServiceOption{clock}, opts...)...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (suite *ServicesTestSuite) addAccount(name, opening string) *domain.Account {
	acc, err := suite.svc.Account.AddAccount(suite.ctx, dto.CreateAccountRequest{
		Name:           name,
		Type:           domain.Bank,
		Currency:       "INR",
		OpeningBalance: dec(opening),
	})
	suite.Require().NoError(err)
	return acc
}

func (suite *ServicesTestSuite) addExpense(accountID, amount string) domain.Transaction {
	rows, err := suite.svc.Ledger.AddTransaction(suite.ctx, dto.AddTransactionRequest{
		AccountID: accountID,
		Type:      domain.Expense,
		Amount:    dec(amount),
		Category:  "Food",
	})
	suite.Require().NoError(err)
	suite.Require().Len(rows, 1)
	return rows[0]
}

func (suite *ServicesTestSuite) balance(accountID string) decimal.Decimal {
	acc, err := suite.svc.Account.GetAccountByID(suite.ctx, accountID)
	suite.Require().NoError(err)
	return acc.Balance
}

func (suite *ServicesTestSuite) assertBalance(accountID, want string) {
	got := suite.balance(accountID)
	suite.True(got.Equal(dec(want)), "balance of %s: want %s, got %s", accountID, want, got.String())
}

func (suite *ServicesTestSuite) allTransactions() []domain.Transaction {
	var txns []domain.Transaction
	err := suite.store.View(suite.ctx, func(r store.Reader) error {
		var err error
		txns, err = store.GetAllAs[domain.Transaction](r, domain.TableTransactions)
		return err
	})
	suite.Require().NoError(err)
	return txns
}

func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}
