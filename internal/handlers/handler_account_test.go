package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/handlers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) AddAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// Ensure mock implements the interface
var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Test Suite ---
type AccountHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockAccountService *MockAccountService
}

func (suite *AccountHandlerTestSuite) SetupTest() {
	suite.mockAccountService = new(MockAccountService)
	suite.router = newTestRouter(suite.T(), handlers.Dependencies{
		Services: &portssvc.ServiceContainer{Account: suite.mockAccountService},
	})
}

func (suite *AccountHandlerTestSuite) TearDownTest() {
	suite.mockAccountService.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_Success() {
	now := time.Now().UTC()
	created := &domain.Account{
		ID:             uuid.NewString(),
		Name:           "Wallet",
		Type:           domain.Wallet,
		Currency:       "INR",
		OpeningBalance: decimal.NewFromInt(50),
		Balance:        decimal.NewFromInt(50),
		IsActive:       true,
		Timestamps:     domain.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	suite.mockAccountService.On("AddAccount", mock.Anything, mock.MatchedBy(func(req dto.CreateAccountRequest) bool {
		return req.Name == "Wallet" && req.OpeningBalance.Equal(decimal.NewFromInt(50))
	})).Return(created, nil).Once()

	w := do(suite.T(), suite.router, http.MethodPost, "/api/v1/accounts",
		`{"name":"Wallet","type":"wallet","currency":"INR","openingBalance":"50"}`)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(created.ID, resp.ID)
	suite.True(resp.Balance.Equal(decimal.NewFromInt(50)))
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_InvalidBody() {
	w := do(suite.T(), suite.router, http.MethodPost, "/api/v1/accounts", `{"name":"Wallet","type":"vault","currency":"INR"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountService.AssertNotCalled(suite.T(), "AddAccount", mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestListAccounts_ActiveOnly() {
	suite.mockAccountService.On("ListAccounts", mock.Anything, true).Return([]domain.Account{
		{ID: "a1", Name: "Cash", IsActive: true},
	}, nil).Once()

	w := do(suite.T(), suite.router, http.MethodGet, "/api/v1/accounts?activeOnly=true", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp []dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 1)
	suite.Equal("a1", resp[0].ID)
}

func (suite *AccountHandlerTestSuite) TestListAccounts_BadFlag() {
	w := do(suite.T(), suite.router, http.MethodGet, "/api/v1/accounts?activeOnly=maybe", "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *AccountHandlerTestSuite) TestGetAccount_NotFound() {
	id := uuid.NewString()
	suite.mockAccountService.On("GetAccountByID", mock.Anything, id).
		Return(nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)).Once()

	w := do(suite.T(), suite.router, http.MethodGet, "/api/v1/accounts/"+id, "")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Contains(w.Body.String(), id)
}

func (suite *AccountHandlerTestSuite) TestDeleteAccount_HasDependents() {
	suite.mockAccountService.On("DeleteAccount", mock.Anything, "a1").
		Return(fmt.Errorf("%w: 2 transactions", apperrors.ErrHasDependents)).Once()

	w := do(suite.T(), suite.router, http.MethodDelete, "/api/v1/accounts/a1", "")
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *AccountHandlerTestSuite) TestDeleteAccount_Success() {
	suite.mockAccountService.On("DeleteAccount", mock.Anything, "a1").Return(nil).Once()

	w := do(suite.T(), suite.router, http.MethodDelete, "/api/v1/accounts/a1", "")
	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *AccountHandlerTestSuite) TestRequiresAuth() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AccountHandlerTestSuite) TestPairingKeyBypassesJWT() {
	suite.mockAccountService.On("ListAccounts", mock.Anything, false).Return([]domain.Account{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("x-api-key", testPairingKey)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`[]`, w.Body.String())
}

// --- Run Test Suite ---
func TestAccountHandler(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}
