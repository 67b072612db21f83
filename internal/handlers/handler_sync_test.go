package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/handlers"
	"github.com/SscSPs/mma_local/internal/syncqueue"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockSyncController struct {
	mock.Mock
}

func (m *MockSyncController) ManualSyncNow(ctx context.Context) (syncqueue.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).(syncqueue.Report), args.Error(1)
}

func (m *MockSyncController) Status(ctx context.Context) (syncqueue.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).(syncqueue.Status), args.Error(1)
}

func (m *MockSyncController) SetOnline(online bool) {
	m.Called(online)
}

var _ handlers.SyncController = (*MockSyncController)(nil)

type SyncHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	mockSync *MockSyncController
}

func (suite *SyncHandlerTestSuite) SetupTest() {
	suite.mockSync = new(MockSyncController)
	suite.router = newTestRouter(suite.T(), handlers.Dependencies{
		Services: &portssvc.ServiceContainer{},
		Sync:     suite.mockSync,
	})
}

func (suite *SyncHandlerTestSuite) TearDownTest() {
	suite.mockSync.AssertExpectations(suite.T())
}

func (suite *SyncHandlerTestSuite) TestStatus() {
	synced := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	suite.mockSync.On("Status", mock.Anything).Return(syncqueue.Status{
		PendingCount: 3, LastSyncedAt: &synced, IsOnline: true,
	}, nil).Once()

	w := do(suite.T(), suite.router, http.MethodGet, "/api/v1/sync/status", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.SyncStatusResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(3, resp.PendingCount)
	suite.True(resp.IsOnline)
	suite.Require().NotNil(resp.LastSyncedAt)
	suite.True(synced.Equal(*resp.LastSyncedAt))
}

func (suite *SyncHandlerTestSuite) TestSyncNow() {
	suite.mockSync.On("ManualSyncNow", mock.Anything).Return(syncqueue.Report{
		Records: 5, Entities: 4, Accepted: 3, Conflicts: 1,
	}, nil).Once()

	w := do(suite.T(), suite.router, http.MethodPost, "/api/v1/sync/now", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"pushed":4,"accepted":3,"conflicts":1}`, w.Body.String())
}

func (suite *SyncHandlerTestSuite) TestSyncNow_InFlight() {
	suite.mockSync.On("ManualSyncNow", mock.Anything).Return(syncqueue.Report{}, apperrors.ErrSyncInFlight).Once()

	w := do(suite.T(), suite.router, http.MethodPost, "/api/v1/sync/now", "")
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *SyncHandlerTestSuite) TestSyncNow_RemoteRejected() {
	suite.mockSync.On("ManualSyncNow", mock.Anything).
		Return(syncqueue.Report{}, apperrors.NewAppError(http.StatusServiceUnavailable, "remote unavailable", nil)).Once()

	w := do(suite.T(), suite.router, http.MethodPost, "/api/v1/sync/now", "")
	suite.Equal(http.StatusBadGateway, w.Code)
	suite.Contains(w.Body.String(), "remote unavailable")
}

func (suite *SyncHandlerTestSuite) TestSetOnline() {
	suite.mockSync.On("SetOnline", false).Once()

	w := do(suite.T(), suite.router, http.MethodPost, "/api/v1/sync/online", `{"online":false}`)
	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *SyncHandlerTestSuite) TestSetOnline_MissingFlag() {
	w := do(suite.T(), suite.router, http.MethodPost, "/api/v1/sync/online", `{}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSync.AssertNotCalled(suite.T(), "SetOnline", mock.Anything)
}

func TestSyncHandler(t *testing.T) {
	suite.Run(t, new(SyncHandlerTestSuite))
}
