package services_test

import (
	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
)

func (suite *ServicesTestSuite) TestScanDeadlines_LoanLifecycle() {
	due := suite.now.AddDate(0, 0, 2)
	loan, err := suite.svc.Loan.AddLoan(suite.ctx, dto.CreateLoanRequest{Type: domain.Borrowed, Name: "Rent advance", PrincipalAmount: dec("200"), DueDate: &due})
	suite.Require().NoError(err)
	far := suite.now.AddDate(0, 2, 0)
	_, err = suite.svc.Loan.AddLoan(suite.ctx, dto.CreateLoanRequest{Type: domain.Borrowed, Name: "Later", PrincipalAmount: dec("10"), DueDate: &far})
	suite.Require().NoError(err)

	changed, err := suite.svc.Notification.ScanDeadlines(suite.ctx, suite.now)
	suite.Require().NoError(err)
	suite.Equal(1, changed)

	list, err := suite.svc.Notification.ListNotifications(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Require().Len(list, 1)
	suite.Equal(domain.NotifyLoanDue, list[0].Type)
	suite.Equal(loan.ID, list[0].RelatedID)

	changed, err = suite.svc.Notification.ScanDeadlines(suite.ctx, suite.now)
	suite.Require().NoError(err)
	suite.Zero(changed)

	suite.Require().NoError(suite.svc.Notification.MarkNotificationRead(suite.ctx, list[0].ID))
	unread, err := suite.svc.Notification.ListNotifications(suite.ctx, true)
	suite.Require().NoError(err)
	suite.Empty(unread)

	later := suite.now.AddDate(0, 0, 5)
	changed, err = suite.svc.Notification.ScanDeadlines(suite.ctx, later)
	suite.Require().NoError(err)
	suite.Equal(1, changed)

	got, err := suite.svc.Loan.GetLoanByID(suite.ctx, loan.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanOverdue, got.Status)

	all, err := suite.svc.Notification.ListNotifications(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Len(all, 2)
}

func (suite *ServicesTestSuite) TestScanDeadlines_Goals() {
	reached := suite.addGoal("10", suite.now.AddDate(0, 0, 1))
	acc := suite.addAccount("A", "10")
	_, err := suite.svc.Goal.ContributeToGoal(suite.ctx, dto.ContributeToGoalRequest{GoalID: reached.ID, AccountID: acc.ID, Amount: dec("10")})
	suite.Require().NoError(err)
	pending := suite.addGoal("500", suite.now.AddDate(0, 0, 3))

	changed, err := suite.svc.Notification.ScanDeadlines(suite.ctx, suite.now)
	suite.Require().NoError(err)
	suite.Equal(1, changed)

	list, err := suite.svc.Notification.ListNotifications(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Require().Len(list, 1)
	suite.Equal(domain.NotifyGoalDeadline, list[0].Type)
	suite.Equal(pending.ID, list[0].RelatedID)

	suite.Require().NoError(suite.svc.Goal.DeleteGoal(suite.ctx, pending.ID))
	list, err = suite.svc.Notification.ListNotifications(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Empty(list)
}

func (suite *ServicesTestSuite) TestUpsertNotification_Dedups() {
	req := dto.UpsertNotificationRequest{Type: domain.NotifyLoanDue, Title: "Pay Sam", RelatedID: "loan-1"}
	first, err := suite.svc.Notification.UpsertNotification(suite.ctx, req)
	suite.Require().NoError(err)

	req.Message = "tomorrow"
	second, err := suite.svc.Notification.UpsertNotification(suite.ctx, req)
	suite.Require().NoError(err)
	suite.Equal(first.ID, second.ID)
	suite.Equal("tomorrow", second.Message)

	list, err := suite.svc.Notification.ListNotifications(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Len(list, 1)

	suite.Require().NoError(suite.svc.Notification.DeleteNotification(suite.ctx, first.ID))
	list, err = suite.svc.Notification.ListNotifications(suite.ctx, false)
	suite.Require().NoError(err)
	suite.Empty(list)
}
