package services_test

import (
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/core/services"
	"github.com/SscSPs/mma_local/internal/dto"
)

func (suite *ServicesTestSuite) addGoal(target string, date time.Time) *domain.Goal {
	goal, err := suite.svc.Goal.AddGoal(suite.ctx, dto.CreateGoalRequest{Name: "Holiday", TargetAmount: dec(target), TargetDate: date})
	suite.Require().NoError(err)
	return goal
}

func (suite *ServicesTestSuite) TestContributeToGoal_MovesMoney() {
	acc := suite.addAccount("A", "100")
	goal := suite.addGoal("150", suite.now.AddDate(0, 6, 0))

	contribution, err := suite.svc.Goal.ContributeToGoal(suite.ctx, dto.ContributeToGoalRequest{GoalID: goal.ID, AccountID: acc.ID, Amount: dec("80")})
	suite.Require().NoError(err)
	suite.Equal(goal.ID, contribution.GoalID)

	got, err := suite.svc.Goal.GetGoalByID(suite.ctx, goal.ID)
	suite.Require().NoError(err)
	suite.True(got.CurrentAmount.Equal(dec("80")))
	suite.False(got.Reached())
	suite.assertBalance(acc.ID, "20")
	suite.assertLedgerConsistent(acc.ID)

	_, err = suite.svc.Goal.ContributeToGoal(suite.ctx, dto.ContributeToGoalRequest{GoalID: goal.ID, AccountID: acc.ID, Amount: dec("21")})
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.assertBalance(acc.ID, "20")

	target := dec("70")
	updated, err := suite.svc.Goal.UpdateGoal(suite.ctx, goal.ID, dto.UpdateGoalRequest{TargetAmount: &target})
	suite.Require().NoError(err)
	suite.True(updated.CurrentAmount.Equal(dec("80")))
	suite.True(updated.Reached())
}

func (suite *ServicesTestSuite) TestDeleteGoal_Policies() {
	acc := suite.addAccount("A", "100")
	funded := suite.addGoal("50", suite.now.AddDate(1, 0, 0))
	empty := suite.addGoal("50", suite.now.AddDate(1, 0, 0))
	_, err := suite.svc.Goal.ContributeToGoal(suite.ctx, dto.ContributeToGoalRequest{GoalID: funded.ID, AccountID: acc.ID, Amount: dec("5")})
	suite.Require().NoError(err)

	strict := suite.container(services.WithDeletePolicy(services.DeleteReject))
	suite.ErrorIs(strict.Goal.DeleteGoal(suite.ctx, funded.ID), apperrors.ErrHasDependents)
	suite.NoError(strict.Goal.DeleteGoal(suite.ctx, empty.ID))

	suite.NoError(suite.svc.Goal.DeleteGoal(suite.ctx, funded.ID))
	goals, err := suite.svc.Goal.ListGoals(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(goals)
	suite.assertBalance(acc.ID, "95")
}

func (suite *ServicesTestSuite) TestInvestments_RecomputeValues() {
	inv, err := suite.svc.Investment.AddInvestment(suite.ctx, dto.CreateInvestmentRequest{
		Name: "Index fund", Type: domain.MutualFund, Quantity: dec("10"), BuyPrice: dec("12.5"),
	})
	suite.Require().NoError(err)
	suite.True(inv.TotalInvested.Equal(dec("125")))
	suite.True(inv.ProfitLoss.IsZero())

	inv, err = suite.svc.Investment.UpdateInvestmentPrice(suite.ctx, inv.ID, dto.UpdateInvestmentPriceRequest{CurrentPrice: dec("11")})
	suite.Require().NoError(err)
	suite.True(inv.CurrentValue.Equal(dec("110")))
	suite.True(inv.ProfitLoss.Equal(dec("-15")))

	suite.Require().NoError(suite.svc.Investment.DeleteInvestment(suite.ctx, inv.ID))
	list, err := suite.svc.Investment.ListInvestments(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(list)

	_, err = suite.svc.Investment.UpdateInvestmentPrice(suite.ctx, inv.ID, dto.UpdateInvestmentPriceRequest{CurrentPrice: dec("1")})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ServicesTestSuite) TestGroupExpense_Splits() {
	equal, err := suite.svc.GroupExpense.AddGroupExpense(suite.ctx, dto.CreateGroupExpenseRequest{
		Title: "Dinner", TotalAmount: dec("100"), PaidBy: "me", SplitMethod: domain.SplitEqual,
		Members: []dto.GroupMemberRequest{{Name: "A"}, {Name: "B"}, {Name: "C"}},
	})
	suite.Require().NoError(err)
	suite.True(equal.Members[0].Share.Equal(dec("33.34")))
	suite.True(equal.Members[2].Share.Equal(dec("33.33")))
	suite.True(equal.SharesTotal().Equal(dec("100")))

	odd, err := suite.svc.GroupExpense.AddGroupExpense(suite.ctx, dto.CreateGroupExpenseRequest{
		Title: "Fuel", TotalAmount: dec("10.005"), PaidBy: "me", SplitMethod: domain.SplitEqual,
		Members: []dto.GroupMemberRequest{{Name: "A"}, {Name: "B"}},
	})
	suite.Require().NoError(err)
	suite.True(odd.SharesTotal().Equal(dec("10.005")), "shares add up to %s", odd.SharesTotal())
	suite.Require().NoError(suite.svc.GroupExpense.DeleteGroupExpense(suite.ctx, odd.ID))

	share := dec("40")
	_, err = suite.svc.GroupExpense.AddGroupExpense(suite.ctx, dto.CreateGroupExpenseRequest{
		Title: "Cab", TotalAmount: dec("100"), PaidBy: "me", SplitMethod: domain.SplitCustom,
		Members: []dto.GroupMemberRequest{{Name: "A", Share: &share}, {Name: "B", Share: &share}},
	})
	suite.ErrorIs(err, apperrors.ErrValidation)

	idx := 1
	paid, err := suite.svc.GroupExpense.MarkGroupMemberPaid(suite.ctx, equal.ID, dto.MarkMemberPaidRequest{MemberIndex: &idx, Paid: true})
	suite.Require().NoError(err)
	suite.True(paid.Members[1].Paid)
	suite.True(paid.Unsettled().Equal(dec("66.67")))

	idx = 3
	_, err = suite.svc.GroupExpense.MarkGroupMemberPaid(suite.ctx, equal.ID, dto.MarkMemberPaidRequest{MemberIndex: &idx, Paid: true})
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.Require().NoError(suite.svc.GroupExpense.DeleteGroupExpense(suite.ctx, equal.ID))
	list, err := suite.svc.GroupExpense.ListGroupExpenses(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(list)
}
