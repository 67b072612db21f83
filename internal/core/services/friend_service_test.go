package services_test

import (
	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/core/services"
	"github.com/SscSPs/mma_local/internal/dto"
)

func (suite *ServicesTestSuite) TestFriend_UpdateAndDeletePolicies() {
	friend, err := suite.svc.Friend.AddFriend(suite.ctx, dto.CreateFriendRequest{Name: "Ravi", Phone: "98450"})
	suite.Require().NoError(err)

	email := "ravi@example.com"
	updated, err := suite.svc.Friend.UpdateFriend(suite.ctx, friend.ID, dto.UpdateFriendRequest{Email: &email})
	suite.Require().NoError(err)
	suite.Equal("Ravi", updated.Name)
	suite.Equal("98450", updated.Phone)
	suite.Equal(email, updated.Email)

	_, err = suite.svc.Loan.AddLoan(suite.ctx, dto.CreateLoanRequest{
		Type: domain.Lent, Name: "Rent share", PrincipalAmount: dec("300"), FriendID: friend.ID,
	})
	suite.Require().NoError(err)

	strict := suite.container(services.WithDeletePolicy(services.DeleteReject))
	suite.ErrorIs(strict.Friend.DeleteFriend(suite.ctx, friend.ID), apperrors.ErrHasDependents)

	suite.NoError(suite.svc.Friend.DeleteFriend(suite.ctx, friend.ID))
	friends, err := suite.svc.Friend.ListFriends(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(friends)

	loans, err := suite.svc.Loan.ListLoans(suite.ctx, "")
	suite.Require().NoError(err)
	suite.Len(loans, 1)

	suite.ErrorIs(suite.svc.Friend.DeleteFriend(suite.ctx, friend.ID), apperrors.ErrNotFound)
}
