package services_test

import (
	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/core/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/utils/accounting"
)

func (suite *ServicesTestSuite) addLoan(t domain.LoanType, principal string) *domain.Loan {
	loan, err := suite.svc.Loan.AddLoan(suite.ctx, dto.CreateLoanRequest{Type: t, Name: "Car loan", PrincipalAmount: dec(principal)})
	suite.Require().NoError(err)
	return loan
}

func (suite *ServicesTestSuite) pay(loanID, accountID, amount string) (*domain.LoanPayment, error) {
	return suite.svc.Loan.RecordLoanPayment(suite.ctx, dto.RecordLoanPaymentRequest{LoanID: loanID, AccountID: accountID, Amount: dec(amount)})
}

func (suite *ServicesTestSuite) assertLoanConsistent(loanID string) {
	loan, err := suite.svc.Loan.GetLoanByID(suite.ctx, loanID)
	suite.Require().NoError(err)
	payments, err := suite.svc.Loan.ListLoanPayments(suite.ctx, loanID)
	suite.Require().NoError(err)
	want := accounting.LoanOutstanding(loan.PrincipalAmount, loanID, payments)
	suite.True(loan.OutstandingBalance.Equal(want), "loan %s: stored %s, from payments %s", loanID, loan.OutstandingBalance.String(), want.String())
}

func (suite *ServicesTestSuite) TestLoanPayment_EndToEnd() {
	acc := suite.addAccount("A", "100")
	suite.addExpense(acc.ID, "40")
	suite.assertBalance(acc.ID, "60")

	loan := suite.addLoan(domain.Borrowed, "500")
	suite.Equal(domain.LoanActive, loan.Status)
	suite.True(loan.OutstandingBalance.Equal(dec("500")))

	payment, err := suite.pay(loan.ID, acc.ID, "20")
	suite.Require().NoError(err)

	got, err := suite.svc.Loan.GetLoanByID(suite.ctx, loan.ID)
	suite.Require().NoError(err)
	suite.True(got.OutstandingBalance.Equal(dec("480")))
	suite.assertBalance(acc.ID, "40")

	var mirror *domain.Transaction
	for _, t := range suite.allTransactions() {
		if t.SourceID == payment.ID {
			mirror = &t
		}
	}
	suite.Require().NotNil(mirror)
	suite.Equal(domain.SourceLoanPayment, mirror.SourceKind)
	suite.Equal(domain.Expense, mirror.Type)

	_, err = suite.pay(loan.ID, acc.ID, "50")
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)

	got, err = suite.svc.Loan.GetLoanByID(suite.ctx, loan.ID)
	suite.Require().NoError(err)
	suite.True(got.OutstandingBalance.Equal(dec("480")))
	suite.assertBalance(acc.ID, "40")
	payments, err := suite.svc.Loan.ListLoanPayments(suite.ctx, loan.ID)
	suite.Require().NoError(err)
	suite.Len(payments, 1)

	suite.assertLoanConsistent(loan.ID)
	suite.assertLedgerConsistent(acc.ID)

	err = suite.svc.Ledger.DeleteTransaction(suite.ctx, mirror.ID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ServicesTestSuite) TestLoanPayment_LentLoanBringsMoneyIn() {
	acc := suite.addAccount("A", "0")
	loan := suite.addLoan(domain.Lent, "100")

	_, err := suite.pay(loan.ID, acc.ID, "30")
	suite.Require().NoError(err)
	suite.assertBalance(acc.ID, "30")
	suite.assertLedgerConsistent(acc.ID)
}

func (suite *ServicesTestSuite) TestLoanPayment_OverpaymentCompletesLoan() {
	acc := suite.addAccount("A", "1000")
	loan := suite.addLoan(domain.EMI, "100")

	_, err := suite.pay(loan.ID, acc.ID, "150")
	suite.Require().NoError(err)

	got, err := suite.svc.Loan.GetLoanByID(suite.ctx, loan.ID)
	suite.Require().NoError(err)
	suite.True(got.OutstandingBalance.IsZero())
	suite.Equal(domain.LoanCompleted, got.Status)
	suite.assertBalance(acc.ID, "850")

	_, err = suite.pay(loan.ID, acc.ID, "1")
	suite.ErrorIs(err, apperrors.ErrValidation)

	completed, err := suite.svc.Loan.ListLoans(suite.ctx, domain.LoanCompleted)
	suite.Require().NoError(err)
	suite.Len(completed, 1)
}

func (suite *ServicesTestSuite) TestCorrectLoanOutstanding() {
	loan := suite.addLoan(domain.Borrowed, "300")

	got, err := suite.svc.Loan.CorrectLoanOutstanding(suite.ctx, loan.ID, dto.CorrectLoanOutstandingRequest{OutstandingBalance: dec("120"), Reason: "bank statement"})
	suite.Require().NoError(err)
	suite.True(got.OutstandingBalance.Equal(dec("120")))
	suite.Equal(domain.LoanActive, got.Status)

	_, err = suite.svc.Loan.CorrectLoanOutstanding(suite.ctx, loan.ID, dto.CorrectLoanOutstandingRequest{OutstandingBalance: dec("10")})
	suite.ErrorIs(err, apperrors.ErrValidation)

	got, err = suite.svc.Loan.CorrectLoanOutstanding(suite.ctx, loan.ID, dto.CorrectLoanOutstandingRequest{OutstandingBalance: dec("0"), Reason: "forgiven"})
	suite.Require().NoError(err)
	suite.Equal(domain.LoanCompleted, got.Status)
}

func (suite *ServicesTestSuite) TestAddLoan_UnknownFriend() {
	_, err := suite.svc.Loan.AddLoan(suite.ctx, dto.CreateLoanRequest{Type: domain.Lent, Name: "To Sam", PrincipalAmount: dec("10"), FriendID: "ghost"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	friend, err := suite.svc.Friend.AddFriend(suite.ctx, dto.CreateFriendRequest{Name: "Sam"})
	suite.Require().NoError(err)
	loan, err := suite.svc.Loan.AddLoan(suite.ctx, dto.CreateLoanRequest{Type: domain.Lent, Name: "To Sam", PrincipalAmount: dec("10"), FriendID: friend.ID})
	suite.Require().NoError(err)
	suite.Equal(friend.ID, loan.FriendID)

	suite.svc = suite.container(services.WithDeletePolicy(services.DeleteReject))
	suite.ErrorIs(suite.svc.Friend.DeleteFriend(suite.ctx, friend.ID), apperrors.ErrHasDependents)
}

func (suite *ServicesTestSuite) TestDeleteLoan_Policies() {
	acc := suite.addAccount("A", "100")
	loan := suite.addLoan(domain.Borrowed, "50")
	_, err := suite.pay(loan.ID, acc.ID, "10")
	suite.Require().NoError(err)

	strict := suite.container(services.WithDeletePolicy(services.DeleteReject))
	suite.ErrorIs(strict.Loan.DeleteLoan(suite.ctx, loan.ID), apperrors.ErrHasDependents)

	suite.Require().NoError(suite.svc.Loan.DeleteLoan(suite.ctx, loan.ID))
	_, err = suite.svc.Loan.GetLoanByID(suite.ctx, loan.ID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.assertBalance(acc.ID, "90")
}
