package services

// ServiceContainer holds instances of all the application services.
// It is the only write path into the store and is used by the handlers.
type ServiceContainer struct {
	Account      AccountSvcFacade
	Ledger       LedgerSvcFacade
	Loan         LoanSvcFacade
	Goal         GoalSvcFacade
	Investment   InvestmentSvcFacade
	Friend       FriendSvcFacade
	GroupExpense GroupExpenseSvcFacade
	Notification NotificationSvcFacade
}
