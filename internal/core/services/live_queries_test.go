package services_test

import (
	"sync"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/core/queries"
	"github.com/SscSPs/mma_local/internal/live"
)

func (suite *ServicesTestSuite) TestLiveActiveAccounts_FollowsServiceWrites() {
	engine := live.NewEngine(suite.store)
	defer engine.Close()

	var (
		mu      sync.Mutex
		results [][]domain.Account
	)
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(results)
	}
	sub := live.Observe(suite.ctx, engine, queries.ActiveAccounts, func(r live.Result[[]domain.Account]) {
		suite.NoError(r.Err)
		mu.Lock()
		results = append(results, r.Value)
		mu.Unlock()
	})
	defer sub.Cancel()

	suite.Require().Eventually(func() bool { return count() == 1 }, 2*time.Second, 5*time.Millisecond)

	acc := suite.addAccount("Live", "10")
	suite.Require().Eventually(func() bool { return count() == 2 }, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	suite.Require().Len(results[1], 1)
	suite.Equal(acc.ID, results[1][0].ID)
	mu.Unlock()

	loan := suite.addLoan(domain.Borrowed, "10")
	suite.Require().NoError(suite.svc.Loan.DeleteLoan(suite.ctx, loan.ID))
	suite.Never(func() bool { return count() != 2 }, 150*time.Millisecond, 5*time.Millisecond)

	suite.addExpense(acc.ID, "4")
	suite.Require().Eventually(func() bool { return count() == 3 }, 2*time.Second, 5*time.Millisecond)
}
