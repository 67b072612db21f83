package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target. CurrentAmount grows only through contributions.
type Goal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    time.Time       `json:"targetDate"`
	Category      string          `json:"category"`
	Timestamps
	SoftDelete
}

func (g Goal) RecordKey() string { return g.ID }

// Reached reports whether the target has been met. Contributions past the target are allowed.
func (g Goal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Progress is the completed fraction of the target, capped at 1.
func (g Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.NewFromInt(1)
	}
	p := g.CurrentAmount.Div(g.TargetAmount)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return p
}

// GoalContribution is one transfer of money into a goal.
type GoalContribution struct {
	ID        string          `json:"id"`
	GoalID    string          `json:"goalId"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (c GoalContribution) RecordKey() string { return c.ID }
