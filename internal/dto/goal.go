package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateGoalRequest defines a savings goal.
type CreateGoalRequest struct {
	Name         string          `json:"name" binding:"required,max=100"`
	TargetAmount decimal.Decimal `json:"targetAmount" binding:"gt=0"`
	TargetDate   time.Time       `json:"targetDate" binding:"required"`
	Category     string          `json:"category" binding:"max=60"`
}

// UpdateGoalRequest edits a goal. CurrentAmount only moves through contributions.
type UpdateGoalRequest struct {
	Name         *string          `json:"name" binding:"omitempty,max=100"`
	TargetAmount *decimal.Decimal `json:"targetAmount" binding:"omitempty,gt=0"`
	TargetDate   *time.Time       `json:"targetDate"`
	Category     *string          `json:"category" binding:"omitempty,max=60"`
}

// ContributeToGoalRequest moves money from an account into a goal.
type ContributeToGoalRequest struct {
	GoalID    string          `json:"goalId" binding:"required"`
	AccountID string          `json:"accountId" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"gt=0"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes" binding:"max=500"`
}
