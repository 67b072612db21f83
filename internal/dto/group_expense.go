package dto

import (
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GroupMemberRequest is one participant. Share is required for custom splits and
// ignored for equal splits.
type GroupMemberRequest struct {
	FriendID string           `json:"friendId"`
	Name     string           `json:"name" binding:"required,max=100"`
	Share    *decimal.Decimal `json:"share" binding:"omitempty,gte=0"`
	Paid     bool             `json:"paid"`
}

// GroupItemRequest is one itemised line.
type GroupItemRequest struct {
	Name   string          `json:"name" binding:"required,max=100"`
	Amount decimal.Decimal `json:"amount" binding:"gte=0"`
}

// CreateGroupExpenseRequest defines a shared bill.
type CreateGroupExpenseRequest struct {
	Title       string               `json:"title" binding:"required,max=100"`
	TotalAmount decimal.Decimal      `json:"totalAmount" binding:"gt=0"`
	Date        time.Time            `json:"date"`
	PaidBy      string               `json:"paidBy" binding:"required"`
	SplitMethod domain.SplitMethod   `json:"splitMethod" binding:"required,oneof=equal custom"`
	Members     []GroupMemberRequest `json:"members" binding:"required,min=1,dive"`
	Items       []GroupItemRequest   `json:"items" binding:"omitempty,dive"`
}

// MarkMemberPaidRequest flips the paid flag of one member.
type MarkMemberPaidRequest struct {
	MemberIndex *int `json:"memberIndex" binding:"required,min=0"`
	Paid        bool `json:"paid"`
}
