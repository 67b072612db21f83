package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitMethod controls how member shares are derived.
type SplitMethod string

const (
	SplitEqual  SplitMethod = "equal"
	SplitCustom SplitMethod = "custom"
)

// GroupMember is one participant of a shared expense.
type GroupMember struct {
	FriendID string          `json:"friendId,omitempty"`
	Name     string          `json:"name"`
	Share    decimal.Decimal `json:"share"`
	Paid     bool            `json:"paid"`
}

// GroupItem is one itemised line of a shared expense.
type GroupItem struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// GroupExpense is a bill shared among friends.
type GroupExpense struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Date        time.Time       `json:"date"`
	PaidBy      string          `json:"paidBy"`
	SplitMethod SplitMethod     `json:"splitMethod"`
	Members     []GroupMember   `json:"members"`
	Items       []GroupItem     `json:"items,omitempty"`
	Timestamps
}

func (g GroupExpense) RecordKey() string { return g.ID }

// SharesTotal sums the member shares.
func (g GroupExpense) SharesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range g.Members {
		sum = sum.Add(m.Share)
	}
	return sum
}

// Unsettled sums the shares of members who have not paid yet.
func (g GroupExpense) Unsettled() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range g.Members {
		if !m.Paid {
			sum = sum.Add(m.Share)
		}
	}
	return sum
}

// EqualShares splits total into n shares rounded to cents. Leftover cents go to the
// first members and any sub-cent remainder to the first one, so the shares always add
// up to total.
func EqualShares(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	count := decimal.NewFromInt(int64(n))
	base := total.Div(count).Truncate(2)
	remainder := total.Sub(base.Mul(count))
	cents := remainder.Shift(2).IntPart()
	cent := decimal.New(1, -2)
	dust := remainder.Sub(decimal.NewFromInt(cents).Mul(cent))

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < cents {
			shares[i] = base.Add(cent)
		}
	}
	shares[0] = shares[0].Add(dust)
	return shares
}
