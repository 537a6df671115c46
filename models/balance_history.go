package models

import (
	"time"
)

// BalanceHistory represents a single wallet mutation
type BalanceHistory struct {
	ID            int64           `db:"id"`
	UserID        int64           `db:"user_id"`
	BalanceBefore int64           `db:"balance_before"`
	BalanceAfter  int64           `db:"balance_after"`
	ChangeAmount  int64           `db:"change_amount"`
	Reason        TransactionType `db:"reason"`
	TransactionID *int64          `db:"transaction_id"`
	CreatedAt     time.Time       `db:"created_at"`
}
