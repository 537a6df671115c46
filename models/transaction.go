package models

import (
	"time"
)

// TransactionType represents what kind of fund movement a transaction records
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeBet        TransactionType = "bet"
	TransactionTypeWinning    TransactionType = "winning"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// IsRequestable checks if the type may be submitted through the approval workflow
func (t TransactionType) IsRequestable() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal || t == TransactionTypeAdjustment
}

// TransactionStatus represents the approval state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusRejected TransactionStatus = "rejected"
)

// Transaction represents a fund movement; Amount is always positive and Type implies direction
type Transaction struct {
	ID                    int64             `db:"id"`
	Reference             string            `db:"reference"`
	UserID                int64             `db:"user_id"`
	Type                  TransactionType   `db:"type"`
	Amount                int64             `db:"amount"`
	Status                TransactionStatus `db:"status"`
	IsSubadminTransaction bool              `db:"is_subadmin_transaction"`
	ReferenceID           *int64            `db:"reference_id"` // Originating bet
	ApproverID            *int64            `db:"approver_id"`
	Remarks               string            `db:"remarks"`
	ApproverRemarks       string            `db:"approver_remarks"`
	CreatedAt             time.Time         `db:"created_at"`
	ProcessedAt           *time.Time        `db:"processed_at"`
}

// IsPending checks if the transaction still awaits a decision
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	UserIDs []int64 // Empty means all users
	Type    *TransactionType
	Status  *TransactionStatus
	Limit   int
}
