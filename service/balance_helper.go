package service

import (
	"context"
	"fmt"

	"matka/events"
	"matka/models"
)

// RecordBalanceChange records a balance history entry and emits a balance change event.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	// Flushed after the unit of work commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:        history.UserID,
		OldBalance:    history.BalanceBefore,
		NewBalance:    history.BalanceAfter,
		ChangeAmount:  history.ChangeAmount,
		Reason:        history.Reason,
		TransactionID: history.TransactionID,
	})

	return nil
}

// applyBalanceChange is the single entry point for wallet mutations inside a unit of work.
// It applies the delta atomically and records the audit trail.
func applyBalanceChange(ctx context.Context, uow UnitOfWork, userID, delta int64, reason models.TransactionType, transactionID *int64) (*models.User, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: zero balance change", ErrInvalidAmount)
	}

	user, err := uow.UserRepository().AdjustBalance(ctx, userID, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust balance: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:        userID,
		BalanceBefore: user.WalletBalance - delta,
		BalanceAfter:  user.WalletBalance,
		ChangeAmount:  delta,
		Reason:        reason,
		TransactionID: transactionID,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	return user, nil
}
