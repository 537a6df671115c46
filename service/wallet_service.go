package service

import (
	"context"
	"fmt"

	"matka/models"

	log "github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 50

type walletService struct {
	uowFactory UnitOfWorkFactory
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory) WalletService {
	return &walletService{
		uowFactory: uowFactory,
	}
}

// AdjustBalance applies an administrative delta in its own unit of work. It is internal
// only; callers holding a unit of work use applyBalanceChange instead.
func (s *walletService) AdjustBalance(ctx context.Context, userID int64, delta int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := applyBalanceChange(ctx, uow, userID, delta, models.TransactionTypeAdjustment, nil)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"delta":      delta,
		"newBalance": user.WalletBalance,
	}).Info("Wallet balance adjusted")

	return user, nil
}

func (s *walletService) GetBalance(ctx context.Context, actor models.Actor, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := s.visibleUser(ctx, uow, actor, userID)
	if err != nil {
		return 0, err
	}
	return user.WalletBalance, nil
}

func (s *walletService) History(ctx context.Context, actor models.Actor, userID int64, limit int) ([]*models.BalanceHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.visibleUser(ctx, uow, actor, userID); err != nil {
		return nil, err
	}

	history, err := uow.BalanceHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

func (s *walletService) visibleUser(ctx context.Context, uow UnitOfWork, actor models.Actor, userID int64) (*models.User, error) {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !CanViewUser(actor, user) {
		return nil, fmt.Errorf("%w: cannot view user %d", ErrUnauthorized, userID)
	}
	return user, nil
}
