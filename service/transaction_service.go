package service

import (
	"context"
	"fmt"
	"time"

	"matka/events"
	"matka/models"

	log "github.com/sirupsen/logrus"
)

const maxRemarksLength = 500

type transactionService struct {
	uowFactory UnitOfWorkFactory
}

// NewTransactionService creates a new transaction approval service
func NewTransactionService(uowFactory UnitOfWorkFactory) TransactionService {
	return &transactionService{
		uowFactory: uowFactory,
	}
}

// CreateRequest opens a pending deposit, withdrawal or adjustment. Withdrawals reserve
// the amount immediately: the wallet is debited here and refunded if the request is rejected.
func (s *transactionService) CreateRequest(ctx context.Context, actor models.Actor, req TransactionRequest) (*models.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !req.Type.IsRequestable() {
		return nil, fmt.Errorf("%w: %s cannot be requested", ErrInvalidTransactionType, req.Type)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	requester, err := loadActor(ctx, uow, actor)
	if err != nil {
		return nil, err
	}

	target := requester
	if req.UserID != requester.ID {
		target, err = uow.UserRepository().GetByID(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if target == nil {
			return nil, ErrUserNotFound
		}
	}

	isSubadmin, err := CanSubmitTransaction(actor, target, req.Type)
	if err != nil {
		return nil, err
	}

	if req.Type == models.TransactionTypeWithdrawal && target.WalletBalance < req.Amount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, target.WalletBalance, req.Amount)
	}

	txn := &models.Transaction{
		UserID:                target.ID,
		Type:                  req.Type,
		Amount:                req.Amount,
		Status:                models.TransactionStatusPending,
		IsSubadminTransaction: isSubadmin,
		Remarks:               req.Remarks,
	}
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if txn.Type == models.TransactionTypeWithdrawal {
		if _, err := applyBalanceChange(ctx, uow, target.ID, -txn.Amount, txn.Type, &txn.ID); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.TransactionRequestedEvent{
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		TxType:        txn.Type,
		Amount:        txn.Amount,
		IsSubadmin:    txn.IsSubadminTransaction,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"transactionID": txn.ID,
		"reference":     txn.Reference,
		"userID":        txn.UserID,
		"type":          txn.Type,
		"amount":        txn.Amount,
		"requestedBy":   actor.ID,
	}).Info("Transaction requested")

	return txn, nil
}

func (s *transactionService) Approve(ctx context.Context, actor models.Actor, transactionID int64, remarks string) (*models.Transaction, error) {
	return s.decide(ctx, actor, transactionID, remarks, models.TransactionStatusApproved)
}

func (s *transactionService) Reject(ctx context.Context, actor models.Actor, transactionID int64, remarks string) (*models.Transaction, error) {
	return s.decide(ctx, actor, transactionID, remarks, models.TransactionStatusRejected)
}

func (s *transactionService) decide(ctx context.Context, actor models.Actor, transactionID int64, remarks string, status models.TransactionStatus) (*models.Transaction, error) {
	if len(remarks) > maxRemarksLength {
		return nil, fmt.Errorf("%w: remarks longer than %d characters", ErrInvalidRequest, maxRemarksLength)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := loadActor(ctx, uow, actor); err != nil {
		return nil, err
	}

	txn, err := uow.TransactionRepository().GetByIDForUpdate(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}

	owner, err := uow.UserRepository().GetByID(ctx, txn.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction owner: %w", err)
	}
	if err := CanDecideTransaction(actor, txn, owner); err != nil {
		return nil, err
	}

	if !txn.IsPending() {
		return nil, fmt.Errorf("%w: transaction %d is %s", ErrNotPending, txn.ID, txn.Status)
	}

	now := time.Now()
	approverID := actor.ID
	txn.Status = status
	txn.ApproverID = &approverID
	txn.ApproverRemarks = remarks
	txn.ProcessedAt = &now

	if err := uow.TransactionRepository().Decide(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record decision: %w", err)
	}

	if delta := decisionDelta(txn); delta != 0 {
		if _, err := applyBalanceChange(ctx, uow, txn.UserID, delta, txn.Type, &txn.ID); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.TransactionDecidedEvent{
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		ApproverID:    approverID,
		TxType:        txn.Type,
		Status:        txn.Status,
		Amount:        txn.Amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"transactionID": txn.ID,
		"userID":        txn.UserID,
		"type":          txn.Type,
		"status":        txn.Status,
		"amount":        txn.Amount,
		"approverID":    approverID,
	}).Info("Transaction decided")

	return txn, nil
}

// decisionDelta is the wallet effect of a decision. Withdrawals were debited at
// submission, so approving them moves nothing and rejecting them refunds.
func decisionDelta(txn *models.Transaction) int64 {
	switch {
	case txn.Status == models.TransactionStatusApproved && txn.Type == models.TransactionTypeDeposit:
		return txn.Amount
	case txn.Status == models.TransactionStatusApproved && txn.Type == models.TransactionTypeAdjustment:
		return txn.Amount
	case txn.Status == models.TransactionStatusRejected && txn.Type == models.TransactionTypeWithdrawal:
		return txn.Amount
	}
	return 0
}

func (s *transactionService) GetTransaction(ctx context.Context, actor models.Actor, transactionID int64) (*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txn, err := uow.TransactionRepository().GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}

	if !actor.IsAdmin() && txn.UserID != actor.ID {
		owner, err := uow.UserRepository().GetByID(ctx, txn.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get transaction owner: %w", err)
		}
		if owner == nil || !CanViewUser(actor, owner) {
			return nil, fmt.Errorf("%w: cannot view transaction %d", ErrUnauthorized, transactionID)
		}
	}

	return txn, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, actor models.Actor, filter models.TransactionFilter) ([]*models.Transaction, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ids, ok, err := visibleUserIDs(ctx, uow, actor, filter.UserIDs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.Transaction{}, nil
	}
	filter.UserIDs = ids

	txns, err := uow.TransactionRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}
