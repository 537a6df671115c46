package memory

import (
	"context"
	"sort"
	"time"

	"matka/models"
	"matka/service"

	"github.com/google/uuid"
)

type transactionRepository struct {
	s *state
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if _, ok := r.s.users[txn.UserID]; !ok {
		return service.ErrUserNotFound
	}
	if txn.Reference == "" {
		txn.Reference = uuid.NewString()
	}
	txn.ID = r.s.nextID("transactions")
	txn.CreatedAt = time.Now()
	r.s.transactions[txn.ID] = copyTransaction(txn)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	t, ok := r.s.transactions[id]
	if !ok {
		return nil, nil
	}
	return copyTransaction(t), nil
}

func (r *transactionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *transactionRepository) Decide(ctx context.Context, txn *models.Transaction) error {
	stored, ok := r.s.transactions[txn.ID]
	if !ok {
		return service.ErrTransactionNotFound
	}
	if !stored.IsPending() {
		return service.ErrNotPending
	}
	stored.Status = txn.Status
	stored.ApproverID = txn.ApproverID
	stored.ApproverRemarks = txn.ApproverRemarks
	stored.ProcessedAt = txn.ProcessedAt
	return nil
}

// List returns matching transactions newest first
func (r *transactionRepository) List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	users := idSet(filter.UserIDs)
	txns := make([]*models.Transaction, 0)
	for _, t := range r.s.transactions {
		if users != nil && !users[t.UserID] {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		txns = append(txns, copyTransaction(t))
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID > txns[j].ID })
	if filter.Limit > 0 && len(txns) > filter.Limit {
		txns = txns[:filter.Limit]
	}
	return txns, nil
}
