package memory

import (
	"context"
	"time"

	"matka/models"
)

type balanceHistoryRepository struct {
	s *state
}

func (r *balanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	history.ID = r.s.nextID("balance_history")
	history.CreatedAt = time.Now()
	h := *history
	r.s.history = append(r.s.history, &h)
	return nil
}

// GetByUser returns entries newest first
func (r *balanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	out := make([]*models.BalanceHistory, 0)
	for i := len(r.s.history) - 1; i >= 0; i-- {
		h := r.s.history[i]
		if h.UserID != userID {
			continue
		}
		hc := *h
		out = append(out, &hc)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
