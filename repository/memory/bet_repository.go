package memory

import (
	"context"
	"sort"
	"time"

	"matka/models"
	"matka/service"
)

type betRepository struct {
	s *state
}

func (r *betRepository) Create(ctx context.Context, bet *models.Bet) error {
	bet.ID = r.s.nextID("bets")
	bet.CreatedAt = time.Now()
	r.s.bets[bet.ID] = copyBet(bet)
	return nil
}

func (r *betRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	b, ok := r.s.bets[id]
	if !ok {
		return nil, nil
	}
	return copyBet(b), nil
}

func (r *betRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Bet, error) {
	return r.GetByID(ctx, id)
}

func (r *betRepository) MarkSettled(ctx context.Context, bet *models.Bet) error {
	stored, ok := r.s.bets[bet.ID]
	if !ok {
		return service.ErrBetNotFound
	}
	if !stored.IsPending() {
		return service.ErrBetNotPending
	}
	stored.Status = bet.Status
	stored.SettledAt = bet.SettledAt
	return nil
}

func (r *betRepository) ListPendingIDsByMarket(ctx context.Context, marketID int64) ([]int64, error) {
	ids := make([]int64, 0)
	for _, b := range r.s.bets {
		if b.MarketID == marketID && b.IsPending() {
			ids = append(ids, b.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// List returns matching bets newest first
func (r *betRepository) List(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error) {
	users := idSet(filter.UserIDs)
	bets := make([]*models.Bet, 0)
	for _, b := range r.s.bets {
		if users != nil && !users[b.UserID] {
			continue
		}
		if filter.MarketID != nil && b.MarketID != *filter.MarketID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		bets = append(bets, copyBet(b))
	}
	sort.Slice(bets, func(i, j int) bool { return bets[i].ID > bets[j].ID })
	if filter.Limit > 0 && len(bets) > filter.Limit {
		bets = bets[:filter.Limit]
	}
	return bets, nil
}

func idSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
