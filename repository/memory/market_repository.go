package memory

import (
	"context"
	"sort"
	"time"

	"matka/models"
	"matka/service"
)

type marketRepository struct {
	s *state
}

func (r *marketRepository) Create(ctx context.Context, market *models.Market) error {
	now := time.Now()
	market.ID = r.s.nextID("markets")
	market.CreatedAt = now
	market.UpdatedAt = now
	r.s.markets[market.ID] = copyMarket(market)
	return nil
}

func (r *marketRepository) GetByID(ctx context.Context, id int64) (*models.Market, error) {
	m, ok := r.s.markets[id]
	if !ok {
		return nil, nil
	}
	return copyMarket(m), nil
}

// GetByIDForUpdate is GetByID; the unit of work already holds the store lock
func (r *marketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Market, error) {
	return r.GetByID(ctx, id)
}

func (r *marketRepository) GetByIDForShare(ctx context.Context, id int64) (*models.Market, error) {
	return r.GetByID(ctx, id)
}

func (r *marketRepository) Update(ctx context.Context, market *models.Market) error {
	stored, ok := r.s.markets[market.ID]
	if !ok {
		return service.ErrMarketNotFound
	}
	market.CreatedAt = stored.CreatedAt
	market.CreatedBy = stored.CreatedBy
	market.UpdatedAt = time.Now()
	r.s.markets[market.ID] = copyMarket(market)
	return nil
}

func (r *marketRepository) List(ctx context.Context) ([]*models.Market, error) {
	markets := make([]*models.Market, 0, len(r.s.markets))
	for _, m := range r.s.markets {
		markets = append(markets, copyMarket(m))
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i].ID < markets[j].ID })
	return markets, nil
}

func (r *marketRepository) AddGame(ctx context.Context, marketID, gameTypeID int64) error {
	key := marketGameKey{marketID: marketID, gameTypeID: gameTypeID}
	if _, exists := r.s.marketGames[key]; exists {
		return service.ErrMarketGameExists
	}
	r.s.marketGames[key] = time.Now()
	return nil
}

func (r *marketRepository) RemoveGame(ctx context.Context, marketID, gameTypeID int64) (bool, error) {
	key := marketGameKey{marketID: marketID, gameTypeID: gameTypeID}
	if _, exists := r.s.marketGames[key]; !exists {
		return false, nil
	}
	delete(r.s.marketGames, key)
	return true, nil
}

func (r *marketRepository) GetGame(ctx context.Context, marketID, gameTypeID int64) (*models.GameType, error) {
	if _, exists := r.s.marketGames[marketGameKey{marketID: marketID, gameTypeID: gameTypeID}]; !exists {
		return nil, nil
	}
	g, ok := r.s.gameTypes[gameTypeID]
	if !ok {
		return nil, nil
	}
	return copyGameType(g), nil
}

func (r *marketRepository) ListGames(ctx context.Context, marketID int64) ([]*models.GameType, error) {
	games := make([]*models.GameType, 0)
	for key := range r.s.marketGames {
		if key.marketID != marketID {
			continue
		}
		if g, ok := r.s.gameTypes[key.gameTypeID]; ok {
			games = append(games, copyGameType(g))
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

type gameTypeRepository struct {
	s *state
}

func (r *gameTypeRepository) Create(ctx context.Context, gameType *models.GameType) error {
	now := time.Now()
	gameType.ID = r.s.nextID("game_types")
	gameType.CreatedAt = now
	gameType.UpdatedAt = now
	r.s.gameTypes[gameType.ID] = copyGameType(gameType)
	return nil
}

func (r *gameTypeRepository) GetByID(ctx context.Context, id int64) (*models.GameType, error) {
	g, ok := r.s.gameTypes[id]
	if !ok {
		return nil, nil
	}
	return copyGameType(g), nil
}

// Update persists limits and payout ratio
func (r *gameTypeRepository) Update(ctx context.Context, gameType *models.GameType) error {
	stored, ok := r.s.gameTypes[gameType.ID]
	if !ok {
		return service.ErrGameTypeNotFound
	}
	stored.MinBetAmount = gameType.MinBetAmount
	stored.MaxBetAmount = gameType.MaxBetAmount
	stored.PayoutRatio = gameType.PayoutRatio
	stored.UpdatedAt = time.Now()
	gameType.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *gameTypeRepository) List(ctx context.Context) ([]*models.GameType, error) {
	games := make([]*models.GameType, 0, len(r.s.gameTypes))
	for _, g := range r.s.gameTypes {
		games = append(games, copyGameType(g))
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}
