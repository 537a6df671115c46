package repository

import (
	"context"
	"errors"
	"fmt"

	"matka/database"
	"matka/models"
	"matka/service"

	"github.com/jackc/pgx/v5"
)

const marketColumns = `id, name, status, open_time, close_time, result, result_declared_at, created_by, created_at, updated_at`

// MarketRepository implements the MarketRepository interface
type MarketRepository struct {
	q queryable
}

// NewMarketRepository creates a new market repository
func NewMarketRepository(db *database.DB) *MarketRepository {
	return &MarketRepository{q: db.Pool}
}

func newMarketRepositoryWithTx(tx queryable) *MarketRepository {
	return &MarketRepository{q: tx}
}

func scanMarket(row rowScanner) (*models.Market, error) {
	var m models.Market
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Status,
		&m.OpenTime,
		&m.CloseTime,
		&m.Result,
		&m.ResultDeclaredAt,
		&m.CreatedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new market
func (r *MarketRepository) Create(ctx context.Context, market *models.Market) error {
	query := `
		INSERT INTO markets (name, status, open_time, close_time, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		market.Name,
		market.Status,
		market.OpenTime,
		market.CloseTime,
		market.CreatedBy,
	).Scan(&market.ID, &market.CreatedAt, &market.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create market %q: %w", market.Name, err)
	}
	return nil
}

// GetByID retrieves a market by ID
func (r *MarketRepository) GetByID(ctx context.Context, id int64) (*models.Market, error) {
	return r.get(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a market and locks the row
func (r *MarketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Market, error) {
	return r.get(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1 FOR UPDATE`, id)
}

// GetByIDForShare retrieves a market with a shared row lock; state changes wait for it
func (r *MarketRepository) GetByIDForShare(ctx context.Context, id int64) (*models.Market, error) {
	return r.get(ctx, `SELECT `+marketColumns+` FROM markets WHERE id = $1 FOR SHARE`, id)
}

func (r *MarketRepository) get(ctx context.Context, query string, id int64) (*models.Market, error) {
	market, err := scanMarket(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market %d: %w", id, err)
	}
	return market, nil
}

// Update persists status, times and result
func (r *MarketRepository) Update(ctx context.Context, market *models.Market) error {
	query := `
		UPDATE markets
		SET status = $2, open_time = $3, close_time = $4, result = $5,
		    result_declared_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		market.ID,
		market.Status,
		market.OpenTime,
		market.CloseTime,
		market.Result,
		market.ResultDeclaredAt,
	).Scan(&market.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrMarketNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update market %d: %w", market.ID, err)
	}
	return nil
}

// List returns all markets
func (r *MarketRepository) List(ctx context.Context) ([]*models.Market, error) {
	rows, err := r.q.Query(ctx, `SELECT `+marketColumns+` FROM markets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	defer rows.Close()

	markets := make([]*models.Market, 0)
	for rows.Next() {
		market, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, market)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate markets: %w", err)
	}
	return markets, nil
}

// AddGame associates a game type with a market
func (r *MarketRepository) AddGame(ctx context.Context, marketID, gameTypeID int64) error {
	query := `
		INSERT INTO market_games (market_id, game_type_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, marketID, gameTypeID)
	if err != nil {
		return fmt.Errorf("failed to add game %d to market %d: %w", gameTypeID, marketID, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrMarketGameExists
	}
	return nil
}

// RemoveGame deletes an association
func (r *MarketRepository) RemoveGame(ctx context.Context, marketID, gameTypeID int64) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM market_games WHERE market_id = $1 AND game_type_id = $2`, marketID, gameTypeID)
	if err != nil {
		return false, fmt.Errorf("failed to remove game %d from market %d: %w", gameTypeID, marketID, err)
	}
	return result.RowsAffected() > 0, nil
}

// GetGame returns the game type if it is offered in the market
func (r *MarketRepository) GetGame(ctx context.Context, marketID, gameTypeID int64) (*models.GameType, error) {
	query := `
		SELECT ` + gameTypeColumnsPrefixed + `
		FROM market_games mg
		JOIN game_types gt ON gt.id = mg.game_type_id
		WHERE mg.market_id = $1 AND mg.game_type_id = $2
	`

	gameType, err := scanGameType(r.q.QueryRow(ctx, query, marketID, gameTypeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d of market %d: %w", gameTypeID, marketID, err)
	}
	return gameType, nil
}

// ListGames returns the game types offered in a market
func (r *MarketRepository) ListGames(ctx context.Context, marketID int64) ([]*models.GameType, error) {
	query := `
		SELECT ` + gameTypeColumnsPrefixed + `
		FROM market_games mg
		JOIN game_types gt ON gt.id = mg.game_type_id
		WHERE mg.market_id = $1
		ORDER BY gt.id
	`
	return listGameTypes(ctx, r.q, query, marketID)
}
