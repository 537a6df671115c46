package repository

import (
	"context"
	"errors"
	"fmt"

	"matka/database"
	"matka/models"
	"matka/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// payout_ratio travels as text so decimal.Decimal keeps its exact value
const (
	gameTypeColumns         = `id, name, type, min_bet_amount, max_bet_amount, payout_ratio::text, created_by, created_at, updated_at`
	gameTypeColumnsPrefixed = `gt.id, gt.name, gt.type, gt.min_bet_amount, gt.max_bet_amount, gt.payout_ratio::text, gt.created_by, gt.created_at, gt.updated_at`
)

// GameTypeRepository implements the GameTypeRepository interface
type GameTypeRepository struct {
	q queryable
}

// NewGameTypeRepository creates a new game type repository
func NewGameTypeRepository(db *database.DB) *GameTypeRepository {
	return &GameTypeRepository{q: db.Pool}
}

func newGameTypeRepositoryWithTx(tx queryable) *GameTypeRepository {
	return &GameTypeRepository{q: tx}
}

func scanGameType(row rowScanner) (*models.GameType, error) {
	var g models.GameType
	var ratio string
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Type,
		&g.MinBetAmount,
		&g.MaxBetAmount,
		&ratio,
		&g.CreatedBy,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.PayoutRatio, err = decimal.NewFromString(ratio)
	if err != nil {
		return nil, fmt.Errorf("invalid payout ratio %q: %w", ratio, err)
	}
	return &g, nil
}

func listGameTypes(ctx context.Context, q queryable, query string, args ...any) ([]*models.GameType, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list game types: %w", err)
	}
	defer rows.Close()

	gameTypes := make([]*models.GameType, 0)
	for rows.Next() {
		g, err := scanGameType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game type: %w", err)
		}
		gameTypes = append(gameTypes, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game types: %w", err)
	}
	return gameTypes, nil
}

// Create inserts a new game type
func (r *GameTypeRepository) Create(ctx context.Context, gameType *models.GameType) error {
	query := `
		INSERT INTO game_types (name, type, min_bet_amount, max_bet_amount, payout_ratio, created_by)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		gameType.Name,
		gameType.Type,
		gameType.MinBetAmount,
		gameType.MaxBetAmount,
		gameType.PayoutRatio.String(),
		gameType.CreatedBy,
	).Scan(&gameType.ID, &gameType.CreatedAt, &gameType.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create game type %q: %w", gameType.Name, err)
	}
	return nil
}

// GetByID retrieves a game type by ID
func (r *GameTypeRepository) GetByID(ctx context.Context, id int64) (*models.GameType, error) {
	gameType, err := scanGameType(r.q.QueryRow(ctx, `SELECT `+gameTypeColumns+` FROM game_types WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game type %d: %w", id, err)
	}
	return gameType, nil
}

// Update persists limits and payout ratio
func (r *GameTypeRepository) Update(ctx context.Context, gameType *models.GameType) error {
	query := `
		UPDATE game_types
		SET min_bet_amount = $2, max_bet_amount = $3, payout_ratio = $4::numeric, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		gameType.ID,
		gameType.MinBetAmount,
		gameType.MaxBetAmount,
		gameType.PayoutRatio.String(),
	).Scan(&gameType.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrGameTypeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update game type %d: %w", gameType.ID, err)
	}
	return nil
}

// List returns all game types
func (r *GameTypeRepository) List(ctx context.Context) ([]*models.GameType, error) {
	return listGameTypes(ctx, r.q, `SELECT `+gameTypeColumns+` FROM game_types ORDER BY id`)
}
