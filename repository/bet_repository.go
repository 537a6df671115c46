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

const betColumns = `id, user_id, market_id, game_type_id, selected_number, bet_amount, potential_winnings, status, created_at, settled_at`

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row rowScanner) (*models.Bet, error) {
	var b models.Bet
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.MarketID,
		&b.GameTypeID,
		&b.SelectedNumber,
		&b.BetAmount,
		&b.PotentialWinnings,
		&b.Status,
		&b.CreatedAt,
		&b.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new bet
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (user_id, market_id, game_type_id, selected_number, bet_amount, potential_winnings, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.UserID,
		bet.MarketID,
		bet.GameTypeID,
		bet.SelectedNumber,
		bet.BetAmount,
		bet.PotentialWinnings,
		bet.Status,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet for user %d: %w", bet.UserID, err)
	}
	return nil
}

// GetByID retrieves a bet by ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	return r.get(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a bet and locks the row
func (r *BetRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Bet, error) {
	return r.get(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1 FOR UPDATE`, id)
}

func (r *BetRepository) get(ctx context.Context, query string, id int64) (*models.Bet, error) {
	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// MarkSettled moves a pending bet to its terminal status
func (r *BetRepository) MarkSettled(ctx context.Context, bet *models.Bet) error {
	query := `
		UPDATE bets
		SET status = $2, settled_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, bet.ID, bet.Status, bet.SettledAt)
	if err != nil {
		return fmt.Errorf("failed to settle bet %d: %w", bet.ID, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bets WHERE id = $1)`, bet.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check bet %d: %w", bet.ID, err)
	}
	if !exists {
		return service.ErrBetNotFound
	}
	return service.ErrBetNotPending
}

// ListPendingIDsByMarket returns the IDs of unsettled bets in a market
func (r *BetRepository) ListPendingIDsByMarket(ctx context.Context, marketID int64) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM bets WHERE market_id = $1 AND status = 'pending' ORDER BY id`, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending bets for market %d: %w", marketID, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect pending bets for market %d: %w", marketID, err)
	}
	return ids, nil
}

// List returns bets matching the filter, newest first
func (r *BetRepository) List(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error) {
	var where whereClause
	if len(filter.UserIDs) > 0 {
		where.add("user_id = ANY(%s)", filter.UserIDs)
	}
	if filter.MarketID != nil {
		where.add("market_id = %s", *filter.MarketID)
	}
	if filter.Status != nil {
		where.add("status = %s", *filter.Status)
	}

	query := `SELECT ` + betColumns + ` FROM bets ` + where.String() + ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += " " + where.limit(filter.Limit)
	}

	rows, err := r.q.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	defer rows.Close()

	bets := make([]*models.Bet, 0)
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}
