package testutil

import (
	"context"
	"testing"

	"matka/database"
	"matka/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// InsertUser writes an active user with an opening balance straight to the database
func InsertUser(t *testing.T, db *database.DB, username string, role models.Role, balance int64, subadminID *int64) *models.User {
	t.Helper()

	user := &models.User{
		Username:      username,
		PasswordHash:  "not-a-real-hash",
		Role:          role,
		Status:        models.UserStatusActive,
		WalletBalance: balance,
		SubadminID:    subadminID,
	}

	err := db.QueryRow(context.Background(), `
		INSERT INTO users (username, password_hash, role, status, wallet_balance, subadmin_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, user.Username, user.PasswordHash, user.Role, user.Status, user.WalletBalance, user.SubadminID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)

	return user
}

// InsertMarket writes a market in the given status
func InsertMarket(t *testing.T, db *database.DB, name string, status models.MarketStatus, createdBy int64) *models.Market {
	t.Helper()

	market := &models.Market{
		Name:      name,
		Status:    status,
		CreatedBy: createdBy,
	}

	err := db.QueryRow(context.Background(), `
		INSERT INTO markets (name, status, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, market.Name, market.Status, market.CreatedBy,
	).Scan(&market.ID, &market.CreatedAt, &market.UpdatedAt)
	require.NoError(t, err)

	return market
}

// InsertGameType writes a game type and offers it in the listed markets
func InsertGameType(t *testing.T, db *database.DB, kind models.GameKind, minBet, maxBet int64, ratio string, createdBy int64, marketIDs ...int64) *models.GameType {
	t.Helper()
	ctx := context.Background()

	gameType := &models.GameType{
		Name:         string(kind),
		Type:         kind,
		MinBetAmount: minBet,
		MaxBetAmount: maxBet,
		PayoutRatio:  decimal.RequireFromString(ratio),
		CreatedBy:    createdBy,
	}

	err := db.QueryRow(ctx, `
		INSERT INTO game_types (name, type, min_bet_amount, max_bet_amount, payout_ratio, created_by)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id, created_at, updated_at
	`, gameType.Name, gameType.Type, gameType.MinBetAmount, gameType.MaxBetAmount, ratio, gameType.CreatedBy,
	).Scan(&gameType.ID, &gameType.CreatedAt, &gameType.UpdatedAt)
	require.NoError(t, err)

	for _, marketID := range marketIDs {
		_, err := db.Exec(ctx, `INSERT INTO market_games (market_id, game_type_id) VALUES ($1, $2)`, marketID, gameType.ID)
		require.NoError(t, err)
	}

	return gameType
}

// WalletBalance reads a user's committed balance
func WalletBalance(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(context.Background(), `SELECT wallet_balance FROM users WHERE id = $1`, userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}
