package repository

import (
	"context"
	"testing"
	"time"

	"matka/models"
	"matka/repository/testutil"
	"matka/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketRepository_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewMarketRepository(testDB.DB)
	ctx := context.Background()

	admin := testutil.InsertUser(t, testDB.DB, "admin", models.RoleAdmin, 0, nil)

	market := &models.Market{Name: "Kalyan", Status: models.MarketStatusClosed, CreatedBy: admin.ID}
	require.NoError(t, repo.Create(ctx, market))
	assert.NotZero(t, market.ID)

	now := time.Now().UTC().Truncate(time.Microsecond)
	market.Status = models.MarketStatusOpen
	market.OpenTime = &now
	require.NoError(t, repo.Update(ctx, market))

	got, err := repo.GetByID(ctx, market.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.MarketStatusOpen, got.Status)
	require.NotNil(t, got.OpenTime)
	assert.True(t, now.Equal(*got.OpenTime))
	assert.Nil(t, got.Result)

	result := "27"
	market.Status = models.MarketStatusClosed
	market.CloseTime = &now
	market.Result = &result
	market.ResultDeclaredAt = &now
	require.NoError(t, repo.Update(ctx, market))

	got, err = repo.GetByID(ctx, market.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Result)
	assert.Equal(t, "27", *got.Result)

	missing, err := repo.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, repo.Update(ctx, &models.Market{ID: 999, Status: models.MarketStatusClosed}), service.ErrMarketNotFound)
}

func TestMarketRepository_ResultRequiresClosedMarket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewMarketRepository(testDB.DB)
	ctx := context.Background()

	admin := testutil.InsertUser(t, testDB.DB, "admin", models.RoleAdmin, 0, nil)
	market := testutil.InsertMarket(t, testDB.DB, "Milan", models.MarketStatusOpen, admin.ID)

	result := "11"
	market.Result = &result
	assert.Error(t, repo.Update(ctx, market))
}

func TestMarketRepository_Games(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	markets := NewMarketRepository(testDB.DB)
	gameTypes := NewGameTypeRepository(testDB.DB)
	ctx := context.Background()

	admin := testutil.InsertUser(t, testDB.DB, "admin", models.RoleAdmin, 0, nil)
	market := testutil.InsertMarket(t, testDB.DB, "Kalyan", models.MarketStatusClosed, admin.ID)

	jodi := &models.GameType{
		Name:         "Jodi",
		Type:         models.GameKindJodi,
		MinBetAmount: 10,
		MaxBetAmount: 10000,
		PayoutRatio:  decimal.RequireFromString("9.5"),
		CreatedBy:    admin.ID,
	}
	require.NoError(t, gameTypes.Create(ctx, jodi))

	t.Run("payout ratio keeps its exact value", func(t *testing.T) {
		got, err := gameTypes.GetByID(ctx, jodi.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, decimal.RequireFromString("9.5").Equal(got.PayoutRatio), "got %s", got.PayoutRatio)
	})

	t.Run("not offered until added", func(t *testing.T) {
		game, err := markets.GetGame(ctx, market.ID, jodi.ID)
		require.NoError(t, err)
		assert.Nil(t, game)
	})

	t.Run("add once", func(t *testing.T) {
		require.NoError(t, markets.AddGame(ctx, market.ID, jodi.ID))
		assert.ErrorIs(t, markets.AddGame(ctx, market.ID, jodi.ID), service.ErrMarketGameExists)

		game, err := markets.GetGame(ctx, market.ID, jodi.ID)
		require.NoError(t, err)
		require.NotNil(t, game)
		assert.Equal(t, models.GameKindJodi, game.Type)

		games, err := markets.ListGames(ctx, market.ID)
		require.NoError(t, err)
		assert.Len(t, games, 1)
	})

	t.Run("update ratio", func(t *testing.T) {
		jodi.PayoutRatio = decimal.NewFromInt(80)
		require.NoError(t, gameTypes.Update(ctx, jodi))

		got, err := gameTypes.GetByID(ctx, jodi.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(80).Equal(got.PayoutRatio))
	})

	t.Run("remove", func(t *testing.T) {
		removed, err := markets.RemoveGame(ctx, market.ID, jodi.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = markets.RemoveGame(ctx, market.ID, jodi.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}
