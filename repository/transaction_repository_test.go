package repository

import (
	"context"
	"testing"
	"time"

	"matka/models"
	"matka/repository/testutil"
	"matka/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	admin := testutil.InsertUser(t, testDB.DB, "admin", models.RoleAdmin, 0, nil)
	player := testutil.InsertUser(t, testDB.DB, "player", models.RolePlayer, 0, nil)

	deposit := &models.Transaction{
		UserID:  player.ID,
		Type:    models.TransactionTypeDeposit,
		Amount:  500,
		Status:  models.TransactionStatusPending,
		Remarks: "cash at counter",
	}
	require.NoError(t, repo.Create(ctx, deposit))

	t.Run("create assigns a reference", func(t *testing.T) {
		assert.NotZero(t, deposit.ID)
		_, err := uuid.Parse(deposit.Reference)
		assert.NoError(t, err)

		got, err := repo.GetByID(ctx, deposit.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, deposit.Reference, got.Reference)
		assert.Equal(t, "cash at counter", got.Remarks)
		assert.True(t, got.IsPending())
	})

	t.Run("decide once", func(t *testing.T) {
		now := time.Now().UTC()
		deposit.Status = models.TransactionStatusApproved
		deposit.ApproverID = &admin.ID
		deposit.ApproverRemarks = "ok"
		deposit.ProcessedAt = &now
		require.NoError(t, repo.Decide(ctx, deposit))

		deposit.Status = models.TransactionStatusRejected
		assert.ErrorIs(t, repo.Decide(ctx, deposit), service.ErrNotPending)

		got, err := repo.GetByID(ctx, deposit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusApproved, got.Status)
		require.NotNil(t, got.ApproverID)
		assert.Equal(t, admin.ID, *got.ApproverID)

		assert.ErrorIs(t, repo.Decide(ctx, &models.Transaction{ID: 999, Status: models.TransactionStatusApproved}), service.ErrTransactionNotFound)
	})

	t.Run("bet transactions cannot be pending", func(t *testing.T) {
		err := repo.Create(ctx, &models.Transaction{
			UserID: player.ID,
			Type:   models.TransactionTypeBet,
			Amount: 100,
			Status: models.TransactionStatusPending,
		})
		assert.Error(t, err)
	})

	t.Run("list filters", func(t *testing.T) {
		withdrawal := &models.Transaction{
			UserID: player.ID,
			Type:   models.TransactionTypeWithdrawal,
			Amount: 50,
			Status: models.TransactionStatusPending,
		}
		require.NoError(t, repo.Create(ctx, withdrawal))

		pending := models.TransactionStatusPending
		txns, err := repo.List(ctx, models.TransactionFilter{Status: &pending})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, withdrawal.ID, txns[0].ID)

		deposits := models.TransactionTypeDeposit
		txns, err = repo.List(ctx, models.TransactionFilter{UserIDs: []int64{player.ID}, Type: &deposits})
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, deposit.ID, txns[0].ID)

		txns, err = repo.List(ctx, models.TransactionFilter{UserIDs: []int64{admin.ID}})
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}
