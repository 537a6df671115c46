package service

import (
	"testing"

	"matka/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

var (
	testAdmin    = models.Actor{ID: 1, Role: models.RoleAdmin}
	testSubadmin = models.Actor{ID: 2, Role: models.RoleSubadmin}
	testPlayer   = models.Actor{ID: 3, Role: models.RolePlayer}
)

func managedPlayer() *models.User {
	return &models.User{ID: 3, Role: models.RolePlayer, Status: models.UserStatusActive, SubadminID: ptr(int64(2))}
}

func strangerPlayer() *models.User {
	return &models.User{ID: 4, Role: models.RolePlayer, Status: models.UserStatusActive}
}

func subadminUser() *models.User {
	return &models.User{ID: 2, Role: models.RoleSubadmin, Status: models.UserStatusActive}
}

func TestCanViewUser(t *testing.T) {
	assert.True(t, CanViewUser(testAdmin, strangerPlayer()))
	assert.True(t, CanViewUser(testSubadmin, managedPlayer()))
	assert.True(t, CanViewUser(testSubadmin, subadminUser()))
	assert.False(t, CanViewUser(testSubadmin, strangerPlayer()))
	assert.True(t, CanViewUser(testPlayer, managedPlayer()))
	assert.False(t, CanViewUser(testPlayer, strangerPlayer()))
}

func TestCanSubmitTransaction(t *testing.T) {
	tests := []struct {
		name        string
		actor       models.Actor
		target      *models.User
		txType      models.TransactionType
		wantFlagged bool
		wantErr     bool
	}{
		{"player deposits for self", testPlayer, managedPlayer(), models.TransactionTypeDeposit, false, false},
		{"player for someone else", testPlayer, strangerPlayer(), models.TransactionTypeDeposit, false, true},
		{"player adjustment", testPlayer, managedPlayer(), models.TransactionTypeAdjustment, false, true},
		{"subadmin for managed player", testSubadmin, managedPlayer(), models.TransactionTypeWithdrawal, false, false},
		{"subadmin for self is flagged", testSubadmin, subadminUser(), models.TransactionTypeDeposit, true, false},
		{"subadmin for stranger", testSubadmin, strangerPlayer(), models.TransactionTypeDeposit, false, true},
		{"subadmin adjustment", testSubadmin, managedPlayer(), models.TransactionTypeAdjustment, false, true},
		{"admin for player", testAdmin, strangerPlayer(), models.TransactionTypeAdjustment, false, false},
		{"admin for subadmin is flagged", testAdmin, subadminUser(), models.TransactionTypeDeposit, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagged, err := CanSubmitTransaction(tt.actor, tt.target, tt.txType)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlagged, flagged)
		})
	}
}

func TestCanDecideTransaction(t *testing.T) {
	playerTxn := &models.Transaction{ID: 10, UserID: 3}
	flaggedTxn := &models.Transaction{ID: 11, UserID: 2, IsSubadminTransaction: true}
	strangerTxn := &models.Transaction{ID: 12, UserID: 4}

	assert.NoError(t, CanDecideTransaction(testAdmin, flaggedTxn, subadminUser()))
	assert.NoError(t, CanDecideTransaction(testSubadmin, playerTxn, managedPlayer()))
	assert.ErrorIs(t, CanDecideTransaction(testSubadmin, flaggedTxn, subadminUser()), ErrUnauthorized)
	assert.ErrorIs(t, CanDecideTransaction(testSubadmin, strangerTxn, strangerPlayer()), ErrUnauthorized)
	assert.ErrorIs(t, CanDecideTransaction(testPlayer, playerTxn, managedPlayer()), ErrUnauthorized)
}

func TestCanCreateUser(t *testing.T) {
	assert.NoError(t, CanCreateUser(testAdmin, models.RoleSubadmin, nil))
	assert.NoError(t, CanCreateUser(testSubadmin, models.RolePlayer, nil))
	assert.NoError(t, CanCreateUser(testSubadmin, models.RolePlayer, ptr(int64(2))))
	assert.ErrorIs(t, CanCreateUser(testSubadmin, models.RolePlayer, ptr(int64(9))), ErrUnauthorized)
	assert.ErrorIs(t, CanCreateUser(testSubadmin, models.RoleSubadmin, nil), ErrUnauthorized)
	assert.ErrorIs(t, CanCreateUser(testPlayer, models.RolePlayer, nil), ErrUnauthorized)
}

func TestCanSetUserStatus(t *testing.T) {
	assert.NoError(t, CanSetUserStatus(testAdmin, subadminUser()))
	assert.NoError(t, CanSetUserStatus(testSubadmin, managedPlayer()))
	assert.ErrorIs(t, CanSetUserStatus(testSubadmin, strangerPlayer()), ErrUnauthorized)
	assert.ErrorIs(t, CanSetUserStatus(testSubadmin, subadminUser()), ErrUnauthorized)
	assert.ErrorIs(t, CanSetUserStatus(testPlayer, strangerPlayer()), ErrUnauthorized)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "NotFound", ErrorKind(ErrBetNotFound))
	assert.Equal(t, "NotPending", ErrorKind(ErrBetNotPending))
	assert.Equal(t, "Unauthorized", ErrorKind(ErrUserBlocked))
	assert.Equal(t, "AlreadyExists", ErrorKind(ErrUsernameTaken))
	assert.Equal(t, "Internal", ErrorKind(assert.AnError))
}
