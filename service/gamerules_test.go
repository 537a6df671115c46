package service

import (
	"testing"

	"matka/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSelection(t *testing.T) {
	tests := []struct {
		kind     models.GameKind
		selected string
		valid    bool
	}{
		{models.GameKindJodi, "27", true},
		{models.GameKindJodi, "00", true},
		{models.GameKindJodi, "7", false},
		{models.GameKindJodi, "127", false},
		{models.GameKindJodi, "2a", false},
		{models.GameKindOddEven, "odd", true},
		{models.GameKindOddEven, "even", true},
		{models.GameKindOddEven, "ODD", false},
		{models.GameKindOddEven, "27", false},
		{models.GameKindHurf, "l7", true},
		{models.GameKindHurf, "r0", true},
		{models.GameKindHurf, "45", true},
		{models.GameKindHurf, "x7", false},
		{models.GameKindHurf, "l77", false},
		{models.GameKindHurf, "5", false},
		{models.GameKindCross, "12", true},
		{models.GameKindCross, "123", true},
		{models.GameKindCross, "1234", true},
		{models.GameKindCross, "1", false},
		{models.GameKindCross, "12345", false},
		{models.GameKindCross, "12a", false},
		{"roulette", "12", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.selected, func(t *testing.T) {
			err := ValidateSelection(tt.kind, tt.selected)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSelection)
			}
		})
	}
}

func TestValidateResult(t *testing.T) {
	assert.NoError(t, ValidateResult("27"))
	assert.NoError(t, ValidateResult("00"))
	for _, bad := range []string{"", "7", "270", "2x", " 27"} {
		assert.ErrorIs(t, ValidateResult(bad), ErrInvalidResult, "result %q", bad)
	}
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name     string
		kind     models.GameKind
		selected string
		result   string
		want     models.BetStatus
	}{
		{"jodi exact match", models.GameKindJodi, "27", "27", models.BetStatusWon},
		{"jodi mismatch", models.GameKindJodi, "13", "27", models.BetStatusLost},
		{"jodi reversed digits lose", models.GameKindJodi, "72", "27", models.BetStatusLost},
		{"odd on odd result", models.GameKindOddEven, "odd", "27", models.BetStatusWon},
		{"even on odd result", models.GameKindOddEven, "even", "27", models.BetStatusLost},
		{"even on zero", models.GameKindOddEven, "even", "00", models.BetStatusWon},
		{"hurf left digit", models.GameKindHurf, "l2", "27", models.BetStatusWon},
		{"hurf right digit", models.GameKindHurf, "r7", "27", models.BetStatusWon},
		{"hurf wrong side", models.GameKindHurf, "l7", "27", models.BetStatusLost},
		{"hurf plain pair", models.GameKindHurf, "27", "27", models.BetStatusWon},
		{"hurf plain pair mismatch", models.GameKindHurf, "72", "27", models.BetStatusLost},
		{"cross permutation", models.GameKindCross, "123", "21", models.BetStatusWon},
		{"cross in order", models.GameKindCross, "123", "13", models.BetStatusWon},
		{"cross digit outside set", models.GameKindCross, "123", "24", models.BetStatusLost},
		{"cross needs distinct positions", models.GameKindCross, "123", "11", models.BetStatusLost},
		{"cross repeated selected digit", models.GameKindCross, "112", "11", models.BetStatusWon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Settle(tt.kind, tt.selected, tt.result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettle_Errors(t *testing.T) {
	_, err := Settle(models.GameKindOddEven, "odd", "ab")
	assert.ErrorIs(t, err, ErrInvalidResult)

	_, err = Settle(models.GameKindHurf, "l2", "2")
	assert.ErrorIs(t, err, ErrInvalidResult)

	_, err = Settle("roulette", "1", "27")
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestPotentialWinnings(t *testing.T) {
	tests := []struct {
		amount int64
		ratio  string
		want   int64
	}{
		{100, "90", 9000},
		{100, "9.5", 950},
		{15, "1.95", 29}, // 29.25 truncated
		{1, "0.5", 0},
		{333, "3.3333", 1109},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PotentialWinnings(tt.amount, decimal.RequireFromString(tt.ratio)),
			"%d at %s", tt.amount, tt.ratio)
	}
}
