package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameKind is the wagering rule set a game type follows
type GameKind string

const (
	GameKindJodi    GameKind = "jodi"
	GameKindHurf    GameKind = "hurf"
	GameKindCross   GameKind = "cross"
	GameKindOddEven GameKind = "odd_even"
)

// IsValid checks if the kind is one of the supported rule sets
func (k GameKind) IsValid() bool {
	switch k {
	case GameKindJodi, GameKindHurf, GameKindCross, GameKindOddEven:
		return true
	}
	return false
}

// GameType represents a wagering rule set with bet limits and a payout multiplier
type GameType struct {
	ID           int64           `db:"id"`
	Name         string          `db:"name"`
	Type         GameKind        `db:"type"`
	MinBetAmount int64           `db:"min_bet_amount"`
	MaxBetAmount int64           `db:"max_bet_amount"`
	PayoutRatio  decimal.Decimal `db:"payout_ratio"`
	CreatedBy    int64           `db:"created_by"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// AllowsAmount checks if a bet amount is within the game type's limits
func (g *GameType) AllowsAmount(amount int64) bool {
	return amount >= g.MinBetAmount && amount <= g.MaxBetAmount
}
