package models

import "time"

// BetStatus represents the settlement state of a bet
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
)

// Bet represents a player's wager on a selection within a market's game type
type Bet struct {
	ID                int64      `db:"id"`
	UserID            int64      `db:"user_id"`
	MarketID          int64      `db:"market_id"`
	GameTypeID        int64      `db:"game_type_id"`
	SelectedNumber    string     `db:"selected_number"`
	BetAmount         int64      `db:"bet_amount"`
	PotentialWinnings int64      `db:"potential_winnings"` // Frozen at placement
	Status            BetStatus  `db:"status"`
	CreatedAt         time.Time  `db:"created_at"`
	SettledAt         *time.Time `db:"settled_at"`
}

// IsPending checks if the bet still awaits a result
func (b *Bet) IsPending() bool {
	return b.Status == BetStatusPending
}

// BetFilter narrows bet listings
type BetFilter struct {
	UserIDs  []int64 // Empty means all users
	MarketID *int64
	Status   *BetStatus
	Limit    int
}

// SettlementReport summarizes a market-wide settlement run
type SettlementReport struct {
	MarketID    int64
	Result      string
	Settled     int
	Won         int
	Lost        int
	Skipped     int // Bets already settled by a concurrent or earlier run
	Failed      int
	TotalPayout int64
	FailedBets  []int64
}
