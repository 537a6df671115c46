package models

import (
	"time"
)

// MarketStatus represents whether a market accepts bets
type MarketStatus string

const (
	MarketStatusClosed MarketStatus = "closed"
	MarketStatusOpen   MarketStatus = "open"
)

// Market represents a time-boxed betting round with an eventual declared result
type Market struct {
	ID               int64        `db:"id"`
	Name             string       `db:"name"`
	Status           MarketStatus `db:"status"`
	OpenTime         *time.Time   `db:"open_time"`
	CloseTime        *time.Time   `db:"close_time"`
	Result           *string      `db:"result"`
	ResultDeclaredAt *time.Time   `db:"result_declared_at"`
	CreatedBy        int64        `db:"created_by"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

// IsOpen checks if the market currently accepts bets
func (m *Market) IsOpen() bool {
	return m.Status == MarketStatusOpen
}

// HasResult checks if a result has been declared for the market
func (m *Market) HasResult() bool {
	return m.Result != nil
}

// CanReopen checks if a closed market may be opened again
func (m *Market) CanReopen() bool {
	return m.Status == MarketStatusClosed && !m.HasResult()
}

// MarketGame associates a game type with a market
type MarketGame struct {
	MarketID   int64     `db:"market_id"`
	GameTypeID int64     `db:"game_type_id"`
	CreatedAt  time.Time `db:"created_at"`
}
