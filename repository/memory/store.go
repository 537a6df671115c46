// Package memory is a map-backed storage backend. A unit of work holds the store
// lock for its whole lifetime and works on a private copy that replaces the
// committed state on Commit, so rollbacks leave no trace.
package memory

import (
	"sync"
	"time"

	"matka/models"
)

type marketGameKey struct {
	marketID   int64
	gameTypeID int64
}

type state struct {
	users        map[int64]*models.User
	markets      map[int64]*models.Market
	gameTypes    map[int64]*models.GameType
	marketGames  map[marketGameKey]time.Time
	bets         map[int64]*models.Bet
	transactions map[int64]*models.Transaction
	history      []*models.BalanceHistory
	lastID       map[string]int64
}

func newState() *state {
	return &state{
		users:        make(map[int64]*models.User),
		markets:      make(map[int64]*models.Market),
		gameTypes:    make(map[int64]*models.GameType),
		marketGames:  make(map[marketGameKey]time.Time),
		bets:         make(map[int64]*models.Bet),
		transactions: make(map[int64]*models.Transaction),
		lastID:       make(map[string]int64),
	}
}

// nextID hands out per-table sequence values
func (s *state) nextID(table string) int64 {
	s.lastID[table]++
	return s.lastID[table]
}

// clone copies every record. Pointer fields inside records (times, result) are
// never mutated in place, so they may be shared.
func (s *state) clone() *state {
	c := newState()
	for id, u := range s.users {
		c.users[id] = copyUser(u)
	}
	for id, m := range s.markets {
		c.markets[id] = copyMarket(m)
	}
	for id, g := range s.gameTypes {
		c.gameTypes[id] = copyGameType(g)
	}
	for k, v := range s.marketGames {
		c.marketGames[k] = v
	}
	for id, b := range s.bets {
		c.bets[id] = copyBet(b)
	}
	for id, t := range s.transactions {
		c.transactions[id] = copyTransaction(t)
	}
	c.history = make([]*models.BalanceHistory, len(s.history))
	for i, h := range s.history {
		hc := *h
		c.history[i] = &hc
	}
	for k, v := range s.lastID {
		c.lastID[k] = v
	}
	return c
}

// Store is the shared committed state
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newState()}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyMarket(m *models.Market) *models.Market {
	c := *m
	return &c
}

func copyGameType(g *models.GameType) *models.GameType {
	c := *g
	return &c
}

func copyBet(b *models.Bet) *models.Bet {
	c := *b
	return &c
}

func copyTransaction(t *models.Transaction) *models.Transaction {
	c := *t
	return &c
}
