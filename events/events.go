package events

import (
	"context"
	"sync"

	"matka/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange        EventType = "balance_change"
	EventTypeBetPlaced            EventType = "bet_placed"
	EventTypeBetSettled           EventType = "bet_settled"
	EventTypeMarketStateChange    EventType = "market_state_change"
	EventTypeTransactionRequested EventType = "transaction_requested"
	EventTypeTransactionDecided   EventType = "transaction_decided"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a wallet mutation that was committed
type BalanceChangeEvent struct {
	UserID        int64                  `json:"user_id"`
	OldBalance    int64                  `json:"old_balance"`
	NewBalance    int64                  `json:"new_balance"`
	ChangeAmount  int64                  `json:"change_amount"`
	Reason        models.TransactionType `json:"reason"`
	TransactionID *int64                 `json:"transaction_id,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// BetPlacedEvent represents a bet accepted into a market
type BetPlacedEvent struct {
	BetID             int64           `json:"bet_id"`
	UserID            int64           `json:"user_id"`
	MarketID          int64           `json:"market_id"`
	GameTypeID        int64           `json:"game_type_id"`
	GameKind          models.GameKind `json:"game_kind"`
	SelectedNumber    string          `json:"selected_number"`
	Amount            int64           `json:"amount"`
	PotentialWinnings int64           `json:"potential_winnings"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetSettledEvent represents a bet moving to a terminal state
type BetSettledEvent struct {
	BetID    int64            `json:"bet_id"`
	UserID   int64            `json:"user_id"`
	MarketID int64            `json:"market_id"`
	Status   models.BetStatus `json:"status"`
	Amount   int64            `json:"amount"`
	Payout   int64            `json:"payout"`
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// MarketStateChangeEvent represents a market lifecycle transition
type MarketStateChangeEvent struct {
	MarketID  int64               `json:"market_id"`
	Name      string              `json:"name"`
	OldStatus models.MarketStatus `json:"old_status"`
	NewStatus models.MarketStatus `json:"new_status"`
	Result    *string             `json:"result,omitempty"`
}

func (e MarketStateChangeEvent) Type() EventType {
	return EventTypeMarketStateChange
}

// TransactionRequestedEvent represents a deposit, withdrawal or adjustment entering approval
type TransactionRequestedEvent struct {
	TransactionID int64                  `json:"transaction_id"`
	UserID        int64                  `json:"user_id"`
	TxType        models.TransactionType `json:"type"`
	Amount        int64                  `json:"amount"`
	IsSubadmin    bool                   `json:"is_subadmin_transaction"`
}

func (e TransactionRequestedEvent) Type() EventType {
	return EventTypeTransactionRequested
}

// TransactionDecidedEvent represents an approval or rejection
type TransactionDecidedEvent struct {
	TransactionID int64                    `json:"transaction_id"`
	UserID        int64                    `json:"user_id"`
	ApproverID    int64                    `json:"approver_id"`
	TxType        models.TransactionType   `json:"type"`
	Status        models.TransactionStatus `json:"status"`
	Amount        int64                    `json:"amount"`
}

func (e TransactionDecidedEvent) Type() EventType {
	return EventTypeTransactionDecided
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range []EventType{
		EventTypeBalanceChange,
		EventTypeBetPlaced,
		EventTypeBetSettled,
		EventTypeMarketStateChange,
		EventTypeTransactionRequested,
		EventTypeTransactionDecided,
	} {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking the request
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush() {
	if b.real == nil {
		b.pending = nil
		return
	}

	// Handlers outlive the request, so they get a background context
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the events waiting for commit
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}
