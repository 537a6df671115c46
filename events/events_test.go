package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"matka/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDelivery tests the complete event flow from TransactionalBus to main Bus
func TestEventDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		UserID:       123456,
		OldBalance:   1000,
		NewBalance:   900,
		ChangeAmount: -100,
		Reason:       models.TransactionTypeBet,
	}

	transactionalBus.Publish(testEvent)
	assert.Len(t, transactionalBus.Pending(), 1)

	// Simulate a successful commit
	transactionalBus.Flush()
	assert.Empty(t, transactionalBus.Pending())

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan BetSettledEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeBetSettled, func(ctx context.Context, event Event) {
		defer wg.Done()
		if settled, ok := event.(BetSettledEvent); ok {
			eventsReceived <- settled
		}
	})

	for i := int64(1); i <= 3; i++ {
		transactionalBus.Publish(BetSettledEvent{BetID: i, UserID: 10 + i, MarketID: 7, Status: models.BetStatusLost, Amount: 100})
	}

	transactionalBus.Flush()
	wg.Wait()
	close(eventsReceived)

	betIDs := make(map[int64]bool)
	for received := range eventsReceived {
		betIDs[received.BetID] = true
	}

	// Order may vary due to goroutines
	assert.Len(t, betIDs, 3)
	assert.True(t, betIDs[1])
	assert.True(t, betIDs[2])
	assert.True(t, betIDs[3])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(BalanceChangeEvent{UserID: 1, OldBalance: 1000, NewBalance: 1500, ChangeAmount: 500})

	// Simulate a rollback
	transactionalBus.Discard()
	transactionalBus.Flush()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_SubscribeAllAndPanicIsolation(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := make(map[EventType]int)
	var wg sync.WaitGroup
	wg.Add(2)

	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		seen[event.Type()]++
		mu.Unlock()
	})
	// A panicking handler must not take the others down
	bus.Subscribe(EventTypeMarketStateChange, func(ctx context.Context, event Event) {
		panic("boom")
	})

	result := "27"
	bus.Emit(context.Background(), MarketStateChangeEvent{MarketID: 1, OldStatus: models.MarketStatusClosed, NewStatus: models.MarketStatusClosed, Result: &result})
	bus.Emit(context.Background(), TransactionDecidedEvent{TransactionID: 9, Status: models.TransactionStatusApproved})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, seen[EventTypeMarketStateChange])
	require.Equal(t, 1, seen[EventTypeTransactionDecided])
}

func TestTransactionalBus_FlushWithoutRealBus(t *testing.T) {
	bus := NewTransactionalBus(nil)
	bus.Publish(BetPlacedEvent{BetID: 1})
	bus.Flush()
	assert.Empty(t, bus.Pending())
}
