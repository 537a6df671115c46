package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"matka/events"
	"matka/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	ctx := context.Background()

	m.Handle(ctx, events.BetPlacedEvent{GameKind: models.GameKindJodi, Amount: 100})
	m.Handle(ctx, events.BetPlacedEvent{GameKind: models.GameKindJodi, Amount: 50})
	m.Handle(ctx, events.BetPlacedEvent{GameKind: models.GameKindCross, Amount: 10})
	m.Handle(ctx, events.BetSettledEvent{Status: models.BetStatusWon, Payout: 9000})
	m.Handle(ctx, events.BetSettledEvent{Status: models.BetStatusLost})
	m.Handle(ctx, events.TransactionRequestedEvent{TxType: models.TransactionTypeDeposit})
	m.Handle(ctx, events.TransactionDecidedEvent{TxType: models.TransactionTypeDeposit, Status: models.TransactionStatusApproved})
	m.Handle(ctx, events.BalanceChangeEvent{Reason: models.TransactionTypeBet})
	result := "27"
	m.Handle(ctx, events.MarketStateChangeEvent{NewStatus: models.MarketStatusClosed, Result: &result})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.betsPlaced.WithLabelValues("jodi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.betsPlaced.WithLabelValues("cross")))
	assert.Equal(t, 160.0, testutil.ToFloat64(m.stakeTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.betsSettled.WithLabelValues("won")))
	assert.Equal(t, 9000.0, testutil.ToFloat64(m.payoutTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactionsRequested.WithLabelValues("deposit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactionsDecided.WithLabelValues("deposit", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.balanceChanges.WithLabelValues("bet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.marketTransitions.WithLabelValues("closed", "true")))
}

func TestMetrics_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Handle(context.Background(), events.BetPlacedEvent{GameKind: models.GameKindHurf, Amount: 25})

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `matka_bets_placed_total{game_kind="hurf"} 1`)
	assert.Contains(t, string(body), `matka_bets_stake_total 25`)
}
