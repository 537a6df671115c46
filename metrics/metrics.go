// Package metrics exposes prometheus counters fed from the domain event bus.
package metrics

import (
	"context"
	"net/http"

	"matka/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matka"

type Metrics struct {
	betsPlaced            *prometheus.CounterVec
	stakeTotal            prometheus.Counter
	betsSettled           *prometheus.CounterVec
	payoutTotal           prometheus.Counter
	transactionsRequested *prometheus.CounterVec
	transactionsDecided   *prometheus.CounterVec
	balanceChanges        *prometheus.CounterVec
	marketTransitions     *prometheus.CounterVec
}

// New registers the counters on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		betsPlaced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bets",
				Name:      "placed_total",
				Help:      "Total bets accepted, partitioned by game kind.",
			},
			[]string{"game_kind"},
		),
		stakeTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bets",
				Name:      "stake_total",
				Help:      "Sum of accepted bet amounts in minor units.",
			},
		),
		betsSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bets",
				Name:      "settled_total",
				Help:      "Total bets settled, partitioned by outcome.",
			},
			[]string{"status"},
		),
		payoutTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bets",
				Name:      "payout_total",
				Help:      "Sum of winnings credited in minor units.",
			},
		),
		transactionsRequested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transactions",
				Name:      "requested_total",
				Help:      "Total transaction requests, partitioned by type.",
			},
			[]string{"type"},
		),
		transactionsDecided: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transactions",
				Name:      "decided_total",
				Help:      "Total transaction decisions, partitioned by type and status.",
			},
			[]string{"type", "status"},
		),
		balanceChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wallet",
				Name:      "balance_changes_total",
				Help:      "Total wallet mutations, partitioned by reason.",
			},
			[]string{"reason"},
		),
		marketTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "markets",
				Name:      "transitions_total",
				Help:      "Total market state changes, partitioned by new status and whether a result was declared.",
			},
			[]string{"status", "declared"},
		),
	}
}

// Subscribe feeds every domain event into the counters
func (m *Metrics) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(m.Handle)
}

// Handle updates the counters for one event
func (m *Metrics) Handle(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.BetPlacedEvent:
		m.betsPlaced.WithLabelValues(string(e.GameKind)).Inc()
		m.stakeTotal.Add(float64(e.Amount))
	case events.BetSettledEvent:
		m.betsSettled.WithLabelValues(string(e.Status)).Inc()
		m.payoutTotal.Add(float64(e.Payout))
	case events.TransactionRequestedEvent:
		m.transactionsRequested.WithLabelValues(string(e.TxType)).Inc()
	case events.TransactionDecidedEvent:
		m.transactionsDecided.WithLabelValues(string(e.TxType), string(e.Status)).Inc()
	case events.BalanceChangeEvent:
		m.balanceChanges.WithLabelValues(string(e.Reason)).Inc()
	case events.MarketStateChangeEvent:
		declared := "false"
		if e.Result != nil {
			declared = "true"
		}
		m.marketTransitions.WithLabelValues(string(e.NewStatus), declared).Inc()
	}
}

// Handler serves the registry in the prometheus exposition format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
