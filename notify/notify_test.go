package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"matka/events"
	"matka/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMessenger struct {
	mu     sync.Mutex
	sent   []*discordgo.MessageEmbed
	failed bool
}

func (m *recordingMessenger) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return nil, errors.New("discord unavailable")
	}
	m.sent = append(m.sent, embed)
	return &discordgo.Message{ChannelID: channelID}, nil
}

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{45000, "45,000"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in))
	}
}

func TestBuildMarketEmbed(t *testing.T) {
	result := "27"

	open := BuildMarketEmbed(events.MarketStateChangeEvent{MarketID: 1, Name: "Kalyan", NewStatus: models.MarketStatusOpen})
	require.NotNil(t, open)
	assert.Contains(t, open.Title, "Open")
	assert.Equal(t, ColorSuccess, open.Color)

	closed := BuildMarketEmbed(events.MarketStateChangeEvent{MarketID: 1, Name: "Kalyan", NewStatus: models.MarketStatusClosed})
	require.NotNil(t, closed)
	assert.Contains(t, closed.Title, "Closed")
	assert.Equal(t, ColorDanger, closed.Color)

	declared := BuildMarketEmbed(events.MarketStateChangeEvent{MarketID: 1, Name: "Kalyan", NewStatus: models.MarketStatusClosed, Result: &result})
	require.NotNil(t, declared)
	assert.Contains(t, declared.Title, "Result")
	assert.Contains(t, declared.Description, "**27**")
	assert.Equal(t, "Market #1", declared.Footer.Text)
}

func TestDiscordAnnouncer_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("announces market changes", func(t *testing.T) {
		m := &recordingMessenger{}
		a := NewDiscordAnnouncer(m, "chan")
		a.Handle(ctx, events.MarketStateChangeEvent{MarketID: 1, Name: "Kalyan", NewStatus: models.MarketStatusOpen})
		assert.Len(t, m.sent, 1)
	})

	t.Run("big wins only above threshold", func(t *testing.T) {
		m := &recordingMessenger{}
		a := NewDiscordAnnouncer(m, "chan")
		a.BigWinThreshold = 10000

		a.Handle(ctx, events.BetSettledEvent{BetID: 1, Status: models.BetStatusWon, Amount: 100, Payout: 9000})
		a.Handle(ctx, events.BetSettledEvent{BetID: 2, Status: models.BetStatusLost, Amount: 50000})
		a.Handle(ctx, events.BetSettledEvent{BetID: 3, Status: models.BetStatusWon, Amount: 500, Payout: 45000})

		require.Len(t, m.sent, 1)
		assert.Contains(t, m.sent[0].Description, "45,000")
	})

	t.Run("big wins disabled by default", func(t *testing.T) {
		m := &recordingMessenger{}
		a := NewDiscordAnnouncer(m, "chan")
		a.Handle(ctx, events.BetSettledEvent{Status: models.BetStatusWon, Payout: 1000000})
		assert.Empty(t, m.sent)
	})

	t.Run("send failure is logged not raised", func(t *testing.T) {
		m := &recordingMessenger{failed: true}
		a := NewDiscordAnnouncer(m, "chan")
		assert.NotPanics(t, func() {
			a.Handle(ctx, events.MarketStateChangeEvent{Name: "Kalyan", NewStatus: models.MarketStatusClosed})
		})
	})
}

func TestNATSPublisher(t *testing.T) {
	p := &recordingPublisher{}
	pub := NewNATSPublisher(p, "matka")

	assert.Equal(t, "matka.bet_placed", pub.Subject(events.EventTypeBetPlaced))
	assert.Equal(t, "bet_placed", NewNATSPublisher(p, "").Subject(events.EventTypeBetPlaced))

	pub.Handle(context.Background(), events.BetPlacedEvent{BetID: 7, UserID: 3, SelectedNumber: "27", Amount: 100})

	require.Len(t, p.subjects, 1)
	assert.Equal(t, "matka.bet_placed", p.subjects[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(p.payloads[0], &decoded))
	assert.Equal(t, float64(7), decoded["bet_id"])
	assert.Equal(t, "27", decoded["selected_number"])
}
