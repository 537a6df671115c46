// Package notify forwards committed domain events to external channels.
package notify

import (
	"context"
	"fmt"
	"time"

	"matka/events"
	"matka/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Embed colors
const (
	ColorPrimary = 0x5865F2
	ColorSuccess = 0x57F287
	ColorDanger  = 0xED4245
	ColorWarning = 0xFEE75C
)

// ChannelMessenger is the subset of *discordgo.Session the announcer needs
type ChannelMessenger interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts market openings, closings and results to a channel.
// Winning bets at or above BigWinThreshold are announced as well; zero disables them.
type DiscordAnnouncer struct {
	session         ChannelMessenger
	channelID       string
	BigWinThreshold int64
}

func NewDiscordAnnouncer(session ChannelMessenger, channelID string) *DiscordAnnouncer {
	return &DiscordAnnouncer{session: session, channelID: channelID}
}

// OpenDiscordSession creates and opens a bot session
func OpenDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return session, nil
}

func (a *DiscordAnnouncer) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeMarketStateChange, a.Handle)
	bus.Subscribe(events.EventTypeBetSettled, a.Handle)
}

// Handle sends the embed for an event, if it has one
func (a *DiscordAnnouncer) Handle(ctx context.Context, event events.Event) {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.MarketStateChangeEvent:
		embed = BuildMarketEmbed(e)
	case events.BetSettledEvent:
		if a.BigWinThreshold > 0 && e.Status == models.BetStatusWon && e.Payout >= a.BigWinThreshold {
			embed = BuildBigWinEmbed(e)
		}
	}
	if embed == nil {
		return
	}

	if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": a.channelID,
			"error":     err,
		}).Error("Failed to send Discord announcement")
	}
}

// BuildMarketEmbed describes a market transition
func BuildMarketEmbed(e events.MarketStateChangeEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Market #%d", e.MarketID)},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	switch {
	case e.Result != nil:
		embed.Title = fmt.Sprintf("🎯 %s Result", e.Name)
		embed.Description = fmt.Sprintf("The result for **%s** is **%s**. Winning bets are being paid out.", e.Name, *e.Result)
		embed.Color = ColorPrimary
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Result", Value: fmt.Sprintf("`%s`", *e.Result), Inline: true},
		}
	case e.NewStatus == models.MarketStatusOpen:
		embed.Title = fmt.Sprintf("🟢 %s is Open", e.Name)
		embed.Description = fmt.Sprintf("**%s** is now accepting bets.", e.Name)
		embed.Color = ColorSuccess
	case e.NewStatus == models.MarketStatusClosed:
		embed.Title = fmt.Sprintf("🔒 %s is Closed", e.Name)
		embed.Description = fmt.Sprintf("Betting on **%s** has closed. The result will be announced soon.", e.Name)
		embed.Color = ColorDanger
	default:
		return nil
	}
	return embed
}

// BuildBigWinEmbed celebrates a large payout without naming the player
func BuildBigWinEmbed(e events.BetSettledEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "💰 Big Win!",
		Description: fmt.Sprintf("A player just won **%s** on a **%s** stake.", FormatAmount(e.Payout), FormatAmount(e.Amount)),
		Color:       ColorWarning,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Market #%d • Bet #%d", e.MarketID, e.BetID)},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}
