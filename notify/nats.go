package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matka/events"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher is the subset of *nats.Conn the publisher needs
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher forwards every domain event as JSON to <prefix>.<event type>
type NATSPublisher struct {
	conn   MessagePublisher
	prefix string
}

func NewNATSPublisher(conn MessagePublisher, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// ConnectNATS dials the server with reconnect handling
func ConnectNATS(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("matka"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			fields := log.Fields{"error": err}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			log.WithFields(fields).Error("NATS async error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.WithField("url", url).Info("Connected to NATS")
	return nc, nil
}

func (p *NATSPublisher) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(p.Handle)
}

// Subject returns the subject an event type is published on
func (p *NATSPublisher) Subject(eventType events.EventType) string {
	if p.prefix == "" {
		return string(eventType)
	}
	return p.prefix + "." + string(eventType)
}

// Handle publishes one event
func (p *NATSPublisher) Handle(ctx context.Context, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to encode event")
		return
	}

	subject := p.Subject(event.Type())
	if err := p.conn.Publish(subject, data); err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"error":   err,
		}).Error("Failed to publish event to NATS")
	}
}
