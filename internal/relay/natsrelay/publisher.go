// Package natsrelay mirrors persisted chat messages onto NATS subjects.
package natsrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/classes-lms/roomchat/internal/core"
	"github.com/classes-lms/roomchat/internal/proto"
)

// Payload is the JSON body published for each message.
type Payload struct {
	Room string `json:"room"`
	proto.Outbound
}

// Publisher publishes messages to <prefix>.<room>.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	log    *zerolog.Logger
}

// Connect dials url and returns a publisher for subjects under prefix.
func Connect(url, prefix string, logger *zerolog.Logger) (*Publisher, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	nc, err := nats.Connect(url,
		nats.Name("roomchat"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	logger.Info().Str("url", url).Str("prefix", prefix).Msg("nats relay connected")
	return &Publisher{nc: nc, prefix: prefix, log: logger}, nil
}

// Subject returns the subject messages of room are published to.
func Subject(prefix, room string) string {
	if prefix == "" {
		return room
	}
	return prefix + "." + room
}

// Publish sends msg to the room's subject.
func (p *Publisher) Publish(ctx context.Context, msg core.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(Payload{
		Room: msg.Room,
		Outbound: proto.Outbound{
			Message:   msg.Text,
			Username:  msg.From,
			Timestamp: proto.FormatTimestamp(msg.CreatedAt),
		},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	subject := Subject(p.prefix, msg.Room)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %q: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

var _ core.MessageSink = (*Publisher)(nil)
