package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/jewelry_store/internal/config"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/metrics"
)

const (
	fetchBatch   = 10
	fetchWait    = 5 * time.Second
	fetchBackoff = 5 * time.Second
)

// Handler processes one event payload. A returned error asks JetStream to
// redeliver the message.
type Handler func(ctx context.Context, data []byte) error

// acknowledger is the part of *nats.Msg the consumer settles messages with
type acknowledger interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
}

// Consumer reads review events from a durable JetStream pull consumer
type Consumer struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	name   string
	logger *logger.Logger
}

// NewConsumer connects to NATS, provisions the stream and the named durable
// consumer, and binds a pull subscription to it
func NewConsumer(cfg *config.Config, name string, log *logger.Logger) (*Consumer, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name(name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streams := NewStreamConfig(js, log)
	if err := streams.EnsureStream(); err != nil {
		nc.Close()
		return nil, err
	}
	if err := streams.EnsureConsumer(name); err != nil {
		nc.Close()
		return nil, err
	}

	sub, err := js.PullSubscribe(Subject, name, nats.Bind(StreamName, name), nats.ManualAck())
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to JetStream consumer %s: %w", name, err)
	}

	log.WithFields(map[string]any{
		"url":      cfg.NATS.URL,
		"stream":   StreamName,
		"consumer": name,
	}).Info("Subscribed to JetStream consumer")

	return &Consumer{
		nc:     nc,
		sub:    sub,
		name:   name,
		logger: log,
	}, nil
}

// Run fetches messages in batches and hands each to handler until ctx is done
func (c *Consumer) Run(ctx context.Context, handler Handler) {
	for {
		if ctx.Err() != nil {
			return
		}

		msgs, err := c.sub.Fetch(fetchBatch, nats.MaxWait(fetchWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				return
			}
			c.logger.Error("Failed to fetch messages from JetStream", err)

			select {
			case <-time.After(fetchBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg.Data, msg, handler)
		}
	}
}

// handle runs handler on one message and acks or naks it
func (c *Consumer) handle(ctx context.Context, data []byte, msg acknowledger, handler Handler) {
	if err := handler(ctx, data); err != nil {
		metrics.EventsProcessed.WithLabelValues(c.name, "error").Inc()
		c.logger.With("consumer", c.name).Error("Failed to handle event", err)

		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Error("Failed to NAK message", nakErr)
		}
		return
	}

	metrics.EventsProcessed.WithLabelValues(c.name, "ok").Inc()
	if ackErr := msg.Ack(); ackErr != nil {
		c.logger.Error("Failed to ACK message", ackErr)
	}
}

// Close unsubscribes and closes the NATS connection. The durable consumer
// keeps its position on the server.
func (c *Consumer) Close() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warnf("Failed to unsubscribe from NATS: %v", err)
		}
	}
	if c.nc != nil {
		c.nc.Close()
		c.logger.Info("NATS consumer connection closed")
	}
}
