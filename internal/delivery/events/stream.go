package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
)

const (
	// StreamName is the JetStream stream for review events
	StreamName = "REVIEWS"

	// Subject carries every review event
	Subject = "reviews.events"

	// RatingWorkerConsumer is the durable consumer of the rating reconciler
	RatingWorkerConsumer = "rating-worker"

	// NotifierConsumer is the durable consumer of the notifier
	NotifierConsumer = "notifier"

	// MaxDeliveryAttempts is the max number of delivery attempts before discarding.
	// A dropped rating event is repaired by the next event for the product.
	MaxDeliveryAttempts = 3

	// AckWait is how long to wait for acknowledgment before redelivery
	AckWait = 30 * time.Second
)

// StreamConfig provisions the review stream and its durable consumers
type StreamConfig struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewStreamConfig creates a new stream configuration helper
func NewStreamConfig(js nats.JetStreamContext, log *logger.Logger) *StreamConfig {
	return &StreamConfig{
		js:     js,
		logger: log,
	}
}

// exponentialBackoff creates a redelivery schedule of 1s, 2s, 4s, ...
// MaxDeliver N needs N-1 durations since the first delivery is immediate.
func exponentialBackoff(maxDeliveryAttempts int) []time.Duration {
	if maxDeliveryAttempts <= 1 {
		return nil
	}

	backoff := make([]time.Duration, maxDeliveryAttempts-1)
	for i := range backoff {
		backoff[i] = time.Duration(1<<i) * time.Second
	}
	return backoff
}

// streamSettings describes the review stream. Interest retention keeps a
// message until every durable consumer has acked it, so the rating worker
// and the notifier each see every event.
func streamSettings() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{Subject},
		Retention:   nats.InterestPolicy,
		Storage:     nats.FileStorage,
		Replicas:    1,
		MaxAge:      24 * time.Hour,
		Discard:     nats.DiscardOld,
		Description: "Review lifecycle events",
	}
}

func consumerSettings(name string) *nats.ConsumerConfig {
	return &nats.ConsumerConfig{
		Durable:       name,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       AckWait,
		MaxDeliver:    MaxDeliveryAttempts,
		FilterSubject: Subject,
		BackOff:       exponentialBackoff(MaxDeliveryAttempts),
		Description:   fmt.Sprintf("%s consumer of review events", name),
	}
}

// EnsureStream creates the review stream when it does not exist yet
func (s *StreamConfig) EnsureStream() error {
	stream, err := s.js.StreamInfo(StreamName)

	if errors.Is(err, nats.ErrStreamNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"subjects": Subject,
		}).Info("Creating JetStream stream")

		if _, err := s.js.AddStream(streamSettings()); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}

		s.logger.Info("JetStream stream created successfully")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"stream":   stream.Config.Name,
		"messages": stream.State.Msgs,
		"bytes":    stream.State.Bytes,
	}).Info("JetStream stream already exists")

	return nil
}

// EnsureConsumer creates the named durable pull consumer when it does not
// exist yet. Failed messages are redelivered with exponential backoff and
// dropped after MaxDeliveryAttempts.
func (s *StreamConfig) EnsureConsumer(name string) error {
	info, err := s.js.ConsumerInfo(StreamName, name)

	if errors.Is(err, nats.ErrConsumerNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"consumer": name,
		}).Info("Creating JetStream consumer")

		if _, err := s.js.AddConsumer(StreamName, consumerSettings(name)); err != nil {
			return fmt.Errorf("failed to create consumer %s: %w", name, err)
		}

		s.logger.Info("JetStream consumer created successfully")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"consumer":    info.Name,
		"pending":     info.NumPending,
		"redelivered": info.NumRedelivered,
		"ack_pending": info.NumAckPending,
	}).Info("JetStream consumer already exists")

	return nil
}
