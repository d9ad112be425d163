package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/metrics"
)

type fakeMsg struct {
	acked, naked int
}

func (m *fakeMsg) Ack(...nats.AckOpt) error {
	m.acked++
	return nil
}

func (m *fakeMsg) Nak(...nats.AckOpt) error {
	m.naked++
	return nil
}

func TestExponentialBackoff(t *testing.T) {
	assert.Nil(t, exponentialBackoff(1))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, exponentialBackoff(3))
	assert.Len(t, exponentialBackoff(MaxDeliveryAttempts), MaxDeliveryAttempts-1)
}

func TestSettings(t *testing.T) {
	stream := streamSettings()
	assert.Equal(t, StreamName, stream.Name)
	assert.Equal(t, []string{Subject}, stream.Subjects)
	assert.Equal(t, nats.InterestPolicy, stream.Retention)

	consumer := consumerSettings(NotifierConsumer)
	assert.Equal(t, NotifierConsumer, consumer.Durable)
	assert.Equal(t, nats.AckExplicitPolicy, consumer.AckPolicy)
	assert.Equal(t, MaxDeliveryAttempts, consumer.MaxDeliver)
	assert.Len(t, consumer.BackOff, MaxDeliveryAttempts-1)
}

func TestConsumer_HandleAcksOnSuccess(t *testing.T) {
	c := &Consumer{name: "test-ok", logger: logger.New("test")}
	msg := &fakeMsg{}
	before := testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("test-ok", "ok"))

	var got []byte
	c.handle(context.Background(), []byte(`{"event_type":"review.created"}`), msg, func(_ context.Context, data []byte) error {
		got = data
		return nil
	})

	assert.JSONEq(t, `{"event_type":"review.created"}`, string(got))
	assert.Equal(t, 1, msg.acked)
	assert.Equal(t, 0, msg.naked)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("test-ok", "ok")))
}

func TestConsumer_HandleNaksOnFailure(t *testing.T) {
	c := &Consumer{name: "test-fail", logger: logger.New("test")}
	msg := &fakeMsg{}
	before := testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("test-fail", "error"))

	c.handle(context.Background(), nil, msg, func(context.Context, []byte) error {
		return errors.New("database unavailable")
	})

	assert.Equal(t, 0, msg.acked)
	assert.Equal(t, 1, msg.naked)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("test-fail", "error")))
}
