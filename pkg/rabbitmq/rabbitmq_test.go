package rabbitmq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ackRecorder struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked++; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(uint64, bool) error { return nil }

func delivery(t *testing.T, ack amqp.Acknowledger, body interface{}) amqp.Delivery {
	t.Helper()
	raw, ok := body.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: raw}
}

func TestDeliver(t *testing.T) {
	c := &Client{logger: zap.NewNop()}
	ev := CustomerEvent{Type: CustomerCreated, CustomerID: "c-1", Source: "a", OccurredAt: time.Now().UTC()}

	t.Run("acks handled events", func(t *testing.T) {
		ack := &ackRecorder{}
		var got CustomerEvent
		c.deliver(delivery(t, ack, ev), func(e CustomerEvent) error { got = e; return nil })
		assert.Equal(t, 1, ack.acked)
		assert.Equal(t, "c-1", got.CustomerID)
		assert.Equal(t, CustomerCreated, got.Type)
	})

	t.Run("drops undecodable bodies", func(t *testing.T) {
		ack := &ackRecorder{}
		called := false
		c.deliver(delivery(t, ack, []byte("{not json")), func(CustomerEvent) error { called = true; return nil })
		assert.False(t, called)
		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("requeues on handler failure", func(t *testing.T) {
		ack := &ackRecorder{}
		c.deliver(delivery(t, ack, ev), func(CustomerEvent) error { return errors.New("db down") })
		assert.Equal(t, 1, ack.nacked)
		assert.True(t, ack.requeue)
		assert.Equal(t, 0, ack.acked)
	})
}

func TestPublishWithoutChannel(t *testing.T) {
	c := &Client{logger: zap.NewNop()}
	assert.Error(t, c.PublishCustomerEvent(CustomerEvent{Type: CustomerUpdated}))
	assert.Error(t, c.ConsumeCustomerEvents(func(CustomerEvent) error { return nil }))
}
