package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcker struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *fakeAcker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcker) Nack(tag uint64, _, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *fakeAcker) Reject(tag uint64, _ bool) error { return a.Nack(tag, false, false) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatch_AcksHandledAndReturnsOnChannelClose(t *testing.T) {
	t.Parallel()

	acker := &fakeAcker{}
	merged := make(chan delivery)
	connClosed := make(chan *amqp.Error, 1)
	chClosed := make(chan *amqp.Error, 1)

	var seen []string
	h := func(_ context.Context, queue string, ev map[string]any) error {
		seen = append(seen, queue+":"+ev["type"].(string))
		if ev["type"] == "reject_me" {
			return errors.New("nope")
		}
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- dispatch(context.Background(), merged, connClosed, chClosed, h, quietLogger())
	}()

	merged <- delivery{queue: TopicSession, Delivery: amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: []byte(`{"type":"session_created"}`)}}
	merged <- delivery{queue: TopicSession, Delivery: amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte(`not json`)}}
	merged <- delivery{queue: TopicCheckout, Delivery: amqp.Delivery{Acknowledger: acker, DeliveryTag: 3, Body: []byte(`{"type":"reject_me"}`)}}
	chClosed <- &amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED"}

	select {
	case err := <-done:
		var amqpErr *amqp.Error
		require.ErrorAs(t, err, &amqpErr)
		assert.Equal(t, amqp.PreconditionFailed, amqpErr.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return after the channel closed")
	}

	assert.Equal(t, []string{TopicSession + ":session_created", TopicCheckout + ":reject_me"}, seen)
	assert.Equal(t, []uint64{1}, acker.acked)
	assert.Equal(t, []uint64{2, 3}, acker.nacked)
}

func TestDispatch_ClosedNotifiersEndTheLoop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		conn    bool
		wantMsg string
	}{
		{name: "channel", wantMsg: "channel closed"},
		{name: "connection", conn: true, wantMsg: "connection closed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			connClosed := make(chan *amqp.Error)
			chClosed := make(chan *amqp.Error)
			if tt.conn {
				close(connClosed)
			} else {
				close(chClosed)
			}

			err := dispatch(context.Background(), make(chan delivery), connClosed, chClosed, nil, quietLogger())
			require.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestDispatch_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := dispatch(ctx, make(chan delivery), make(chan *amqp.Error), make(chan *amqp.Error), nil, quietLogger())
	require.ErrorIs(t, err, context.Canceled)
}
