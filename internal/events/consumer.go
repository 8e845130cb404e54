package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery. A returned error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, queue string, event map[string]any) error

// Consume reads the given queues until ctx is cancelled, reconnecting with
// exponential backoff when the broker goes away.
func Consume(ctx context.Context, url string, queues []string, h Handler, l *slog.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			l.Warn("consumer_dial_failed", "error", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queues, h, l)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.Warn("consumer_loop_ended", "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

type delivery struct {
	queue string
	amqp.Delivery
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queues []string, h Handler, l *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		l.Warn("consumer_qos_failed", "error", err)
	}

	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)

	for _, q := range queues {
		if err := DeclareQueue(ch, q); err != nil {
			return err
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(q string, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- delivery{queue: q, Delivery: d}:
				case <-done:
					return
				}
			}
		}(q, msgs)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	return dispatch(ctx, merged, connClosed, chClosed, h, l)
}

// dispatch hands deliveries to h until ctx ends or either the connection or
// the channel closes. A channel-level exception leaves the connection open,
// so both are watched.
func dispatch(ctx context.Context, merged <-chan delivery, connClosed, chClosed <-chan *amqp.Error, h Handler, l *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-connClosed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("connection closed")
		case amqpErr := <-chClosed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("channel closed")
		case d := <-merged:
			var ev map[string]any
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				l.Warn("consumer_bad_message", "queue", d.queue, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			if err := h(ctx, d.queue, ev); err != nil {
				l.Warn("consumer_handle_failed", "queue", d.queue, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
