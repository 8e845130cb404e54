package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type queueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

type rabbitChannel interface {
	queueDeclarer
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type rabbitDialer func() (io.Closer, rabbitChannel, error)

// RabbitPublisher writes each topic to a durable queue of the same name
// through the default exchange. A closed channel or connection is redialed
// on the next publish.
type RabbitPublisher struct {
	mu       sync.Mutex
	dial     rabbitDialer
	conn     io.Closer
	ch       rabbitChannel
	declared map[string]bool
	closed   bool
}

var errPublisherClosed = errors.New("rabbitmq: publisher closed")

func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	return newRabbitPublisher(func() (io.Closer, rabbitChannel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
		}
		return conn, ch, nil
	})
}

func newRabbitPublisher(dial rabbitDialer) (*RabbitPublisher, error) {
	p := &RabbitPublisher{dial: dial}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func DeclareQueue(ch queueDeclarer, name string) error {
	_, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: queue declare %s failed: %w", name, err)
	}
	return nil
}

// connect must be called with mu held.
func (p *RabbitPublisher) connect() error {
	p.drop()
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}
	p.conn, p.ch = conn, ch
	p.declared = map[string]bool{}
	return nil
}

func (p *RabbitPublisher) drop() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    key,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errPublisherClosed
	}
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("rabbitmq: reconnect failed: %w", err)
		}
	}

	err = p.publish(ctx, topic, pub)
	if errors.Is(err, amqp.ErrClosed) {
		if cerr := p.connect(); cerr != nil {
			return fmt.Errorf("rabbitmq: reconnect failed: %w", cerr)
		}
		err = p.publish(ctx, topic, pub)
	}
	return err
}

func (p *RabbitPublisher) publish(ctx context.Context, topic string, pub amqp.Publishing) error {
	if !p.declared[topic] {
		if err := DeclareQueue(p.ch, topic); err != nil {
			return err
		}
		p.declared[topic] = true
	}
	if err := p.ch.PublishWithContext(ctx, "", topic, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish to %s failed: %w", topic, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.ch != nil {
		_ = p.ch.Close()
	}
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	return err
}
