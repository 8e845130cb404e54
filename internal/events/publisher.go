// Package events publishes domain events to Kafka topics and RabbitMQ queues.
package events

import (
	"context"
	"errors"
)

const (
	TopicUser     = "user_events"
	TopicCart     = "cart_events"
	TopicSession  = "session_events"
	TopicCheckout = "checkout_events"
)

// Topics lists every topic the API publishes to.
var Topics = []string{TopicUser, TopicCart, TopicSession, TopicCheckout}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                       { return nil }

// Fanout sends every event to all of its publishers and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, topic, key string, event any) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, topic, key, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
