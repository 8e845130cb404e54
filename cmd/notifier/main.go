// Command notifier consumes checkout and session events from RabbitMQ and
// turns them into user-facing notifications. Delivery is a structured log
// line for now.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/asesorame/asesorame/internal/events"
	pkgcfg "github.com/asesorame/asesorame/pkg/config"
	"github.com/asesorame/asesorame/pkg/logging"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := pkgcfg.Load()
	pkgcfg.MustNonEmpty(cfg.RabbitMQURL, "RABBITMQ_URL")

	logger := logging.New(cfg.LogLevel).With("service", "notifier")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queues := []string{events.TopicCheckout, events.TopicSession}
	log.Printf("notifier consuming %v", queues)

	err := events.Consume(ctx, cfg.RabbitMQURL, queues, notify(logger), logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consume: %v", err)
	}
	log.Println("notifier stopped")
}

func notify(l *slog.Logger) events.Handler {
	return func(_ context.Context, queue string, event map[string]any) error {
		to, msg, ok := describe(event)
		if !ok {
			l.Debug("event_ignored", "queue", queue, "type", event["type"])
			return nil
		}
		l.Info("notification", "queue", queue, "type", event["type"], "to", to, "message", msg)
		return nil
	}
}

// describe picks the recipient and text for the events users care about.
func describe(event map[string]any) (to, msg string, ok bool) {
	str := func(k string) string {
		if v, ok := event[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}

	switch str("type") {
	case "session_created":
		return str("advisorID"), fmt.Sprintf("New session booked for %s at %s", str("date"), str("time")), true
	case "session_status_changed":
		return str("sessionID"), fmt.Sprintf("Session is now %s (payment %s)", str("to"), str("paymentStatus")), true
	case "session_deleted":
		return str("advisorID"), "A session was cancelled by its participants", true
	case "session_rated":
		return str("advisorID"), fmt.Sprintf("You received a %s-star rating", str("score")), true
	case "payment_link_created":
		return str("email"), fmt.Sprintf("Your payment link for %s is ready", str("totalPrice")), true
	}
	return "", "", false
}
