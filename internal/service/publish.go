package service

import (
	"context"
	"time"

	"github.com/asesorame/asesorame/internal/events"
	"github.com/asesorame/asesorame/pkg/logging"
)

const publishTimeout = 5 * time.Second

// publish runs after commit; a failed publish is logged and never reaches
// the caller.
func publish(ctx context.Context, pub events.Publisher, topic, key string, event map[string]any) {
	if pub == nil {
		return
	}
	event["at"] = time.Now().UTC()

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.Publish(pctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
