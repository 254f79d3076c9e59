// Package consumer materializes change events from Kafka into the feed.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"lineage/internal/changefeed"
	"lineage/internal/changefeed/feed"
	"lineage/internal/platform/kafka"
)

// FeedHandler writes each consumed event into the feed store.
type FeedHandler struct {
	store  feed.Store
	logger *slog.Logger
}

func NewFeedHandler(store feed.Store, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{store: store, logger: logger}
}

// Handle stores one event. Malformed messages are logged and skipped so they
// do not block the partition; storage failures are returned for redelivery.
func (h *FeedHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		h.logger.ErrorContext(ctx, "skipping change event with malformed key",
			"key", string(msg.Key),
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	var ev changefeed.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		h.logger.ErrorContext(ctx, "skipping undecodable change event",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}
	if ev.ID != eventID {
		h.logger.WarnContext(ctx, "change event key and body disagree, using key",
			"key", eventID,
			"body_id", ev.ID,
		)
		ev.ID = eventID
	}
	if len(ev.PersonIDs) == 0 {
		h.logger.WarnContext(ctx, "change event names no persons", "event_id", eventID, "kind", ev.Kind)
		return nil
	}

	if err := h.store.Append(ctx, ev); err != nil {
		return fmt.Errorf("store feed event %s: %w", eventID, err)
	}
	h.logger.DebugContext(ctx, "stored change event",
		"event_id", eventID,
		"kind", ev.Kind,
		"persons", len(ev.PersonIDs),
	)
	return nil
}
