// Package outbox stores change events until the relay has published them.
package outbox

import (
	"time"

	"lineage/internal/changefeed"
)

// Entry is an outbox row.
type Entry struct {
	Event       changefeed.Event
	PublishedAt *time.Time
}
