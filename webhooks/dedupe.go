package webhooks

import (
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-payments/core"
)

type DedupeOptions struct {
	Window     time.Duration
	MaxEntries int
	Now        func() time.Time
}

// EventDeduper suppresses repeat deliveries of the same event inside a
// short window. Processors redeliver aggressively on slow 2xx, so the
// same (connector, reference, type) triple arrives in bursts.
type EventDeduper struct {
	window     time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewEventDeduper(opts DedupeOptions) *EventDeduper {
	window := opts.Window
	if window <= 0 {
		window = 2 * time.Minute
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &EventDeduper{
		window:     window,
		maxEntries: maxEntries,
		now:        now,
		entries:    map[string]time.Time{},
	}
}

// FirstSeen reports whether this is the first delivery of the event in
// the current window, recording it either way. Events without a
// reference id cannot be deduped and always pass.
func (d *EventDeduper) FirstSeen(connectorID string, event core.WebhookEvent) bool {
	if d == nil {
		return true
	}
	reference := strings.TrimSpace(event.ReferenceID)
	if reference == "" {
		return true
	}
	key := strings.ToLower(connectorID) + ":" + reference + ":" + strings.TrimSpace(event.EventType)

	now := d.now().UTC()
	d.mu.Lock()
	defer d.mu.Unlock()

	lastSeen, exists := d.entries[key]
	d.entries[key] = now
	d.cleanup(now)
	if !exists {
		return true
	}
	return now.Sub(lastSeen) >= d.window
}

func (d *EventDeduper) cleanup(now time.Time) {
	if len(d.entries) <= d.maxEntries {
		for key, seenAt := range d.entries {
			if now.Sub(seenAt) > d.window*4 {
				delete(d.entries, key)
			}
		}
		return
	}
	for key, seenAt := range d.entries {
		if now.Sub(seenAt) > d.window {
			delete(d.entries, key)
		}
		if len(d.entries) <= d.maxEntries {
			break
		}
	}
}
