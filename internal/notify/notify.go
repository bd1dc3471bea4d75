// Package notify is an in-process pub/sub hub for user-facing toast
// events. Publishers never block: slow or absent subscribers drop
// events, and a short replay buffer lets a reconnecting client catch
// up on what it missed.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event toast kinds.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

type Event struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// subscriber channels are buffered; a full buffer drops the event
// rather than stalling the publisher.
const subscriberBuffer = 16

type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	recent []Event
	keep   time.Duration
	now    func() time.Time
}

// NewHub returns a hub that replays events younger than keep to new
// subscribers.
func NewHub(keep time.Duration) *Hub {
	return &Hub{
		subs: make(map[chan Event]struct{}),
		keep: keep,
		now:  time.Now,
	}
}

// Publish fans an event out to all subscribers and appends it to the
// replay buffer.
func (h *Hub) Publish(ctx context.Context, kind, message string) {
	ev := Event{
		ID:      uuid.New().String(),
		Kind:    kind,
		Message: message,
		At:      h.now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.evictStale()
	h.recent = append(h.recent, ev)

	dropped := 0
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		slog.WarnContext(ctx, "Dropped notification for slow subscribers",
			"kind", kind, "dropped", dropped)
	}
}

// Subscribe registers a new listener and returns its channel along
// with an unsubscribe func. The channel is closed on unsubscribe.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	_, ch, cancel := h.SubscribeWithReplay()
	return ch, cancel
}

// SubscribeWithReplay snapshots the replay buffer and registers the
// listener under one lock, so an event published while the caller
// connects lands in exactly one of the two: the snapshot or the
// channel, never both.
func (h *Hub) SubscribeWithReplay() ([]Event, <-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.evictStale()
	replay := make([]Event, len(h.recent))
	copy(replay, h.recent)
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return replay, ch, cancel
}

// Recent returns a copy of the replay buffer, oldest first.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.evictStale()
	out := make([]Event, len(h.recent))
	copy(out, h.recent)
	return out
}

// evictStale drops buffered events older than keep. Callers hold mu.
func (h *Hub) evictStale() {
	cutoff := h.now().Add(-h.keep)
	i := 0
	for i < len(h.recent) && h.recent[i].At.Before(cutoff) {
		i++
	}
	if i > 0 {
		h.recent = append([]Event(nil), h.recent[i:]...)
	}
}
