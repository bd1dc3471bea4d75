package notify

import (
	"context"
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	h := NewHub(time.Minute)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(context.Background(), KindSuccess, "Loop added!")

	select {
	case ev := <-ch:
		if ev.Kind != KindSuccess || ev.Message != "Loop added!" {
			t.Fatalf("event = %+v", ev)
		}
		if ev.ID == "" {
			t.Fatalf("event missing id")
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub(time.Minute)
	_, cancel := h.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish(context.Background(), KindInfo, "tick")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(time.Minute)
	ch, cancel := h.Subscribe()
	cancel()
	cancel() // safe twice

	if _, open := <-ch; open {
		t.Fatalf("channel still open after unsubscribe")
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	h.Publish(context.Background(), KindInfo, "after")
}

func TestSubscribeWithReplayDeliversEachEventOnce(t *testing.T) {
	h := NewHub(time.Minute)
	h.Publish(context.Background(), KindSuccess, "before")

	replay, ch, cancel := h.SubscribeWithReplay()
	defer cancel()

	if len(replay) != 1 || replay[0].Message != "before" {
		t.Fatalf("replay = %+v", replay)
	}
	// The pre-subscribe event must not also arrive live.
	select {
	case ev := <-ch:
		t.Fatalf("replayed event delivered twice: %+v", ev)
	default:
	}

	h.Publish(context.Background(), KindInfo, "after")
	select {
	case ev := <-ch:
		if ev.Message != "after" {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("live event not delivered")
	}
}

func TestRecentEvictsStale(t *testing.T) {
	h := NewHub(time.Minute)
	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return current }

	h.Publish(context.Background(), KindInfo, "old")
	current = current.Add(30 * time.Second)
	h.Publish(context.Background(), KindInfo, "newer")

	if got := h.Recent(); len(got) != 2 {
		t.Fatalf("recent = %d events", len(got))
	}

	current = current.Add(45 * time.Second) // "old" is now 75s stale
	got := h.Recent()
	if len(got) != 1 || got[0].Message != "newer" {
		t.Fatalf("eviction wrong: %+v", got)
	}
}
