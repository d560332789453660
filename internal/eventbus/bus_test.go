package eventbus

import (
	"testing"
	"time"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	t.Parallel()

	b := New()
	a, unsubA := b.Subscribe(4)
	defer unsubA()
	c, unsubC := b.Subscribe(4)
	defer unsubC()

	b.Publish(Event{Type: "batch.started", Data: 7})

	for name, ch := range map[string]<-chan Event{"a": a, "c": c} {
		select {
		case e := <-ch:
			if e.Type != "batch.started" || e.Data != 7 {
				t.Fatalf("subscriber %s got %+v", name, e)
			}
			if e.Time.IsZero() {
				t.Fatalf("subscriber %s: timestamp not stamped", name)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s got nothing", name)
		}
	}
}

func TestPublishDropsWhenSubscriberIsFull(t *testing.T) {
	t.Parallel()

	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: "first"})
	b.Publish(Event{Type: "second"}) // buffer full, must not block

	e := <-ch
	if e.Type != "first" {
		t.Fatalf("got %q, want first", e.Type)
	}
	select {
	case e := <-ch:
		t.Fatalf("unexpected extra event %+v", e)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	b := New()
	ch, unsub := b.Subscribe(4)
	unsub()
	unsub() // idempotent

	b.Publish(Event{Type: "late"})

	// Channel is closed; a receive yields the zero event immediately.
	if e, ok := <-ch; ok {
		t.Fatalf("got %+v on unsubscribed channel", e)
	}
}

func TestPublishSurvivesConcurrentUnsubscribe(t *testing.T) {
	t.Parallel()

	b := New()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, unsub := b.Subscribe(1)
			unsub()
		}
	}()
	for i := 0; i < 200; i++ {
		b.Publish(Event{Type: "tick"})
	}
	<-done
}
