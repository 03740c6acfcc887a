package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcher_Subscribe(t *testing.T) {
	d := NewDispatcher()

	var got []string
	d.Subscribe("deleted", func(_ context.Context, e DomainEvent) error {
		got = append(got, "deleted:"+e.EventType())
		return nil
	}, EventTypeFeedbackDeleted)
	d.Subscribe("all", func(_ context.Context, e DomainEvent) error {
		got = append(got, "all:"+e.EventType())
		return nil
	})

	ctx := context.Background()
	if err := d.Publish(ctx, FeedbackDeleted{BaseEvent: NewBaseEvent(EventTypeFeedbackDeleted, 1), ID: 3}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := d.Publish(ctx, NewBaseEvent(EventTypeStatsLoaded, 1)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	want := []string{"deleted:feedback.deleted", "all:feedback.deleted", "all:stats.loaded"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if n := d.SubscriberCount(EventTypeFeedbackDeleted); n != 2 {
		t.Errorf("SubscriberCount = %d, want 2", n)
	}
	if n := d.SubscriberCount(Wildcard); n != 1 {
		t.Errorf("wildcard SubscriberCount = %d, want 1", n)
	}
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	unsubscribe := d.Subscribe("counter", func(context.Context, DomainEvent) error {
		calls++
		return nil
	})

	ev := NewBaseEvent(EventTypeSessionReset, 2)
	_ = d.Publish(context.Background(), ev)
	unsubscribe()
	_ = d.Publish(context.Background(), ev)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if n := d.SubscriberCount(EventTypeSessionReset); n != 0 {
		t.Errorf("expected no subscribers, got %d", n)
	}
}

func TestDispatcher_CollectsErrors(t *testing.T) {
	d := NewDispatcher()
	errA := errors.New("a")
	errB := errors.New("b")
	secondRan := false

	d.Subscribe("a", func(context.Context, DomainEvent) error { return errA })
	d.Subscribe("b", func(context.Context, DomainEvent) error {
		secondRan = true
		return errB
	})

	err := d.Publish(context.Background(), NewBaseEvent(EventTypeFeedbackLoaded, 1))
	var de *DispatchError
	if !errors.As(err, &de) || len(de.Errors) != 2 {
		t.Fatalf("expected DispatchError with 2 errors, got %v", err)
	}
	if !secondRan {
		t.Error("expected every handler to run")
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both errors to be reachable, got %v", err)
	}
}
