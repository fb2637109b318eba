package events

import (
	"testing"
	"time"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch1, cancel1 := b.Subscribe(4)
	ch2, cancel2 := b.Subscribe(4)
	defer cancel1()
	defer cancel2()

	b.Publish(BuildStarted{SiteID: 7, Version: 2})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			started, ok := evt.(BuildStarted)
			if !ok || started.SiteID != 7 {
				t.Fatalf("unexpected event %+v", evt)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(BuildStarted{SiteID: 1})
	b.Publish(BuildStarted{SiteID: 2}) // dropped, buffer full

	<-ch
	select {
	case evt := <-ch:
		t.Fatalf("expected second event dropped, got %+v", evt)
	default:
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, cancel := b.Subscribe(1)
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// Publishing after unsubscribe must not panic.
	b.Publish(DeployCompleted{SiteID: 1, Success: true})
}

func TestBusClose(t *testing.T) {
	b := NewBus()
	ch, _ := b.Subscribe(1)
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after bus close")
	}
	b.Publish(BuildStarted{}) // no-op, no panic
	b.Close()                 // idempotent
}

func TestEventKinds(t *testing.T) {
	cases := map[string]Event{
		"build.started":        BuildStarted{},
		"build.completed":      BuildCompleted{},
		"deploy.started":       DeployStarted{},
		"deploy.completed":     DeployCompleted{},
		"deploy.rolled_back":   RolledBack{},
		"generation.completed": GenerationCompleted{},
	}
	for want, evt := range cases {
		if evt.Kind() != want {
			t.Errorf("Kind()=%q want %q", evt.Kind(), want)
		}
	}
}
