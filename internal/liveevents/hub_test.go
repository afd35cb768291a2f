package liveevents

import (
	"testing"
	"time"
)

func TestPublishReachesRoomSubscribers(t *testing.T) {
	hub := NewHub()

	sub, backlog, err := hub.Subscribe("100")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()
	if len(backlog) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(backlog))
	}

	hub.Publish("100", Event{Name: EventNewBid, Payload: map[string]any{"amount": 75.0}})

	select {
	case event := <-sub.Events():
		if event.Name != EventNewBid {
			t.Fatalf("expected %s, got %s", EventNewBid, event.Name)
		}
		if event.ArtworkID != "100" {
			t.Fatalf("expected room 100, got %s", event.ArtworkID)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe("200")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	hub.Publish("300", Event{Name: EventNewBid})

	select {
	case event := <-sub.Events():
		t.Fatalf("unexpected event from another room: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLateJoinerReceivesBacklog(t *testing.T) {
	hub := NewHub()

	first, _, err := hub.Subscribe("400")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer first.Close()

	hub.Publish("400", Event{Name: EventNewBid})
	hub.Publish("400", Event{Name: EventPaymentRequired})

	_, backlog, err := hub.Subscribe("400")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(backlog) != 2 {
		t.Fatalf("expected 2 backlog events, got %d", len(backlog))
	}
	if backlog[1].Name != EventPaymentRequired {
		t.Fatalf("expected %s last, got %s", EventPaymentRequired, backlog[1].Name)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Publish("500", Event{Name: EventNewBid})
	hub.Publish("", Event{Name: EventNewBid})
}
