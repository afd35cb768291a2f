package liveevents

import (
	"errors"
	"strings"
	"sync"
)

const (
	EventNewBid           = "new_bid"
	EventPaymentRequired  = "payment_required"
	EventPaymentCompleted = "payment_completed"
	EventPaymentFailed    = "payment_failed"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

// Event is one realtime notification scoped to a single auction room.
type Event struct {
	Name      string         `json:"event"`
	ArtworkID string         `json:"artwork_id"`
	Payload   map[string]any `json:"payload"`
}

// Hub fans events out to subscribers of per-artwork rooms. Publishing
// never blocks; slow subscribers drop events.
type Hub struct {
	mu               sync.RWMutex
	rooms            map[string]*room
	bufferSize       int
	subscriberBuffer int
}

type room struct {
	mu     sync.Mutex
	buffer []Event
	subs   map[uint64]chan Event
	nextID uint64
}

type Subscription struct {
	hub       *Hub
	artworkID string
	id        uint64
	ch        chan Event
	once      sync.Once
}

func NewHub() *Hub {
	return &Hub{
		rooms:            make(map[string]*room),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(artworkID string, event Event) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(artworkID)
	if key == "" {
		return
	}
	if event.ArtworkID == "" {
		event.ArtworkID = key
	}

	h.mu.RLock()
	rm := h.rooms[key]
	h.mu.RUnlock()
	if rm == nil {
		return
	}

	rm.mu.Lock()
	rm.buffer = append(rm.buffer, event)
	if len(rm.buffer) > h.bufferSize {
		rm.buffer = rm.buffer[len(rm.buffer)-h.bufferSize:]
	}
	subs := make([]chan Event, 0, len(rm.subs))
	for _, ch := range rm.subs {
		subs = append(subs, ch)
	}
	rm.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe joins the artwork's room and returns the retained backlog so
// late joiners see recent bids.
func (h *Hub) Subscribe(artworkID string) (*Subscription, []Event, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	key := strings.TrimSpace(artworkID)
	if key == "" {
		return nil, nil, errors.New("invalid_room")
	}

	h.mu.Lock()
	rm := h.rooms[key]
	if rm == nil {
		rm = &room{subs: make(map[uint64]chan Event)}
		h.rooms[key] = rm
	}
	h.mu.Unlock()

	rm.mu.Lock()
	id := rm.nextID
	rm.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	rm.subs[id] = ch
	backlog := make([]Event, len(rm.buffer))
	copy(backlog, rm.buffer)
	rm.mu.Unlock()

	return &Subscription{hub: h, artworkID: key, id: id, ch: ch}, backlog, nil
}

func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.hub.mu.RLock()
		rm := s.hub.rooms[s.artworkID]
		s.hub.mu.RUnlock()
		if rm == nil {
			return
		}
		rm.mu.Lock()
		delete(rm.subs, s.id)
		rm.mu.Unlock()
	})
}
