package game

import (
	"sync"
	"time"

	"kitchenrush/internal/models"
)

// EventType names something that happened in a session
type EventType string

const (
	EventStationTriggered EventType = "station_triggered"
	EventOrderAdmitted    EventType = "order_admitted"
	EventOrderPickedUp    EventType = "order_picked_up"
	EventPickupRefused    EventType = "pickup_refused"
	EventStepCompleted    EventType = "step_completed"
	EventOrderCompleted   EventType = "order_completed"
	EventOrderFailed      EventType = "order_failed"
	EventQuestionOpened   EventType = "question_opened"
	EventQuestionAnswered EventType = "question_answered"
	EventMechanicStarted  EventType = "mechanic_started"
	EventMechanicFinished EventType = "mechanic_finished"
	EventSessionEnded     EventType = "session_ended"
)

// Event is published on a session's bus
type Event struct {
	Type      EventType          `json:"type"`
	SessionID string             `json:"session_id"`
	Station   models.StationType `json:"station,omitempty"`
	OrderID   string             `json:"order_id,omitempty"`
	Recipe    string             `json:"recipe,omitempty"`
	Success   bool               `json:"success"`
	Elapsed   time.Duration      `json:"elapsed,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// Bus fans session events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	closed bool
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a function that cancels the
// subscription. The channel is closed on cancel or when the bus closes.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers e to every subscriber with room for it
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close closes every subscription; later publishes are dropped
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
