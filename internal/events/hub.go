// Package events fans out per-user change notifications to live listeners.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published by the services.
const (
	TypeGoalsUpdated      = "goals.updated"
	TypeWorkoutsChanged   = "workouts.changed"
	TypeFoodChanged       = "food.changed"
	TypeMealPlansChanged  = "mealplans.changed"
	defaultListenerBuffer = 16
)

type Event struct {
	Type string    `json:"type"`
	ID   string    `json:"id,omitempty"`
	At   time.Time `json:"at"`
}

// Publisher is what services depend on. A nil Publisher is never passed;
// use Discard when events are not wanted.
type Publisher interface {
	Publish(userID uuid.UUID, ev Event)
}

type discard struct{}

func (discard) Publish(uuid.UUID, Event) {}

// Discard drops every event.
var Discard Publisher = discard{}

type subscriber struct {
	ch chan Event
}

// Hub keeps the listeners of every user. Delivery never blocks the publisher:
// a listener whose buffer is full misses the event.
type Hub struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]map[*subscriber]struct{}
	buffer  int
	dropped uint64
	now     func() time.Time

	onPublish func(Event)
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*subscriber]struct{}),
		buffer: defaultListenerBuffer,
		now:    time.Now,
	}
}

// Subscribe registers a listener for userID. The returned cancel func is
// idempotent and closes the channel.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[userID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[userID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// OnPublish installs a callback invoked for every published event, listeners or not.
// It must be set before the hub is shared.
func (h *Hub) OnPublish(fn func(Event)) {
	h.onPublish = fn
}

func (h *Hub) Publish(userID uuid.UUID, ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now().UTC()
	}
	if h.onPublish != nil {
		h.onPublish(ev)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- ev:
		default:
			h.dropped++
		}
	}
}

// Listeners returns the number of active listeners for userID.
func (h *Hub) Listeners(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Dropped returns how many deliveries were skipped because a listener was full.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
