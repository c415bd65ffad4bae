package api

import "sync"

// EventType identifies a session-lifecycle signal published by the client.
type EventType string

const (
	// EventSessionExpired means the session is unrecoverable and the token
	// store has been cleared. Carries a Reason.
	EventSessionExpired EventType = "session-expired"
	// EventServerError means a request exhausted its retry budget on a 5xx.
	// Carries Status and URL.
	EventServerError EventType = "server-error"
	// EventNetworkError means a request exhausted its retry budget without
	// ever reaching the server.
	EventNetworkError EventType = "network-error"
)

// Reasons for EventSessionExpired.
const (
	ReasonLoginFailed        = "login_failed"
	ReasonRefreshFailed      = "refresh_failed"
	ReasonAccountDeactivated = "account_deactivated"
)

// Event is a session-lifecycle notification. Events are additive
// diagnostics: the request that triggered one still fails with its own
// error. Consumers (connectivity banners, re-login prompts) react to them
// without blocking the client.
type Event struct {
	Type   EventType
	Reason string // set for session-expired
	Status int    // set for server-error
	URL    string // set for server-error
}

// subscriberBuffer is the channel depth per subscriber. A subscriber that
// falls further behind than this loses events rather than blocking the
// publisher.
const subscriberBuffer = 16

// Bus broadcasts session events to subscribers. Delivery is fire-and-forget
// and at-most-once per triggering failure; Publish never blocks. The zero
// value is not usable — construct with NewBus and inject into NewClient.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its event channel plus a
// cancel function. After cancel returns, the channel is closed and receives
// no further events.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers an event to every current subscriber without blocking.
// Events to a subscriber with a full buffer are dropped.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not keeping up; drop rather than block.
		}
	}
}
