// Package eventbus is a synchronous in-process pub/sub used to pass
// ephemeral UI signals (captions, phase changes) from the story side to the
// presentation side without either holding a reference to the other.
//
// Nothing is buffered or replayed: a subscriber only sees events published
// while it is registered.
package eventbus

import "sync"

// Event names.
const (
	// EventSubtitle carries the current caption string; "" clears it.
	EventSubtitle = "subtitle"
	// EventPhase carries a PhaseEvent when a phase starts.
	EventPhase = "phase"
	// EventRunState carries the sequencer state name on every transition.
	EventRunState = "run_state"
)

// PhaseEvent is the payload of EventPhase.
type PhaseEvent struct {
	Index int
	Name  string
}

// Handler receives the payload of a published event.
type Handler func(payload any)

// Subscription identifies one registration. Go funcs are not comparable, so
// the subscription itself is the handler identity used for removal.
type Subscription struct {
	Event   string
	id      uint64
	handler Handler
}

// Bus is safe for concurrent use. Dispatch happens on the publisher's
// goroutine, in registration order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]*Subscription
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]*Subscription)}
}

// Subscribe registers handler for event. Registering the same function
// twice creates two independent subscriptions.
func (b *Bus) Subscribe(event string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{Event: event, id: b.nextID, handler: handler}
	b.subs[event] = append(b.subs[event], sub)
	return sub
}

// Unsubscribe removes sub from event. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(event string, sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	lst := b.subs[event]
	out := make([]*Subscription, 0, len(lst))
	for _, s := range lst {
		if s != sub {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		delete(b.subs, event)
	} else {
		b.subs[event] = out
	}
}

// Publish calls every handler registered for event with payload. Handlers
// may subscribe or unsubscribe while being dispatched; the change applies
// to the next Publish.
func (b *Bus) Publish(event string, payload any) {
	b.mu.RLock()
	subs := append([]*Subscription(nil), b.subs[event]...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.handler(payload)
	}
}

// Count returns the number of registrations for event.
func (b *Bus) Count(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[event])
}

// Default is the process-wide bus. Subscribers own their lifecycle and must
// unsubscribe on teardown.
var Default = New()

// Subscribe registers handler on the Default bus.
func Subscribe(event string, handler Handler) *Subscription {
	return Default.Subscribe(event, handler)
}

// Unsubscribe removes sub from the Default bus.
func Unsubscribe(event string, sub *Subscription) {
	Default.Unsubscribe(event, sub)
}

// Publish dispatches on the Default bus.
func Publish(event string, payload any) {
	Default.Publish(event, payload)
}
