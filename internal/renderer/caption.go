package renderer

import (
	"sync"

	"github.com/ivlev/carrytales/internal/eventbus"
)

// Caption mirrors the subtitle channel of a bus.
type Caption struct {
	bus *eventbus.Bus
	sub *eventbus.Subscription

	mu   sync.Mutex
	text string
}

// NewCaption subscribes to bus. Close must be called on teardown.
func NewCaption(bus *eventbus.Bus) *Caption {
	if bus == nil {
		bus = eventbus.Default
	}
	c := &Caption{bus: bus}
	c.sub = bus.Subscribe(eventbus.EventSubtitle, func(payload any) {
		text, _ := payload.(string)
		c.mu.Lock()
		c.text = text
		c.mu.Unlock()
	})
	return c
}

// Text returns the caption currently shown.
func (c *Caption) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Close unsubscribes from the bus.
func (c *Caption) Close() {
	c.bus.Unsubscribe(eventbus.EventSubtitle, c.sub)
}
