package player

import (
	"fmt"
	"io"
	"sync"

	"github.com/ivlev/carrytales/internal/eventbus"
)

// SubtitlePrinter writes each caption to a terminal as it appears.
type SubtitlePrinter struct {
	bus *eventbus.Bus
	sub *eventbus.Subscription

	mu   sync.Mutex
	w    io.Writer
	last string
}

func NewSubtitlePrinter(bus *eventbus.Bus, w io.Writer) *SubtitlePrinter {
	p := &SubtitlePrinter{bus: bus, w: w}
	p.sub = bus.Subscribe(eventbus.EventSubtitle, p.onSubtitle)
	return p
}

func (p *SubtitlePrinter) onSubtitle(payload any) {
	text, _ := payload.(string)
	p.mu.Lock()
	defer p.mu.Unlock()
	if text == "" || text == p.last {
		p.last = text
		return
	}
	p.last = text
	fmt.Fprintf(p.w, "» %s\n", text)
}

func (p *SubtitlePrinter) Close() {
	p.bus.Unsubscribe(eventbus.EventSubtitle, p.sub)
}
