// Package narration speaks phase texts and publishes captions on the event
// bus. Without a speech backend, or while muted, captions stay up for a
// reading time proportional to their length.
package narration

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ivlev/carrytales/internal/eventbus"
	xlog "github.com/ivlev/carrytales/internal/log"
	"github.com/ivlev/carrytales/internal/task"
)

// ReadingTimePerRune is how long a caption stays up per character when
// nothing is spoken.
const ReadingTimePerRune = 60 * time.Millisecond

// Speaker turns text into audible speech and returns when done. It must
// return promptly once ctx is cancelled.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Options configures a Narrator.
type Options struct {
	Bus     *eventbus.Bus
	Speaker Speaker
	// Delay times silent captions. Defaults to the wall clock.
	Delay  func(d time.Duration) *task.Task
	Muted  bool
	Logger *zerolog.Logger
}

type utterance struct {
	cancel  context.CancelFunc
	resolve func()
}

// Narrator speaks one text at a time. A new Speak supersedes the previous
// one.
type Narrator struct {
	bus     *eventbus.Bus
	speaker Speaker
	delay   func(time.Duration) *task.Task
	logger  zerolog.Logger

	mu    sync.Mutex
	muted bool
	cur   *utterance
}

// New returns a narrator.
func New(opts Options) *Narrator {
	n := &Narrator{
		bus:     opts.Bus,
		speaker: opts.Speaker,
		delay:   opts.Delay,
		muted:   opts.Muted,
	}
	if n.bus == nil {
		n.bus = eventbus.Default
	}
	if n.delay == nil {
		n.delay = task.After
	}
	if opts.Logger != nil {
		n.logger = *opts.Logger
	} else {
		n.logger = xlog.WithComponent("narration")
	}
	return n
}

// Speak stops any current utterance, shows text as a caption, and speaks
// it. The returned task resolves when speech ends or is superseded, and
// the caption is cleared unless another utterance has replaced it.
func (n *Narrator) Speak(text string) *task.Task {
	t, resolve := task.New()
	ctx, cancel := context.WithCancel(context.Background())
	u := &utterance{cancel: cancel, resolve: resolve}

	n.mu.Lock()
	prev := n.cur
	n.cur = u
	muted := n.muted
	n.mu.Unlock()

	if prev != nil {
		prev.cancel()
		prev.resolve()
		n.bus.Publish(eventbus.EventSubtitle, "")
	}
	n.bus.Publish(eventbus.EventSubtitle, text)

	if strings.TrimSpace(text) == "" {
		n.finish(u)
		return t
	}

	if muted || n.speaker == nil {
		wait := n.delay(time.Duration(utf8.RuneCountInString(text)) * ReadingTimePerRune)
		go func() {
			select {
			case <-wait.Done():
			case <-ctx.Done():
			}
			n.finish(u)
		}()
		return t
	}

	go func() {
		if err := n.speaker.Speak(ctx, text); err != nil && ctx.Err() == nil {
			n.logger.Warn().
				Err(err).
				Str(xlog.FieldEvent, "narration.speak_failed").
				Msg("speech backend failed, treating utterance as finished")
		}
		n.finish(u)
	}()
	return t
}

// finish ends u. Only the current utterance clears the caption.
func (n *Narrator) finish(u *utterance) {
	n.mu.Lock()
	current := n.cur == u
	if current {
		n.cur = nil
	}
	n.mu.Unlock()

	u.cancel()
	if current {
		n.bus.Publish(eventbus.EventSubtitle, "")
	}
	u.resolve()
}

// Stop interrupts the current utterance, resolves its task, and clears the
// caption. It is safe to call at any time and more than once.
func (n *Narrator) Stop() {
	n.mu.Lock()
	u := n.cur
	n.cur = nil
	n.mu.Unlock()

	if u != nil {
		u.cancel()
		u.resolve()
	}
	n.bus.Publish(eventbus.EventSubtitle, "")
}

// SetMuted switches speech off or on. Muting cuts off speech in progress;
// its caption is cleared when the speaker returns.
func (n *Narrator) SetMuted(muted bool) {
	n.mu.Lock()
	n.muted = muted
	u := n.cur
	n.mu.Unlock()

	if muted && u != nil && n.speaker != nil {
		u.cancel()
	}
}

// Muted reports whether speech is off.
func (n *Narrator) Muted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.muted
}
