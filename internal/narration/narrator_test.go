package narration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ivlev/carrytales/internal/eventbus"
	"github.com/ivlev/carrytales/internal/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type captions struct {
	mu  sync.Mutex
	got []string
}

func record(bus *eventbus.Bus) *captions {
	c := &captions{}
	bus.Subscribe(eventbus.EventSubtitle, func(payload any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.got = append(c.got, payload.(string))
	})
	return c
}

func (c *captions) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

// manualDelay hands out delays that the test resolves explicitly.
type manualDelay struct {
	mu       sync.Mutex
	asked    []time.Duration
	resolves []func()
}

func (m *manualDelay) delay(d time.Duration) *task.Task {
	t, resolve := task.New()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asked = append(m.asked, d)
	m.resolves = append(m.resolves, resolve)
	return t
}

func (m *manualDelay) fire(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolves[i]()
}

func wait(t *testing.T, tk *task.Task) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tk.Wait(ctx))
}

func TestSilentCaptionTiming(t *testing.T) {
	bus := eventbus.New()
	caps := record(bus)
	md := &manualDelay{}
	n := New(Options{Bus: bus, Delay: md.delay})

	tk := n.Speak("hello")
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, md.asked)
	assert.False(t, tk.IsResolved())
	assert.Equal(t, []string{"hello"}, caps.list())

	md.fire(0)
	wait(t, tk)
	assert.Equal(t, []string{"hello", ""}, caps.list())
}

func TestSpeakSupersedes(t *testing.T) {
	bus := eventbus.New()
	caps := record(bus)
	md := &manualDelay{}
	n := New(Options{Bus: bus, Delay: md.delay})

	first := n.Speak("one")
	second := n.Speak("two")
	wait(t, first)
	assert.False(t, second.IsResolved())

	// The superseded timer firing late must not clear the new caption.
	md.fire(0)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"one", "", "two"}, caps.list())

	md.fire(1)
	wait(t, second)
	assert.Equal(t, []string{"one", "", "two", ""}, caps.list())
}

type blockingSpeaker struct {
	started chan string
	err     error
}

func (b *blockingSpeaker) Speak(ctx context.Context, text string) error {
	b.started <- text
	if b.err != nil {
		return b.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestStopInterruptsSpeech(t *testing.T) {
	bus := eventbus.New()
	caps := record(bus)
	sp := &blockingSpeaker{started: make(chan string, 1)}
	n := New(Options{Bus: bus, Speaker: sp})

	tk := n.Speak("Welcome to Carry Tales!")
	assert.Equal(t, "Welcome to Carry Tales!", <-sp.started)

	n.Stop()
	assert.True(t, tk.IsResolved())
	n.Stop()
	assert.Equal(t, []string{"Welcome to Carry Tales!", "", ""}, caps.list())
}

func TestSpeakerErrorFinishesUtterance(t *testing.T) {
	bus := eventbus.New()
	caps := record(bus)
	sp := &blockingSpeaker{started: make(chan string, 1), err: errors.New("no audio device")}
	n := New(Options{Bus: bus, Speaker: sp})

	wait(t, n.Speak("hi"))
	assert.Equal(t, []string{"hi", ""}, caps.list())
}

func TestMuteCutsSpeech(t *testing.T) {
	bus := eventbus.New()
	caps := record(bus)
	sp := &blockingSpeaker{started: make(chan string, 1)}
	n := New(Options{Bus: bus, Speaker: sp})

	tk := n.Speak("carry the one")
	<-sp.started
	n.SetMuted(true)
	wait(t, tk)
	assert.True(t, n.Muted())
	assert.Equal(t, []string{"carry the one", ""}, caps.list())

	md := &manualDelay{}
	n.delay = md.delay
	tk = n.Speak("quiet")
	require.Len(t, md.asked, 1, "muted narration falls back to reading time")
	md.fire(0)
	wait(t, tk)
}

func TestEmptyTextResolvesImmediately(t *testing.T) {
	bus := eventbus.New()
	caps := record(bus)
	n := New(Options{Bus: bus})
	assert.True(t, n.Speak("  ").IsResolved())
	assert.Equal(t, []string{"  ", ""}, caps.list())
}

func TestCommandSpeakerArgs(t *testing.T) {
	tests := []struct {
		name    string
		speaker CommandSpeaker
		want    []string
	}{
		{
			name:    "espeak",
			speaker: CommandSpeaker{Path: "/usr/bin/espeak-ng", Voice: Voice{Rate: 0.85, Pitch: 1.1, Lang: "en-US"}},
			want:    []string{"-s", "149", "-p", "55", "-v", "en-us", "hi"},
		},
		{
			name:    "defaults",
			speaker: CommandSpeaker{Path: "espeak"},
			want:    []string{"-s", "175", "-p", "50", "hi"},
		},
		{
			name:    "pitch clamped",
			speaker: CommandSpeaker{Path: "espeak", Voice: Voice{Rate: 1, Pitch: 3}},
			want:    []string{"-s", "175", "-p", "99", "hi"},
		},
		{
			name:    "say",
			speaker: CommandSpeaker{Path: "/usr/bin/say", Voice: Voice{Rate: 2}},
			want:    []string{"-r", "350", "hi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.speaker.Args("hi"))
		})
	}
}
