package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ivlev/carrytales/internal/eventbus"
	"github.com/ivlev/carrytales/internal/scene"
	"github.com/ivlev/carrytales/internal/story"
	"github.com/ivlev/carrytales/internal/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeNarrator struct {
	delay time.Duration

	mu     sync.Mutex
	spoken []string
	stops  int
}

func (n *fakeNarrator) Speak(text string) *task.Task {
	n.mu.Lock()
	n.spoken = append(n.spoken, text)
	n.mu.Unlock()
	return task.After(n.delay)
}

func (n *fakeNarrator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stops++
}

func (n *fakeNarrator) stopCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stops
}

type recorder struct {
	mu        sync.Mutex
	started   []int
	completed []int
	finished  []State
}

func (r *recorder) PhaseStarted(index int, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, index)
}

func (r *recorder) PhaseCompleted(index int, _ string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, index)
}

func (r *recorder) RunFinished(st State, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, st)
}

// countingDelay resolves every settling pause at once and counts them.
type countingDelay struct{ n atomic.Int32 }

func (c *countingDelay) delay(time.Duration) *task.Task {
	c.n.Add(1)
	return task.Resolved()
}

func sleepFor(d time.Duration) story.AnimateFunc {
	return func(ctx context.Context, _ *scene.Scene, _ *story.Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func phases(n int, animate story.AnimateFunc) []story.Phase {
	out := make([]story.Phase, n)
	for i := range out {
		out[i] = story.Phase{Name: fmt.Sprintf("P%d", i), Narration: fmt.Sprintf("text %d", i), Animate: animate}
	}
	return out
}

func newSeq(ps []story.Phase, n Narrator, opts ...Option) *Sequencer {
	opts = append([]Option{WithBus(eventbus.New()), WithLogger(zerolog.Nop())}, opts...)
	return New(ps, scene.New(64, 64), story.NewContext(), n, opts...)
}

func TestVisitsEveryIndexInOrder(t *testing.T) {
	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			rec := &recorder{}
			cd := &countingDelay{}
			seq := newSeq(phases(n, sleepFor(time.Millisecond)), &fakeNarrator{}, WithObserver(rec), WithDelay(cd.delay))

			require.NoError(t, seq.Run(context.Background()))
			assert.Equal(t, Completed, seq.State())
			assert.Equal(t, n-1, seq.CurrentIndex())

			want := make([]int, n)
			for i := range want {
				want[i] = i
			}
			if n == 0 {
				want = nil
			}
			assert.Equal(t, want, rec.started)
			assert.Equal(t, want, rec.completed)
			assert.Equal(t, []State{Completed}, rec.finished)
			assert.EqualValues(t, max(n-1, 0), cd.n.Load(), "one settling pause between each pair of phases")
		})
	}
}

func TestNarrationAndAnimationRunTogether(t *testing.T) {
	narr := &fakeNarrator{}
	seq := newSeq([]story.Phase{{Name: "A", Narration: "hi", Animate: sleepFor(time.Millisecond)}}, narr)
	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, []string{"hi"}, narr.spoken)
}

func TestJoinWaitsForSlowerHalf(t *testing.T) {
	tests := []struct {
		name      string
		narration time.Duration
		animation time.Duration
	}{
		{"narration slower", 150 * time.Millisecond, 10 * time.Millisecond},
		{"animation slower", 10 * time.Millisecond, 150 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := newSeq(phases(1, sleepFor(tt.animation)), &fakeNarrator{delay: tt.narration})
			start := time.Now()
			require.NoError(t, seq.Run(context.Background()))
			assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
		})
	}
}

func TestTwoPhaseTiming(t *testing.T) {
	ps := []story.Phase{
		{Name: "A", Narration: "hi", Animate: sleepFor(100 * time.Millisecond)},
		{Name: "B", Narration: "bye", Animate: sleepFor(50 * time.Millisecond)},
	}
	seq := newSeq(ps, &fakeNarrator{delay: 10 * time.Millisecond})

	start := time.Now()
	require.NoError(t, seq.Run(context.Background()))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 550*time.Millisecond)
	assert.Less(t, elapsed, 800*time.Millisecond)
	assert.Equal(t, 1, seq.CurrentIndex())
	assert.Equal(t, Completed, seq.State())
}

func TestCancelDuringMiddlePhase(t *testing.T) {
	var seq *Sequencer
	var animated [3]atomic.Bool
	var finishedInFlight atomic.Bool

	ps := phases(3, nil)
	for i := range ps {
		ps[i].Animate = func(_ context.Context, _ *scene.Scene, _ *story.Context) error {
			animated[i].Store(true)
			if i == 1 {
				seq.Cancel()
				time.Sleep(30 * time.Millisecond)
				finishedInFlight.Store(true)
			}
			return nil
		}
	}
	narr := &fakeNarrator{}
	cd := &countingDelay{}
	seq = newSeq(ps, narr, WithDelay(cd.delay))

	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, Cancelled, seq.State())
	assert.Equal(t, 1, seq.CurrentIndex())
	assert.True(t, animated[1].Load())
	assert.True(t, finishedInFlight.Load(), "the animation in flight is not interrupted")
	assert.False(t, animated[2].Load(), "no phase starts after cancellation")
	assert.EqualValues(t, 1, cd.n.Load(), "no settling pause after cancellation")
	assert.Equal(t, 1, narr.stopCount())
}

func TestCancelDuringLastPhase(t *testing.T) {
	var seq *Sequencer
	ps := phases(2, sleepFor(time.Millisecond))
	ps[1].Animate = func(context.Context, *scene.Scene, *story.Context) error {
		seq.Cancel()
		return nil
	}
	cd := &countingDelay{}
	seq = newSeq(ps, &fakeNarrator{}, WithDelay(cd.delay))

	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, Cancelled, seq.State())
	assert.Equal(t, 1, seq.CurrentIndex())
	assert.EqualValues(t, 1, cd.n.Load())
}

func TestCancelBeforeStart(t *testing.T) {
	var calls atomic.Int32
	ps := phases(3, func(context.Context, *scene.Scene, *story.Context) error {
		calls.Add(1)
		return nil
	})
	narr := &fakeNarrator{}
	seq := newSeq(ps, narr)
	seq.Cancel()
	seq.Cancel()
	assert.Equal(t, Idle, seq.State())
	assert.True(t, seq.Cancelled())

	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, Cancelled, seq.State())
	assert.Zero(t, calls.Load())
	assert.Equal(t, -1, seq.CurrentIndex())
	assert.Equal(t, 1, narr.stopCount(), "Cancel is idempotent")
}

func TestStartTwiceFails(t *testing.T) {
	seq := newSeq(phases(1, sleepFor(50*time.Millisecond)), &fakeNarrator{})
	done, err := seq.Start(context.Background())
	require.NoError(t, err)
	assert.Same(t, done, seq.Done())

	_, err = seq.Start(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, done.Wait(context.Background()))
	assert.ErrorIs(t, seq.Run(context.Background()), ErrInvalidState)
	assert.Equal(t, Completed, seq.State())
}

func TestFailingPhase(t *testing.T) {
	boom := errors.New("house missing")
	ps := phases(3, sleepFor(time.Millisecond))
	ps[1].Animate = func(context.Context, *scene.Scene, *story.Context) error { return boom }
	narr := &fakeNarrator{delay: time.Second}
	seq := newSeq(ps, narr)

	err := seq.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "P1")
	assert.Equal(t, Failed, seq.State())
	assert.Equal(t, 1, seq.CurrentIndex())
	assert.Equal(t, 1, narr.stopCount())
}

func TestContextEndCancelsRun(t *testing.T) {
	started := make(chan struct{})
	ps := phases(2, func(ctx context.Context, _ *scene.Scene, _ *story.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	narr := &fakeNarrator{}
	seq := newSeq(ps, narr)

	ctx, cancel := context.WithCancel(context.Background())
	done, err := seq.Start(ctx)
	require.NoError(t, err)
	<-started
	cancel()

	require.NoError(t, done.Wait(context.Background()))
	assert.Equal(t, Cancelled, seq.State())
	assert.NoError(t, seq.Err())
	assert.Eventually(t, func() bool { return narr.stopCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestEventsPublished(t *testing.T) {
	bus := eventbus.New()
	var mu sync.Mutex
	var states []string
	var started []eventbus.PhaseEvent
	bus.Subscribe(eventbus.EventRunState, func(p any) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, p.(string))
	})
	bus.Subscribe(eventbus.EventPhase, func(p any) {
		mu.Lock()
		defer mu.Unlock()
		started = append(started, p.(eventbus.PhaseEvent))
	})

	seq := newSeq(phases(2, sleepFor(time.Millisecond)), &fakeNarrator{}, WithBus(bus), WithSettleDelay(time.Millisecond))
	require.NoError(t, seq.Run(context.Background()))

	assert.Equal(t, []string{"running", "completed"}, states)
	assert.Equal(t, []eventbus.PhaseEvent{{Index: 0, Name: "P0"}, {Index: 1, Name: "P1"}}, started)
}

func TestSharedContextFlowsBetweenPhases(t *testing.T) {
	var got string
	ps := []story.Phase{
		{Name: "make", Animate: func(_ context.Context, _ *scene.Scene, c *story.Context) error {
			c.Set("char9", "nine")
			return nil
		}},
		{Name: "use", Animate: func(_ context.Context, _ *scene.Scene, c *story.Context) error {
			got, _ = story.Lookup[string](c, "char9")
			return nil
		}},
	}
	seq := newSeq(ps, &fakeNarrator{}, WithSettleDelay(0))
	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, "nine", got)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.True(t, Failed.Terminal())
	assert.False(t, Running.Terminal())
	assert.Equal(t, "state(9)", State(9).String())
}
