// Package engine drives an ordered list of story phases. Each phase plays
// its narration and its animation at the same time and the next phase
// starts only after both are done and a settling pause has passed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/carrytales/internal/eventbus"
	xlog "github.com/ivlev/carrytales/internal/log"
	"github.com/ivlev/carrytales/internal/scene"
	"github.com/ivlev/carrytales/internal/story"
	"github.com/ivlev/carrytales/internal/task"
)

// DefaultSettleDelay is the pause between consecutive phases.
const DefaultSettleDelay = 400 * time.Millisecond

// ErrInvalidState is returned when Start is called on a sequencer that has
// already been started.
var ErrInvalidState = errors.New("engine: invalid state")

// State is the lifecycle of a Sequencer.
type State int32

const (
	Idle State = iota
	Running
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether s is final.
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// Narrator speaks phase texts. Speak resolves when speech finishes or is
// superseded; Stop is a best-effort, idempotent interrupt.
type Narrator interface {
	Speak(text string) *task.Task
	Stop()
}

// Observer is notified of progress. Calls come from the run goroutine.
type Observer interface {
	PhaseStarted(index int, name string)
	PhaseCompleted(index int, name string, elapsed time.Duration, err error)
	RunFinished(state State, elapsed time.Duration)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSettleDelay sets the pause between phases.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Sequencer) { s.settle = d }
}

// WithDelay sets the clock used for the settling pause. The default is
// the wall clock.
func WithDelay(delay func(time.Duration) *task.Task) Option {
	return func(s *Sequencer) { s.delay = delay }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) { s.observers = append(s.observers, o) }
}

// WithBus sets the bus that phase and state events go to.
func WithBus(b *eventbus.Bus) Option {
	return func(s *Sequencer) { s.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sequencer) { s.logger = l }
}

// Sequencer runs a phase list once. A new run needs a new Sequencer.
type Sequencer struct {
	phases    []story.Phase
	scene     *scene.Scene
	shared    *story.Context
	narrator  Narrator
	settle    time.Duration
	delay     func(time.Duration) *task.Task
	observers []Observer
	bus       *eventbus.Bus
	logger    zerolog.Logger

	cancelled atomic.Bool

	mu    sync.Mutex
	state State
	index int
	err   error
	done  *task.Task
}

// New returns an idle sequencer. The phase slice is copied.
func New(phases []story.Phase, s *scene.Scene, shared *story.Context, narrator Narrator, opts ...Option) *Sequencer {
	seq := &Sequencer{
		phases:   append([]story.Phase(nil), phases...),
		scene:    s,
		shared:   shared,
		narrator: narrator,
		settle:   DefaultSettleDelay,
		delay:    task.After,
		bus:      eventbus.Default,
		logger:   xlog.WithComponent("engine"),
		index:    -1,
	}
	for _, opt := range opts {
		opt(seq)
	}
	return seq
}

// Start begins the run on a new goroutine. The returned task resolves once
// the sequencer reaches a terminal state. Ending ctx cancels the run and
// stops waiting on in-flight work.
func (s *Sequencer) Start(ctx context.Context) (*task.Task, error) {
	s.mu.Lock()
	if s.state != Idle {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: start called while %s", ErrInvalidState, st)
	}
	s.state = Running
	done, resolve := task.New()
	s.done = done
	s.mu.Unlock()

	s.logger.Info().
		Str(xlog.FieldEvent, "run.start").
		Int("phases", len(s.phases)).
		Dur("settle", s.settle).
		Msg("sequencer started")
	s.bus.Publish(eventbus.EventRunState, Running.String())

	stop := context.AfterFunc(ctx, s.Cancel)
	go func() {
		defer resolve()
		defer stop()
		s.run(ctx)
	}()
	return done, nil
}

// Run starts the sequencer and waits for it. Completion and cancellation
// both return nil.
func (s *Sequencer) Run(ctx context.Context) error {
	done, err := s.Start(ctx)
	if err != nil {
		return err
	}
	<-done.Done()
	return s.Err()
}

func (s *Sequencer) run(ctx context.Context) {
	start := time.Now()
	last := len(s.phases) - 1

	for i, p := range s.phases {
		if s.cancelled.Load() {
			s.finish(Cancelled, nil, start)
			return
		}
		s.mu.Lock()
		s.index = i
		s.mu.Unlock()

		s.logger.Info().
			Str(xlog.FieldEvent, "phase.start").
			Int(xlog.FieldIndex, i).
			Str(xlog.FieldPhase, p.Name).
			Msg("phase started")
		for _, o := range s.observers {
			o.PhaseStarted(i, p.Name)
		}
		s.bus.Publish(eventbus.EventPhase, eventbus.PhaseEvent{Index: i, Name: p.Name})

		phaseStart := time.Now()
		err := s.play(ctx, p)
		elapsed := time.Since(phaseStart)
		for _, o := range s.observers {
			o.PhaseCompleted(i, p.Name, elapsed, err)
		}

		if err != nil {
			if ctx.Err() != nil {
				s.finish(Cancelled, nil, start)
				return
			}
			s.narrator.Stop()
			s.finish(Failed, fmt.Errorf("phase %s: %w", p.Name, err), start)
			return
		}
		s.logger.Debug().
			Str(xlog.FieldEvent, "phase.done").
			Int(xlog.FieldIndex, i).
			Str(xlog.FieldPhase, p.Name).
			Dur(xlog.FieldElapsed, elapsed).
			Msg("phase finished")

		if i == last {
			break
		}
		if s.cancelled.Load() {
			s.finish(Cancelled, nil, start)
			return
		}
		if err := s.delay(s.settle).Wait(ctx); err != nil {
			s.finish(Cancelled, nil, start)
			return
		}
	}

	if s.cancelled.Load() {
		s.finish(Cancelled, nil, start)
		return
	}
	s.finish(Completed, nil, start)
}

// play joins the phase's narration and animation.
func (s *Sequencer) play(ctx context.Context, p story.Phase) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.narrator.Speak(p.Narration).Wait(gctx)
	})
	g.Go(func() error {
		return p.Animate(gctx, s.scene, s.shared)
	})
	return g.Wait()
}

func (s *Sequencer) finish(st State, err error, start time.Time) {
	s.mu.Lock()
	s.state = st
	s.err = err
	index := s.index
	s.mu.Unlock()

	elapsed := time.Since(start)
	ev := s.logger.Info()
	if err != nil {
		ev = s.logger.Error().Err(err)
	}
	ev.Str(xlog.FieldEvent, "run.finish").
		Str(xlog.FieldState, st.String()).
		Int(xlog.FieldIndex, index).
		Dur(xlog.FieldElapsed, elapsed).
		Msg("sequencer finished")

	for _, o := range s.observers {
		o.RunFinished(st, elapsed)
	}
	s.bus.Publish(eventbus.EventRunState, st.String())
}

// Cancel asks the run to stop at the next phase boundary and interrupts
// narration. The animation in flight is left to finish. Cancel may be
// called in any state, any number of times.
//
// Stopping narration is best effort: a Cancel that lands after a phase has
// passed its cancellation check but before its narration starts finds
// nothing to stop, and that phase's narration plays out in full. The run
// still ends at the following boundary.
func (s *Sequencer) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	s.logger.Info().Str(xlog.FieldEvent, "run.cancel").Msg("cancellation requested")
	s.narrator.Stop()
}

// Cancelled reports whether Cancel has been called.
func (s *Sequencer) Cancelled() bool {
	return s.cancelled.Load()
}

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentIndex returns the index of the phase most recently started, or
// -1 before the first.
func (s *Sequencer) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Err returns the phase error of a failed run.
func (s *Sequencer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done returns the task from Start, or nil before Start.
func (s *Sequencer) Done() *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
