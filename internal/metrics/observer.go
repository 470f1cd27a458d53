package metrics

import (
	"time"

	"github.com/ivlev/carrytales/internal/engine"
)

// Observer records sequencer progress.
type Observer struct{}

var _ engine.Observer = Observer{}

func (Observer) PhaseStarted(_ int, name string) {
	PhaseStartedTotal.WithLabelValues(name).Inc()
}

func (Observer) PhaseCompleted(_ int, name string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PhaseCompletedTotal.WithLabelValues(name, result).Inc()
	PhaseDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (Observer) RunFinished(state engine.State, _ time.Duration) {
	RunsTotal.WithLabelValues(state.String()).Inc()
}
