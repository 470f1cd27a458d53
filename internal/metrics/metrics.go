// Package metrics provides Prometheus metrics for story runs. They live on
// a private registry and are exported to a textfile, not over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every carrytales collector.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// PhaseStartedTotal counts phases started, by phase name.
	PhaseStartedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "carrytales_phase_started_total",
		Help: "Total number of story phases started, by phase.",
	}, []string{"phase"})

	// PhaseCompletedTotal counts phases finished, by phase name and result (ok/error).
	PhaseCompletedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "carrytales_phase_completed_total",
		Help: "Total number of story phases finished, by phase and result.",
	}, []string{"phase", "result"})

	// PhaseDuration observes how long each phase took, narration and animation joined.
	PhaseDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carrytales_phase_duration_seconds",
		Help:    "Wall time of a story phase from start until both narration and animation finished.",
		Buckets: []float64{0.5, 1, 2, 4, 6, 8, 12, 16, 24},
	}, []string{"phase"})

	// RunsTotal counts finished runs, by terminal state.
	RunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "carrytales_runs_total",
		Help: "Total number of story runs, by terminal state.",
	}, []string{"state"})

	// FramesRenderedTotal counts frames rasterised for export or preview.
	FramesRenderedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "carrytales_frames_rendered_total",
		Help: "Total number of frames rendered.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
