package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/carrytales/internal/engine"
)

func TestObserverCounts(t *testing.T) {
	var o Observer
	o.PhaseStarted(0, "INTRO")
	o.PhaseCompleted(0, "INTRO", 2*time.Second, nil)
	o.PhaseStarted(1, "ADDITION")
	o.PhaseCompleted(1, "ADDITION", time.Second, errors.New("boom"))
	o.RunFinished(engine.Failed, 3*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(PhaseStartedTotal.WithLabelValues("INTRO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(PhaseCompletedTotal.WithLabelValues("INTRO", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(PhaseCompletedTotal.WithLabelValues("ADDITION", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RunsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(PhaseDuration))
}

func TestWriteTextfile(t *testing.T) {
	FramesRenderedTotal.Add(3)
	path := filepath.Join(t.TempDir(), "carrytales.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "carrytales_frames_rendered_total")
}
