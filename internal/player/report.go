package player

import (
	"fmt"
	"os"
	"time"

	"github.com/ivlev/carrytales/internal/engine"
	"github.com/ivlev/carrytales/internal/system"
)

// Report summarises one run.
type Report struct {
	RunID   string
	State   engine.State
	Phases  int // phases started
	Frames  int
	FPS     int
	Elapsed time.Duration
	Output  string
	Host    *system.HostStats
}

// EffectiveFPS is frames rendered per second of wall time.
func (r *Report) EffectiveFPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Elapsed.Seconds()
}

// VideoSeconds is the length of the exported footage.
func (r *Report) VideoSeconds() float64 {
	if r.FPS <= 0 {
		return 0
	}
	return float64(r.Frames) / float64(r.FPS)
}

func (r *Report) Summary(build string) string {
	s := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Run: %s (%s)\n"+
			"Phases: %d\n"+
			"Total Time: %.2fs\n"+
			"Frames: %d (%.2fs of video)\n"+
			"Effective FPS: %.2f\n",
		build, r.RunID, r.State, r.Phases, r.Elapsed.Seconds(), r.Frames, r.VideoSeconds(), r.EffectiveFPS(),
	)
	if r.Host != nil {
		s += fmt.Sprintf("Memory: %s used of %s (%.1f%%) | RSS: %s | CPU: %.1f%%\n",
			system.MiB(r.Host.UsedMem), system.MiB(r.Host.TotalMem), r.Host.UsedPercent,
			system.MiB(r.Host.ProcessRSS), r.Host.ProcessCPU)
	}
	return s + "----------------------------\n"
}

// LogLine is one line of the stats log.
func (r *Report) LogLine(build string) string {
	output := r.Output
	if output == "" {
		output = "-"
	}
	return fmt.Sprintf("[%s] Build: %s | Run: %s | State: %s | Output: %s | Phases: %d | Frames: %d | Total: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build, r.RunID, r.State, output, r.Phases, r.Frames, r.Elapsed.Seconds(), r.EffectiveFPS(),
	)
}

// AppendStatsLog appends line to the file at path.
func AppendStatsLog(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
