// Package player wires one run of a story: the stage, the narrator, the
// phase sequencer, and either live captions or a rendered video export.
package player

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/carrytales/internal/config"
	"github.com/ivlev/carrytales/internal/effects"
	"github.com/ivlev/carrytales/internal/engine"
	"github.com/ivlev/carrytales/internal/eventbus"
	xlog "github.com/ivlev/carrytales/internal/log"
	"github.com/ivlev/carrytales/internal/metrics"
	"github.com/ivlev/carrytales/internal/narration"
	"github.com/ivlev/carrytales/internal/renderer"
	"github.com/ivlev/carrytales/internal/scene"
	"github.com/ivlev/carrytales/internal/story"
	"github.com/ivlev/carrytales/internal/system"
	"github.com/ivlev/carrytales/internal/video"
)

// Stage size in scene units. Frames are scaled to the configured size.
const (
	StageWidth  = 1280
	StageHeight = 720
)

// frameQueue bounds how far rendering may run ahead of the encoder.
const frameQueue = 8

type Project struct {
	Config   *config.Config
	Phases   []story.Phase
	Encoder  video.VideoEncoder
	Effect   effects.Effect
	Speaker  narration.Speaker // nil shows captions only
	Backdrop image.Image
	Bus      *eventbus.Bus
	Shots    map[string]renderer.CameraState
	// Out receives live subtitles and the performance report.
	Out io.Writer
	// MuteToggle flips narration mute on every receive during realtime
	// play. The CLI feeds it SIGUSR1.
	MuteToggle <-chan os.Signal
}

func NewProject(cfg *config.Config, phases []story.Phase, ve video.VideoEncoder, eff effects.Effect) *Project {
	return &Project{
		Config:  cfg,
		Phases:  phases,
		Encoder: ve,
		Effect:  eff,
		Bus:     eventbus.Default,
		Shots:   CarryTaleShots(StageWidth, StageHeight),
		Out:     os.Stdout,
	}
}

func (p *Project) exporting() bool {
	return p.Config.OutputVideo != ""
}

// Run plays the phases once. Completion and cancellation return a report
// and nil; a failing phase or encoder returns the error.
func (p *Project) Run(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	if err := story.Validate(p.Phases); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = xlog.ContextWithRunID(ctx, runID)
	logger := xlog.ForRun(ctx, "player")

	bus := p.Bus
	if bus == nil {
		bus = eventbus.Default
	}

	s := scene.New(StageWidth, StageHeight)
	shared := story.NewStage(s, story.StageOptions{ReplayURL: p.Config.ReplayURL})

	speaker := p.Speaker
	if p.exporting() && speaker != nil {
		// Export has no audio track, so captions carry the narration and
		// are timed on the scene clock.
		logger.Info().Str(xlog.FieldEvent, "narration.silent_export").Msg("speech disabled while exporting")
		speaker = nil
	}
	narrLogger := xlog.ForRun(ctx, "narration")
	narrator := narration.New(narration.Options{
		Bus:     bus,
		Speaker: speaker,
		Delay:   s.Delay,
		Muted:   p.Config.Mute,
		Logger:  &narrLogger,
	})

	seq := engine.New(p.Phases, s, shared, narrator,
		engine.WithSettleDelay(p.Config.Settle),
		engine.WithDelay(s.Delay),
		engine.WithObserver(metrics.Observer{}),
		engine.WithBus(bus),
		engine.WithLogger(xlog.ForRun(ctx, "engine")),
	)

	logger.Info().
		Str(xlog.FieldEvent, "run.prepare").
		Int("phases", len(p.Phases)).
		Int(xlog.FieldFPS, p.Config.FPS).
		Str("mode", p.mode()).
		Msg("story ready")

	var (
		frames int
		err    error
	)
	if p.exporting() {
		frames, err = p.export(ctx, logger, s, bus, seq)
	} else {
		frames, err = p.play(ctx, s, bus, seq, narrator)
	}

	report := &Report{
		RunID:   runID,
		State:   seq.State(),
		Phases:  seq.CurrentIndex() + 1,
		Frames:  frames,
		FPS:     p.Config.FPS,
		Elapsed: time.Since(startTime),
		Output:  p.Config.OutputVideo,
	}
	if err != nil {
		return report, err
	}

	logger.Info().
		Str(xlog.FieldEvent, "run.done").
		Str(xlog.FieldState, report.State.String()).
		Int("frames", frames).
		Dur(xlog.FieldElapsed, report.Elapsed).
		Msg("story finished")

	if p.Config.ShowStats {
		if host, err := system.ReadHostStats(ctx); err == nil {
			report.Host = &host
		} else {
			logger.Warn().Err(err).Str(xlog.FieldEvent, "stats.host_failed").Msg("host stats unavailable")
		}
		fmt.Fprint(p.out(), report.Summary(p.Config.BuildVersion))
		if p.Config.StatsLog != "" {
			if err := AppendStatsLog(p.Config.StatsLog, report.LogLine(p.Config.BuildVersion)); err != nil {
				logger.Warn().Err(err).Str(xlog.FieldEvent, "stats.log_failed").Msg("could not append stats log")
			}
		}
	}
	return report, nil
}

func (p *Project) mode() string {
	if p.exporting() {
		return "export"
	}
	return "realtime"
}

func (p *Project) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

// play runs the story against the wall clock with subtitles on Out.
func (p *Project) play(ctx context.Context, s *scene.Scene, bus *eventbus.Bus, seq *engine.Sequencer, narrator *narration.Narrator) (int, error) {
	subs := NewSubtitlePrinter(bus, p.out())
	defer subs.Close()

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopLoop := context.WithCancel(gctx)
	defer stopLoop()

	frames := 0
	loop := &scene.Loop{
		Scene: s,
		FPS:   p.Config.FPS,
		OnFrame: func(scene.Frame) error {
			frames++
			return nil
		},
	}
	g.Go(func() error { return loop.Run(loopCtx) })
	if p.MuteToggle != nil {
		logger := xlog.ForRun(ctx, "player")
		g.Go(func() error {
			for {
				select {
				case <-loopCtx.Done():
					return nil
				case <-p.MuteToggle:
					muted := !narrator.Muted()
					narrator.SetMuted(muted)
					logger.Info().Str(xlog.FieldEvent, "narration.mute").Bool("muted", muted).Msg("narration mute toggled")
				}
			}
		})
	}
	g.Go(func() error {
		defer stopLoop()
		return seq.Run(gctx)
	})
	err := g.Wait()
	return frames, err
}

// export renders every frame into the encoder, then finalises the video
// with the configured effect.
func (p *Project) export(ctx context.Context, logger zerolog.Logger, s *scene.Scene, bus *eventbus.Bus, seq *engine.Sequencer) (int, error) {
	cfg := p.Config
	if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0o755); err != nil {
		return 0, err
	}
	tempDir, err := os.MkdirTemp(filepath.Dir(cfg.OutputVideo), ".carrytales_")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(tempDir)

	caption := renderer.NewCaption(bus)
	defer caption.Close()
	camera := renderer.NewCamera(renderer.CameraState{X: StageWidth / 2, Y: StageHeight / 2, Zoom: 1})
	director := newDirector(bus, s, camera, p.Shots)
	defer director.Close()

	r := renderer.New(renderer.Options{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Backdrop: p.Backdrop,
		Caption:  caption,
		Camera:   camera,
	})

	encoderName := cfg.VideoEncoder
	if encoderName == "" {
		encoderName = "libx264"
	}
	quality := cfg.Quality
	if quality == 0 {
		quality = video.DefaultQuality(encoderName)
	}
	params := config.SegmentParams{Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS}
	segPath := filepath.Join(tempDir, "segment.mp4")
	encoder := p.Encoder
	if encoder == nil {
		encoder = &video.FFmpegEncoder{}
	}
	w, err := encoder.Open(ctx, segPath, params, encoderName, quality)
	if err != nil {
		return 0, err
	}
	logger.Info().
		Str(xlog.FieldEvent, "export.start").
		Str(xlog.FieldEncoder, encoderName).
		Int("quality", quality).
		Str(xlog.FieldPath, cfg.OutputVideo).
		Msg("exporting story")

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopLoop := context.WithCancel(gctx)
	defer stopLoop()

	queue := make(chan *image.RGBA, frameQueue)
	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)
	loop := &scene.Loop{
		Scene: s,
		FPS:   cfg.FPS,
		Fixed: true,
		OnFrame: func(f scene.Frame) error {
			img := system.GetImage(bounds)
			r.RenderTo(img, f)
			metrics.FramesRenderedTotal.Inc()
			select {
			case queue <- img:
				return nil
			case <-loopCtx.Done():
				system.PutImage(img)
				return nil
			}
		},
	}

	g.Go(func() error {
		defer close(queue)
		return loop.Run(loopCtx)
	})
	g.Go(func() error {
		for img := range queue {
			err := w.WriteFrame(img)
			system.PutImage(img)
			if err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		defer stopLoop()
		if err := seq.Run(gctx); err != nil {
			return err
		}
		if seq.State() == engine.Completed && cfg.Tail > 0 {
			// The tail lets the closing card show before the fade out.
			_ = s.Delay(cfg.Tail).Wait(gctx)
		}
		return nil
	})

	runErr := g.Wait()
	closeErr := w.Close()
	frames := w.Frames()
	if runErr != nil {
		return frames, runErr
	}
	if ctx.Err() != nil {
		logger.Warn().Str(xlog.FieldEvent, "export.aborted").Int("frames", frames).Msg("export interrupted, no video written")
		return frames, nil
	}
	if closeErr != nil {
		return frames, closeErr
	}
	if frames == 0 {
		return 0, fmt.Errorf("no frames rendered")
	}

	params.Duration = float64(frames) / float64(cfg.FPS)
	params.FadeDuration = cfg.FadeDuration
	eff := p.Effect
	if eff == nil {
		eff = effects.For(cfg.FadeDuration)
	}
	params.Filter = eff.GenerateFilter(params)
	if err := encoder.Finalize(ctx, segPath, cfg.OutputVideo, params, encoderName, quality); err != nil {
		return frames, err
	}
	logger.Info().
		Str(xlog.FieldEvent, "export.done").
		Int("frames", frames).
		Float64("seconds", params.Duration).
		Str(xlog.FieldPath, cfg.OutputVideo).
		Msg("video written")
	return frames, nil
}
