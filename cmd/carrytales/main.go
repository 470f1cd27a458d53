package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ivlev/carrytales/internal/config"
	"github.com/ivlev/carrytales/internal/effects"
	xlog "github.com/ivlev/carrytales/internal/log"
	"github.com/ivlev/carrytales/internal/metrics"
	"github.com/ivlev/carrytales/internal/narration"
	"github.com/ivlev/carrytales/internal/player"
	"github.com/ivlev/carrytales/internal/source"
	"github.com/ivlev/carrytales/internal/story"
	"github.com/ivlev/carrytales/internal/system"
	"github.com/ivlev/carrytales/internal/video"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

const (
	scriptsDir = "scripts"
	outputDir  = "output"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "carrytales: %v\n", err)
		os.Exit(2)
	}
	cfg.BuildVersion = version

	xlog.Configure(xlog.Config{Level: cfg.LogLevel, Console: !cfg.LogJSON})
	logger := xlog.WithComponent("cli")

	system.InitResourceLimits()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, &cfg)
	stop()

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Warn().Err(werr).Str(xlog.FieldEvent, "metrics.write_failed").Msg("could not write metrics file")
		}
	}
	if err != nil {
		logger.Error().Err(err).Str(xlog.FieldEvent, "cli.failed").Msg("carrytales failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := xlog.WithComponent("cli")
	phases := story.CarryTale()

	if cfg.DumpScript != "" {
		path := cfg.DumpScript
		if path == "auto" {
			path = story.GenerateScriptPath(scriptsDir)
		}
		if err := story.WriteScript(story.DefaultScript(phases), path); err != nil {
			return err
		}
		logger.Info().Str(xlog.FieldEvent, "script.written").Str(xlog.FieldPath, path).Msg("default script written")
		return nil
	}

	scriptPath := cfg.ScriptPath
	if scriptPath == "latest" {
		latest, err := story.FindLatestScript(scriptsDir)
		if err != nil {
			return err
		}
		scriptPath = latest
		logger.Info().Str(xlog.FieldEvent, "script.selected").Str(xlog.FieldPath, scriptPath).Msg("using newest script")
	}

	if cfg.OutputVideo == "auto" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.OutputVideo = filepath.Join(outputDir, fmt.Sprintf("carrytales_%s.mp4", timestamp))
	}
	exporting := cfg.OutputVideo != ""
	if exporting {
		if err := system.CheckFFmpeg(ctx); err != nil {
			return err
		}
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			logger.Info().Str(xlog.FieldEvent, "export.hw_encoder").Str(xlog.FieldEncoder, cfg.VideoEncoder).Msg("hardware acceleration detected")
		}
	}

	backdrop, err := loadBackdrop(cfg)
	if err != nil {
		return err
	}

	muteToggle := make(chan os.Signal, 1)
	signal.Notify(muteToggle, syscall.SIGUSR1)
	defer signal.Stop(muteToggle)

	play := func(ctx context.Context, sc *story.Script) error {
		ph, voice := phases, story.DefaultVoice()
		if sc != nil {
			applied, err := story.Apply(phases, sc)
			if err != nil {
				return err
			}
			ph, voice = applied, sc.Voice
		}
		if cfg.Voice != "" {
			voice.Lang = cfg.Voice
		}

		project := player.NewProject(cfg, ph, &video.FFmpegEncoder{}, effects.For(cfg.FadeDuration))
		project.Backdrop = backdrop
		project.MuteToggle = muteToggle
		if !exporting {
			project.Speaker = lookupSpeaker(cfg.Speaker, voice)
		}
		_, err := project.Run(ctx)
		return err
	}

	if cfg.Watch {
		if scriptPath == "" {
			return errors.New("-watch needs -script")
		}
		return player.RunWatching(ctx, scriptPath, play)
	}

	var sc *story.Script
	if scriptPath != "" {
		if sc, err = story.ReadScript(scriptPath); err != nil {
			return err
		}
	}
	return play(ctx, sc)
}

func loadBackdrop(cfg *config.Config) (image.Image, error) {
	if cfg.Backdrop == "" {
		return nil, nil
	}
	path := cfg.Backdrop
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		latest, err := system.FindLatest(path, ".pdf", ".png", ".jpg", ".jpeg")
		if err != nil {
			return nil, err
		}
		path = latest
	}
	img, err := source.LoadBackdrop(path, cfg.BackdropPage, cfg.DPI)
	if err != nil {
		return nil, err
	}
	logger := xlog.WithComponent("cli")
	logger.Info().
		Str(xlog.FieldEvent, "backdrop.loaded").
		Str(xlog.FieldPath, path).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("backdrop loaded")
	return img, nil
}

// lookupSpeaker falls back to captions only when no speech command exists.
func lookupSpeaker(name string, voice story.Voice) narration.Speaker {
	path, err := system.LookupSpeaker(name)
	if err != nil {
		logger := xlog.WithComponent("cli")
		logger.Warn().Err(err).Str(xlog.FieldEvent, "narration.no_speaker").Msg("speech unavailable, showing captions only")
		return nil
	}
	if path == "" {
		return nil
	}
	return narration.CommandSpeaker{
		Path:  path,
		Voice: narration.Voice{Rate: voice.Rate, Pitch: voice.Pitch, Lang: voice.Lang},
	}
}
