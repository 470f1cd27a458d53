// Package config holds the settings of one carrytales invocation. Values
// come from defaults, then CARRYTALES_* environment variables, then flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ScriptPath   string        `env:"SCRIPT"`
	DumpScript   string        `env:"DUMP_SCRIPT"`
	OutputVideo  string        `env:"OUTPUT"`
	Width        int           `env:"WIDTH" envDefault:"1280"`
	Height       int           `env:"HEIGHT" envDefault:"720"`
	FPS          int           `env:"FPS" envDefault:"30"`
	Settle       time.Duration `env:"SETTLE" envDefault:"400ms"`
	Mute         bool          `env:"MUTE"`
	Speaker      string        `env:"SPEAKER" envDefault:"auto"`
	Voice        string        `env:"VOICE"`
	Backdrop     string        `env:"BACKDROP"`
	BackdropPage int           `env:"BACKDROP_PAGE"`
	DPI          int           `env:"DPI" envDefault:"150"`
	Quality      int           `env:"QUALITY"`
	FadeDuration float64       `env:"FADE" envDefault:"0.5"`
	Tail         time.Duration `env:"TAIL" envDefault:"3s"`
	ReplayURL    string        `env:"REPLAY_URL"`
	Watch        bool          `env:"WATCH"`
	MetricsFile  string        `env:"METRICS_FILE"`
	ShowStats    bool          `env:"STATS"`
	StatsLog     string        `env:"STATS_LOG" envDefault:"benchmark.log"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON      bool          `env:"LOG_JSON"`

	// Resolved at startup, not configurable.
	VideoEncoder string `env:"-"`
	BuildVersion string `env:"-"`
}

// SegmentParams describes one encoded stream.
type SegmentParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	FadeDuration  float64
	Filter        string
}

// ParseEnv loads CARRYTALES_* variables over the defaults.
func ParseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "CARRYTALES_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Parse builds a Config from the environment and then args.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ScriptPath, "script", cfg.ScriptPath, "narration script YAML (\"latest\" picks the newest in scripts/)")
	fs.StringVar(&cfg.DumpScript, "dump-script", cfg.DumpScript, "write the default narration script to this path (\"auto\" for scripts/) and exit")
	fs.StringVar(&cfg.OutputVideo, "output", cfg.OutputVideo, "export the run to this video file (empty plays in real time)")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "frame width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "frame height")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "frames per second")
	fs.DurationVar(&cfg.Settle, "settle", cfg.Settle, "pause between phases")
	fs.BoolVar(&cfg.Mute, "mute", cfg.Mute, "captions only, no speech")
	fs.StringVar(&cfg.Speaker, "speaker", cfg.Speaker, "speech command: auto, none, or a binary such as espeak-ng")
	fs.StringVar(&cfg.Voice, "voice", cfg.Voice, "speech language, overrides the script (e.g. en-US)")
	fs.StringVar(&cfg.Backdrop, "backdrop", cfg.Backdrop, "PDF or image drawn behind the scene (a directory picks its newest file)")
	fs.IntVar(&cfg.BackdropPage, "page", cfg.BackdropPage, "backdrop PDF page, zero based")
	fs.IntVar(&cfg.DPI, "dpi", cfg.DPI, "backdrop PDF render DPI")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "video quality (0 = encoder default; x264 CRF, VideoToolbox Q*100 kbit/s)")
	fs.Float64Var(&cfg.FadeDuration, "fade", cfg.FadeDuration, "fade in/out of the exported video, seconds")
	fs.DurationVar(&cfg.Tail, "tail", cfg.Tail, "footage kept after the last phase when exporting")
	fs.StringVar(&cfg.ReplayURL, "replay-url", cfg.ReplayURL, "URL encoded as a QR code on the replay card")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "restart the story when the script file changes")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this file on exit")
	fs.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "print a performance report")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "log JSON instead of console output")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings no run can honour.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("frame size %dx%d must be positive", c.Width, c.Height))
	} else if c.OutputVideo != "" && (c.Width%2 != 0 || c.Height%2 != 0) {
		errs = append(errs, fmt.Errorf("frame size %dx%d must be even for yuv420p", c.Width, c.Height))
	}
	if c.FPS <= 0 || c.FPS > 120 {
		errs = append(errs, fmt.Errorf("fps %d out of range 1..120", c.FPS))
	}
	if c.Settle < 0 {
		errs = append(errs, errors.New("settle must not be negative"))
	}
	if c.Quality < 0 {
		errs = append(errs, errors.New("quality must not be negative"))
	}
	if c.FadeDuration < 0 {
		errs = append(errs, errors.New("fade must not be negative"))
	}
	if c.Tail < 0 {
		errs = append(errs, errors.New("tail must not be negative"))
	}
	if c.DPI <= 0 {
		errs = append(errs, fmt.Errorf("dpi %d must be positive", c.DPI))
	}
	return errors.Join(errs...)
}
