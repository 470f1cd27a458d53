// Package system wraps the host: file limits, ffmpeg capabilities, speech
// binaries, and resource usage.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	xlog "github.com/ivlev/carrytales/internal/log"
)

// InitResourceLimits raises the open file limit. The encoder pipes and the
// script watcher each hold descriptors for the whole run.
func InitResourceLimits() {
	logger := xlog.WithComponent("system")

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn().Err(err).Str(xlog.FieldEvent, "system.rlimit_get_failed").Msg("could not read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn().Err(err).Str(xlog.FieldEvent, "system.rlimit_set_failed").Msg("could not raise open file limit")
		return
	}
	logger.Debug().Str(xlog.FieldEvent, "system.rlimit_set").Uint64("nofile", uint64(rLimit.Cur)).Msg("open file limit raised")
}

// FindLatest returns the most recently modified file in dir whose
// extension is one of exts (case-insensitive).
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg offers one.
// Priority: VideoToolbox (macOS), NVENC (NVIDIA), then libx264.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// ErrNoSpeaker means no speech binary could be found.
var ErrNoSpeaker = errors.New("no speech command found")

var speakerCandidates = []string{"espeak-ng", "espeak", "say"}

// LookupSpeaker resolves the speech command. "auto" or "" tries the usual
// binaries in order; "none" disables speech and returns "".
func LookupSpeaker(name string) (string, error) {
	switch name {
	case "none", "off":
		return "", nil
	case "", "auto":
		for _, c := range speakerCandidates {
			if path, err := exec.LookPath(c); err == nil {
				return path, nil
			}
		}
		return "", ErrNoSpeaker
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSpeaker, err)
	}
	return path, nil
}

// CheckFFmpeg reports whether ffmpeg can be run.
func CheckFFmpeg(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg unavailable: %w", err)
	}
	return nil
}
