package narration

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Voice scales a speech engine's defaults.
type Voice struct {
	Rate  float64 // 1.0 = normal speed
	Pitch float64 // 1.0 = normal pitch
	Lang  string  // BCP 47 tag, e.g. "en-US"
}

const (
	baseWordsPerMinute = 175
	basePitch          = 50
)

// CommandSpeaker speaks through an external program such as espeak-ng,
// espeak, or macOS say.
type CommandSpeaker struct {
	Path  string
	Voice Voice
}

// Args returns the command line arguments for text.
func (c CommandSpeaker) Args(text string) []string {
	rate := c.Voice.Rate
	if rate <= 0 {
		rate = 1
	}
	wpm := strconv.Itoa(int(math.Round(baseWordsPerMinute * rate)))

	if strings.TrimSuffix(filepath.Base(c.Path), ".exe") == "say" {
		return []string{"-r", wpm, text}
	}

	pitch := c.Voice.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	p := int(math.Round(basePitch * pitch))
	p = max(0, min(99, p))

	args := []string{"-s", wpm, "-p", strconv.Itoa(p)}
	if c.Voice.Lang != "" {
		args = append(args, "-v", strings.ToLower(c.Voice.Lang))
	}
	return append(args, text)
}

// Speak runs the program and waits for it. Cancelling ctx kills it.
func (c CommandSpeaker) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args(text)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", filepath.Base(c.Path), err, strings.TrimSpace(string(out)))
	}
	return nil
}
