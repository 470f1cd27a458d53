// Package effects builds the ffmpeg filter applied when an exported run is
// finalised.
package effects

import (
	"fmt"
	"strings"

	"github.com/ivlev/carrytales/internal/config"
)

type Effect interface {
	GenerateFilter(params config.SegmentParams) string
}

// FadeEffect fades the video in from black and out to black. Fades longer
// than half the clip are shortened to fit.
type FadeEffect struct{}

func (e *FadeEffect) GenerateFilter(p config.SegmentParams) string {
	var filters []string
	if p.Width > 0 && p.Height > 0 {
		filters = append(filters, fmt.Sprintf("scale=%d:%d", p.Width, p.Height))
	}

	fade := p.FadeDuration
	if fade > p.Duration/2 {
		fade = p.Duration / 2
	}
	if fade > 0 {
		filters = append(filters,
			fmt.Sprintf("fade=t=in:st=0:d=%.3f", fade),
			fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", p.Duration-fade, fade),
		)
	}
	return strings.Join(filters, ",")
}

// NoEffect passes frames through untouched.
type NoEffect struct{}

func (NoEffect) GenerateFilter(config.SegmentParams) string { return "" }

// For picks the effect for a configured fade length.
func For(fade float64) Effect {
	if fade <= 0 {
		return NoEffect{}
	}
	return &FadeEffect{}
}
