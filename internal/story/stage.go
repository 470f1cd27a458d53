package story

import (
	"fmt"

	"github.com/ivlev/carrytales/internal/actors"
	"github.com/ivlev/carrytales/internal/scene"
)

// Keys shared between phases.
const (
	KeyOnesHouse = "onesHouse"
	KeyTensHouse = "tensHouse"
	KeyGroundY   = "groundY"
	KeyReplayURL = "replayURL"
	KeyChar9     = "char9"
	KeyChar8     = "char8"
	KeyChar17    = "char17"
	KeyChar7     = "char7"
	KeyChar1     = "char1"
	KeyEquation  = "equationText"
	KeySumText   = "sumText"
	KeyReplay    = "replayCard"
)

// StageOptions tunes the stage.
type StageOptions struct {
	// ReplayURL is encoded as a QR code on the closing card when set.
	ReplayURL string
}

// NewStage builds both houses off-screen and returns the context the
// phases start from.
func NewStage(s *scene.Scene, opts StageOptions) *Context {
	groundY := float64(s.Height) - 60
	baseY := groundY - 10

	ones := actors.NewHouse(s, float64(s.Width)*0.68, baseY, actors.HouseOptions{
		Label:     "ONES",
		BodyColor: actors.RGB(0x8B4513),
		RoofColor: actors.RGB(0xCC3333),
	})
	tens := actors.NewHouse(s, float64(s.Width)*0.32, baseY, actors.HouseOptions{
		Label:     "TENS",
		BodyColor: actors.RGB(0x6B4226),
		RoofColor: actors.RGB(0x3366CC),
	})
	s.Edit(func() {
		ones.Root.Visible = false
		tens.Root.Visible = false
	})

	c := NewContext()
	c.Set(KeyOnesHouse, ones)
	c.Set(KeyTensHouse, tens)
	c.Set(KeyGroundY, groundY)
	c.Set(KeyReplayURL, opts.ReplayURL)
	return c
}

// handle fetches a typed value that an earlier phase or the stage stored.
func handle[T any](c *Context, key string) (T, error) {
	v, ok := Lookup[T](c, key)
	if !ok {
		return v, fmt.Errorf("context has no %s", key)
	}
	return v, nil
}
