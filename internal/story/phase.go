// Package story holds the narrated phases of the carry tale and the data
// they share while a run is in progress.
package story

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivlev/carrytales/internal/scene"
)

// AnimateFunc plays one phase's animation script on the scene and returns
// once it is done. It only fails when ctx ends.
type AnimateFunc func(ctx context.Context, s *scene.Scene, c *Context) error

// Phase is one narrated beat of the story.
type Phase struct {
	Name      string
	Narration string
	Animate   AnimateFunc
}

// ErrInvalidPhases reports a phase list that cannot be run.
var ErrInvalidPhases = errors.New("invalid phase list")

// Validate checks that every phase has a unique non-empty name and an
// animate function.
func Validate(phases []Phase) error {
	seen := make(map[string]int, len(phases))
	for i, p := range phases {
		if p.Name == "" {
			return fmt.Errorf("%w: phase %d has no name", ErrInvalidPhases, i)
		}
		if j, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %q at %d and %d", ErrInvalidPhases, p.Name, j, i)
		}
		if p.Animate == nil {
			return fmt.Errorf("%w: %q has no animate function", ErrInvalidPhases, p.Name)
		}
		seen[p.Name] = i
	}
	return nil
}

// Names returns the phase names in order.
func Names(phases []Phase) []string {
	out := make([]string, len(phases))
	for i, p := range phases {
		out[i] = p.Name
	}
	return out
}
