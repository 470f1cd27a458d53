package scene

import (
	"context"
	"time"
)

// Loop drives a scene from a ticker.
type Loop struct {
	Scene *Scene
	FPS   int
	// Fixed advances the scene by exactly one frame interval per tick, so
	// an exported video has the same timing however fast frames render.
	// Otherwise the scene follows the wall clock.
	Fixed bool
	// OnFrame runs after every step. An error stops the loop.
	OnFrame func(f Frame) error
}

// Run ticks until ctx ends or OnFrame fails. Ending ctx is a normal stop.
func (l *Loop) Run(ctx context.Context) error {
	fps := l.FPS
	if fps <= 0 {
		fps = 30
	}
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := interval
			if !l.Fixed {
				dt = now.Sub(last)
			}
			last = now
			l.Scene.Step(dt)
			if l.OnFrame == nil {
				continue
			}
			if err := l.OnFrame(l.Scene.Snapshot()); err != nil {
				return err
			}
		}
	}
}
