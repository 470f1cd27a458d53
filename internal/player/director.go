package player

import (
	"time"

	"github.com/ivlev/carrytales/internal/eventbus"
	"github.com/ivlev/carrytales/internal/renderer"
	"github.com/ivlev/carrytales/internal/scene"
)

// cameraMove is how long the camera takes to reach a new shot.
const cameraMove = 800 * time.Millisecond

// CarryTaleShots frames the carry tale: a wide shot, closer on the flight
// to the tens house, and back out for the answer.
func CarryTaleShots(w, h float64) map[string]renderer.CameraState {
	wide := renderer.CameraState{X: w / 2, Y: h / 2, Zoom: 1}
	return map[string]renderer.CameraState{
		"INTRO":        wide,
		"CARRY_FLY":    {X: w * 0.42, Y: h * 0.48, Zoom: 1.2},
		"TENS_WELCOME": {X: w * 0.36, Y: h * 0.5, Zoom: 1.35},
		"CELEBRATION":  wide,
	}
}

// director moves the camera when a phase with a shot starts.
type director struct {
	bus    *eventbus.Bus
	sub    *eventbus.Subscription
	scene  *scene.Scene
	camera *renderer.Camera
	shots  map[string]renderer.CameraState
}

func newDirector(bus *eventbus.Bus, s *scene.Scene, cam *renderer.Camera, shots map[string]renderer.CameraState) *director {
	d := &director{bus: bus, scene: s, camera: cam, shots: shots}
	d.sub = bus.Subscribe(eventbus.EventPhase, d.onPhase)
	return d
}

func (d *director) onPhase(payload any) {
	ev, ok := payload.(eventbus.PhaseEvent)
	if !ok {
		return
	}
	shot, ok := d.shots[ev.Name]
	if !ok {
		return
	}
	d.camera.MoveTo(d.scene.Now(), cameraMove, clampShot(shot, float64(d.scene.Width), float64(d.scene.Height)))
}

// clampShot keeps the zoomed view inside the stage.
func clampShot(s renderer.CameraState, w, h float64) renderer.CameraState {
	if s.Zoom < 1 {
		s.Zoom = 1
	}
	hw, hh := w/(2*s.Zoom), h/(2*s.Zoom)
	s.X = min(max(s.X, hw), w-hw)
	s.Y = min(max(s.Y, hh), h-hh)
	return s
}

func (d *director) Close() {
	d.bus.Unsubscribe(eventbus.EventPhase, d.sub)
}
