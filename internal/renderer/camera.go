package renderer

import (
	"sort"
	"sync"
	"time"

	"github.com/ivlev/carrytales/internal/tween"
)

var cameraEase = tween.Ease("Cubic.easeInOut")

// CameraState is the point of the scene at the frame centre and the zoom
// level around it.
type CameraState struct {
	X    float64
	Y    float64
	Zoom float64 // 1.0 = no zoom
}

// Keyframe pins the camera to a state at a scene time.
type Keyframe struct {
	Time  time.Duration
	State CameraState
}

// Camera eases between keyframes. Keyframes may be added while frames are
// being rendered.
type Camera struct {
	mu        sync.Mutex
	keyframes []Keyframe
}

// NewCamera returns a camera resting at home.
func NewCamera(home CameraState) *Camera {
	return &Camera{keyframes: []Keyframe{{Time: 0, State: home}}}
}

// MoveTo eases from wherever the camera is at `at` to s over d.
func (c *Camera) MoveTo(at, d time.Duration, s CameraState) {
	from := c.StateAt(at)
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.keyframes[:0]
	for _, kf := range c.keyframes {
		if kf.Time < at {
			kept = append(kept, kf)
		}
	}
	c.keyframes = append(kept, Keyframe{Time: at, State: from}, Keyframe{Time: at + d, State: s})
}

// StateAt interpolates the camera at scene time t.
func (c *Camera) StateAt(t time.Duration) CameraState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return interpolateKeyframes(c.keyframes, t)
}

// interpolateKeyframes calculates camera state at a given time by interpolating between keyframes
func interpolateKeyframes(keyframes []Keyframe, t time.Duration) CameraState {
	if len(keyframes) == 0 {
		return CameraState{Zoom: 1.0}
	}

	// If before first keyframe, use first keyframe
	if t <= keyframes[0].Time {
		return keyframes[0].State
	}

	// If after last keyframe, use last keyframe
	last := keyframes[len(keyframes)-1]
	if t >= last.Time {
		return last.State
	}

	// Find surrounding keyframes
	i := sort.Search(len(keyframes), func(i int) bool { return keyframes[i].Time > t })
	prev, next := keyframes[i-1], keyframes[i]

	// Interpolation factor (0.0 to 1.0) with smooth in-out easing
	span := next.Time - prev.Time
	if span <= 0 {
		return next.State
	}
	p := cameraEase(float64(t-prev.Time) / float64(span))

	return CameraState{
		X:    lerp(prev.State.X, next.State.X, p),
		Y:    lerp(prev.State.Y, next.State.Y, p),
		Zoom: lerp(prev.State.Zoom, next.State.Zoom, p),
	}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
