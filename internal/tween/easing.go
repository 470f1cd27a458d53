package tween

import (
	"math"
	"strings"
)

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(t float64) float64

var easings = map[string]Easing{
	"linear":          linear,
	"quad.easein":     func(t float64) float64 { return t * t },
	"quad.easeout":    func(t float64) float64 { return 1 - pow(1-t, 2) },
	"quad.easeinout":  easeInOutQuad,
	"cubic.easein":    func(t float64) float64 { return pow(t, 3) },
	"cubic.easeout":   func(t float64) float64 { return 1 - pow(1-t, 3) },
	"cubic.easeinout": easeInOutCubic,
	"sine.easein":     func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) },
	"sine.easeout":    func(t float64) float64 { return math.Sin(t * math.Pi / 2) },
	"sine.easeinout":  func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 },
	"back.easein":     easeInBack,
	"back.easeout":    func(t float64) float64 { return 1 - easeInBack(1-t) },
	"bounce.easeout":  easeOutBounce,
	"power1":          func(t float64) float64 { return 1 - pow(1-t, 2) },
	"power2":          func(t float64) float64 { return 1 - pow(1-t, 3) },
}

// Ease resolves an easing by name ("Back.easeOut", "Sine.easeInOut", ...).
// Names are case-insensitive; unknown or empty names fall back to linear.
func Ease(name string) Easing {
	if e, ok := easings[strings.ToLower(name)]; ok {
		return e
	}
	return linear
}

// KnownEase reports whether name resolves to a registered easing.
func KnownEase(name string) bool {
	_, ok := easings[strings.ToLower(name)]
	return ok || name == ""
}

func linear(t float64) float64 { return t }

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - pow(-2*t+2, 2)/2
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

func easeInBack(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return c3*t*t*t - c1*t*t
}

func easeOutBounce(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
