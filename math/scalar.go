package math

import "github.com/chewxy/math32"

const (
	Pi      = math32.Pi
	Deg2Rad = math32.Pi / 180
)

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * Deg2Rad
}

func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Smoothstep is the GLSL cubic Hermite step: 0 below edge0, 1 above edge1.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Mix is GLSL mix: a*(1-t) + b*t.
func Mix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// Fract returns x - floor(x).
func Fract(x float32) float32 {
	return x - math32.Floor(x)
}

// Wrap maps x into [0, period).
func Wrap(x, period float32) float32 {
	if period <= 0 {
		return 0
	}
	r := math32.Mod(x, period)
	if r < 0 {
		r += period
	}
	return r
}
