// Package envshader implements the environment backdrop shader: a 9-tap
// directional blur followed by a color-profile channel remap.
package envshader

import (
	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/shader"
)

// Taps is the kernel size; offsets run from -Radius to +Radius.
const (
	Taps   = 9
	Radius = Taps / 2
)

var weights = [Taps]float32{0.051, 0.0918, 0.12245, 0.1531, 0.1633, 0.1531, 0.12245, 0.0918, 0.051}

// Weights returns the fixed kernel, index 0 being offset -Radius.
func Weights() [Taps]float32 {
	return weights
}

// Blur samples s at uv + k*direction/resolution for k in [-4, 4] and
// returns the weighted sum.
func Blur(s shader.Sampler, uv, resolution, direction math.Vec2) core.Color {
	step := direction.DivVec(resolution)
	var sum core.Color
	for i, w := range weights {
		k := float32(i - Radius)
		sum = sum.Add(s.Sample(uv.Add(step.Mul(k))).Scale(w))
	}
	return sum
}
