package envshader

import (
	"backdrop-engine/math"
	"backdrop-engine/shader"
)

// Uniform names shared by the GLSL source and the Go evaluator.
const (
	UniformMap        = "uMap"
	UniformBluriness  = "uBluriness"
	UniformDirection  = "uDirection"
	UniformResolution = "uResolution"
	UniformProfile    = "uColorProfile"
)

// Params is the live parameter set of the stage.
type Params struct {
	Bluriness  float32
	Direction  math.Vec2
	Resolution math.Vec2
	Profile    Profile
}

// DefaultParams returns bluriness 10, direction (5,5), profile 1 and a
// 1x1 resolution placeholder until the first resize.
func DefaultParams() Params {
	return Params{
		Bluriness:  10,
		Direction:  math.NewVec2(5, 5),
		Resolution: math.NewVec2(1, 1),
		Profile:    DefaultProfile,
	}
}

// BlurDirection is Bluriness * Direction, the per-tap step in pixels.
func (p Params) BlurDirection() math.Vec2 {
	return p.Direction.Mul(p.Bluriness)
}

// Uniforms builds a fresh uniform set sampling source.
func (p Params) Uniforms(source any) shader.Uniforms {
	u := shader.Uniforms{}
	p.Apply(u)
	u.Set(UniformMap, source)
	return u
}

// Apply writes every scalar parameter into u, leaving the texture alone.
func (p Params) Apply(u shader.Uniforms) {
	u.Set(UniformBluriness, p.Bluriness).
		Set(UniformDirection, p.Direction).
		Set(UniformResolution, p.Resolution).
		Set(UniformProfile, int32(p.Profile))
}

// ParamsFrom reads a parameter set back out of u. Unknown profiles fall
// back to DefaultProfile.
func ParamsFrom(u shader.Uniforms) Params {
	prof := Profile(u.Int(UniformProfile))
	if !prof.Valid() {
		prof = DefaultProfile
	}
	res := u.Vec2(UniformResolution)
	if res.X <= 0 || res.Y <= 0 {
		res = math.NewVec2(1, 1)
	}
	return Params{
		Bluriness:  u.Float(UniformBluriness),
		Direction:  u.Vec2(UniformDirection),
		Resolution: res,
		Profile:    prof,
	}
}
