package shader

import (
	"backdrop-engine/core"
	"backdrop-engine/math"
)

// Uniforms maps uniform names to values: float32, int32, bool, math.Vec2,
// math.Vec3, core.Color, math.Mat4, or a backend texture.
type Uniforms map[string]any

// Set stores v and returns u for chaining.
func (u Uniforms) Set(name string, v any) Uniforms {
	u[name] = v
	return u
}

func (u Uniforms) Float(name string) float32 {
	switch v := u[name].(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int32:
		return float32(v)
	case int:
		return float32(v)
	}
	return 0
}

func (u Uniforms) Int(name string) int32 {
	switch v := u[name].(type) {
	case int32:
		return v
	case int:
		return int32(v)
	case float32:
		return int32(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func (u Uniforms) Bool(name string) bool {
	return u.Int(name) != 0
}

func (u Uniforms) Vec2(name string) math.Vec2 {
	v, _ := u[name].(math.Vec2)
	return v
}

func (u Uniforms) Vec3(name string) math.Vec3 {
	v, _ := u[name].(math.Vec3)
	return v
}

func (u Uniforms) Color(name string) core.Color {
	v, _ := u[name].(core.Color)
	return v
}

func (u Uniforms) Mat4(name string) math.Mat4 {
	if v, ok := u[name].(math.Mat4); ok {
		return v
	}
	return math.Mat4Identity()
}

// Clone returns a shallow copy.
func (u Uniforms) Clone() Uniforms {
	out := make(Uniforms, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}
