// Package shader describes backend-neutral full-screen and surface programs.
//
// A Program carries GLSL for the OpenGL backend and an equivalent Go
// fragment function for the software backend, so both evaluate the same
// math. Texture uniforms are opaque values resolved by the backend.
package shader

import (
	"backdrop-engine/core"
	"backdrop-engine/math"
)

// Sampler returns filtered texels. UV (0,0) is the bottom-left corner.
type Sampler interface {
	Sample(uv math.Vec2) core.Color
	Size() (width, height int)
}

// Blend selects how a program's output combines with the target.
type Blend int

const (
	BlendNone Blend = iota
	BlendAdditive
)

// Program is a vertex + fragment pair.
type Program struct {
	Name     string
	Vertex   string
	Fragment string

	// Samplers lists the uniform names that hold textures.
	Samplers []string
	Blend    Blend

	// Shade evaluates the fragment stage on the CPU.
	Shade func(f *Fragment) core.Color
}

// Fragment is the input of one Shade call.
type Fragment struct {
	UV       math.Vec2
	Uniforms Uniforms

	samplers map[string]Sampler
}

// NewFragment binds resolved samplers; backends call it once per draw and
// update UV per pixel.
func NewFragment(u Uniforms, samplers map[string]Sampler) *Fragment {
	return &Fragment{Uniforms: u, samplers: samplers}
}

// Sampler returns the resolved sampler for a texture uniform, or a sampler
// yielding transparent black when nothing is bound.
func (f *Fragment) Sampler(name string) Sampler {
	if s, ok := f.samplers[name]; ok && s != nil {
		return s
	}
	return emptySampler{}
}

type emptySampler struct{}

func (emptySampler) Sample(math.Vec2) core.Color { return core.ColorTransparent }
func (emptySampler) Size() (int, int)            { return 1, 1 }

// ConstantSampler returns the same color everywhere.
type ConstantSampler struct {
	Color core.Color
	W, H  int
}

func (s ConstantSampler) Sample(math.Vec2) core.Color { return s.Color }

func (s ConstantSampler) Size() (int, int) {
	return max(s.W, 1), max(s.H, 1)
}

// FullscreenVertex is the shared vertex stage for screen-space passes: it
// draws a single triangle covering clip space and emits vUv.
const FullscreenVertex = `#version 410 core
out vec2 vUv;
void main() {
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vUv = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

// SurfaceVertex is the vertex stage for programs applied as mesh materials.
const SurfaceVertex = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;
uniform mat4 uModel;
uniform mat4 uViewProj;
out vec2 vUv;
void main() {
    vUv = aUV;
    gl_Position = uViewProj * uModel * vec4(aPosition, 1.0);
}
` + "\x00"
