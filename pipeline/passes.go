package pipeline

import (
	"fmt"

	"backdrop-engine/core"
	"backdrop-engine/gpu"
	"backdrop-engine/scene"
	"backdrop-engine/shader"
)

// Uniform names of the full-screen programs.
const (
	uniformSource   = "uSrc"
	uniformExposure = "uExposure"
)

// ── Scene pass ──

// RenderPass draws a scene from a camera into the read buffer.
type RenderPass struct {
	Scene  *scene.Scene
	Camera scene.Camera
}

func NewRenderPass(s *scene.Scene, camera scene.Camera) *RenderPass {
	return &RenderPass{Scene: s, Camera: camera}
}

func (p *RenderPass) Name() string           { return "render" }
func (p *RenderPass) Rank() PassRank         { return RankScene }
func (p *RenderPass) NeedsSwap() bool        { return false }
func (p *RenderPass) SetSize(_, _ int) error { return nil }
func (p *RenderPass) Destroy()               {}

func (p *RenderPass) Render(ctx *PassContext) error {
	if err := ctx.bindOutput(ctx.Read); err != nil {
		return err
	}
	if err := ctx.Device.Render(p.Scene, p.Camera); err != nil {
		return err
	}
	ctx.Read.Written = !ctx.RenderToScreen
	return nil
}

// ── Output pass ──

// OutputPass tone maps with ACES filmic at Exposure, then encodes sRGB.
type OutputPass struct {
	Exposure float32
	program  *shader.Program
}

func NewOutputPass(exposure float32) *OutputPass {
	return &OutputPass{Exposure: exposure, program: outputProgram()}
}

func (p *OutputPass) Name() string           { return "output" }
func (p *OutputPass) Rank() PassRank         { return RankOutput }
func (p *OutputPass) NeedsSwap() bool        { return true }
func (p *OutputPass) SetSize(_, _ int) error { return nil }
func (p *OutputPass) Destroy()               {}

func (p *OutputPass) Render(ctx *PassContext) error {
	if err := ctx.requireRead(); err != nil {
		return err
	}
	if err := ctx.bindOutput(ctx.Write); err != nil {
		return err
	}
	u := shader.Uniforms{}.
		Set(uniformSource, ctx.Read.Target.Texture()).
		Set(uniformExposure, p.Exposure)
	if err := ctx.Device.DrawFullscreen(p.program, u); err != nil {
		return err
	}
	ctx.Write.Written = !ctx.RenderToScreen
	return nil
}

func outputProgram() *shader.Program {
	return &shader.Program{
		Name:     "output",
		Vertex:   shader.FullscreenVertex,
		Fragment: outputFragSrc,
		Samplers: []string{uniformSource},
		Shade: func(f *shader.Fragment) core.Color {
			c := f.Sampler(uniformSource).Sample(f.UV)
			return EncodeSRGB(ACESFilmic(c, f.Uniforms.Float(uniformExposure)))
		},
	}
}

const outputFragSrc = `#version 410 core
in vec2 vUv;
out vec4 FragColor;

uniform sampler2D uSrc;
uniform float uExposure;

vec3 RRTAndODTFit(vec3 v) {
    vec3 a = v * (v + 0.0245786) - 0.000090537;
    vec3 b = v * (0.983729 * v + 0.4329510) + 0.238081;
    return a / b;
}

vec3 ACESFilmic(vec3 color) {
    const mat3 inputMat = mat3(
        vec3(0.59719, 0.07600, 0.02840),
        vec3(0.35458, 0.90834, 0.13383),
        vec3(0.04823, 0.01566, 0.83777));
    const mat3 outputMat = mat3(
        vec3( 1.60475, -0.10208, -0.00327),
        vec3(-0.53108,  1.10813, -0.07276),
        vec3(-0.07367, -0.00605,  1.07602));
    color *= uExposure / 0.6;
    color = inputMat * color;
    color = RRTAndODTFit(color);
    color = outputMat * color;
    return clamp(color, 0.0, 1.0);
}

vec3 LinearToSRGB(vec3 c) {
    return mix(pow(c, vec3(1.0 / 2.4)) * 1.055 - 0.055, c * 12.92, vec3(lessThanEqual(c, vec3(0.0031308))));
}

void main() {
    vec4 texel = texture(uSrc, vUv);
    FragColor = vec4(LinearToSRGB(ACESFilmic(texel.rgb)), texel.a);
}
` + "\x00"

// ── Copy ──

// copyProgram writes the source texture unchanged. With BlendAdditive it
// accumulates onto the bound target.
func copyProgram(blend shader.Blend) *shader.Program {
	return &shader.Program{
		Name:     "copy",
		Vertex:   shader.FullscreenVertex,
		Fragment: copyFragSrc,
		Samplers: []string{uniformSource},
		Blend:    blend,
		Shade: func(f *shader.Fragment) core.Color {
			return f.Sampler(uniformSource).Sample(f.UV)
		},
	}
}

const copyFragSrc = `#version 410 core
in vec2 vUv;
out vec4 FragColor;
uniform sampler2D uSrc;
void main() {
    FragColor = texture(uSrc, vUv);
}
` + "\x00"

// drawCopy copies src into the bound target.
func drawCopy(dev gpu.Device, program *shader.Program, src gpu.RenderTarget) error {
	if err := dev.DrawFullscreen(program, shader.Uniforms{uniformSource: src.Texture()}); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}
