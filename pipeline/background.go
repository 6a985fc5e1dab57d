package pipeline

import (
	"fmt"
	"log/slog"

	"backdrop-engine/envshader"
	"backdrop-engine/gpu"
	"backdrop-engine/math"
	"backdrop-engine/scene"
	"backdrop-engine/shader"
)

// BackgroundOptions configures the offscreen backdrop pass.
type BackgroundOptions struct {
	Width  int
	Height int
	Format scene.Format
	// Source is the static image fed through the environment shader.
	Source *scene.Texture
	Params envshader.Params
	// UseAsEnvironment also installs the result as the scene's lighting
	// environment.
	UseAsEnvironment bool
}

// DefaultBackgroundOptions returns a 1024x512 float target with the
// default shader parameters.
func DefaultBackgroundOptions() BackgroundOptions {
	return BackgroundOptions{
		Width:            1024,
		Height:           512,
		Format:           scene.FormatFloat,
		Params:           envshader.DefaultParams(),
		UseAsEnvironment: true,
	}
}

// BackgroundRenderer draws a plane shaded by the environment stage from a
// fixed orthographic camera into its own target, then installs the target
// as an equirectangular background.
type BackgroundRenderer struct {
	log *slog.Logger

	params   envshader.Params
	material *scene.Material
	plane    *scene.Node
	scene    *scene.Scene
	camera   *scene.OrthographicCamera
	target   gpu.RenderTarget

	UseAsEnvironment bool
}

func NewBackgroundRenderer(dev gpu.Device, opts BackgroundOptions, log *slog.Logger) (*BackgroundRenderer, error) {
	if log == nil {
		log = slog.Default()
	}
	target, err := dev.NewRenderTarget(gpu.TargetOptions{Width: opts.Width, Height: opts.Height, Format: opts.Format})
	if err != nil {
		return nil, fmt.Errorf("background target: %w", err)
	}
	target.Texture().Name = "background"

	b := &BackgroundRenderer{
		log:              log,
		params:           opts.Params,
		scene:            scene.NewScene(),
		target:           target,
		UseAsEnvironment: opts.UseAsEnvironment,
	}

	b.material = scene.NewShaderMaterial("environment", envshader.NewProgram(), opts.Params.Uniforms(opts.Source))
	mesh := scene.CreatePlane(2, 2, 1)
	mesh.Name = "backdrop"
	mesh.Material = b.material
	b.plane = scene.NewMeshNode(mesh)
	b.scene.AddNode(b.plane)

	b.camera = scene.NewOrthographicCamera(-1, 1, 1, -1, 0.1, 10)
	b.camera.SetPosition(math.Vec3{Z: 1})
	b.camera.LookAt(math.Vec3Zero, math.Vec3Up)

	log.Debug("background renderer created", "width", opts.Width, "height", opts.Height, "format", opts.Format)
	return b, nil
}

// Params returns the live shader parameters.
func (b *BackgroundRenderer) Params() envshader.Params { return b.params }

// SetParams replaces every parameter, keeping the current resolution.
func (b *BackgroundRenderer) SetParams(p envshader.Params) {
	p.Resolution = b.params.Resolution
	b.params = p
	b.params.Apply(b.material.Uniforms)
}

// SetSource swaps the texture fed through the shader.
func (b *BackgroundRenderer) SetSource(tex *scene.Texture) {
	b.material.Uniforms.Set(envshader.UniformMap, tex)
}

// SetResolution updates the viewport resolution that scales the blur step.
func (b *BackgroundRenderer) SetResolution(width, height int) {
	b.params.Resolution = math.Vec2{X: float32(max(width, 1)), Y: float32(max(height, 1))}
	b.params.Apply(b.material.Uniforms)
}

// SetSize makes the renderer a resize listener of the rig.
func (b *BackgroundRenderer) SetSize(width, height int) error {
	b.SetResolution(width, height)
	return nil
}

// Target is the render target holding the last backdrop.
func (b *BackgroundRenderer) Target() gpu.RenderTarget { return b.target }

// Texture is the equirectangular backdrop texture.
func (b *BackgroundRenderer) Texture() *scene.Texture { return b.target.Texture() }

// Uniforms exposes the material uniforms driving the shader.
func (b *BackgroundRenderer) Uniforms() shader.Uniforms { return b.material.Uniforms }

// Render redraws the backdrop with profile and installs it on s. The
// screen is bound again on return, including on error.
func (b *BackgroundRenderer) Render(dev gpu.Device, s *scene.Scene, profile envshader.Profile) error {
	if !profile.Valid() {
		return fmt.Errorf("background: %w", envshader.ErrInvalidProfile)
	}
	b.params.Profile = profile
	b.params.Apply(b.material.Uniforms)

	defer func() { _ = dev.SetRenderTarget(nil, 0) }()
	if err := dev.SetRenderTarget(b.target, 0); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if err := dev.Render(b.scene, b.camera); err != nil {
		return fmt.Errorf("background: %w", err)
	}

	tex := b.target.Texture()
	tex.Mapping = scene.MappingEquirectangular
	tex.MarkUpdated()
	s.Background = tex
	if b.UseAsEnvironment {
		s.Environment = tex
	}
	return nil
}

func (b *BackgroundRenderer) Destroy() {
	b.target.Destroy()
	b.scene.Dispose()
}
