// Package opengl is the interactive backend: a gpu.Device on an OpenGL
// 4.1 core context.
package opengl

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"backdrop-engine/core"
	"backdrop-engine/gpu"
	"backdrop-engine/math"
	"backdrop-engine/scene"
	"backdrop-engine/shader"
)

// ErrShader means a program failed to compile or link.
var ErrShader = errors.New("opengl: shader build failed")

// Device issues GL commands on the context current on the calling thread.
type Device struct {
	log *slog.Logger

	width, height int
	ratio         float32

	// fbWidth and fbHeight are the window framebuffer; zero until set.
	fbWidth, fbHeight int

	target *Target
	face   int

	// Ambient lights standard materials when no environment map is bound.
	Ambient float32

	standard   *program
	background *background
	programs   map[*shader.Program]*program
	meshes     map[*scene.Mesh]*gpuMesh
	textures   map[*scene.Texture]*uploaded
	targets    map[*Target]struct{}

	quadVAO uint32 // empty VAO for the fullscreen triangle
	blank   uint32
}

var _ gpu.Device = (*Device)(nil)

// NewDevice loads the GL entry points and builds the fixed programs.
// The window context must be current.
func NewDevice(width, height int, log *slog.Logger) (*Device, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", gpu.ErrNoContext, err)
	}
	log.Info("opengl context", "version", gl.GoStr(gl.GetString(gl.VERSION)), "renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	standard, err := linkProgram(standardVertSrc, standardFragSrc)
	if err != nil {
		return nil, fmt.Errorf("standard shader: %w", err)
	}
	bg, err := newBackground(shader.FullscreenVertex)
	if err != nil {
		standard.destroy()
		return nil, err
	}

	d := &Device{
		log:        log,
		width:      max(width, 1),
		height:     max(height, 1),
		ratio:      1,
		Ambient:    0.15,
		standard:   standard,
		background: bg,
		programs:   make(map[*shader.Program]*program),
		meshes:     make(map[*scene.Mesh]*gpuMesh),
		textures:   make(map[*scene.Texture]*uploaded),
		targets:    make(map[*Target]struct{}),
		blank:      newBlankTexture(),
	}
	gl.GenVertexArrays(1, &d.quadVAO)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.FrontFace(gl.CCW)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	return d, nil
}

// ── Size ──

func (d *Device) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	d.ratio = ratio
}

func (d *Device) PixelRatio() float32 { return d.ratio }

func (d *Device) SetSize(width, height int) {
	d.width, d.height = max(width, 1), max(height, 1)
	if d.target == nil {
		d.viewport()
	}
}

func (d *Device) Size() (int, int) { return d.width, d.height }

func (d *Device) DrawingBufferSize() (int, int) {
	return max(int(float32(d.width)*d.ratio), 1), max(int(float32(d.height)*d.ratio), 1)
}

// SetFramebufferSize records the window framebuffer. The screen viewport
// covers it even when the drawing buffer is smaller because of the pixel
// ratio clamp; the output pass then upscales.
func (d *Device) SetFramebufferSize(width, height int) {
	d.fbWidth, d.fbHeight = width, height
	if d.target == nil {
		d.viewport()
	}
}

func (d *Device) screenSize() (int, int) {
	dw, dh := d.DrawingBufferSize()
	return screenViewport(d.fbWidth, d.fbHeight, dw, dh)
}

// screenViewport prefers the framebuffer size and falls back to the
// drawing buffer when the framebuffer is unknown or empty.
func screenViewport(fbWidth, fbHeight, drawWidth, drawHeight int) (int, int) {
	if fbWidth > 0 && fbHeight > 0 {
		return fbWidth, fbHeight
	}
	return drawWidth, drawHeight
}

// ── Targets ──

func (d *Device) NewRenderTarget(opts gpu.TargetOptions) (gpu.RenderTarget, error) {
	t, err := newTarget("target", opts.Width, opts.Height, opts.Format, false)
	if err != nil {
		return nil, err
	}
	d.targets[t] = struct{}{}
	return t, nil
}

func (d *Device) NewCubeRenderTarget(size int, format scene.Format) (gpu.RenderTarget, error) {
	t, err := newTarget("cube", size, size, format, true)
	if err != nil {
		return nil, err
	}
	d.targets[t] = struct{}{}
	return t, nil
}

func (d *Device) SetRenderTarget(target gpu.RenderTarget, face int) error {
	if target == nil {
		d.target, d.face = nil, 0
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		d.viewport()
		return nil
	}
	t, ok := target.(*Target)
	if !ok || t.destroyed || face < 0 || face >= len(t.fbos) {
		return fmt.Errorf("bind face %d: %w", face, gpu.ErrInvalidTarget)
	}
	d.target, d.face = t, face
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbos[face])
	d.viewport()
	return nil
}

func (d *Device) RenderTarget() (gpu.RenderTarget, int) {
	if d.target == nil {
		return nil, 0
	}
	return d.target, d.face
}

func (d *Device) viewport() {
	if d.target != nil {
		gl.Viewport(0, 0, d.target.width, d.target.height)
		return
	}
	w, h := d.screenSize()
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (d *Device) checkBound() error {
	if d.target != nil && d.target.destroyed {
		return fmt.Errorf("draw: %w", gpu.ErrInvalidTarget)
	}
	return nil
}

// ── Drawing ──

func (d *Device) Clear(c core.Color) {
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) Render(s *scene.Scene, camera scene.Camera) error {
	if err := d.checkBound(); err != nil {
		return err
	}
	d.Clear(s.ClearColor)
	gl.Disable(gl.BLEND)

	view := camera.GetViewMatrix()
	proj := camera.GetProjectionMatrix()
	if s.Background != nil {
		d.background.draw(d, s, view, proj)
	}

	viewProj := view.Mul(proj)
	env := d.envFor(s.Environment, s.EnvironmentRotation)
	for _, n := range s.RenderList(camera.GetLayers()) {
		if err := d.drawNode(n, viewProj, camera.GetPosition(), env); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) drawNode(n *scene.Node, viewProj math.Mat4, eye math.Vec3, env envBinding) error {
	m := d.ensureUploaded(n.Mesh)
	if m == nil {
		return nil
	}
	mat := n.Mesh.EffectiveMaterial()

	var p *program
	if mat.IsShader() {
		var err error
		if p, err = d.programFor(mat.Program); err != nil {
			return err
		}
		gl.UseProgram(p.id)
		d.setUniforms(p, mat.Uniforms, &textureUnits{})
	} else {
		p = d.standard
		gl.UseProgram(p.id)
		d.applyStandard(p, mat, eye, env)
	}

	model := n.GetWorldMatrix().MGL()
	vp := viewProj.MGL()
	gl.UniformMatrix4fv(p.loc("uModel"), 1, false, &model[0])
	gl.UniformMatrix4fv(p.loc("uViewProj"), 1, false, &vp[0])

	applySide(mat.Side)
	if mat.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(mat.DepthWrite)

	m.draw(len(n.Mesh.Vertices))
	gl.DepthMask(true)
	return nil
}

func applySide(side scene.Side) {
	switch side {
	case scene.DoubleSide:
		gl.Disable(gl.CULL_FACE)
	case scene.BackSide:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

func (d *Device) DrawFullscreen(prog *shader.Program, uniforms shader.Uniforms) error {
	if err := d.checkBound(); err != nil {
		return err
	}
	p, err := d.programFor(prog)
	if err != nil {
		return err
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	if prog.Blend == shader.BlendAdditive {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	} else {
		gl.Disable(gl.BLEND)
	}

	gl.UseProgram(p.id)
	units := &textureUnits{}
	d.setUniforms(p, uniforms, units)
	for _, name := range prog.Samplers {
		if _, ok := uniforms[name]; !ok {
			gl.Uniform1i(p.loc(name), units.bind(gl.TEXTURE_2D, d.blank))
		}
	}

	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
	return nil
}

// programFor compiles prog on first use.
func (d *Device) programFor(prog *shader.Program) (*program, error) {
	if p, ok := d.programs[prog]; ok {
		return p, nil
	}
	vert := prog.Vertex
	if vert == "" {
		vert = shader.FullscreenVertex
	}
	p, err := linkProgram(vert, prog.Fragment)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", prog.Name, err)
	}
	d.programs[prog] = p
	d.log.Debug("compiled program", "name", prog.Name)
	return p, nil
}

// ReadPixels returns the screen as a top-down image. Call it before the
// buffers are swapped.
func (d *Device) ReadPixels() *image.NRGBA {
	prev, face := d.RenderTarget()
	defer func() { _ = d.SetRenderTarget(prev, face) }()
	_ = d.SetRenderTarget(nil, 0)

	width, height := d.screenSize()
	raw := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&raw[0]))
	return &image.NRGBA{Pix: flipRows(raw, width, height), Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
}

// Destroy frees every GL object the device created.
func (d *Device) Destroy() {
	for t := range d.targets {
		t.Destroy()
	}
	for _, p := range d.programs {
		p.destroy()
	}
	for mesh := range d.meshes {
		d.ReleaseMesh(mesh)
	}
	for tex := range d.textures {
		d.DeleteTexture(tex)
	}
	d.standard.destroy()
	d.background.destroy()
	gl.DeleteVertexArrays(1, &d.quadVAO)
	gl.DeleteTextures(1, &d.blank)
}
