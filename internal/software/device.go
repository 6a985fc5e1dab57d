package software

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"backdrop-engine/core"
	"backdrop-engine/gpu"
	"backdrop-engine/math"
	"backdrop-engine/scene"
	"backdrop-engine/shader"
)

// Device renders into CPU surfaces. The screen is an RGBA8 surface sized
// to the drawing buffer.
type Device struct {
	log *slog.Logger

	width, height int
	ratio         float32
	screen        *Surface

	target *Target
	face   int

	// Ambient lights standard materials when no environment map is bound.
	Ambient float32

	// Stats of the most recent frame, reset by ResetStats.
	stats Stats
}

// Stats counts submitted work.
type Stats struct {
	RenderCalls     int
	FullscreenCalls int
	Triangles       int
}

var _ gpu.Device = (*Device)(nil)

// NewDevice creates a device with a width x height screen at pixel ratio 1.
func NewDevice(width, height int, log *slog.Logger) *Device {
	if log == nil {
		log = slog.Default()
	}
	d := &Device{
		log:     log,
		width:   max(width, 1),
		height:  max(height, 1),
		ratio:   1,
		Ambient: 0.15,
	}
	d.resizeScreen()
	return d
}

// ── Size ──

func (d *Device) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	d.ratio = ratio
	d.resizeScreen()
}

func (d *Device) PixelRatio() float32 { return d.ratio }

func (d *Device) SetSize(width, height int) {
	d.width, d.height = max(width, 1), max(height, 1)
	d.resizeScreen()
}

func (d *Device) Size() (int, int) { return d.width, d.height }

func (d *Device) DrawingBufferSize() (int, int) {
	return max(int(float32(d.width)*d.ratio), 1), max(int(float32(d.height)*d.ratio), 1)
}

func (d *Device) resizeScreen() {
	w, h := d.DrawingBufferSize()
	if d.screen != nil && d.screen.Width == w && d.screen.Height == h {
		return
	}
	d.screen = NewSurface(w, h, scene.FormatRGBA8)
	d.log.Debug("software screen resized", "width", w, "height", h)
}

// Screen is the default framebuffer.
func (d *Device) Screen() *Surface { return d.screen }

// Stats returns the counters since the last ResetStats.
func (d *Device) Stats() Stats { return d.stats }

func (d *Device) ResetStats() { d.stats = Stats{} }

// ── Targets ──

func (d *Device) NewRenderTarget(opts gpu.TargetOptions) (gpu.RenderTarget, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("new render target %dx%d: %w", opts.Width, opts.Height, gpu.ErrInvalidTarget)
	}
	return newTarget("target", opts.Width, opts.Height, 1, opts.Format), nil
}

func (d *Device) NewCubeRenderTarget(size int, format scene.Format) (gpu.RenderTarget, error) {
	if size <= 0 {
		return nil, fmt.Errorf("new cube target %d: %w", size, gpu.ErrInvalidTarget)
	}
	return newTarget("cube", size, size, gpu.CubeFaces, format), nil
}

func (d *Device) SetRenderTarget(target gpu.RenderTarget, face int) error {
	if target == nil {
		d.target, d.face = nil, 0
		return nil
	}
	t, ok := target.(*Target)
	if !ok {
		return fmt.Errorf("set render target %T: %w", target, gpu.ErrInvalidTarget)
	}
	if t.destroyed || face < 0 || face >= len(t.faces) {
		return fmt.Errorf("set render target face %d: %w", face, gpu.ErrInvalidTarget)
	}
	d.target, d.face = t, face
	return nil
}

func (d *Device) RenderTarget() (gpu.RenderTarget, int) {
	if d.target == nil {
		return nil, 0
	}
	return d.target, d.face
}

func (d *Device) bound() (*Surface, error) {
	if d.target == nil {
		return d.screen, nil
	}
	if d.target.destroyed {
		return nil, fmt.Errorf("bound target: %w", gpu.ErrInvalidTarget)
	}
	return d.target.faces[d.face], nil
}

// ── Drawing ──

func (d *Device) Clear(c core.Color) {
	if surf, err := d.bound(); err == nil {
		surf.Clear(c)
	}
}

func (d *Device) Render(s *scene.Scene, camera scene.Camera) error {
	surf, err := d.bound()
	if err != nil {
		return err
	}
	d.stats.RenderCalls++

	surf.Clear(s.ClearColor)
	view := camera.GetViewMatrix()
	proj := camera.GetProjectionMatrix()

	if s.Background != nil {
		d.drawBackground(surf, s, view.Mul(proj))
	}

	env := withRotation(d.envSampler(s.Environment), s.EnvironmentRotation)
	for _, n := range s.RenderList(camera.GetLayers()) {
		d.drawMesh(surf, n, view, proj, camera.GetPosition(), env)
	}
	return nil
}

func (d *Device) DrawFullscreen(program *shader.Program, uniforms shader.Uniforms) error {
	surf, err := d.bound()
	if err != nil {
		return err
	}
	if program == nil || program.Shade == nil {
		return fmt.Errorf("draw fullscreen: program has no CPU stage")
	}
	d.stats.FullscreenCalls++

	samplers := d.resolveSamplers(program, uniforms)
	w, h := surf.Width, surf.Height
	additive := program.Blend == shader.BlendAdditive
	parallelRows(h, func(y0, y1 int) {
		f := shader.NewFragment(uniforms, samplers)
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				f.UV = math.Vec2{X: (float32(x) + 0.5) / float32(w), Y: (float32(y) + 0.5) / float32(h)}
				c := program.Shade(f)
				if additive {
					surf.Add(x, y, c)
				} else {
					surf.Set(x, y, c)
				}
			}
		}
	})
	return nil
}

func (d *Device) drawBackground(surf *Surface, s *scene.Scene, viewProj math.Mat4) {
	tex := s.Background
	if tex.Mapping == scene.MappingUV {
		src := d.sampler2D(tex)
		if src == nil {
			return
		}
		parallelRows(surf.Height, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				for x := 0; x < surf.Width; x++ {
					uv := math.Vec2{X: (float32(x) + 0.5) / float32(surf.Width), Y: (float32(y) + 0.5) / float32(surf.Height)}
					surf.Set(x, y, src.Sample(uv))
				}
			}
		})
		return
	}

	env := withRotation(d.envSampler(tex), s.BackgroundRotation)
	if env == nil {
		return
	}
	inv := viewProj.Inverse()
	parallelRows(surf.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			ny := (float32(y)+0.5)/float32(surf.Height)*2 - 1
			for x := 0; x < surf.Width; x++ {
				nx := (float32(x)+0.5)/float32(surf.Width)*2 - 1
				near := inv.MulVec3(math.Vec3{X: nx, Y: ny, Z: -1})
				far := inv.MulVec3(math.Vec3{X: nx, Y: ny, Z: 1})
				surf.Set(x, y, env.SampleDir(far.Sub(near)))
			}
		}
	})
}

// ── Texture resolution ──

func (d *Device) sampler2D(tex *scene.Texture) shader.Sampler {
	if tex == nil {
		return nil
	}
	if t, ok := tex.Source.(*Target); ok && !t.IsCube() {
		return surfaceSampler{t.faces[0]}
	}
	if len(tex.Pixels) >= tex.Width*tex.Height*4 && tex.Width > 0 && tex.Height > 0 {
		return imageSampler{w: tex.Width, h: tex.Height, pix: tex.Pixels}
	}
	return nil
}

func (d *Device) envSampler(tex *scene.Texture) dirSampler {
	if tex == nil {
		return nil
	}
	if t, ok := tex.Source.(*Target); ok && t.IsCube() {
		var cs cubeSampler
		copy(cs.faces[:], t.faces)
		return cs
	}
	if s := d.sampler2D(tex); s != nil {
		return equirectSampler{src: s}
	}
	return nil
}

func (d *Device) resolveSamplers(program *shader.Program, uniforms shader.Uniforms) map[string]shader.Sampler {
	out := make(map[string]shader.Sampler, len(program.Samplers))
	for _, name := range program.Samplers {
		if tex, ok := uniforms[name].(*scene.Texture); ok {
			if s := d.sampler2D(tex); s != nil {
				out[name] = s
			}
		}
	}
	return out
}

// parallelRows splits [0, rows) into bands, one goroutine per CPU.
func parallelRows(rows int, fn func(y0, y1 int)) {
	workers := min(runtime.GOMAXPROCS(0), rows)
	if workers <= 1 {
		fn(0, rows)
		return
	}
	band := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for y := 0; y < rows; y += band {
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y, min(y+band, rows))
	}
	wg.Wait()
}
