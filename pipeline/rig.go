package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"backdrop-engine/core"
	"backdrop-engine/gpu"
	"backdrop-engine/math"
	"backdrop-engine/scene"
)

// ErrInvalidViewport is returned for a resize to a non-positive size.
var ErrInvalidViewport = errors.New("pipeline: viewport must have positive size")

// Resizer is anything sized to the logical viewport.
type Resizer interface {
	SetSize(width, height int) error
}

// PointerListener receives the normalized pointer position.
type PointerListener interface {
	OnPointer(p math.Vec2)
}

// Rig owns the main camera and its controls, and turns viewport and
// pointer events into camera, device and listener updates. It never reads
// host state: every input arrives as a value.
type Rig struct {
	Camera   *scene.PerspectiveCamera
	controls *scene.OrbitControls
	dev      gpu.Device
	log      *slog.Logger

	viewport  core.ViewportState
	planeW    float32
	planeH    float32
	mouse     math.Vec2
	resizers  []Resizer
	listeners []PointerListener
}

func NewRig(dev gpu.Device, camera *scene.PerspectiveCamera, controls *scene.OrbitControls, log *slog.Logger) *Rig {
	if log == nil {
		log = slog.Default()
	}
	return &Rig{Camera: camera, controls: controls, dev: dev, log: log}
}

// Controls may be nil when the rig runs without interaction.
func (r *Rig) Controls() *scene.OrbitControls { return r.controls }

func (r *Rig) AddResizer(rs Resizer) { r.resizers = append(r.resizers, rs) }

func (r *Rig) AddPointerListener(l PointerListener) { r.listeners = append(r.listeners, l) }

// Viewport is the last applied viewport.
func (r *Rig) Viewport() core.ViewportState { return r.viewport }

// VisiblePlane is the frustum cross section at the camera's z depth.
func (r *Rig) VisiblePlane() (width, height float32) { return r.planeW, r.planeH }

// Mouse is the last normalized pointer position.
func (r *Rig) Mouse() math.Vec2 { return r.mouse }

// OnResize applies vp to the camera, the device and every resizer.
func (r *Rig) OnResize(vp core.ViewportState) error {
	if !vp.Valid() {
		return fmt.Errorf("resize %dx%d: %w", vp.Width, vp.Height, ErrInvalidViewport)
	}
	r.viewport = vp

	r.Camera.Aspect = vp.Aspect()
	r.Camera.UpdateProjectionMatrix()
	r.planeW, r.planeH = r.Camera.VisiblePlane(r.Camera.Position.Z)

	r.dev.SetPixelRatio(vp.EffectivePixelRatio())
	r.dev.SetSize(vp.Width, vp.Height)
	for _, rs := range r.resizers {
		if err := rs.SetSize(vp.Width, vp.Height); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
	}
	r.log.Debug("viewport resized", "width", vp.Width, "height", vp.Height, "pixel_ratio", vp.EffectivePixelRatio())
	return nil
}

// NormalizePointer maps logical pixel coordinates to [-1,1] with y up.
func NormalizePointer(x, y float64, vp core.ViewportState) math.Vec2 {
	return math.Vec2{
		X: float32(x/float64(vp.Width))*2 - 1,
		Y: -float32(y/float64(vp.Height))*2 + 1,
	}
}

// OnMouseMove stores the normalized pointer, feeds orbit drags and
// forwards the position to every listener.
func (r *Rig) OnMouseMove(x, y float64) math.Vec2 {
	if !r.viewport.Valid() {
		return r.mouse
	}
	r.mouse = NormalizePointer(x, y, r.viewport)
	if r.controls != nil {
		r.controls.PointerMove(x, y)
	}
	for _, l := range r.listeners {
		l.OnPointer(r.mouse)
	}
	return r.mouse
}

func (r *Rig) OnPointerDown(x, y float64) {
	if r.controls != nil {
		r.controls.PointerDown(x, y)
	}
}

func (r *Rig) OnPointerUp() {
	if r.controls != nil {
		r.controls.PointerUp()
	}
}

func (r *Rig) OnScroll(dy float64) {
	if r.controls != nil {
		r.controls.Scroll(dy)
	}
}

// Update advances the controls by dt seconds.
func (r *Rig) Update(dt float32) {
	if r.controls != nil && r.controls.Enabled {
		r.controls.Update(dt)
	}
}
