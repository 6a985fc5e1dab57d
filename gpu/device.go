// Package gpu is the contract between the render pipeline and a backend.
package gpu

import (
	"errors"

	"backdrop-engine/core"
	"backdrop-engine/scene"
	"backdrop-engine/shader"
)

var (
	// ErrMissingInput means a pass read a texture nothing wrote this frame.
	ErrMissingInput = errors.New("gpu: pass input was not written this frame")
	// ErrNoContext means the backend has no usable context.
	ErrNoContext = errors.New("gpu: no current context")
	// ErrInvalidTarget means a target was destroyed, has a bad size, or the
	// face index does not match its kind.
	ErrInvalidTarget = errors.New("gpu: invalid render target")
)

// CubeFaces is the number of faces of a cube target, ordered +X,-X,+Y,-Y,+Z,-Z.
const CubeFaces = 6

// TargetOptions describes a 2D render target.
type TargetOptions struct {
	Width  int
	Height int
	Format scene.Format
}

// RenderTarget is an off-screen color + depth surface.
type RenderTarget interface {
	Width() int
	Height() int
	Format() scene.Format
	IsCube() bool

	// Texture is the sampleable color attachment. Its identity is stable
	// across Resize.
	Texture() *scene.Texture

	Resize(width, height int) error
	Destroy()
}

// Device issues draw commands. All methods must be called from the frame
// goroutine.
type Device interface {
	// SetPixelRatio stores the already clamped ratio used for the screen.
	SetPixelRatio(ratio float32)
	PixelRatio() float32
	// SetSize sets the logical screen size; the drawing buffer is
	// size * pixel ratio.
	SetSize(width, height int)
	Size() (width, height int)
	DrawingBufferSize() (width, height int)

	NewRenderTarget(opts TargetOptions) (RenderTarget, error)
	NewCubeRenderTarget(size int, format scene.Format) (RenderTarget, error)

	// SetRenderTarget binds target (face selects the cube face) or the
	// screen when target is nil. The viewport follows the bound surface.
	SetRenderTarget(target RenderTarget, face int) error
	RenderTarget() (RenderTarget, int)

	// Clear fills the bound surface's color and resets its depth.
	Clear(color core.Color)
	// Render draws the scene background and every mesh whose layers match
	// the camera into the bound surface.
	Render(s *scene.Scene, camera scene.Camera) error
	// DrawFullscreen runs program once per pixel of the bound surface.
	DrawFullscreen(program *shader.Program, uniforms shader.Uniforms) error
}

// RestoreTarget returns a func that rebinds the currently bound target.
// Use it with defer around passes that redirect output.
func RestoreTarget(dev Device) func() {
	prev, face := dev.RenderTarget()
	return func() {
		_ = dev.SetRenderTarget(prev, face)
	}
}
