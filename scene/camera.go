package scene

import (
	"github.com/chewxy/math32"

	"backdrop-engine/math"
)

// Camera is what a render pass needs from a viewpoint.
type Camera interface {
	GetViewMatrix() math.Mat4
	GetProjectionMatrix() math.Mat4
	GetPosition() math.Vec3
	GetLayers() Layers
}

// cameraBase holds the extrinsics shared by both projections.
type cameraBase struct {
	Position math.Vec3
	Rotation math.Quaternion
	Layers   Layers
}

func newCameraBase() cameraBase {
	return cameraBase{
		Position: math.Vec3Zero,
		Rotation: math.QuaternionIdentity(),
		Layers:   DefaultLayers,
	}
}

func (c *cameraBase) GetPosition() math.Vec3 { return c.Position }
func (c *cameraBase) GetLayers() Layers       { return c.Layers }

func (c *cameraBase) SetPosition(pos math.Vec3) {
	c.Position = pos
}

// LookAt orients the camera so its -Z axis points at target.
func (c *cameraBase) LookAt(target, up math.Vec3) {
	c.Rotation = math.QuaternionLookRotation(target.Sub(c.Position), up)
}

// GetViewMatrix is the inverse of the camera's world transform.
func (c *cameraBase) GetViewMatrix() math.Mat4 {
	return math.Mat4Translation(c.Position.Negate()).Mul(c.Rotation.Conjugate().ToMat4())
}

func (c *cameraBase) GetForward() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Back)
}

func (c *cameraBase) GetRight() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Right)
}

func (c *cameraBase) GetUp() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Up)
}

// PerspectiveCamera is the main view. FOV is vertical, in radians.
//
// Changing FOV, Aspect, Near or Far takes effect after UpdateProjectionMatrix.
type PerspectiveCamera struct {
	cameraBase
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32

	projectionMatrix math.Mat4
}

func NewPerspectiveCamera(fov, aspect, near, far float32) *PerspectiveCamera {
	c := &PerspectiveCamera{
		cameraBase: newCameraBase(),
		FOV:        fov,
		Aspect:     aspect,
		Near:       near,
		Far:        far,
	}
	c.UpdateProjectionMatrix()
	return c
}

func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	c.projectionMatrix = math.Mat4Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

func (c *PerspectiveCamera) GetProjectionMatrix() math.Mat4 {
	return c.projectionMatrix
}

// VisiblePlane returns the world-space size of the view frustum cross
// section at distance depth from the camera.
func (c *PerspectiveCamera) VisiblePlane(depth float32) (width, height float32) {
	height = 2 * depth * math32.Tan(c.FOV/2)
	width = height * c.Aspect
	return width, height
}

// OrthographicCamera renders with a fixed box frustum.
type OrthographicCamera struct {
	cameraBase
	Left, Right, Top, Bottom float32
	Near, Far                float32
}

func NewOrthographicCamera(left, right, top, bottom, near, far float32) *OrthographicCamera {
	return &OrthographicCamera{
		cameraBase: newCameraBase(),
		Left:       left,
		Right:      right,
		Top:        top,
		Bottom:     bottom,
		Near:       near,
		Far:        far,
	}
}

func (c *OrthographicCamera) GetProjectionMatrix() math.Mat4 {
	return math.Mat4Orthographic(c.Left, c.Right, c.Bottom, c.Top, c.Near, c.Far)
}
