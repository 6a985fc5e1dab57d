package pipeline

import (
	"fmt"
	"log/slog"

	"backdrop-engine/gpu"
	"backdrop-engine/math"
	"backdrop-engine/scene"
)

// CubeLayer is the layer mask the capture cameras render. Receivers of the
// capture live on ReflectiveLayer only so they never see themselves.
const (
	CubeLayer       = 0
	ReflectiveLayer = 1
)

// cubeFaceDirs holds the look direction and up vector of each face, in the
// +X,-X,+Y,-Y,+Z,-Z order of cube targets.
var cubeFaceDirs = [gpu.CubeFaces]struct{ forward, up math.Vec3 }{
	{math.Vec3Right, math.Vec3Down},
	{math.Vec3Left, math.Vec3Down},
	{math.Vec3Up, math.Vec3Front},
	{math.Vec3Down, math.Vec3Back},
	{math.Vec3Front, math.Vec3Down},
	{math.Vec3Back, math.Vec3Down},
}

// CubeCapture renders the scene around a point into a cube target each
// frame and feeds it to the receiver materials as their environment map.
type CubeCapture struct {
	log *slog.Logger

	target    gpu.RenderTarget
	cameras   [gpu.CubeFaces]*scene.PerspectiveCamera
	position  math.Vec3
	receivers []*scene.Material
}

// NewCubeCapture creates a size x size cube target and six 90 degree
// cameras at the origin.
func NewCubeCapture(dev gpu.Device, size int, format scene.Format, near, far float32, log *slog.Logger) (*CubeCapture, error) {
	if log == nil {
		log = slog.Default()
	}
	target, err := dev.NewCubeRenderTarget(size, format)
	if err != nil {
		return nil, fmt.Errorf("cube capture: %w", err)
	}
	target.Texture().Name = "cube-environment"

	c := &CubeCapture{log: log, target: target}
	for i := range c.cameras {
		cam := scene.NewPerspectiveCamera(math.Pi/2, 1, near, far)
		cam.Layers.Set(CubeLayer)
		c.cameras[i] = cam
	}
	c.SetPosition(math.Vec3Zero)
	return c, nil
}

// SetPosition moves the capture point and re-aims every face camera.
func (c *CubeCapture) SetPosition(p math.Vec3) {
	c.position = p
	for i, cam := range c.cameras {
		cam.SetPosition(p)
		cam.LookAt(p.Add(cubeFaceDirs[i].forward), cubeFaceDirs[i].up)
	}
}

func (c *CubeCapture) Position() math.Vec3 { return c.position }

// Camera returns the camera of face i.
func (c *CubeCapture) Camera(i int) *scene.PerspectiveCamera { return c.cameras[i] }

// AddReceiver makes m sample the capture as its environment map.
func (c *CubeCapture) AddReceiver(m *scene.Material) {
	m.EnvMap = c.target.Texture()
	c.receivers = append(c.receivers, m)
}

func (c *CubeCapture) Target() gpu.RenderTarget { return c.target }

// Texture is the cube environment texture.
func (c *CubeCapture) Texture() *scene.Texture { return c.target.Texture() }

// Update renders all six faces and rebinds the target that was bound
// before the call.
func (c *CubeCapture) Update(dev gpu.Device, s *scene.Scene) error {
	defer gpu.RestoreTarget(dev)()
	for i, cam := range c.cameras {
		if err := dev.SetRenderTarget(c.target, i); err != nil {
			return fmt.Errorf("cube face %d: %w", i, err)
		}
		if err := dev.Render(s, cam); err != nil {
			return fmt.Errorf("cube face %d: %w", i, err)
		}
	}
	tex := c.target.Texture()
	tex.MarkUpdated()
	for _, m := range c.receivers {
		m.EnvMap = tex
	}
	return nil
}

func (c *CubeCapture) Destroy() {
	c.target.Destroy()
}
