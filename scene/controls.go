package scene

import (
	"github.com/charmbracelet/harmonica"
	"github.com/chewxy/math32"

	"backdrop-engine/math"
)

// OrbitControls orbits a perspective camera around Target. Pointer input
// moves the goal angles; Update eases the actual angles toward them with
// critically damped springs.
type OrbitControls struct {
	Camera *PerspectiveCamera
	Target math.Vec3

	Enabled       bool
	RotateSpeed   float32 // radians per logical pixel of drag
	ZoomSpeed     float32
	MinDistance   float32
	MaxDistance   float32
	MinPolarAngle float32
	MaxPolarAngle float32

	// Spring tuning, see harmonica.NewSpring.
	AngularFrequency float64
	DampingRatio     float64

	azimuth, polar, radius          float64
	goalAzimuth, goalPolar, goalRad float64
	velAzimuth, velPolar, velRadius float64

	dragging   bool
	lastX      float64
	lastY      float64
	hasPointer bool
}

// NewOrbitControls derives the spherical state from the camera's current
// position relative to target.
func NewOrbitControls(camera *PerspectiveCamera, target math.Vec3) *OrbitControls {
	c := &OrbitControls{
		Camera:           camera,
		Target:           target,
		Enabled:          true,
		RotateSpeed:      0.005,
		ZoomSpeed:        0.95,
		MinDistance:      0.1,
		MaxDistance:      50,
		MinPolarAngle:    0.01,
		MaxPolarAngle:    math32.Pi - 0.01,
		AngularFrequency: 6.0,
		DampingRatio:     1.0,
	}
	c.Sync()
	return c
}

// Sync re-reads the camera position, discarding any motion in flight.
func (c *OrbitControls) Sync() {
	offset := c.Camera.Position.Sub(c.Target)
	r := offset.Length()
	if r == 0 {
		r = 1
		offset = math.Vec3Front
	}
	c.radius = float64(r)
	c.azimuth = float64(math32.Atan2(offset.X, offset.Z))
	c.polar = float64(math32.Acos(math.Clamp(offset.Y/r, -1, 1)))
	c.goalAzimuth, c.goalPolar, c.goalRad = c.azimuth, c.polar, c.radius
	c.velAzimuth, c.velPolar, c.velRadius = 0, 0, 0
}

func (c *OrbitControls) PointerDown(x, y float64) {
	c.dragging = true
	c.lastX, c.lastY = x, y
	c.hasPointer = true
}

func (c *OrbitControls) PointerUp() {
	c.dragging = false
}

// PointerMove takes logical pixel coordinates.
func (c *OrbitControls) PointerMove(x, y float64) {
	if c.dragging && c.hasPointer && c.Enabled {
		c.goalAzimuth -= (x - c.lastX) * float64(c.RotateSpeed)
		c.goalPolar -= (y - c.lastY) * float64(c.RotateSpeed)
		c.goalPolar = clamp64(c.goalPolar, float64(c.MinPolarAngle), float64(c.MaxPolarAngle))
	}
	c.lastX, c.lastY = x, y
	c.hasPointer = true
}

// Scroll dollies in for positive dy and out for negative dy.
func (c *OrbitControls) Scroll(dy float64) {
	if !c.Enabled || dy == 0 {
		return
	}
	scale := float64(c.ZoomSpeed)
	if dy < 0 {
		scale = 1 / scale
	}
	c.goalRad = clamp64(c.goalRad*scale, float64(c.MinDistance), float64(c.MaxDistance))
}

// Update steps the springs by dt seconds and moves the camera.
func (c *OrbitControls) Update(dt float32) {
	if dt > 0 {
		spring := harmonica.NewSpring(float64(dt), c.AngularFrequency, c.DampingRatio)
		c.azimuth, c.velAzimuth = spring.Update(c.azimuth, c.velAzimuth, c.goalAzimuth)
		c.polar, c.velPolar = spring.Update(c.polar, c.velPolar, c.goalPolar)
		c.radius, c.velRadius = spring.Update(c.radius, c.velRadius, c.goalRad)
	}

	sinPolar := math32.Sin(float32(c.polar))
	offset := math.Vec3{
		X: float32(c.radius) * sinPolar * math32.Sin(float32(c.azimuth)),
		Y: float32(c.radius) * math32.Cos(float32(c.polar)),
		Z: float32(c.radius) * sinPolar * math32.Cos(float32(c.azimuth)),
	}
	c.Camera.SetPosition(c.Target.Add(offset))
	c.Camera.LookAt(c.Target, math.Vec3Up)
}

// Distance is the current camera to target distance.
func (c *OrbitControls) Distance() float32 {
	return float32(c.radius)
}

func clamp64(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
