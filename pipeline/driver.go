package pipeline

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"backdrop-engine/core"
	"backdrop-engine/envshader"
	"backdrop-engine/gpu"
	"backdrop-engine/math"
	"backdrop-engine/model"
	"backdrop-engine/scene"
)

// ── Clocks ──

// Clock reports time since the driver started.
type Clock interface {
	Elapsed() time.Duration
}

// WallClock follows the monotonic system clock.
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock { return &WallClock{start: time.Now()} }

func (c *WallClock) Elapsed() time.Duration { return time.Since(c.start) }

// ManualClock only moves when told to.
type ManualClock struct {
	mu sync.Mutex
	t  time.Duration
}

func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t += d
	c.mu.Unlock()
}

func (c *ManualClock) Set(t time.Duration) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// ── Events ──

// Event is a host input applied at the start of the next tick.
type Event interface {
	apply(d *Driver) error
}

// ResizeEvent carries a new viewport.
type ResizeEvent struct{ Viewport core.ViewportState }

// PointerMoveEvent carries logical pixel coordinates.
type PointerMoveEvent struct{ X, Y float64 }

// PointerButtonEvent starts or ends an orbit drag.
type PointerButtonEvent struct {
	Down bool
	X, Y float64
}

// ScrollEvent dollies the orbit camera.
type ScrollEvent struct{ DY float64 }

// A minimized window reports a zero size; the last valid viewport stays.
func (e ResizeEvent) apply(d *Driver) error {
	if !e.Viewport.Valid() {
		d.log.Debug("ignoring empty viewport", "width", e.Viewport.Width, "height", e.Viewport.Height)
		return nil
	}
	return d.rig.OnResize(e.Viewport)
}

func (e PointerMoveEvent) apply(d *Driver) error {
	d.rig.OnMouseMove(e.X, e.Y)
	return nil
}

func (e PointerButtonEvent) apply(d *Driver) error {
	if e.Down {
		d.rig.OnPointerDown(e.X, e.Y)
	} else {
		d.rig.OnPointerUp()
	}
	return nil
}

func (e ScrollEvent) apply(d *Driver) error {
	d.rig.OnScroll(e.DY)
	return nil
}

// ProfileSource yields the color profile, read once per tick.
type ProfileSource interface {
	Profile() envshader.Profile
}

// StaticProfile is a ProfileSource that never changes.
type StaticProfile envshader.Profile

func (p StaticProfile) Profile() envshader.Profile { return envshader.Profile(p) }

// Stats describes the frames driven so far.
type Stats struct {
	Frames  uint64
	Elapsed time.Duration
	Delta   time.Duration
}

// eventQueueSize bounds the number of host events between two ticks.
const eventQueueSize = 64

// Driver runs one frame per Tick in a fixed order. Tick and every
// accessor must be called from the frame goroutine; Post is safe from
// any goroutine.
type Driver struct {
	log *slog.Logger

	dev        gpu.Device
	scene      *scene.Scene
	rig        *Rig
	model      *model.Model
	background *BackgroundRenderer
	cube       *CubeCapture
	composer   *Composer
	torus      *scene.Node
	profile    ProfileSource
	clock      Clock

	// TorusSpin and BackdropRate are radians per second of elapsed time.
	TorusSpin    float32
	BackdropRate float32

	events chan Event
	last   time.Duration
	stats  Stats

	// Resizes bypass the queue; only the latest one matters.
	resizeMu sync.Mutex
	resize   *ResizeEvent
}

// Post queues e for the next tick. It never blocks; it reports false when
// the queue is full and the event was dropped. A ResizeEvent is never
// dropped, it replaces any resize still pending.
func (d *Driver) Post(e Event) bool {
	if r, ok := e.(ResizeEvent); ok {
		d.resizeMu.Lock()
		d.resize = &r
		d.resizeMu.Unlock()
		return true
	}
	select {
	case d.events <- e:
		return true
	default:
		d.log.Warn("event queue full, dropping event", "event", fmt.Sprintf("%T", e))
		return false
	}
}

func (d *Driver) Stats() Stats { return d.stats }

// Seconds is the elapsed time of the last tick.
func (d *Driver) Seconds() float32 { return float32(d.last.Seconds()) }

// Tick drives one frame:
//
//  0. apply queued host events
//  1. compute the delta since the previous tick
//  2. poll and advance the model
//  3. set the time driven rotations
//  4. render and install the backdrop
//  5. update the controls
//  6. capture the cube environment
//  7. run the compositor
func (d *Driver) Tick() error {
	if err := d.drainEvents(); err != nil {
		return err
	}

	now := d.clock.Elapsed()
	delta := now - d.last
	d.last = now
	t := float32(now.Seconds())
	dt := float32(delta.Seconds())

	if d.model != nil {
		d.model.Poll(d.scene)
		d.model.Update(dt)
	}

	if d.torus != nil {
		d.torus.SetEuler(math.Vec3{Z: t * d.TorusSpin})
	}
	d.scene.BackgroundRotation.Y = t * d.BackdropRate
	d.scene.EnvironmentRotation.Y = t * d.BackdropRate

	if err := d.background.Render(d.dev, d.scene, d.profile.Profile()); err != nil {
		return fmt.Errorf("frame %d: %w", d.stats.Frames, err)
	}

	d.rig.Update(dt)

	if err := d.cube.Update(d.dev, d.scene); err != nil {
		return fmt.Errorf("frame %d: %w", d.stats.Frames, err)
	}

	if err := d.composer.Render(); err != nil {
		return fmt.Errorf("frame %d: %w", d.stats.Frames, err)
	}

	d.stats.Frames++
	d.stats.Elapsed = now
	d.stats.Delta = delta
	return nil
}

func (d *Driver) drainEvents() error {
	d.resizeMu.Lock()
	r := d.resize
	d.resize = nil
	d.resizeMu.Unlock()
	if r != nil {
		if err := r.apply(d); err != nil {
			return fmt.Errorf("apply %T: %w", *r, err)
		}
	}

	for {
		select {
		case e := <-d.events:
			if err := e.apply(d); err != nil {
				return fmt.Errorf("apply %T: %w", e, err)
			}
		default:
			return nil
		}
	}
}
