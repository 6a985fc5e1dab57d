// Package pipeline sequences the render passes of a frame: the offscreen
// environment backdrop, the cube environment capture and the post-processing
// chain, driven by a fixed-order frame loop.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"backdrop-engine/gpu"
	"backdrop-engine/scene"
)

var (
	// ErrPassOrder means a pass was added out of the scene, bloom, output order.
	ErrPassOrder = errors.New("pipeline: pass added out of order")
	// ErrEmptyChain means Render was called on a composer with no passes.
	ErrEmptyChain = errors.New("pipeline: composer has no passes")
)

// PassRank orders a pass inside the chain. Passes must be added in
// increasing rank and each rank appears at most once.
type PassRank int

const (
	RankScene PassRank = iota
	RankBloom
	RankOutput
)

func (s PassRank) String() string {
	switch s {
	case RankScene:
		return "scene"
	case RankBloom:
		return "bloom"
	case RankOutput:
		return "output"
	}
	return fmt.Sprintf("rank(%d)", int(s))
}

// Buffer is one of the composer's ping-pong targets. Written is reset at
// the start of every Render and set by the pass that fills it.
type Buffer struct {
	Target  gpu.RenderTarget
	Written bool
}

// PassContext is handed to each pass. Read holds the output of the
// previous pass, Write is free for passes that swap.
type PassContext struct {
	Device         gpu.Device
	Read           *Buffer
	Write          *Buffer
	RenderToScreen bool
}

// bindOutput binds the screen for the last pass, otherwise b.
func (ctx *PassContext) bindOutput(b *Buffer) error {
	if ctx.RenderToScreen {
		return ctx.Device.SetRenderTarget(nil, 0)
	}
	return ctx.Device.SetRenderTarget(b.Target, 0)
}

// requireRead fails when nothing wrote the read buffer this frame.
func (ctx *PassContext) requireRead() error {
	if !ctx.Read.Written {
		return gpu.ErrMissingInput
	}
	return nil
}

// Pass is one full-screen step of the chain.
type Pass interface {
	Name() string
	Rank() PassRank
	// NeedsSwap reports whether the pass wrote Write, making it the next Read.
	NeedsSwap() bool
	SetSize(width, height int) error
	Render(ctx *PassContext) error
	Destroy()
}

// Composer owns the ping-pong buffers and runs the pass chain.
type Composer struct {
	dev    gpu.Device
	log    *slog.Logger
	read   *Buffer
	write  *Buffer
	passes []Pass

	width, height int
}

// NewComposer allocates two half float buffers at the device drawing
// buffer size.
func NewComposer(dev gpu.Device, log *slog.Logger) (*Composer, error) {
	if log == nil {
		log = slog.Default()
	}
	w, h := dev.DrawingBufferSize()
	c := &Composer{dev: dev, log: log, width: w, height: h}

	for _, b := range []**Buffer{&c.read, &c.write} {
		rt, err := dev.NewRenderTarget(gpu.TargetOptions{Width: w, Height: h, Format: scene.FormatHalfFloat})
		if err != nil {
			c.Destroy()
			return nil, fmt.Errorf("composer buffer: %w", err)
		}
		*b = &Buffer{Target: rt}
	}
	return c, nil
}

// AddPass appends p, enforcing the fixed rank order.
func (c *Composer) AddPass(p Pass) error {
	if n := len(c.passes); n > 0 && p.Rank() <= c.passes[n-1].Rank() {
		return fmt.Errorf("add %s pass after %s: %w", p.Name(), c.passes[n-1].Name(), ErrPassOrder)
	}
	if err := p.SetSize(c.width, c.height); err != nil {
		return fmt.Errorf("add %s pass: %w", p.Name(), err)
	}
	c.passes = append(c.passes, p)
	return nil
}

func (c *Composer) Passes() []Pass { return c.passes }

// ReadBuffer is the buffer the next pass would read.
func (c *Composer) ReadBuffer() *Buffer { return c.read }

// Size returns the buffer size in device pixels.
func (c *Composer) Size() (int, int) { return c.width, c.height }

// SetSize resizes both buffers and every pass to the device's drawing
// buffer for the logical size width x height.
func (c *Composer) SetSize(width, height int) error {
	ratio := c.dev.PixelRatio()
	w := max(int(float32(width)*ratio), 1)
	h := max(int(float32(height)*ratio), 1)
	for _, b := range []*Buffer{c.read, c.write} {
		if err := b.Target.Resize(w, h); err != nil {
			return fmt.Errorf("composer resize: %w", err)
		}
	}
	for _, p := range c.passes {
		if err := p.SetSize(w, h); err != nil {
			return fmt.Errorf("%s pass resize: %w", p.Name(), err)
		}
	}
	c.width, c.height = w, h
	c.log.Debug("composer resized", "width", w, "height", h)
	return nil
}

// Render runs every pass in order. The last pass draws to the screen.
// The screen is bound again on return.
func (c *Composer) Render() error {
	if len(c.passes) == 0 {
		return ErrEmptyChain
	}
	c.read.Written, c.write.Written = false, false
	defer func() { _ = c.dev.SetRenderTarget(nil, 0) }()

	for i, p := range c.passes {
		ctx := &PassContext{
			Device:         c.dev,
			Read:           c.read,
			Write:          c.write,
			RenderToScreen: i == len(c.passes)-1,
		}
		if err := p.Render(ctx); err != nil {
			return fmt.Errorf("%s pass: %w", p.Name(), err)
		}
		if p.NeedsSwap() && !ctx.RenderToScreen {
			c.read, c.write = c.write, c.read
		}
	}
	return nil
}

func (c *Composer) Destroy() {
	for _, p := range c.passes {
		p.Destroy()
	}
	c.passes = nil
	for _, b := range []*Buffer{c.read, c.write} {
		if b != nil {
			b.Target.Destroy()
		}
	}
}
