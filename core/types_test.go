package core

import (
	"testing"

	"backdrop-engine/math"

	"github.com/stretchr/testify/assert"
)

func TestClampPixelRatio(t *testing.T) {
	cases := []struct {
		native, want float32
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{1.5, 1.5},
		{0, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClampPixelRatio(c.native), "native %v", c.native)
	}
}

func TestViewportDrawingBufferSize(t *testing.T) {
	vp := ViewportState{Width: 800, Height: 600, PixelRatio: 3}
	w, h := vp.DrawingBufferSize()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 1200, h)
	assert.InDelta(t, 800.0/600.0, vp.Aspect(), 1e-6)
	assert.True(t, vp.Valid())
	assert.False(t, ViewportState{Width: 0, Height: 10}.Valid())
}

func TestTransformOrder(t *testing.T) {
	tr := NewTransform()
	tr.Position = math.NewVec3(0, -1, 0)
	tr.Scale = math.NewVec3(2, 2, 2)
	tr.Rotation = math.QuaternionFromAxisAngle(math.Vec3Front, math.Pi/2)

	// (1,0,0) scaled to (2,0,0), rotated to (0,2,0), then moved to (0,1,0).
	got := tr.GetMatrix().MulVec3(math.NewVec3(1, 0, 0))
	assert.InDelta(t, 0, got.X, 1e-5)
	assert.InDelta(t, 1, got.Y, 1e-5)
	assert.InDelta(t, 0, got.Z, 1e-5)
}

func TestColorOps(t *testing.T) {
	c := Color{0.1, 0.2, 0.3, 1}
	assert.True(t, c.ScaleRGB(3).ApproxEqual(Color{0.3, 0.6, 0.9, 1}, 1e-6))
	assert.True(t, c.AddRGB(c).ApproxEqual(Color{0.2, 0.4, 0.6, 1}, 1e-6))
	assert.InDelta(t, 1, ColorWhite.Luminance(), 1e-6)
	assert.Equal(t, Color{1, 0, 0, 1}, Color{2, -1, 0, 1}.Clamp01())
}
