package software

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/scene"
)

func TestSurfaceQuantize(t *testing.T) {
	s := NewSurface(1, 1, scene.FormatRGBA8)
	s.Set(0, 0, core.Color{R: 2, G: -1, B: 0.5, A: 1})
	c := s.At(0, 0)
	assert.Equal(t, float32(1), c.R)
	assert.Equal(t, float32(0), c.G)
	assert.InDelta(t, 128.0/255, c.B, 1e-6)

	h := NewSurface(1, 1, scene.FormatHalfFloat)
	h.Set(0, 0, core.Color{R: 1e6, G: 3})
	assert.Equal(t, float32(halfFloatMax), h.At(0, 0).R)
	assert.Equal(t, float32(3), h.At(0, 0).G)
}

func TestSurfaceImageFlipsRows(t *testing.T) {
	s := NewSurface(2, 2, scene.FormatRGBA8)
	s.Set(0, 0, red)

	img := s.Image()
	r, _, _, _ := img.At(0, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestImageSamplerOrientation(t *testing.T) {
	// top row white, bottom row black
	is := imageSampler{w: 1, h: 2, pix: []byte{255, 255, 255, 255, 0, 0, 0, 255}}
	assert.Equal(t, float32(0), is.Sample(math.Vec2{X: 0.5, Y: 0}).R)
	assert.Equal(t, float32(1), is.Sample(math.Vec2{X: 0.5, Y: 1}).R)
	assert.InDelta(t, 0.5, is.Sample(math.Vec2{X: 0.5, Y: 0.5}).R, 1e-6)
}

func TestCubeFaceUV(t *testing.T) {
	cases := []struct {
		dir  math.Vec3
		face int
	}{
		{math.Vec3{X: 1}, 0},
		{math.Vec3{X: -1}, 1},
		{math.Vec3{Y: 1}, 2},
		{math.Vec3{Y: -1}, 3},
		{math.Vec3{Z: 1}, 4},
		{math.Vec3{Z: -1}, 5},
	}
	for _, c := range cases {
		face, uv := CubeFaceUV(c.dir)
		assert.Equal(t, c.face, face, "dir %v", c.dir)
		assert.InDelta(t, 0.5, uv.X, 1e-6)
		assert.InDelta(t, 0.5, uv.Y, 1e-6)
	}

	// +X face: s follows -z
	_, uv := CubeFaceUV(math.Vec3{X: 1, Z: -0.5})
	assert.InDelta(t, 0.75, uv.X, 1e-6)
}

func TestEquirectUV(t *testing.T) {
	uv := EquirectUV(math.Vec3{Y: 1})
	assert.InDelta(t, 1, uv.Y, 1e-6)

	uv = EquirectUV(math.Vec3{X: 1})
	assert.InDelta(t, 0.5, uv.X, 1e-6)
	assert.InDelta(t, 0.5, uv.Y, 1e-6)

	uv = EquirectUV(math.Vec3{Z: 1})
	assert.InDelta(t, 0.75, uv.X, 1e-6)
}

func TestRotatedSamplerInverse(t *testing.T) {
	var got math.Vec3
	probe := dirFunc(func(d math.Vec3) core.Color { got = d; return core.ColorWhite })

	rs := withRotation(probe, math.Vec3{Y: math.Pi / 2})
	rs.SampleDir(math.Mat4RotationY(math.Pi / 2).MulDir(math.Vec3{X: 1}))
	assert.InDelta(t, 1, got.X, 1e-5)
	assert.InDelta(t, 0, got.Z, 1e-5)

	_, rotated := withRotation(probe, math.Vec3Zero).(rotatedSampler)
	assert.False(t, rotated)
}

type dirFunc func(math.Vec3) core.Color

func (f dirFunc) SampleDir(d math.Vec3) core.Color { return f(d) }
