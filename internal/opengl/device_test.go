package opengl

import (
	"testing"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"

	"backdrop-engine/math"
	"backdrop-engine/scene"
)

func TestFlipRows(t *testing.T) {
	// 1x3 image, one red channel value per row.
	pix := []byte{
		1, 0, 0, 255,
		2, 0, 0, 255,
		3, 0, 0, 255,
	}
	got := flipRows(pix, 1, 3)
	assert.Equal(t, []byte{3, 0, 0, 255, 2, 0, 0, 255, 1, 0, 0, 255}, got)
	assert.Equal(t, byte(1), pix[0], "input is not modified")
}

func TestScreenViewport(t *testing.T) {
	// A 3x display clamped to ratio 2: the composer renders 1600x1200 but the
	// screen pass covers the whole 2400x1800 framebuffer.
	w, h := screenViewport(2400, 1800, 1600, 1200)
	assert.Equal(t, 2400, w)
	assert.Equal(t, 1800, h)

	w, h = screenViewport(0, 0, 1600, 1200)
	assert.Equal(t, 1600, w, "unknown framebuffer")
	assert.Equal(t, 1200, h)

	w, h = screenViewport(2400, 0, 1600, 1200)
	assert.Equal(t, 1600, w, "minimized framebuffer")
	assert.Equal(t, 1200, h)
}

func TestTexelFormat(t *testing.T) {
	tests := []struct {
		format    scene.Format
		internal  int32
		pixelType uint32
	}{
		{scene.FormatRGBA8, gl.RGBA8, gl.UNSIGNED_BYTE},
		{scene.FormatHalfFloat, gl.RGBA16F, gl.HALF_FLOAT},
		{scene.FormatFloat, gl.RGBA32F, gl.FLOAT},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			internal, pixelType := texelFormat(tt.format)
			assert.Equal(t, tt.internal, internal)
			assert.Equal(t, tt.pixelType, pixelType)
		})
	}
}

func TestSkyViewProjIgnoresTranslation(t *testing.T) {
	proj := math.Mat4Perspective(math.DegToRad(60), 1, 0.1, 10)
	near := math.Mat4LookAt(math.Vec3{}, math.Vec3{Z: -1}, math.Vec3Up)
	far := math.Mat4LookAt(math.Vec3{X: 40, Y: -3, Z: 7}, math.Vec3{X: 40, Y: -3, Z: 6}, math.Vec3Up)

	a := skyViewProj(near, proj)
	b := skyViewProj(far, proj)
	for i := range 4 {
		for j := range 4 {
			assert.InDelta(t, a[i][j], b[i][j], 1e-4)
		}
	}
}
