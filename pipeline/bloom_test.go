package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backdrop-engine/core"
)

func TestHighPass(t *testing.T) {
	black := HighPass(core.ColorBlack, 0, 0.01)
	assert.Equal(t, float32(0), black.R)
	assert.Equal(t, float32(0), black.A)

	white := HighPass(core.ColorWhite, 0.5, 0.01)
	assert.Equal(t, core.ColorWhite, white)

	// luma 0.299 sits below a 0.3 threshold
	assert.Equal(t, float32(0), HighPass(core.Color{R: 1, A: 1}, 0.3, 0.01).R)
	assert.Equal(t, float32(1), HighPass(core.Color{R: 1, A: 1}, 0.28, 0.01).R)
}

func TestGaussianCoefficients(t *testing.T) {
	for _, radius := range bloomKernelRadii {
		c := GaussianCoefficients(radius)
		assert.Len(t, c, radius)
		for i := 1; i < len(c); i++ {
			assert.Less(t, c[i], c[i-1], "radius %d", radius)
		}
		assert.InDelta(t, 0.39894/float32(radius), c[0], 1e-6)
	}
}

func TestBloomFactor(t *testing.T) {
	assert.Equal(t, float32(0.8), BloomFactor(0.8, 0))
	assert.InDelta(t, 0.4, BloomFactor(0.8, 1), 1e-6)
	// at radius 0.5 every mip weighs the same
	for _, f := range bloomFactors {
		assert.InDelta(t, 0.6, BloomFactor(f, 0.5), 1e-6)
	}
}

func TestACESFilmic(t *testing.T) {
	assert.Equal(t, core.ColorBlack, ACESFilmic(core.ColorBlack, 3))

	prev := float32(-1)
	for _, v := range []float32{0.01, 0.05, 0.1, 0.5, 1, 4} {
		c := ACESFilmic(core.Color{R: v, G: v, B: v, A: 1}, 1)
		assert.Greater(t, c.G, prev, "monotonic at %v", v)
		assert.LessOrEqual(t, c.G, float32(1))
		prev = c.G
	}

	hot := ACESFilmic(core.Color{R: 100, G: 100, B: 100, A: 0.5}, 3)
	assert.InDelta(t, 1, hot.R, 1e-2)
	assert.Equal(t, float32(0.5), hot.A)
}

func TestLinearToSRGB(t *testing.T) {
	assert.Equal(t, float32(0), LinearToSRGB(0))
	assert.InDelta(t, 1, LinearToSRGB(1), 1e-6)
	assert.InDelta(t, 0.0031308*12.92, LinearToSRGB(0.0031308), 1e-7)
	assert.InDelta(t, 0.7354, LinearToSRGB(0.5), 1e-3)
}
