package envshader

import (
	"testing"

	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/shader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stripeSampler is 1 at u >= 0.5 and 0 below.
type stripeSampler struct{}

func (stripeSampler) Sample(uv math.Vec2) core.Color {
	if uv.X >= 0.5 {
		return core.ColorWhite
	}
	return core.ColorTransparent
}

func (stripeSampler) Size() (int, int) { return 64, 64 }

// recordingSampler stores each UV it is asked for.
type recordingSampler struct {
	uvs []math.Vec2
}

func (r *recordingSampler) Sample(uv math.Vec2) core.Color {
	r.uvs = append(r.uvs, uv)
	return core.ColorBlack
}

func (r *recordingSampler) Size() (int, int) { return 1, 1 }

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range Weights() {
		sum += float64(w)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestWeightsSymmetric(t *testing.T) {
	w := Weights()
	for i := 0; i < Radius; i++ {
		assert.Equal(t, w[i], w[Taps-1-i], "tap %d", i)
	}
	assert.Equal(t, float32(0.1633), w[Radius])
}

func TestBlurFlatInputUnchanged(t *testing.T) {
	flat := core.Color{R: 0.2, G: 0.4, B: 0.6, A: 1}
	s := shader.ConstantSampler{Color: flat}

	cases := []struct {
		res, dir math.Vec2
	}{
		{math.NewVec2(1920, 1080), math.NewVec2(50, 50)},
		{math.NewVec2(800, 600), math.NewVec2(-3, 0)},
		{math.NewVec2(1, 1), math.NewVec2(0, 0)},
	}
	for _, c := range cases {
		got := Blur(s, math.NewVec2(0.3, 0.7), c.res, c.dir)
		assert.True(t, got.ApproxEqual(flat, 1e-6), "res %v dir %v: got %v", c.res, c.dir, got)
	}
}

func TestBlurTapOffsets(t *testing.T) {
	rec := &recordingSampler{}
	uv := math.NewVec2(0.5, 0.5)
	Blur(rec, uv, math.NewVec2(100, 50), math.NewVec2(10, 5))

	require.Len(t, rec.uvs, Taps)
	for i, got := range rec.uvs {
		k := float32(i - Radius)
		assert.InDelta(t, 0.5+k*0.1, got.X, 1e-6, "tap %d x", i)
		assert.InDelta(t, 0.5+k*0.1, got.Y, 1e-6, "tap %d y", i)
	}
}

func TestBlurEdgeMixesNeighbours(t *testing.T) {
	// The centre tap sits on the edge: offsets 0..4 read white.
	got := Blur(stripeSampler{}, math.NewVec2(0.5, 0.5), math.NewVec2(100, 100), math.NewVec2(1, 0))
	want := float32(0.1633 + 0.1531 + 0.12245 + 0.0918 + 0.051)
	assert.InDelta(t, want, got.R, 1e-6)
}
