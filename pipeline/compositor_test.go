package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backdrop-engine/core"
	"backdrop-engine/gpu"
	"backdrop-engine/internal/software"
	"backdrop-engine/scene"
)

func newTestBloom(t *testing.T, dev gpu.Device, threshold, strength float32) *BloomPass {
	t.Helper()
	b, err := NewBloomPass(dev, threshold, strength, 0)
	require.NoError(t, err)
	return b
}

func TestComposerRankOrder(t *testing.T) {
	dev := newRecordingDevice(8, 8)
	c, err := NewComposer(dev, nil)
	require.NoError(t, err)
	defer c.Destroy()

	require.NoError(t, c.AddPass(NewRenderPass(scene.NewScene(), scene.NewPerspectiveCamera(1, 1, 0.1, 10))))
	require.NoError(t, c.AddPass(NewOutputPass(1)))

	assert.ErrorIs(t, c.AddPass(newTestBloom(t, dev, 0, 1)), ErrPassOrder)
	assert.ErrorIs(t, c.AddPass(NewOutputPass(1)), ErrPassOrder)
	assert.Len(t, c.Passes(), 2)

	assert.Less(t, c.Passes()[0].Rank(), c.Passes()[1].Rank())
	assert.Equal(t, "bloom", RankBloom.String())
	assert.Equal(t, "rank(7)", PassRank(7).String())
}

func TestComposerEmptyChain(t *testing.T) {
	dev := newRecordingDevice(8, 8)
	c, err := NewComposer(dev, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, c.Render(), ErrEmptyChain)
}

func TestComposerMissingInput(t *testing.T) {
	tests := []struct {
		name   string
		passes func(dev gpu.Device) []Pass
	}{
		{"output first", func(gpu.Device) []Pass { return []Pass{NewOutputPass(1)} }},
		{"bloom first", func(dev gpu.Device) []Pass {
			return []Pass{newTestBloom(t, dev, 0, 1), NewOutputPass(1)}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newRecordingDevice(8, 8)
			c, err := NewComposer(dev, nil)
			require.NoError(t, err)
			defer c.Destroy()
			for _, p := range tt.passes(dev) {
				require.NoError(t, c.AddPass(p))
			}

			assert.ErrorIs(t, c.Render(), gpu.ErrMissingInput)
			bound, _ := dev.RenderTarget()
			assert.Nil(t, bound)
		})
	}
}

func TestComposerSizesPasses(t *testing.T) {
	dev := newRecordingDevice(100, 60)
	dev.SetPixelRatio(2)
	c, err := NewComposer(dev, nil)
	require.NoError(t, err)
	defer c.Destroy()

	w, h := c.Size()
	assert.Equal(t, 200, w)
	assert.Equal(t, 120, h)

	bloom := newTestBloom(t, dev, 0, 1)
	require.NoError(t, c.AddPass(bloom))
	mw, mh := bloom.MipSize(0)
	assert.Equal(t, 100, mw)
	assert.Equal(t, 60, mh)

	require.NoError(t, c.SetSize(9, 5))
	want := [][2]int{{9, 5}, {5, 3}, {3, 2}, {2, 1}, {1, 1}}
	for i := range want {
		mw, mh := bloom.MipSize(i)
		assert.Equal(t, want[i], [2]int{mw, mh}, "mip %d", i)
	}
}

// renderGrey runs a chain over an empty scene cleared to grey and returns
// the average screen color.
func renderGrey(t *testing.T, withBloom bool) core.Color {
	t.Helper()
	dev := software.NewDevice(16, 16, nil)
	s := scene.NewScene()
	s.ClearColor = core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1}

	c, err := NewComposer(dev, nil)
	require.NoError(t, err)
	defer c.Destroy()
	require.NoError(t, c.AddPass(NewRenderPass(s, scene.NewPerspectiveCamera(1, 1, 0.1, 10))))
	if withBloom {
		require.NoError(t, c.AddPass(newTestBloom(t, dev, 0, 1)))
	}
	require.NoError(t, c.AddPass(NewOutputPass(1)))

	require.NoError(t, c.Render())
	return dev.Screen().Average()
}

func TestComposerBloomBrightens(t *testing.T) {
	plain := renderGrey(t, false)
	bloomed := renderGrey(t, true)

	want := EncodeSRGB(ACESFilmic(core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1}, 1))
	assert.InDelta(t, want.R, plain.R, 0.01)
	assert.Greater(t, bloomed.R, plain.R+0.05)
}

func TestComposerBlackStaysBlack(t *testing.T) {
	dev := software.NewDevice(16, 16, nil)
	s := scene.NewScene()
	s.ClearColor = core.ColorBlack

	c, err := NewComposer(dev, nil)
	require.NoError(t, err)
	defer c.Destroy()
	for _, p := range []Pass{NewRenderPass(s, scene.NewPerspectiveCamera(1, 1, 0.1, 10)), newTestBloom(t, dev, 0, 1), NewOutputPass(3)} {
		require.NoError(t, c.AddPass(p))
	}
	require.NoError(t, c.Render())

	avg := dev.Screen().Average()
	assert.InDelta(t, 0, avg.R, 1e-6)
	assert.InDelta(t, 0, avg.G, 1e-6)
	assert.InDelta(t, 0, avg.B, 1e-6)
}
