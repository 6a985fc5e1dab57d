package envshader

import (
	"testing"

	"backdrop-engine/core"
	"backdrop-engine/math"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile2Triples(t *testing.T) {
	inputs := []core.Color{
		{R: 0, G: 0, B: 0, A: 1},
		{R: 0.1, G: 0.2, B: 0.3, A: 1},
		{R: 0.33, G: 0.05, B: 0.25, A: 0.5},
	}
	for _, in := range inputs {
		got := Remap(Profile2, in)
		assert.InDelta(t, in.R*3, got.R, 1e-6)
		assert.InDelta(t, in.G*3, got.G, 1e-6)
		assert.InDelta(t, in.B*3, got.B, 1e-6)
		assert.Equal(t, in.A, got.A)
	}
}

func TestBlackIsFixedPoint(t *testing.T) {
	for _, p := range []Profile{Profile0, Profile1} {
		got := Remap(p, core.ColorBlack)
		assert.Equal(t, core.ColorBlack, got, "profile %v", p)
	}
}

func TestProfile0BrightRed(t *testing.T) {
	got := Remap(Profile0, core.Color{R: 1, G: 0.5, B: 0, A: 1})
	// blue forced to 10, mask saturates at 3
	assert.InDelta(t, 10, got.B, 1e-6)
	assert.InDelta(t, 3, got.R, 1e-6)
	assert.InDelta(t, 1.5, got.G, 1e-6)
}

func TestProfile1CapsRedGreen(t *testing.T) {
	in := core.Color{R: 0.2, G: 0.9, B: 0.05, A: 1}
	got := Remap(Profile1, in)

	// red below 0.3 leaves blue alone
	assert.InDelta(t, 0.05, got.B, 1e-6)
	mask := math.Smoothstep(0, 0.3, 0.05) * 3
	assert.InDelta(t, min(0.2, mask), got.R, 1e-6)
	assert.InDelta(t, min(0.9, mask), got.G, 1e-6)
}

func TestProfileValidation(t *testing.T) {
	for _, v := range []int{0, 1, 2} {
		p, err := NewProfile(v)
		require.NoError(t, err)
		assert.Equal(t, Profile(v), p)
	}
	for _, v := range []int{-1, 3, 10} {
		_, err := NewProfile(v)
		assert.ErrorIs(t, err, ErrInvalidProfile)
	}

	p, err := ParseProfile(" 2 ")
	require.NoError(t, err)
	assert.Equal(t, Profile2, p)

	_, err = ParseProfile("two")
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestProfileText(t *testing.T) {
	var p Profile
	require.NoError(t, p.UnmarshalText([]byte("0")))
	assert.Equal(t, Profile0, p)
	assert.Error(t, p.UnmarshalText([]byte("7")))

	_, err := Profile(5).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestInvalidProfilePassesThrough(t *testing.T) {
	in := core.Color{R: 0.4, G: 0.5, B: 0.6, A: 1}
	assert.Equal(t, in, Remap(Profile(9), in))
}
