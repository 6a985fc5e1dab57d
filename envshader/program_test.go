package envshader

import (
	"strings"
	"testing"

	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/shader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, float32(10), p.Bluriness)
	assert.Equal(t, math.NewVec2(5, 5), p.Direction)
	assert.Equal(t, Profile1, p.Profile)
	assert.Equal(t, math.NewVec2(50, 50), p.BlurDirection())
}

func TestUniformsRoundTrip(t *testing.T) {
	p := DefaultParams()
	p.Resolution = math.NewVec2(1920, 1080)
	p.Profile = Profile2

	src := &struct{ name string }{"tex"}
	u := p.Uniforms(src)

	assert.Same(t, src, u[UniformMap])
	assert.Equal(t, int32(2), u.Int(UniformProfile))
	assert.Equal(t, p, ParamsFrom(u))
}

func TestParamsFromRejectsBadProfile(t *testing.T) {
	u := shader.Uniforms{}
	DefaultParams().Apply(u)
	u.Set(UniformProfile, int32(7))
	assert.Equal(t, DefaultProfile, ParamsFrom(u).Profile)
}

func TestProgramMatchesShade(t *testing.T) {
	prog := NewProgram()
	require.NotNil(t, prog.Shade)
	assert.Equal(t, []string{UniformMap}, prog.Samplers)
	assert.True(t, strings.Contains(prog.Fragment, "uniform int uColorProfile"))
	assert.True(t, strings.HasSuffix(prog.Fragment, "\x00"))

	src := shader.ConstantSampler{Color: core.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}}
	for _, prof := range []Profile{Profile0, Profile1, Profile2} {
		p := DefaultParams()
		p.Resolution = math.NewVec2(640, 480)
		p.Profile = prof

		f := shader.NewFragment(p.Uniforms(nil), map[string]shader.Sampler{UniformMap: src})
		f.UV = math.NewVec2(0.25, 0.75)

		want := Shade(src, f.UV, p)
		assert.Equal(t, want, prog.Shade(f), "profile %v", prof)
	}
}

func TestShadeProfileChangeTakesEffect(t *testing.T) {
	src := shader.ConstantSampler{Color: core.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}}
	p := DefaultParams()
	p.Profile = Profile2
	tripled := Shade(src, math.NewVec2(0.5, 0.5), p)
	assert.InDelta(t, 0.3, tripled.R, 1e-5)

	p.Profile = Profile1
	capped := Shade(src, math.NewVec2(0.5, 0.5), p)
	assert.InDelta(t, 0.1, capped.R, 1e-5)
}
