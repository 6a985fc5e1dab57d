package debugctl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backdrop-engine/envshader"
	"backdrop-engine/math"
)

func TestHandleKey(t *testing.T) {
	c := New(envshader.Profile1, nil)
	assert.True(t, c.HandleKey('2'))
	assert.Equal(t, envshader.Profile2, c.Profile())
	assert.True(t, c.Poll())
	assert.False(t, c.Poll())

	assert.False(t, c.HandleKey('3'))
	assert.Equal(t, envshader.Profile2, c.Profile())
}

func TestSetProfileRejectsInvalid(t *testing.T) {
	c := New(envshader.Profile(7), nil)
	assert.Equal(t, envshader.DefaultProfile, c.Profile())
	assert.ErrorIs(t, c.SetProfile(envshader.Profile(-1)), envshader.ErrInvalidProfile)
	assert.Equal(t, envshader.DefaultProfile, c.Profile())
}

func TestReloadAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte("profile = 0\nbluriness = 4\ndirection = [1.0, 0.0]\n"), 0o644))

	c := New(envshader.Profile1, nil)
	require.NoError(t, c.Watch(path))
	defer c.Close()

	assert.Equal(t, envshader.Profile0, c.Profile())
	p := c.Params(envshader.DefaultParams())
	assert.Equal(t, float32(4), p.Bluriness)
	assert.Equal(t, math.Vec2{X: 1}, p.Direction)
	assert.Equal(t, envshader.Profile0, p.Profile)
}

func TestReloadRejectsBadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte("profile = 5\n"), 0o644))

	c := New(envshader.Profile1, nil)
	assert.ErrorIs(t, c.Watch(path), envshader.ErrInvalidProfile)
	assert.Equal(t, envshader.Profile1, c.Profile())
}

func TestWatchPicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.toml")

	c := New(envshader.Profile1, nil)
	require.NoError(t, c.Watch(path)) // file does not exist yet
	defer c.Close()
	c.Poll()

	require.NoError(t, os.WriteFile(path, []byte("profile = 2\n"), 0o644))
	require.Eventually(t, func() bool {
		c.Poll()
		return c.Profile() == envshader.Profile2
	}, 5*time.Second, 20*time.Millisecond)
}
