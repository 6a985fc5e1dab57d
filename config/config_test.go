package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backdrop-engine/envshader"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backdrop.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float32(75), cfg.Camera.FOV)
	assert.Equal(t, [3]float32{0.15, 0.4, 1}, cfg.Camera.Position)
	assert.Equal(t, float32(3), cfg.Render.Exposure)
	assert.Equal(t, BloomConfig{Threshold: 0, Strength: 0.7, Radius: 0.6, Exposure: 0.7}, cfg.Bloom)
	assert.Equal(t, 256, cfg.Cube.Size)
	assert.Equal(t, float32(-3.3), cfg.Model.Offset[1])
	assert.Equal(t, envshader.Profile1, cfg.Profile())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 640
height = 480

[backdrop]
profile = 2
source = "env.png"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, envshader.Profile2, cfg.Profile())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "env.png"), cfg.Backdrop.Source)
	// untouched keys keep their defaults
	assert.Equal(t, float32(10), cfg.Backdrop.Bluriness)
	assert.Equal(t, float32(0.3), cfg.Torus.Spin)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "[window]\nwidht = 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widht")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Backdrop.Profile = 0
	data, err := cfg.Marshal()
	require.NoError(t, err)

	got, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Backdrop.Profile)
	assert.Equal(t, cfg.Bloom, got.Bloom)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Resolve(Flags{Width: 800, Profile: NoProfile, Model: "m.glb"})
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, int(envshader.DefaultProfile), cfg.Backdrop.Profile)
	assert.Equal(t, "m.glb", cfg.Model.Path)

	cfg.Resolve(Flags{Profile: 0})
	assert.Equal(t, envshader.Profile0, cfg.Profile())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"window":  func(c *Config) { c.Window.Width = 0 },
		"fov":     func(c *Config) { c.Camera.FOV = 180 },
		"clip":    func(c *Config) { c.Camera.Far = c.Camera.Near },
		"cube":    func(c *Config) { c.Cube.Size = 0 },
		"radius":  func(c *Config) { c.Bloom.Radius = 1.5 },
		"profile": func(c *Config) { c.Backdrop.Profile = 3 },
		"torus":   func(c *Config) { c.Torus.RadialSegments = 2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
