// Package config holds the tunable constants of the demo and reads them
// from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"backdrop-engine/envshader"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds all settings. Every field has a default from Default.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Camera   CameraConfig   `toml:"camera"`
	Render   RenderConfig   `toml:"render"`
	Bloom    BloomConfig    `toml:"bloom"`
	Backdrop BackdropConfig `toml:"backdrop"`
	Cube     CubeConfig     `toml:"cube"`
	Torus    TorusConfig    `toml:"torus"`
	Model    ModelConfig    `toml:"model"`
	Debug    DebugConfig    `toml:"debug"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
	// PixelRatio overrides the native ratio when positive.
	PixelRatio float32 `toml:"pixel_ratio"`
}

type CameraConfig struct {
	FOV      float32    `toml:"fov"` // vertical, degrees
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`
	Position [3]float32 `toml:"position"`
	Target   [3]float32 `toml:"target"`
}

type RenderConfig struct {
	// Exposure of the ACES tone mapping in the output pass.
	Exposure   float32    `toml:"exposure"`
	ClearColor [4]float32 `toml:"clear_color"`
}

type BloomConfig struct {
	Threshold float32 `toml:"threshold"`
	Strength  float32 `toml:"strength"`
	Radius    float32 `toml:"radius"`
	Exposure  float32 `toml:"exposure"`
}

type BackdropConfig struct {
	Source string `toml:"source"`
	// MaxSourceSize resamples larger source images; zero keeps them.
	MaxSourceSize    int        `toml:"max_source_size"`
	Width            int        `toml:"width"`
	Height           int        `toml:"height"`
	Bluriness        float32    `toml:"bluriness"`
	Direction        [2]float32 `toml:"direction"`
	Profile          int        `toml:"profile"`
	Rate             float32    `toml:"rate"` // radians per second around Y
	UseAsEnvironment bool       `toml:"use_as_environment"`
}

type CubeConfig struct {
	Size     int        `toml:"size"`
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`
	Position [3]float32 `toml:"position"`
}

type TorusConfig struct {
	MajorRadius     float32    `toml:"major_radius"`
	MinorRadius     float32    `toml:"minor_radius"`
	RadialSegments  int        `toml:"radial_segments"`
	TubularSegments int        `toml:"tubular_segments"`
	Position        [3]float32 `toml:"position"`
	Spin            float32    `toml:"spin"` // radians per second around Z
	Metalness       float32    `toml:"metalness"`
	Roughness       float32    `toml:"roughness"`
}

type ModelConfig struct {
	Path        string     `toml:"path"`
	Offset      [3]float32 `toml:"offset"`
	StripMaps   bool       `toml:"strip_maps"`
	PointerSway float32    `toml:"pointer_sway"`
}

type DebugConfig struct {
	// ParamsFile is a TOML file watched for live shader parameters.
	ParamsFile string `toml:"params_file"`
}

// Default returns the stock scene.
func Default() *Config {
	return &Config{
		Window: WindowConfig{Width: 1280, Height: 720, Title: "backdrop", VSync: true},
		Camera: CameraConfig{
			FOV:      75,
			Near:     0.1,
			Far:      100,
			Position: [3]float32{0.15, 0.4, 1},
		},
		Render: RenderConfig{Exposure: 3, ClearColor: [4]float32{0, 0, 0, 1}},
		Bloom:  BloomConfig{Threshold: 0, Strength: 0.7, Radius: 0.6, Exposure: 0.7},
		Backdrop: BackdropConfig{
			Source:           "assets/512.png",
			Width:            1024,
			Height:           512,
			Bluriness:        10,
			Direction:        [2]float32{5, 5},
			Profile:          int(envshader.DefaultProfile),
			Rate:             0.1,
			UseAsEnvironment: true,
		},
		Cube: CubeConfig{Size: 256, Near: 0.1, Far: 100},
		Torus: TorusConfig{
			MajorRadius:     4,
			MinorRadius:     1,
			RadialSegments:  12,
			TubularSegments: 48,
			Position:        [3]float32{0, -1, 0},
			Spin:            0.3,
			Metalness:       1,
			Roughness:       0.1,
		},
		Model: ModelConfig{
			Path:      "assets/astronaut-v1/scene.gltf",
			Offset:    [3]float32{0, -3.3, 0},
			StripMaps: true,
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	defer f.Close()

	cfg := Default()
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config: parse %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Marshal encodes the config as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// resolvePaths makes relative asset paths relative to the config file.
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Backdrop.Source, &c.Model.Path, &c.Debug.ParamsFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Width      int
	Height     int
	Profile    int // negative means unset
	Source     string
	Model      string
	ParamsFile string
	PixelRatio float32
}

// NoProfile marks Flags.Profile as unset.
const NoProfile = -1

// Resolve applies non-zero flags over the loaded values.
func (c *Config) Resolve(flags Flags) {
	if flags.Width > 0 {
		c.Window.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Window.Height = flags.Height
	}
	if flags.Profile >= 0 {
		c.Backdrop.Profile = flags.Profile
	}
	if flags.Source != "" {
		c.Backdrop.Source = flags.Source
	}
	if flags.Model != "" {
		c.Model.Path = flags.Model
	}
	if flags.ParamsFile != "" {
		c.Debug.ParamsFile = flags.ParamsFile
	}
	if flags.PixelRatio > 0 {
		c.Window.PixelRatio = flags.PixelRatio
	}
}

// Profile returns the configured color profile.
func (c *Config) Profile() envshader.Profile {
	p, err := envshader.NewProfile(c.Backdrop.Profile)
	if err != nil {
		return envshader.DefaultProfile
	}
	return p
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return fmt.Errorf("%w: camera fov %v", ErrInvalid, c.Camera.FOV)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: camera clip %v..%v", ErrInvalid, c.Camera.Near, c.Camera.Far)
	case c.Cube.Size <= 0:
		return fmt.Errorf("%w: cube size %d", ErrInvalid, c.Cube.Size)
	case c.Cube.Near <= 0 || c.Cube.Far <= c.Cube.Near:
		return fmt.Errorf("%w: cube clip %v..%v", ErrInvalid, c.Cube.Near, c.Cube.Far)
	case c.Backdrop.Width <= 0 || c.Backdrop.Height <= 0:
		return fmt.Errorf("%w: backdrop size %dx%d", ErrInvalid, c.Backdrop.Width, c.Backdrop.Height)
	case c.Backdrop.MaxSourceSize < 0:
		return fmt.Errorf("%w: backdrop max source size %d", ErrInvalid, c.Backdrop.MaxSourceSize)
	case c.Bloom.Strength < 0 || c.Bloom.Radius < 0 || c.Bloom.Radius > 1:
		return fmt.Errorf("%w: bloom strength %v radius %v", ErrInvalid, c.Bloom.Strength, c.Bloom.Radius)
	case c.Render.Exposure <= 0:
		return fmt.Errorf("%w: exposure %v", ErrInvalid, c.Render.Exposure)
	case c.Torus.MajorRadius <= 0 || c.Torus.MinorRadius <= 0:
		return fmt.Errorf("%w: torus radii %v, %v", ErrInvalid, c.Torus.MajorRadius, c.Torus.MinorRadius)
	case c.Torus.RadialSegments < 3 || c.Torus.TubularSegments < 3:
		return fmt.Errorf("%w: torus segments %d x %d", ErrInvalid, c.Torus.RadialSegments, c.Torus.TubularSegments)
	case c.Window.PixelRatio < 0:
		return fmt.Errorf("%w: pixel ratio %v", ErrInvalid, c.Window.PixelRatio)
	}
	if _, err := envshader.NewProfile(c.Backdrop.Profile); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
