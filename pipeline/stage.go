package pipeline

import (
	"fmt"
	"log/slog"

	"backdrop-engine/config"
	"backdrop-engine/core"
	"backdrop-engine/envshader"
	"backdrop-engine/gpu"
	"backdrop-engine/math"
	"backdrop-engine/model"
	"backdrop-engine/scene"
)

// StageOptions supplies what the host owns. Zero fields get defaults.
type StageOptions struct {
	Viewport core.ViewportState
	// Model defaults to loading cfg.Model.Path; with an empty path the
	// stage runs without a model.
	Model *model.Model
	// Source defaults to decoding cfg.Backdrop.Source, falling back to a
	// mid-grey texel when that fails.
	Source  *scene.Texture
	Profile ProfileSource
	Clock   Clock
	Log     *slog.Logger
}

// Stage is the fully wired scene and pass chain.
type Stage struct {
	Scene      *scene.Scene
	Camera     *scene.PerspectiveCamera
	Controls   *scene.OrbitControls
	Rig        *Rig
	Background *BackgroundRenderer
	Cube       *CubeCapture
	Composer   *Composer
	Bloom      *BloomPass
	Torus      *scene.Node
	Model      *model.Model
	Driver     *Driver
}

func vec3(v [3]float32) math.Vec3 { return math.Vec3{X: v[0], Y: v[1], Z: v[2]} }

// NewStage builds every component from cfg and applies the initial
// viewport. The returned driver is ready to Tick.
func NewStage(dev gpu.Device, cfg *config.Config, opts StageOptions) (*Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if !opts.Viewport.Valid() {
		opts.Viewport = core.ViewportState{Width: cfg.Window.Width, Height: cfg.Window.Height, PixelRatio: 1}
	}

	st := &Stage{Scene: scene.NewScene()}
	cc := cfg.Render.ClearColor
	st.Scene.ClearColor = core.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}

	// ── Camera rig ──
	st.Camera = scene.NewPerspectiveCamera(math.DegToRad(cfg.Camera.FOV), opts.Viewport.Aspect(), cfg.Camera.Near, cfg.Camera.Far)
	st.Camera.Layers.Enable(ReflectiveLayer)
	st.Camera.SetPosition(vec3(cfg.Camera.Position))
	st.Camera.LookAt(vec3(cfg.Camera.Target), math.Vec3Up)
	st.Camera.UpdateProjectionMatrix()
	st.Controls = scene.NewOrbitControls(st.Camera, vec3(cfg.Camera.Target))
	st.Rig = NewRig(dev, st.Camera, st.Controls, log)

	// ── Backdrop ──
	source := opts.Source
	if source == nil {
		source = loadSource(cfg, log)
	}
	params := envshader.DefaultParams()
	params.Bluriness = cfg.Backdrop.Bluriness
	params.Direction = math.Vec2{X: cfg.Backdrop.Direction[0], Y: cfg.Backdrop.Direction[1]}
	params.Profile = cfg.Profile()

	var err error
	st.Background, err = NewBackgroundRenderer(dev, BackgroundOptions{
		Width:            cfg.Backdrop.Width,
		Height:           cfg.Backdrop.Height,
		Format:           scene.FormatFloat,
		Source:           source,
		Params:           params,
		UseAsEnvironment: cfg.Backdrop.UseAsEnvironment,
	}, log)
	if err != nil {
		return nil, err
	}

	// ── Reflective torus ──
	tc := cfg.Torus
	torusMesh := scene.CreateTorus(tc.MajorRadius, tc.MinorRadius, tc.TubularSegments, tc.RadialSegments)
	torusMat := scene.NewStandardMaterial("torus", core.ColorWhite, tc.Metalness, tc.Roughness)
	torusMesh.Material = torusMat
	st.Torus = scene.NewMeshNode(torusMesh)
	st.Torus.SetPosition(vec3(tc.Position))
	st.Torus.Layers.Enable(ReflectiveLayer)
	st.Torus.Layers.Disable(CubeLayer)
	st.Scene.AddNode(st.Torus)

	st.Cube, err = NewCubeCapture(dev, cfg.Cube.Size, scene.FormatHalfFloat, cfg.Cube.Near, cfg.Cube.Far, log)
	if err != nil {
		st.Destroy()
		return nil, err
	}
	st.Cube.SetPosition(vec3(cfg.Cube.Position))
	st.Cube.AddReceiver(torusMat)

	// ── Compositor ──
	if st.Composer, err = NewComposer(dev, log); err != nil {
		st.Destroy()
		return nil, err
	}
	if st.Bloom, err = NewBloomPass(dev, cfg.Bloom.Threshold, cfg.Bloom.Strength, cfg.Bloom.Radius); err != nil {
		st.Destroy()
		return nil, err
	}
	st.Bloom.Exposure = cfg.Bloom.Exposure
	for _, p := range []Pass{NewRenderPass(st.Scene, st.Camera), st.Bloom, NewOutputPass(cfg.Render.Exposure)} {
		if err := st.Composer.AddPass(p); err != nil {
			st.Destroy()
			return nil, err
		}
	}

	// ── Model ──
	st.Model = opts.Model
	if st.Model == nil && cfg.Model.Path != "" {
		st.Model = model.Load(cfg.Model.Path, model.Options{
			Name:        "model",
			Offset:      vec3(cfg.Model.Offset),
			StripMaps:   cfg.Model.StripMaps,
			PointerSway: cfg.Model.PointerSway,
		}, log)
	}

	st.Rig.AddResizer(st.Composer)
	st.Rig.AddResizer(st.Background)
	if st.Model != nil {
		st.Rig.AddPointerListener(st.Model)
	}
	if err := st.Rig.OnResize(opts.Viewport); err != nil {
		st.Destroy()
		return nil, err
	}

	profile := opts.Profile
	if profile == nil {
		profile = StaticProfile(cfg.Profile())
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewWallClock()
	}
	st.Driver = &Driver{
		log:          log,
		dev:          dev,
		scene:        st.Scene,
		rig:          st.Rig,
		model:        st.Model,
		background:   st.Background,
		cube:         st.Cube,
		composer:     st.Composer,
		torus:        st.Torus,
		profile:      profile,
		clock:        clock,
		TorusSpin:    tc.Spin,
		BackdropRate: cfg.Backdrop.Rate,
		events:       make(chan Event, eventQueueSize),
	}

	log.Info("stage ready",
		"viewport", fmt.Sprintf("%dx%d@%.2g", opts.Viewport.Width, opts.Viewport.Height, opts.Viewport.EffectivePixelRatio()),
		"cube", cfg.Cube.Size, "backdrop", fmt.Sprintf("%dx%d", cfg.Backdrop.Width, cfg.Backdrop.Height))
	return st, nil
}

func loadSource(cfg *config.Config, log *slog.Logger) *scene.Texture {
	tex, err := scene.LoadTexture(cfg.Backdrop.Source, scene.TextureOptions{MaxSize: cfg.Backdrop.MaxSourceSize})
	if err != nil {
		log.Warn("backdrop source unavailable, using grey", "err", err)
		return scene.NewSolidTexture("backdrop-fallback", 128, 128, 128, 255)
	}
	tex.Mapping = scene.MappingEquirectangular
	return tex
}

// Destroy releases every GPU resource the stage created.
func (st *Stage) Destroy() {
	if st.Composer != nil {
		st.Composer.Destroy()
	} else if st.Bloom != nil {
		st.Bloom.Destroy()
	}
	if st.Cube != nil {
		st.Cube.Destroy()
	}
	if st.Background != nil {
		st.Background.Destroy()
	}
	st.Scene.Dispose()
}
