package model

import (
	"errors"
	"fmt"
	"log/slog"

	"backdrop-engine/math"
	"backdrop-engine/scene"
)

// ErrNotLoaded is returned by accessors used before the load settled.
var ErrNotLoaded = errors.New("model: not loaded")

// State is the lifecycle of a model.
type State int

const (
	Pending State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options shapes how the loaded subtree is installed.
type Options struct {
	Name string
	// Offset positions the model root.
	Offset math.Vec3
	// StripMaps drops base color maps so the environment lights the
	// bare material colors.
	StripMaps bool
	// PointerSway is the root yaw in radians at the pointer's horizontal
	// extreme; half of it applies as pitch.
	PointerSway float32
}

// DefaultOptions sinks the model 3.3 units and strips its maps.
func DefaultOptions() Options {
	return Options{
		Name:      "model",
		Offset:    math.Vec3{Y: -3.3},
		StripMaps: true,
	}
}

// Model tracks one asynchronous load and, once loaded, its animation.
type Model struct {
	log    *slog.Logger
	future *Future
	opts   Options

	state  State
	err    error
	root   *scene.Node
	mixer  *scene.AnimationMixer
	action *scene.AnimationAction

	pointer math.Vec2
}

// New wraps a pending load.
func New(f *Future, opts Options, log *slog.Logger) *Model {
	if log == nil {
		log = slog.Default()
	}
	return &Model{log: log, future: f, opts: opts}
}

// Load starts reading a glTF file in the background.
func Load(path string, opts Options, log *slog.Logger) *Model {
	return New(Go(func() (*scene.GLTFResult, error) { return scene.LoadGLTF(path) }), opts, log)
}

func (m *Model) State() State { return m.state }

// Err is the load error of a failed model.
func (m *Model) Err() error { return m.err }

// Root returns the installed subtree.
func (m *Model) Root() (*scene.Node, error) {
	if m.state != Loaded {
		return nil, ErrNotLoaded
	}
	return m.root, nil
}

// Mixer returns the animation mixer bound to the root.
func (m *Model) Mixer() (*scene.AnimationMixer, error) {
	if m.state != Loaded {
		return nil, ErrNotLoaded
	}
	return m.mixer, nil
}

// Action is the playing clip action, nil for a model without clips.
func (m *Model) Action() *scene.AnimationAction { return m.action }

// Poll installs the model into s the first time the load is seen settled.
// It never blocks and is a no-op once the model left Pending.
func (m *Model) Poll(s *scene.Scene) State {
	if m.state != Pending {
		return m.state
	}
	res, err, ok := m.future.Poll()
	if !ok {
		return m.state
	}
	if err == nil && res == nil {
		err = errors.New("loader returned no asset")
	}
	if err != nil {
		m.state, m.err = Failed, err
		m.log.Warn("model load failed, continuing without it", "err", err)
		return m.state
	}

	m.root = res.Group(m.opts.Name)
	m.root.SetPosition(m.opts.Offset)
	if m.opts.StripMaps {
		m.root.Accept(mapStripper{})
	}
	s.AddNode(m.root)

	m.mixer = scene.NewAnimationMixer(m.root)
	if len(res.Clips) > 0 {
		m.action = m.mixer.ClipAction(res.Clips[0]).Play()
	}
	m.state = Loaded
	m.log.Info("model loaded", "clips", len(res.Clips), "roots", len(res.Roots))
	return m.state
}

// Update advances the animation by dt seconds. Before load it does nothing.
func (m *Model) Update(dt float32) {
	if m.state != Loaded {
		return
	}
	m.mixer.Update(dt)
	if m.opts.PointerSway != 0 {
		m.root.SetEuler(math.Vec3{
			X: -m.pointer.Y * m.opts.PointerSway * 0.5,
			Y: m.pointer.X * m.opts.PointerSway,
		})
	}
}

// OnPointer receives the normalized pointer from the rig.
func (m *Model) OnPointer(p math.Vec2) {
	m.pointer = math.Vec2{X: math.Clamp(p.X, -1, 1), Y: math.Clamp(p.Y, -1, 1)}
}

// Pointer is the last pointer position seen.
func (m *Model) Pointer() math.Vec2 { return m.pointer }

// mapStripper clears the base color map of every mesh material.
type mapStripper struct{}

func (mapStripper) VisitMesh(_ *scene.Node, mesh *scene.Mesh) {
	if mesh.Material != nil {
		mesh.Material.Map = nil
	}
}

func (mapStripper) VisitGroup(*scene.Node) {}
func (mapStripper) VisitOther(*scene.Node) {}
