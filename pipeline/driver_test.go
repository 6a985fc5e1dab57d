package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backdrop-engine/core"
	"backdrop-engine/envshader"
	"backdrop-engine/internal/software"
	"backdrop-engine/math"
	"backdrop-engine/model"
	"backdrop-engine/scene"
)

const frame = time.Second / 60

var testViewport = core.ViewportState{Width: 32, Height: 24, PixelRatio: 1}

// animatedAsset is a one-box asset whose clip slides the box along X
// over two seconds.
func animatedAsset() *scene.GLTFResult {
	box := scene.CreateBox(1, 1, 1)
	box.Material = scene.NewStandardMaterial("suit", core.ColorWhite, 0, 1)
	box.Material.Map = scene.NewSolidTexture("albedo", 255, 0, 0, 255)
	node := scene.NewMeshNode(box)
	node.Name = "body"

	clip := &scene.AnimationClip{Name: "walk", Channels: []scene.AnimationChannel{{
		Target: "body",
		PositionKeys: []scene.VectorKeyframe{
			{Time: 0, Value: math.Vec3{}},
			{Time: 2, Value: math.Vec3{X: 2}},
		},
	}}}
	clip.ComputeDuration()
	return &scene.GLTFResult{Roots: []*scene.Node{node}, Clips: []*scene.AnimationClip{clip}}
}

func newSoftwareStage(t *testing.T, m *model.Model) (*Stage, *software.Device, *ManualClock) {
	t.Helper()
	dev := software.NewDevice(testViewport.Width, testViewport.Height, nil)
	clock := &ManualClock{}
	st, err := NewStage(dev, smallConfig(), StageOptions{
		Viewport: testViewport,
		Model:    m,
		Source:   scene.NewSolidTexture("src", 200, 40, 10, 255),
		Clock:    clock,
	})
	require.NoError(t, err)
	t.Cleanup(st.Destroy)
	return st, dev, clock
}

func finite(c core.Color) bool {
	for _, v := range []float32{c.R, c.G, c.B} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func TestDriverTickWithoutModel(t *testing.T) {
	st, dev, _ := newSoftwareStage(t, nil)

	require.NoError(t, st.Driver.Tick())

	assert.Same(t, st.Background.Texture(), st.Scene.Background)
	assert.Same(t, st.Background.Texture(), st.Scene.Environment)
	assert.Equal(t, float32(0), st.Scene.BackgroundRotation.Y)
	rot := st.Torus.Transform.Rotation
	assert.InDelta(t, 0, rot.Z, 1e-6)
	assert.InDelta(t, 1, rot.W, 1e-6)

	avg := dev.Screen().Average()
	assert.True(t, finite(avg))
	assert.Greater(t, avg.R+avg.G+avg.B, float32(0), "backdrop reaches the screen")
}

func TestDriverInstallsModelAndAnimates(t *testing.T) {
	m := model.New(model.Resolved(animatedAsset(), nil), model.DefaultOptions(), nil)
	st, _, clock := newSoftwareStage(t, m)

	for i := 0; i < 60; i++ {
		clock.Advance(frame)
		require.NoError(t, st.Driver.Tick())
	}

	require.Equal(t, model.Loaded, m.State())
	root, err := m.Root()
	require.NoError(t, err)
	assert.True(t, st.Scene.Contains(root))
	assert.Equal(t, float32(-3.3), root.Transform.Position.Y)

	mixer, err := m.Mixer()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mixer.Time(), 1e-4)
	assert.InDelta(t, 1.0, m.Action().Time, 1e-4)

	body := root.Find("body")
	require.NotNil(t, body)
	assert.InDelta(t, 1.0, body.Transform.Position.X, 1e-3)
	assert.Nil(t, body.Mesh.Material.Map, "maps are stripped")
}

func TestDriverContinuesAfterFailedModel(t *testing.T) {
	m := model.New(model.Resolved(nil, errors.New("corrupt asset")), model.DefaultOptions(), nil)
	st, dev, clock := newSoftwareStage(t, m)

	for i := 0; i < 3; i++ {
		clock.Advance(frame)
		require.NoError(t, st.Driver.Tick())
	}
	assert.Equal(t, model.Failed, m.State())
	assert.EqualError(t, m.Err(), "corrupt asset")
	assert.Equal(t, uint64(3), st.Driver.Stats().Frames)
	assert.True(t, finite(dev.Screen().Average()))
}

func TestDriverPendingModel(t *testing.T) {
	m := model.New(model.NewPending(), model.DefaultOptions(), nil)
	st, _, clock := newSoftwareStage(t, m)

	clock.Advance(frame)
	require.NoError(t, st.Driver.Tick())
	assert.Equal(t, model.Pending, m.State())
	_, err := m.Root()
	assert.ErrorIs(t, err, model.ErrNotLoaded)
}

type switchProfile struct{ p envshader.Profile }

func (s *switchProfile) Profile() envshader.Profile { return s.p }

func TestDriverProfileChangeTakesEffect(t *testing.T) {
	dev := software.NewDevice(testViewport.Width, testViewport.Height, nil)
	prof := &switchProfile{p: envshader.Profile1}
	st, err := NewStage(dev, smallConfig(), StageOptions{
		Viewport: testViewport,
		Source:   scene.NewSolidTexture("src", 200, 40, 10, 255),
		Profile:  prof,
		Clock:    &ManualClock{},
	})
	require.NoError(t, err)
	defer st.Destroy()

	require.NoError(t, st.Driver.Tick())
	before := dev.Screen().Average()

	prof.p = envshader.Profile2
	require.NoError(t, st.Driver.Tick())
	after := dev.Screen().Average()

	assert.Equal(t, int32(envshader.Profile2), st.Background.Uniforms().Int(envshader.UniformProfile))
	assert.NotEqual(t, before, after)

	prof.p = envshader.Profile(7)
	assert.ErrorIs(t, st.Driver.Tick(), envshader.ErrInvalidProfile)
}

func TestDriverPointerEventsReachModel(t *testing.T) {
	m := model.New(model.Resolved(animatedAsset(), nil), model.DefaultOptions(), nil)
	st, _, _ := newSoftwareStage(t, m)

	st.Driver.Post(PointerMoveEvent{X: float64(testViewport.Width), Y: 0})
	require.NoError(t, st.Driver.Tick())
	assert.Equal(t, math.Vec2{X: 1, Y: 1}, m.Pointer())
	assert.Equal(t, math.Vec2{X: 1, Y: 1}, st.Rig.Mouse())
}

func TestDriverIgnoresEmptyResize(t *testing.T) {
	st, _, clock := newSoftwareStage(t, nil)
	aspect := st.Rig.Camera.Aspect

	assert.True(t, st.Driver.Post(ResizeEvent{Viewport: core.ViewportState{PixelRatio: 1}}))
	clock.Advance(frame)
	require.NoError(t, st.Driver.Tick())
	assert.Equal(t, aspect, st.Rig.Camera.Aspect)
	assert.Equal(t, uint64(1), st.Driver.Stats().Frames)
}

func TestDriverResizeSurvivesFullQueue(t *testing.T) {
	st, _, _ := newSoftwareStage(t, nil)

	for i := 0; i < eventQueueSize; i++ {
		require.True(t, st.Driver.Post(PointerMoveEvent{X: float64(i)}))
	}
	assert.False(t, st.Driver.Post(PointerMoveEvent{}), "queue is full")

	assert.True(t, st.Driver.Post(ResizeEvent{Viewport: core.ViewportState{Width: 40, Height: 40, PixelRatio: 1}}))
	assert.True(t, st.Driver.Post(ResizeEvent{Viewport: core.ViewportState{Width: 64, Height: 32, PixelRatio: 1}}))

	require.NoError(t, st.Driver.Tick())
	assert.InDelta(t, 2.0, st.Rig.Camera.Aspect, 1e-6, "latest resize wins")
}
