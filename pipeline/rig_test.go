package pipeline

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/scene"
)

type pointerSpy struct{ got []math.Vec2 }

func (p *pointerSpy) OnPointer(v math.Vec2) { p.got = append(p.got, v) }

type sizeSpy struct{ w, h int }

func (s *sizeSpy) SetSize(w, h int) error {
	s.w, s.h = w, h
	return nil
}

func newTestRig(dev *recordingDevice) *Rig {
	cam := scene.NewPerspectiveCamera(math.DegToRad(75), 1, 0.1, 1000)
	cam.SetPosition(math.Vec3{Z: 6})
	return NewRig(dev, cam, scene.NewOrbitControls(cam, math.Vec3Zero), nil)
}

func TestRigResizeSetsAspectAndPlane(t *testing.T) {
	sizes := [][2]int{{1920, 1080}, {800, 600}, {600, 800}, {1, 1}, {3840, 17}}
	for _, sz := range sizes {
		dev := newRecordingDevice(1, 1)
		rig := newTestRig(dev)
		spy := &sizeSpy{}
		rig.AddResizer(spy)

		require.NoError(t, rig.OnResize(core.ViewportState{Width: sz[0], Height: sz[1], PixelRatio: 1}))

		aspect := float32(sz[0]) / float32(sz[1])
		assert.Equal(t, aspect, rig.Camera.Aspect)

		w, h := rig.VisiblePlane()
		wantH := 2 * math32.Tan(math.DegToRad(75)/2) * 6
		assert.InDelta(t, wantH, h, 1e-3)
		assert.InDelta(t, wantH*aspect, w, 1e-2*float64(max(1, aspect)))

		dw, dh := dev.Size()
		assert.Equal(t, sz[0], dw)
		assert.Equal(t, sz[1], dh)
		assert.Equal(t, sz[0], spy.w)
		assert.Equal(t, sz[1], spy.h)
	}
}

func TestRigClampsPixelRatio(t *testing.T) {
	for native, want := range map[float32]float32{0: 1, 1: 1, 1.5: 1.5, 2: 2, 3: 2} {
		dev := newRecordingDevice(1, 1)
		rig := newTestRig(dev)
		require.NoError(t, rig.OnResize(core.ViewportState{Width: 100, Height: 50, PixelRatio: native}))
		assert.Equal(t, want, dev.PixelRatio(), "native %v", native)
	}
}

func TestRigRejectsEmptyViewport(t *testing.T) {
	rig := newTestRig(newRecordingDevice(1, 1))
	require.NoError(t, rig.OnResize(core.ViewportState{Width: 10, Height: 10, PixelRatio: 1}))

	assert.ErrorIs(t, rig.OnResize(core.ViewportState{Width: 10, Height: 0}), ErrInvalidViewport)
	assert.ErrorIs(t, rig.OnResize(core.ViewportState{Width: -1, Height: 10}), ErrInvalidViewport)
	assert.Equal(t, 10, rig.Viewport().Width, "failed resize keeps the previous viewport")
}

func TestNormalizePointer(t *testing.T) {
	vp := core.ViewportState{Width: 200, Height: 100}
	tests := []struct {
		name string
		x, y float64
		want math.Vec2
	}{
		{"top left", 0, 0, math.Vec2{X: -1, Y: 1}},
		{"bottom right", 200, 100, math.Vec2{X: 1, Y: -1}},
		{"center", 100, 50, math.Vec2{}},
		{"quarter", 50, 75, math.Vec2{X: -0.5, Y: -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePointer(tt.x, tt.y, vp)
			assert.InDelta(t, tt.want.X, got.X, 1e-6)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-6)
		})
	}
}

func TestRigForwardsPointer(t *testing.T) {
	rig := newTestRig(newRecordingDevice(1, 1))
	spy := &pointerSpy{}
	rig.AddPointerListener(spy)

	// no viewport yet
	rig.OnMouseMove(10, 10)
	assert.Empty(t, spy.got)

	require.NoError(t, rig.OnResize(core.ViewportState{Width: 100, Height: 100, PixelRatio: 1}))
	p := rig.OnMouseMove(100, 0)
	assert.Equal(t, math.Vec2{X: 1, Y: 1}, p)
	assert.Equal(t, p, rig.Mouse())
	require.Len(t, spy.got, 1)
	assert.Equal(t, p, spy.got[0])
}

func TestRigDragOrbitsCamera(t *testing.T) {
	rig := newTestRig(newRecordingDevice(1, 1))
	require.NoError(t, rig.OnResize(core.ViewportState{Width: 100, Height: 100, PixelRatio: 1}))
	before := rig.Camera.Position

	rig.OnPointerDown(50, 50)
	rig.OnMouseMove(90, 50)
	rig.OnPointerUp()
	for i := 0; i < 120; i++ {
		rig.Update(1.0 / 60)
	}

	after := rig.Camera.Position
	assert.NotEqual(t, before.X, after.X)
	assert.InDelta(t, before.Length(), after.Length(), 1e-3, "orbit keeps the distance")
}
