package scene

import (
	"sort"

	"backdrop-engine/math"
)

// ── Clip data ──

// VectorKeyframe is a timed translation or scale sample.
type VectorKeyframe struct {
	Time  float32
	Value math.Vec3
}

// QuaternionKeyframe is a timed rotation sample.
type QuaternionKeyframe struct {
	Time  float32
	Value math.Quaternion
}

// AnimationChannel animates the transform of one node, addressed by name
// below the mixer root.
type AnimationChannel struct {
	Target string

	PositionKeys []VectorKeyframe
	RotationKeys []QuaternionKeyframe
	ScaleKeys    []VectorKeyframe

	// Step holds each key until the next one instead of interpolating.
	Step bool
}

// AnimationClip is a named set of channels.
type AnimationClip struct {
	Name     string
	Duration float32
	Channels []AnimationChannel
}

// ComputeDuration sets Duration to the last key time over all channels.
func (c *AnimationClip) ComputeDuration() {
	var d float32
	for _, ch := range c.Channels {
		if n := len(ch.PositionKeys); n > 0 {
			d = max(d, ch.PositionKeys[n-1].Time)
		}
		if n := len(ch.RotationKeys); n > 0 {
			d = max(d, ch.RotationKeys[n-1].Time)
		}
		if n := len(ch.ScaleKeys); n > 0 {
			d = max(d, ch.ScaleKeys[n-1].Time)
		}
	}
	c.Duration = d
}

// ── Playback ──

// LoopMode decides what happens when an action passes the clip end.
type LoopMode int

const (
	LoopRepeat LoopMode = iota
	LoopOnce
)

// AnimationAction is the playback state of one clip on one mixer.
type AnimationAction struct {
	Clip      *AnimationClip
	Loop      LoopMode
	TimeScale float32
	Weight    float32

	// Time is the local clip time in seconds, wrapped for LoopRepeat.
	Time float32

	playing  bool
	bindings []*Node
}

func (a *AnimationAction) Play() *AnimationAction {
	a.playing = true
	return a
}

func (a *AnimationAction) Stop() *AnimationAction {
	a.playing = false
	a.Time = 0
	return a
}

func (a *AnimationAction) IsRunning() bool {
	return a.playing
}

func (a *AnimationAction) advance(dt float32) {
	a.Time += dt * a.TimeScale
	d := a.Clip.Duration
	if d <= 0 {
		a.Time = 0
		return
	}
	switch a.Loop {
	case LoopOnce:
		if a.Time >= d {
			a.Time = d
			a.playing = false
		}
	default:
		a.Time = math.Wrap(a.Time, d)
	}
}

func (a *AnimationAction) apply() {
	for i, ch := range a.Clip.Channels {
		node := a.bindings[i]
		if node == nil {
			continue
		}
		if len(ch.PositionKeys) > 0 {
			node.Transform.Position = node.Transform.Position.Lerp(sampleVec(ch.PositionKeys, a.Time, ch.Step), a.Weight)
		}
		if len(ch.RotationKeys) > 0 {
			node.Transform.Rotation = node.Transform.Rotation.Slerp(sampleQuat(ch.RotationKeys, a.Time, ch.Step), a.Weight)
		}
		if len(ch.ScaleKeys) > 0 {
			node.Transform.Scale = node.Transform.Scale.Lerp(sampleVec(ch.ScaleKeys, a.Time, ch.Step), a.Weight)
		}
		node.MarkWorldMatrixDirty()
	}
}

// AnimationMixer advances the actions bound to a subtree.
type AnimationMixer struct {
	root    *Node
	actions []*AnimationAction
	time    float64
}

func NewAnimationMixer(root *Node) *AnimationMixer {
	return &AnimationMixer{root: root}
}

func (m *AnimationMixer) Root() *Node {
	return m.root
}

// ClipAction returns the action for clip, creating and binding it once.
func (m *AnimationMixer) ClipAction(clip *AnimationClip) *AnimationAction {
	for _, a := range m.actions {
		if a.Clip == clip {
			return a
		}
	}
	a := &AnimationAction{
		Clip:      clip,
		Loop:      LoopRepeat,
		TimeScale: 1,
		Weight:    1,
		bindings:  make([]*Node, len(clip.Channels)),
	}
	for i, ch := range clip.Channels {
		a.bindings[i] = m.root.Find(ch.Target)
	}
	m.actions = append(m.actions, a)
	return a
}

// Update advances every running action by dt seconds and poses the subtree.
func (m *AnimationMixer) Update(dt float32) {
	m.time += float64(dt)
	for _, a := range m.actions {
		if !a.playing {
			continue
		}
		a.advance(dt)
		a.apply()
	}
}

// Time is the total time the mixer has been advanced.
func (m *AnimationMixer) Time() float64 {
	return m.time
}

// ── Sampling ──

func keyIndex(n int, time func(int) float32, t float32) int {
	// first key strictly after t
	return sort.Search(n, func(i int) bool { return time(i) > t })
}

func sampleVec(keys []VectorKeyframe, t float32, step bool) math.Vec3 {
	i := keyIndex(len(keys), func(i int) float32 { return keys[i].Time }, t)
	switch {
	case i == 0:
		return keys[0].Value
	case i == len(keys):
		return keys[len(keys)-1].Value
	case step:
		return keys[i-1].Value
	}
	a, b := keys[i-1], keys[i]
	return a.Value.Lerp(b.Value, (t-a.Time)/(b.Time-a.Time))
}

func sampleQuat(keys []QuaternionKeyframe, t float32, step bool) math.Quaternion {
	i := keyIndex(len(keys), func(i int) float32 { return keys[i].Time }, t)
	switch {
	case i == 0:
		return keys[0].Value
	case i == len(keys):
		return keys[len(keys)-1].Value
	case step:
		return keys[i-1].Value
	}
	a, b := keys[i-1], keys[i]
	return a.Value.Slerp(b.Value, (t-a.Time)/(b.Time-a.Time))
}
