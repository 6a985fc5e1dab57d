package math

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-5

func assertVec3(t *testing.T, want, got Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

func assertMat4(t *testing.T, want, got Mat4) {
	t.Helper()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, want[i][j], got[i][j], 1e-4, "m[%d][%d]", i, j)
		}
	}
}

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), v1.Add(v2))
	assert.Equal(t, NewVec3(3, 3, 3), v2.Sub(v1))
	assert.Equal(t, NewVec3(2, 4, 6), v1.Mul(2))
	assert.Equal(t, float32(32), v1.Dot(v2))

	// Right x Up = Front in a right-handed system
	assert.Equal(t, Vec3Front, Vec3Right.Cross(Vec3Up))
}

func TestVec3Normalize(t *testing.T) {
	n := NewVec3(3, 0, 0).Normalize()
	assert.Equal(t, NewVec3(1, 0, 0), n)
	assert.InDelta(t, 1, n.Length(), eps)

	assert.Equal(t, Vec3Zero, Vec3Zero.Normalize())
}

func TestVec3Reflect(t *testing.T) {
	got := NewVec3(1, -1, 0).Reflect(Vec3Up)
	assertVec3(t, NewVec3(1, 1, 0), got)
}

func TestHomogeneous(t *testing.T) {
	m := Mat4Translation(Vec3{X: 2, Y: -1, Z: 3})
	assertVec3(t, Vec3{X: 3, Y: 0, Z: 4}, Point(Vec3One).MulMat(m).Perspective())
	assertVec3(t, Vec3One, Direction(Vec3One).MulMat(m).XYZ())

	v := Vec4{X: 2, Y: 4, Z: 6, W: 2}
	assert.True(t, v.Perspective().ApproxEqual(Vec3{X: 1, Y: 2, Z: 3}, eps))
	v.W = 0
	assert.True(t, v.Perspective().ApproxEqual(Vec3{X: 2, Y: 4, Z: 6}, eps))
	assert.False(t, Vec3Up.ApproxEqual(Vec3Down, 0.5))
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 3}, Vec3{X: -1, Y: 2, Z: -3}.Abs())

	a, b := Vec4{W: 1}, Vec4{X: 4, Y: -2, Z: 2, W: 3}
	assert.Equal(t, Vec4{X: 2, Y: -1, Z: 1, W: 2}, a.Add(b.Sub(a).Mul(0.5)))
}

func TestVec2(t *testing.T) {
	v := NewVec2(5, 5)
	assert.Equal(t, NewVec2(5.0/1024, 5.0/512), v.DivVec(NewVec2(1024, 512)))
	assert.Equal(t, NewVec2(50, 50), v.Mul(10))
}

func TestMat4Composition(t *testing.T) {
	// Row vectors: a.Mul(b) applies a first.
	s := Mat4Scale(NewVec3(2, 2, 2))
	tr := Mat4Translation(NewVec3(1, 0, 0))
	p := NewVec3(1, 0, 0)

	assertVec3(t, NewVec3(3, 0, 0), s.Mul(tr).MulVec3(p))
	assertVec3(t, NewVec3(4, 0, 0), tr.Mul(s).MulVec3(p))
}

func TestMat4RotationZ(t *testing.T) {
	got := Mat4RotationZ(math32.Pi / 2).MulVec3(Vec3Right)
	assertVec3(t, Vec3Up, got)
}

func TestMat4Inverse(t *testing.T) {
	m := Mat4TRS(NewVec3(1, -2, 3), NewVec3(0.3, 0.7, -1.1), NewVec3(2, 0.5, 1.5))
	assertMat4(t, Mat4Identity(), m.Mul(m.Inverse()))
	assertMat4(t, Mat4Identity(), m.Inverse().Mul(m))

	p := Mat4Perspective(DegToRad(75), 16.0/9, 0.1, 100)
	assertMat4(t, Mat4Identity(), p.Mul(p.Inverse()))

	assert.Equal(t, Mat4Identity(), Mat4Zero().Inverse())
}

func TestMat4LookAt(t *testing.T) {
	view := Mat4LookAt(NewVec3(0, 0, 5), Vec3Zero, Vec3Up)
	assertVec3(t, NewVec3(0, 0, -5), view.MulVec3(Vec3Zero))
}

func TestMat4Perspective(t *testing.T) {
	proj := Mat4Perspective(DegToRad(90), 1, 1, 10)
	near := proj.MulVec3(NewVec3(0, 0, -1))
	far := proj.MulVec3(NewVec3(0, 0, -10))
	assert.InDelta(t, -1, near.Z, eps)
	assert.InDelta(t, 1, far.Z, eps)

	edge := proj.MulVec3(NewVec3(1, 1, -1))
	assert.InDelta(t, 1, edge.X, eps)
	assert.InDelta(t, 1, edge.Y, eps)
}

func TestMat4Orthographic(t *testing.T) {
	ortho := Mat4Orthographic(-1, 1, -1, 1, 0.1, 10)
	got := ortho.MulVec3(NewVec3(1, -1, -0.1))
	assert.InDelta(t, 1, got.X, eps)
	assert.InDelta(t, -1, got.Y, eps)
	assert.InDelta(t, -1, got.Z, eps)
}

func TestMat4MGLLayout(t *testing.T) {
	m := Mat4Translation(NewVec3(7, 8, 9)).MGL()
	// mgl32 stores column-major; translation lands in the last column.
	assert.Equal(t, float32(7), m.At(0, 3))
	assert.Equal(t, float32(8), m.At(1, 3))
	assert.Equal(t, float32(9), m.At(2, 3))
}

func TestQuaternionRotation(t *testing.T) {
	q := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)
	assertVec3(t, Vec3Back, q.RotateVector(Vec3Right))
	assertVec3(t, q.RotateVector(Vec3Right), q.ToMat4().MulDir(Vec3Right))
}

func TestQuaternionSlerp(t *testing.T) {
	a := QuaternionIdentity()
	b := QuaternionFromAxisAngle(Vec3Front, math32.Pi/2)
	mid := a.Slerp(b, 0.5)
	want := QuaternionFromAxisAngle(Vec3Front, math32.Pi/4)
	assert.InDelta(t, want.Z, mid.Z, eps)
	assert.InDelta(t, want.W, mid.W, eps)
}

func TestScalarHelpers(t *testing.T) {
	assert.Equal(t, float32(0), Smoothstep(0.3, 1, 0.1))
	assert.Equal(t, float32(1), Smoothstep(0.3, 1, 2))
	assert.InDelta(t, 0.5, Smoothstep(0, 1, 0.5), eps)
	assert.InDelta(t, 0.25, Fract(3.25), eps)
	assert.InDelta(t, 0.5, Wrap(-0.5, 1), eps)
	assert.Equal(t, float32(2), Clamp(3, 0, 2))
	assert.InDelta(t, 0.6, Mix(0.2, 1.0, 0.5), eps)
}
