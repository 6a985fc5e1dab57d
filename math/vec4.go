package math

// Vec4 is a homogeneous point or direction. Matrices apply to it as a row
// vector, v * m.
type Vec4 struct {
	X, Y, Z, W float32
}

// Point lifts p to w = 1.
func Point(p Vec3) Vec4 { return Vec4{p.X, p.Y, p.Z, 1} }

// Direction lifts d to w = 0 so translation does not apply.
func Direction(d Vec3) Vec4 { return Vec4{d.X, d.Y, d.Z, 0} }

func (v Vec4) Add(o Vec4) Vec4    { return Vec4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W} }
func (v Vec4) Sub(o Vec4) Vec4    { return Vec4{v.X - o.X, v.Y - o.Y, v.Z - o.Z, v.W - o.W} }
func (v Vec4) Mul(s float32) Vec4 { return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s} }

func (v Vec4) MulMat(m Mat4) Vec4 {
	var out [4]float32
	in := [4]float32{v.X, v.Y, v.Z, v.W}
	for col := range 4 {
		for row := range 4 {
			out[col] += in[row] * m[row][col]
		}
	}
	return Vec4{out[0], out[1], out[2], out[3]}
}

func (v Vec4) XYZ() Vec3 { return Vec3{v.X, v.Y, v.Z} }

// Perspective divides by w. A zero w returns xyz unchanged.
func (v Vec4) Perspective() Vec3 {
	if v.W == 0 {
		return v.XYZ()
	}
	inv := 1 / v.W
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}
