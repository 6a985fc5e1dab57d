package math

import "github.com/go-gl/mathgl/mgl32"

// MGL converts to a column-major mgl32 matrix whose memory layout matches
// what glUniformMatrix4fv expects with transpose = false.
//
// Row-vector v*M equals column-vector M^T*v, and the row-major storage of M
// is exactly the column-major storage of M^T.
func (m Mat4) MGL() mgl32.Mat4 {
	var out mgl32.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i*4+j] = m[i][j]
		}
	}
	return out
}

// Vec3MGL converts to an mgl32 vector.
func (v Vec3) MGL() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}
