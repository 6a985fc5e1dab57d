package software

import (
	"github.com/chewxy/math32"

	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/shader"
)

// dirSampler looks a texture up by world direction.
type dirSampler interface {
	SampleDir(dir math.Vec3) core.Color
}

// surfaceSampler performs bilinear filtering with clamp-to-edge on a
// bottom-up surface.
type surfaceSampler struct {
	s *Surface
}

func (ss surfaceSampler) Size() (int, int) { return ss.s.Width, ss.s.Height }

func (ss surfaceSampler) Sample(uv math.Vec2) core.Color {
	return bilinear(ss.s.Width, ss.s.Height, uv, func(x, y int) core.Color {
		return ss.s.Color[y*ss.s.Width+x]
	})
}

// imageSampler reads RGBA8 texture pixels stored top-to-bottom, so v = 0
// maps to the last stored row.
type imageSampler struct {
	w, h int
	pix  []byte
}

func (is imageSampler) Size() (int, int) { return is.w, is.h }

func (is imageSampler) Sample(uv math.Vec2) core.Color {
	return bilinear(is.w, is.h, uv, func(x, y int) core.Color {
		i := ((is.h-1-y)*is.w + x) * 4
		return core.Color{
			R: float32(is.pix[i]) / 255,
			G: float32(is.pix[i+1]) / 255,
			B: float32(is.pix[i+2]) / 255,
			A: float32(is.pix[i+3]) / 255,
		}
	})
}

// bilinear samples texel centers the way GL_LINEAR with CLAMP_TO_EDGE does.
func bilinear(w, h int, uv math.Vec2, texel func(x, y int) core.Color) core.Color {
	fx := uv.X*float32(w) - 0.5
	fy := uv.Y*float32(h) - 0.5
	x0f := math32.Floor(fx)
	y0f := math32.Floor(fy)
	dx := fx - x0f
	dy := fy - y0f

	x0 := clampInt(int(x0f), 0, w-1)
	x1 := clampInt(int(x0f)+1, 0, w-1)
	y0 := clampInt(int(y0f), 0, h-1)
	y1 := clampInt(int(y0f)+1, 0, h-1)

	c00 := texel(x0, y0)
	c10 := texel(x1, y0)
	c01 := texel(x0, y1)
	c11 := texel(x1, y1)

	low := c00.Lerp(c10, dx)
	high := c01.Lerp(c11, dx)
	return low.Lerp(high, dy)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// equirectSampler projects a 2D sampler onto the sphere.
type equirectSampler struct {
	src shader.Sampler
}

func (es equirectSampler) SampleDir(dir math.Vec3) core.Color {
	return es.src.Sample(EquirectUV(dir))
}

// EquirectUV maps a direction to latitude/longitude texture coordinates:
// u follows atan2(z, x), v = 1 looks straight up.
func EquirectUV(dir math.Vec3) math.Vec2 {
	d := dir.Normalize()
	return math.Vec2{
		X: math32.Atan2(d.Z, d.X)/(2*math32.Pi) + 0.5,
		Y: math32.Asin(math.Clamp(d.Y, -1, 1))/math32.Pi + 0.5,
	}
}

// cubeSampler selects a face by major axis, faces ordered +X,-X,+Y,-Y,+Z,-Z.
type cubeSampler struct {
	faces [6]*Surface
}

func (cs cubeSampler) SampleDir(dir math.Vec3) core.Color {
	face, uv := CubeFaceUV(dir)
	if cs.faces[face] == nil {
		return core.ColorTransparent
	}
	return surfaceSampler{cs.faces[face]}.Sample(uv)
}

// CubeFaceUV returns the face index and face UV for dir, following the
// OpenGL cube map selection rules.
func CubeFaceUV(dir math.Vec3) (int, math.Vec2) {
	a := dir.Abs()
	ax, ay, az := a.X, a.Y, a.Z
	var face int
	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if dir.X > 0 {
			face, sc, tc = 0, -dir.Z, -dir.Y
		} else {
			face, sc, tc = 1, dir.Z, -dir.Y
		}
	case ay >= az:
		ma = ay
		if dir.Y > 0 {
			face, sc, tc = 2, dir.X, dir.Z
		} else {
			face, sc, tc = 3, dir.X, -dir.Z
		}
	default:
		ma = az
		if dir.Z > 0 {
			face, sc, tc = 4, dir.X, -dir.Y
		} else {
			face, sc, tc = 5, -dir.X, -dir.Y
		}
	}
	if ma == 0 {
		return 4, math.Vec2{X: 0.5, Y: 0.5}
	}
	return face, math.Vec2{X: (sc/ma + 1) / 2, Y: (tc/ma + 1) / 2}
}

// rotatedSampler applies the inverse of a rotation before the lookup.
type rotatedSampler struct {
	inner dirSampler
	inv   math.Mat4
}

func (rs rotatedSampler) SampleDir(dir math.Vec3) core.Color {
	return rs.inner.SampleDir(rs.inv.MulDir(dir))
}

func withRotation(s dirSampler, euler math.Vec3) dirSampler {
	if s == nil || euler == math.Vec3Zero {
		return s
	}
	// inverse of a rotation is its transpose
	return rotatedSampler{inner: s, inv: math.Mat4Rotation(euler).Transpose()}
}
