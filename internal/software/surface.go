// Package software is a headless CPU backend. It rasterizes scenes and
// evaluates shader programs in Go, with the same conventions as the OpenGL
// backend: row 0 is the bottom of a surface and UV (0,0) its bottom-left.
package software

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"

	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/scene"
)

const halfFloatMax = 65504

// Surface holds one color + depth plane as flat slices for cache locality.
type Surface struct {
	Width  int
	Height int
	Format scene.Format
	Color  []core.Color
	Depth  []float32
}

// NewSurface allocates a cleared surface.
func NewSurface(w, h int, format scene.Format) *Surface {
	s := &Surface{Format: format}
	s.Resize(w, h)
	return s
}

// Resize reallocates both planes; contents are discarded.
func (s *Surface) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	s.Width, s.Height = w, h
	s.Color = make([]core.Color, w*h)
	s.Depth = make([]float32, w*h)
	s.ClearDepth()
}

func (s *Surface) Clear(c core.Color) {
	c = s.quantize(c)
	for i := range s.Color {
		s.Color[i] = c
	}
	s.ClearDepth()
}

func (s *Surface) ClearDepth() {
	for i := range s.Depth {
		s.Depth[i] = 1
	}
}

// At returns the stored color; row 0 is the bottom row.
func (s *Surface) At(x, y int) core.Color {
	return s.Color[y*s.Width+x]
}

// Set stores c after converting to the surface format.
func (s *Surface) Set(x, y int, c core.Color) {
	s.Color[y*s.Width+x] = s.quantize(c)
}

// Add accumulates c onto the stored color.
func (s *Surface) Add(x, y int, c core.Color) {
	i := y*s.Width + x
	s.Color[i] = s.quantize(s.Color[i].Add(c))
}

func (s *Surface) quantize(c core.Color) core.Color {
	switch s.Format {
	case scene.FormatRGBA8:
		return core.Color{R: unorm8(c.R), G: unorm8(c.G), B: unorm8(c.B), A: unorm8(c.A)}
	case scene.FormatHalfFloat:
		return core.Color{
			R: math.Clamp(c.R, -halfFloatMax, halfFloatMax),
			G: math.Clamp(c.G, -halfFloatMax, halfFloatMax),
			B: math.Clamp(c.B, -halfFloatMax, halfFloatMax),
			A: math.Clamp(c.A, -halfFloatMax, halfFloatMax),
		}
	default:
		return c
	}
}

func unorm8(v float32) float32 {
	return math32.Round(math.Clamp(v, 0, 1)*255) / 255
}

// Image converts to a top-down NRGBA image, clamping to [0,1].
func (s *Surface) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		row := s.Height - 1 - y
		for x := 0; x < s.Width; x++ {
			c := s.At(x, y).Clamp01()
			img.SetNRGBA(x, row, color.NRGBA{
				R: uint8(c.R*255 + 0.5),
				G: uint8(c.G*255 + 0.5),
				B: uint8(c.B*255 + 0.5),
				A: uint8(c.A*255 + 0.5),
			})
		}
	}
	return img
}

// Average returns the mean color over the surface.
func (s *Surface) Average() core.Color {
	var r, g, b, a float64
	for _, c := range s.Color {
		r += float64(c.R)
		g += float64(c.G)
		b += float64(c.B)
		a += float64(c.A)
	}
	n := float64(len(s.Color))
	return core.Color{R: float32(r / n), G: float32(g / n), B: float32(b / n), A: float32(a / n)}
}
