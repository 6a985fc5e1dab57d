package core

// MaxPixelRatio bounds the device pixel ratio used for every render surface.
const MaxPixelRatio = 2

// ViewportState is the host surface as seen by the renderer: CSS-style
// logical size plus the native device pixel ratio.
type ViewportState struct {
	Width      int
	Height     int
	PixelRatio float32
}

// ClampPixelRatio returns min(MaxPixelRatio, native). Non-positive input is treated as 1.
func ClampPixelRatio(native float32) float32 {
	if native <= 0 {
		return 1
	}
	if native > MaxPixelRatio {
		return MaxPixelRatio
	}
	return native
}

// Valid reports whether both dimensions are positive.
func (v ViewportState) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

func (v ViewportState) Aspect() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

// EffectivePixelRatio is the clamped ratio.
func (v ViewportState) EffectivePixelRatio() float32 {
	return ClampPixelRatio(v.PixelRatio)
}

// DrawingBufferSize is the physical pixel size after the pixel ratio clamp.
func (v ViewportState) DrawingBufferSize() (int, int) {
	r := v.EffectivePixelRatio()
	return int(float32(v.Width) * r), int(float32(v.Height) * r)
}
