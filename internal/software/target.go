package software

import (
	"fmt"

	"backdrop-engine/gpu"
	"backdrop-engine/scene"
)

// Target is a software render target: one surface, or six for a cube.
type Target struct {
	faces     []*Surface
	format    scene.Format
	tex       *scene.Texture
	destroyed bool
}

var _ gpu.RenderTarget = (*Target)(nil)

func newTarget(name string, w, h, faces int, format scene.Format) *Target {
	t := &Target{format: format}
	for i := 0; i < faces; i++ {
		t.faces = append(t.faces, NewSurface(w, h, format))
	}
	t.tex = &scene.Texture{
		Name:   name,
		Width:  w,
		Height: h,
		Format: format,
		Cube:   faces == gpu.CubeFaces,
		Source: t,
	}
	if t.tex.Cube {
		t.tex.Mapping = scene.MappingCube
	}
	return t
}

func (t *Target) Width() int              { return t.faces[0].Width }
func (t *Target) Height() int             { return t.faces[0].Height }
func (t *Target) Format() scene.Format    { return t.format }
func (t *Target) IsCube() bool            { return len(t.faces) == gpu.CubeFaces }
func (t *Target) Texture() *scene.Texture { return t.tex }

// Face returns one surface; 2D targets have only face 0.
func (t *Target) Face(i int) *Surface {
	return t.faces[i]
}

func (t *Target) Resize(w, h int) error {
	if t.destroyed {
		return fmt.Errorf("resize: %w", gpu.ErrInvalidTarget)
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("resize %dx%d: %w", w, h, gpu.ErrInvalidTarget)
	}
	if w == t.Width() && h == t.Height() {
		return nil
	}
	for _, f := range t.faces {
		f.Resize(w, h)
	}
	t.tex.Width, t.tex.Height = w, h
	return nil
}

func (t *Target) Destroy() {
	t.destroyed = true
}
