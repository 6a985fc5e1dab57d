package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"backdrop-engine/gpu"
	"backdrop-engine/scene"
)

// Target is a framebuffer with a color texture and a depth renderbuffer.
// Cube targets keep one framebuffer per face sharing the depth buffer.
type Target struct {
	name   string
	format scene.Format
	cube   bool
	width  int32
	height int32

	colorTex uint32
	depthRB  uint32
	fbos     []uint32

	tex       *scene.Texture
	destroyed bool
}

var _ gpu.RenderTarget = (*Target)(nil)

// texelFormat maps a scene format to internal format, pixel type.
func texelFormat(f scene.Format) (internal int32, pixelType uint32) {
	switch f {
	case scene.FormatHalfFloat:
		return gl.RGBA16F, gl.HALF_FLOAT
	case scene.FormatFloat:
		return gl.RGBA32F, gl.FLOAT
	default:
		return gl.RGBA8, gl.UNSIGNED_BYTE
	}
}

func newTarget(name string, w, h int, format scene.Format, cube bool) (*Target, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%s %dx%d: %w", name, w, h, gpu.ErrInvalidTarget)
	}
	t := &Target{name: name, format: format, cube: cube}
	t.tex = &scene.Texture{Name: name, Format: format, Cube: cube, Source: t}
	if cube {
		t.tex.Mapping = scene.MappingCube
	}
	if err := t.alloc(w, h); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Target) textureTarget() uint32 {
	if t.cube {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func (t *Target) alloc(w, h int) error {
	t.width, t.height = int32(w), int32(h)
	t.tex.Width, t.tex.Height = w, h
	internal, pixelType := texelFormat(t.format)
	target := t.textureTarget()

	gl.GenTextures(1, &t.colorTex)
	gl.BindTexture(target, t.colorTex)
	faces := 1
	if t.cube {
		faces = gpu.CubeFaces
		for i := 0; i < faces; i++ {
			gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, internal,
				t.width, t.height, 0, gl.RGBA, pixelType, nil)
		}
		gl.TexParameteri(target, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, internal, t.width, t.height, 0, gl.RGBA, pixelType, nil)
	}
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(target, 0)

	gl.GenRenderbuffers(1, &t.depthRB)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRB)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, t.width, t.height)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	t.fbos = make([]uint32, faces)
	gl.GenFramebuffers(int32(faces), &t.fbos[0])
	for i, fbo := range t.fbos {
		gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
		texTarget := uint32(gl.TEXTURE_2D)
		if t.cube {
			texTarget = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(i)
		}
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, texTarget, t.colorTex, 0)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depthRB)
		if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			t.free()
			return fmt.Errorf("%s framebuffer incomplete (0x%X): %w", t.name, s, gpu.ErrInvalidTarget)
		}
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	t.tex.GLID = t.colorTex
	return nil
}

func (t *Target) free() {
	if len(t.fbos) > 0 {
		gl.DeleteFramebuffers(int32(len(t.fbos)), &t.fbos[0])
		t.fbos = nil
	}
	if t.depthRB != 0 {
		gl.DeleteRenderbuffers(1, &t.depthRB)
		t.depthRB = 0
	}
	if t.colorTex != 0 {
		gl.DeleteTextures(1, &t.colorTex)
		t.colorTex = 0
	}
	t.tex.GLID = 0
}

func (t *Target) Width() int              { return int(t.width) }
func (t *Target) Height() int             { return int(t.height) }
func (t *Target) Format() scene.Format    { return t.format }
func (t *Target) IsCube() bool            { return t.cube }
func (t *Target) Texture() *scene.Texture { return t.tex }

// Resize reallocates the attachments. The scene texture keeps its identity.
func (t *Target) Resize(w, h int) error {
	if t.destroyed || w <= 0 || h <= 0 {
		return fmt.Errorf("resize %s to %dx%d: %w", t.name, w, h, gpu.ErrInvalidTarget)
	}
	if int32(w) == t.width && int32(h) == t.height {
		return nil
	}
	t.free()
	return t.alloc(w, h)
}

func (t *Target) Destroy() {
	if t.destroyed {
		return
	}
	t.free()
	t.destroyed = true
}
