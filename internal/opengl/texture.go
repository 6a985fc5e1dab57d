package opengl

import (
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"backdrop-engine/scene"
)

// uploaded is a GL copy of CPU pixels at one Version.
type uploaded struct {
	id      uint32
	version uint64
}

// flipRows returns the rows of a top-down RGBA8 image in bottom-up order,
// so that v = 0 samples the bottom row as with render targets.
func flipRows(pix []byte, w, h int) []byte {
	stride := w * 4
	out := make([]byte, len(pix))
	for y := 0; y < h; y++ {
		copy(out[(h-1-y)*stride:(h-y)*stride], pix[y*stride:(y+1)*stride])
	}
	return out
}

// uploadTexture (re)uploads tex when its Version moved past the cached
// copy and returns the GL name.
func (d *Device) uploadTexture(tex *scene.Texture) uint32 {
	u, ok := d.textures[tex]
	if ok && u.version == tex.Version {
		return u.id
	}
	if len(tex.Pixels) < tex.Width*tex.Height*4 || tex.Width <= 0 || tex.Height <= 0 {
		return 0
	}
	if !ok {
		u = &uploaded{}
		gl.GenTextures(1, &u.id)
		d.textures[tex] = u
	}
	pix := flipRows(tex.Pixels, tex.Width, tex.Height)

	gl.BindTexture(gl.TEXTURE_2D, u.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8,
		int32(tex.Width), int32(tex.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	u.version = tex.Version
	tex.GLID = u.id
	return u.id
}

// resolveTexture returns the bind target and GL name behind tex. Unknown
// or empty textures resolve to the 1x1 transparent fallback.
func (d *Device) resolveTexture(tex *scene.Texture) (uint32, uint32) {
	if tex == nil {
		return gl.TEXTURE_2D, d.blank
	}
	if t, ok := tex.Source.(*Target); ok && !t.destroyed {
		return t.textureTarget(), t.colorTex
	}
	if id := d.uploadTexture(tex); id != 0 {
		return gl.TEXTURE_2D, id
	}
	return gl.TEXTURE_2D, d.blank
}

// DeleteTexture frees the GL copy of tex.
func (d *Device) DeleteTexture(tex *scene.Texture) {
	u, ok := d.textures[tex]
	if !ok {
		return
	}
	gl.DeleteTextures(1, &u.id)
	delete(d.textures, tex)
	tex.GLID = 0
}

func newBlankTexture() uint32 {
	var id uint32
	pix := [4]byte{}
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pix[0]))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}
