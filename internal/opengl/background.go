package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"backdrop-engine/math"
	"backdrop-engine/scene"
)

// background projects an equirectangular or cube texture onto an inverted
// unit cube. The vertex stage uses the xyww trick so every fragment lands
// at NDC depth 1.0, behind all scene geometry. UV-mapped textures are
// stretched over the screen instead.
type background struct {
	vao     uint32
	vbo     uint32
	sky     *program
	stretch *program
}

const skyVertSrc = `#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 skyVP;
out vec3 fragDir;
void main() {
    fragDir = inPosition;
    vec4 pos = skyVP * vec4(inPosition, 1.0);
    gl_Position = pos.xyww;
}
` + "\x00"

const skyFragSrc = `#version 410 core
in vec3 fragDir;
out vec4 outColor;
` + envLookupSrc + `
void main() {
    outColor = vec4(sampleEnv(fragDir), 1.0);
}
` + "\x00"

const stretchFragSrc = `#version 410 core
in vec2 vUv;
out vec4 FragColor;
uniform sampler2D uSrc;
void main() {
    FragColor = texture(uSrc, vUv);
}
` + "\x00"

// 36 positions (xyz) for a unit cube, CCW from the outside. Culling is
// off while drawing so the inside faces show.
var skyboxVerts = []float32{
	// -Z face
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	// +Z face
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	// -X face
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	// +X face
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	// -Y face
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	// +Y face
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

func newBackground(fullscreenVert string) (*background, error) {
	sky, err := linkProgram(skyVertSrc, skyFragSrc)
	if err != nil {
		return nil, fmt.Errorf("background shader: %w", err)
	}
	stretch, err := linkProgram(fullscreenVert, stretchFragSrc)
	if err != nil {
		sky.destroy()
		return nil, fmt.Errorf("background stretch shader: %w", err)
	}
	b := &background{sky: sky, stretch: stretch}

	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(skyboxVerts)*4, gl.Ptr(skyboxVerts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	return b, nil
}

// skyViewProj strips the translation row from view before projecting.
func skyViewProj(view, proj math.Mat4) math.Mat4 {
	view[3][0], view[3][1], view[3][2] = 0, 0, 0
	return view.Mul(proj)
}

func (b *background) draw(d *Device, s *scene.Scene, view, proj math.Mat4) {
	gl.Disable(gl.CULL_FACE)
	gl.DepthMask(false)
	defer gl.DepthMask(true)

	tex := s.Background
	if tex.Mapping == scene.MappingUV {
		gl.Disable(gl.DEPTH_TEST)
		gl.UseProgram(b.stretch.id)
		gl.Uniform1i(b.stretch.loc("uSrc"), 0)
		gl.ActiveTexture(gl.TEXTURE0)
		_, id := d.resolveTexture(tex)
		gl.BindTexture(gl.TEXTURE_2D, id)
		gl.BindVertexArray(d.quadVAO)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
		gl.BindVertexArray(0)
		gl.Enable(gl.DEPTH_TEST)
		return
	}

	env := d.envFor(tex, s.BackgroundRotation)
	if env.mode == envNone {
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	defer gl.DepthFunc(gl.LESS)

	gl.UseProgram(b.sky.id)
	vp := skyViewProj(view, proj).MGL()
	gl.UniformMatrix4fv(b.sky.loc("skyVP"), 1, false, &vp[0])
	d.bindEnv(b.sky, env)

	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)
}

func (b *background) destroy() {
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteBuffers(1, &b.vbo)
	b.sky.destroy()
	b.stretch.destroy()
}
