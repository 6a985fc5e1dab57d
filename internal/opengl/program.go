package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/scene"
	"backdrop-engine/shader"
)

// program is a linked GL program with lazily looked up uniform locations.
type program struct {
	id   uint32
	locs map[string]int32
}

func linkProgram(vertSrc, fragSrc string) (*program, error) {
	id, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, err
	}
	return &program{id: id, locs: make(map[string]int32)}, nil
}

func (p *program) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locs[name] = l
	return l
}

func (p *program) destroy() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

// ── Uniform upload ──

// textureUnits tracks the next free texture unit while binding one draw.
type textureUnits struct {
	next int32
}

func (u *textureUnits) bind(target, id uint32) int32 {
	unit := u.next
	u.next++
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(target, id)
	return unit
}

// setUniforms uploads every value of u by its Go type. Texture values are
// resolved through the device and bound to consecutive units.
func (d *Device) setUniforms(p *program, u shader.Uniforms, units *textureUnits) {
	for name, v := range u {
		loc := p.loc(name)
		if loc < 0 {
			continue
		}
		switch v := v.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case float64:
			gl.Uniform1f(loc, float32(v))
		case int32:
			gl.Uniform1i(loc, v)
		case int:
			gl.Uniform1i(loc, int32(v))
		case bool:
			gl.Uniform1i(loc, boolToInt32(v))
		case math.Vec2:
			gl.Uniform2f(loc, v.X, v.Y)
		case math.Vec3:
			gl.Uniform3f(loc, v.X, v.Y, v.Z)
		case core.Color:
			gl.Uniform4f(loc, v.R, v.G, v.B, v.A)
		case math.Mat4:
			m := v.MGL()
			gl.UniformMatrix4fv(loc, 1, false, &m[0])
		case *scene.Texture:
			target, id := d.resolveTexture(v)
			gl.Uniform1i(loc, units.bind(target, id))
		}
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// ── Shader helpers ──

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("%w: link: %v", ErrShader, log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	if !strings.HasSuffix(src, "\x00") {
		src += "\x00"
	}
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("%w: compile: %v", ErrShader, log)
	}
	return sh, nil
}
