package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"backdrop-engine/math"
	"backdrop-engine/scene"
)

// Environment lookup modes of the standard and background shaders.
const (
	envNone int32 = iota
	envEquirect
	envCube
)

// Fixed texture units of the standard and background shaders.
const (
	unitMap int32 = iota
	unitEnvEquirect
	unitEnvCube
)

// standardVertSrc passes world position and normal for the reflection term.
const standardVertSrc = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aUV;
uniform mat4 uModel;
uniform mat4 uViewProj;
out vec2 vUv;
out vec3 vWorld;
out vec3 vNormal;
void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vWorld = world.xyz;
    vNormal = mat3(uModel) * aNormal;
    vUv = aUV;
    gl_Position = uViewProj * world;
}
` + "\x00"

// envLookupSrc is shared by the standard and background fragment stages.
const envLookupSrc = `
const float PI = 3.14159265359;
uniform int uEnvMode;
uniform sampler2D uEnvEquirect;
uniform samplerCube uEnvCube;
uniform mat4 uEnvRotation;

vec3 sampleEnv(vec3 dir) {
    dir = normalize(mat3(uEnvRotation) * dir);
    if (uEnvMode == 2) {
        return texture(uEnvCube, dir).rgb;
    }
    vec2 uv = vec2(atan(dir.z, dir.x) / (2.0 * PI) + 0.5, asin(clamp(dir.y, -1.0, 1.0)) / PI + 0.5);
    return texture(uEnvEquirect, uv).rgb;
}
`

// standardFragSrc lights a metallic/roughness material from the
// environment only: diffuse from the normal, specular from the reflection.
const standardFragSrc = `#version 410 core
in vec2 vUv;
in vec3 vWorld;
in vec3 vNormal;
out vec4 FragColor;

uniform vec4 uColor;
uniform vec3 uEmissive;
uniform float uMetalness;
uniform float uRoughness;
uniform float uEnvIntensity;
uniform float uAmbient;
uniform bool uUnlit;
uniform bool uHasMap;
uniform sampler2D uMap;
uniform vec3 uEye;
` + envLookupSrc + `
void main() {
    vec4 albedo = uColor;
    if (uHasMap) {
        albedo *= texture(uMap, vUv);
    }
    if (uUnlit) {
        FragColor = albedo;
        return;
    }
    if (uEnvMode == 0) {
        FragColor = vec4(albedo.rgb * uAmbient + uEmissive, albedo.a);
        return;
    }
    vec3 n = normalize(vNormal);
    if (!gl_FrontFacing) {
        n = -n;
    }
    vec3 v = normalize(uEye - vWorld);
    vec3 r = reflect(-v, n);

    float metal = clamp(uMetalness, 0.0, 1.0);
    float rough = clamp(uRoughness, 0.0, 1.0);
    vec3 f0 = mix(vec3(0.04), albedo.rgb, metal);
    float gloss = 1.0 - rough * 0.75;

    vec3 spec = sampleEnv(r) * f0 * gloss * uEnvIntensity;
    vec3 diffuse = albedo.rgb * (1.0 - metal) * sampleEnv(n) * uEnvIntensity;
    FragColor = vec4(diffuse + spec + uEmissive, albedo.a);
}
` + "\x00"

// envBinding is the resolved environment of one draw.
type envBinding struct {
	mode     int32
	id       uint32
	rotation math.Mat4
}

// bindEnv binds env to the fixed environment units of p.
func (d *Device) bindEnv(p *program, env envBinding) {
	gl.Uniform1i(p.loc("uEnvMode"), env.mode)
	gl.Uniform1i(p.loc("uEnvEquirect"), unitEnvEquirect)
	gl.Uniform1i(p.loc("uEnvCube"), unitEnvCube)
	rot := env.rotation.MGL()
	gl.UniformMatrix4fv(p.loc("uEnvRotation"), 1, false, &rot[0])

	gl.ActiveTexture(gl.TEXTURE0 + uint32(unitEnvEquirect))
	if env.mode == envEquirect {
		gl.BindTexture(gl.TEXTURE_2D, env.id)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, d.blank)
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unitEnvCube))
	if env.mode == envCube {
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, env.id)
	} else {
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	}
}

// envFor resolves tex as an environment rotated by euler.
func (d *Device) envFor(tex *scene.Texture, euler math.Vec3) envBinding {
	env := envBinding{rotation: math.Mat4Rotation(euler).Transpose()}
	if tex == nil {
		return env
	}
	target, id := d.resolveTexture(tex)
	switch {
	case id == d.blank:
		env.mode = envNone
	case target == gl.TEXTURE_CUBE_MAP:
		env.mode, env.id = envCube, id
	default:
		env.mode, env.id = envEquirect, id
	}
	return env
}

// applyStandard uploads the material fields of mat.
func (d *Device) applyStandard(p *program, mat *scene.Material, eye math.Vec3, sceneEnv envBinding) {
	gl.Uniform4f(p.loc("uColor"), mat.Color.R, mat.Color.G, mat.Color.B, mat.Color.A)
	gl.Uniform3f(p.loc("uEmissive"), mat.Emissive.R, mat.Emissive.G, mat.Emissive.B)
	gl.Uniform1f(p.loc("uMetalness"), mat.Metalness)
	gl.Uniform1f(p.loc("uRoughness"), mat.Roughness)
	gl.Uniform1f(p.loc("uEnvIntensity"), mat.EnvMapIntensity)
	gl.Uniform1f(p.loc("uAmbient"), d.Ambient)
	gl.Uniform1i(p.loc("uUnlit"), boolToInt32(mat.Unlit))
	gl.Uniform3f(p.loc("uEye"), eye.X, eye.Y, eye.Z)

	gl.Uniform1i(p.loc("uMap"), unitMap)
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unitMap))
	if mat.Map != nil {
		_, id := d.resolveTexture(mat.Map)
		gl.BindTexture(gl.TEXTURE_2D, id)
		gl.Uniform1i(p.loc("uHasMap"), 1)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, d.blank)
		gl.Uniform1i(p.loc("uHasMap"), 0)
	}

	env := sceneEnv
	if mat.EnvMap != nil {
		env = d.envFor(mat.EnvMap, math.Vec3{})
	}
	d.bindEnv(p, env)
}
