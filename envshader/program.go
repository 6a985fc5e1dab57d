package envshader

import (
	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/shader"
)

// Shade is the complete stage: blur, then remap.
func Shade(s shader.Sampler, uv math.Vec2, p Params) core.Color {
	return Remap(p.Profile, Blur(s, uv, p.Resolution, p.BlurDirection()))
}

// NewProgram returns the stage as a surface program. One compiled source
// serves every profile through the uColorProfile branch.
func NewProgram() *shader.Program {
	return &shader.Program{
		Name:     "environment",
		Vertex:   shader.SurfaceVertex,
		Fragment: fragmentSrc,
		Samplers: []string{UniformMap},
		Shade: func(f *shader.Fragment) core.Color {
			return Shade(f.Sampler(UniformMap), f.UV, ParamsFrom(f.Uniforms))
		},
	}
}

const fragmentSrc = `#version 410 core
in vec2 vUv;
out vec4 FragColor;

uniform sampler2D uMap;
uniform float uBluriness;
uniform vec2 uDirection;
uniform vec2 uResolution;
uniform int uColorProfile;

const float kWeights[9] = float[9](0.051, 0.0918, 0.12245, 0.1531, 0.1633, 0.1531, 0.12245, 0.0918, 0.051);

vec4 blur(sampler2D image, vec2 uv, vec2 resolution, vec2 direction) {
    vec4 sum = vec4(0.0);
    vec2 texcoord = 1.0 / resolution;
    for (int i = 0; i < 9; i++) {
        float k = float(i - 4);
        sum += texture(image, uv + k * texcoord * direction) * kWeights[i];
    }
    return sum;
}

void main() {
    vec4 texel = blur(uMap, vUv, uResolution, uBluriness * uDirection);

    if (uColorProfile == 0) {
        texel.b = max(texel.b, smoothstep(0.3, 1.0, texel.r) * 10.0);
        texel.rg *= smoothstep(0.0, 0.3, texel.b) * 3.0;
    } else if (uColorProfile == 1) {
        texel.b = max(texel.b, smoothstep(0.3, 1.0, texel.r) * 10.0);
        texel.r = min(texel.r, smoothstep(0.0, 0.3, texel.b) * 3.0);
        texel.g = min(texel.g, smoothstep(0.0, 0.3, texel.b) * 3.0);
    } else if (uColorProfile == 2) {
        texel.rgb *= 3.0;
    }

    FragColor = texel;
}
` + "\x00"
