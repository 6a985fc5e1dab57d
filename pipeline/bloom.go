package pipeline

import (
	"fmt"

	"github.com/chewxy/math32"

	"backdrop-engine/core"
	"backdrop-engine/gpu"
	"backdrop-engine/math"
	"backdrop-engine/scene"
	"backdrop-engine/shader"
)

// BloomMips is the depth of the blur chain; each mip is half the previous.
const BloomMips = 5

var (
	bloomKernelRadii = [BloomMips]int{3, 5, 7, 9, 11}
	bloomFactors     = [BloomMips]float32{1.0, 0.8, 0.6, 0.4, 0.2}
)

const (
	uniformThreshold   = "uThreshold"
	uniformSmoothWidth = "uSmoothWidth"
	uniformDirection   = "uDirection"
	uniformInvSize     = "uInvSize"
	uniformStrength    = "uStrength"
	uniformRadius      = "uRadius"
)

func blurUniform(i int) string { return fmt.Sprintf("uBlur%d", i) }

// BloomPass extracts pixels above Threshold, blurs them through a mip
// chain and adds the weighted sum back onto the read buffer.
type BloomPass struct {
	Threshold   float32
	SmoothWidth float32
	Strength    float32
	Radius      float32
	// Exposure is kept with the bloom parameters; no stage reads it.
	Exposure float32

	dev        gpu.Device
	bright     gpu.RenderTarget
	horizontal [BloomMips]gpu.RenderTarget
	vertical   [BloomMips]gpu.RenderTarget

	highPass  *shader.Program
	blur      [BloomMips]*shader.Program
	composite *shader.Program
	passCopy  *shader.Program
	blend     *shader.Program
}

// NewBloomPass allocates the mip targets at 1x1; the composer sizes them
// when the pass is added.
func NewBloomPass(dev gpu.Device, threshold, strength, radius float32) (*BloomPass, error) {
	p := &BloomPass{
		Threshold:   threshold,
		SmoothWidth: 0.01,
		Strength:    strength,
		Radius:      radius,
		dev:         dev,
		highPass:    highPassProgram(),
		composite:   compositeProgram(),
		passCopy:    copyProgram(shader.BlendNone),
		blend:       copyProgram(shader.BlendAdditive),
	}
	newTarget := func() (gpu.RenderTarget, error) {
		return dev.NewRenderTarget(gpu.TargetOptions{Width: 1, Height: 1, Format: scene.FormatHalfFloat})
	}

	var err error
	if p.bright, err = newTarget(); err != nil {
		return nil, fmt.Errorf("bloom bright target: %w", err)
	}
	for i := 0; i < BloomMips; i++ {
		if p.horizontal[i], err = newTarget(); err != nil {
			p.Destroy()
			return nil, fmt.Errorf("bloom mip %d: %w", i, err)
		}
		if p.vertical[i], err = newTarget(); err != nil {
			p.Destroy()
			return nil, fmt.Errorf("bloom mip %d: %w", i, err)
		}
		p.blur[i] = blurProgram(bloomKernelRadii[i])
	}
	return p, nil
}

func (p *BloomPass) Name() string    { return "bloom" }
func (p *BloomPass) Rank() PassRank  { return RankBloom }
func (p *BloomPass) NeedsSwap() bool { return false }

// SetSize sizes the bright target at half resolution and halves again
// for every mip.
func (p *BloomPass) SetSize(width, height int) error {
	w, h := halfSize(width), halfSize(height)
	if err := p.bright.Resize(w, h); err != nil {
		return err
	}
	for i := 0; i < BloomMips; i++ {
		if err := p.horizontal[i].Resize(w, h); err != nil {
			return err
		}
		if err := p.vertical[i].Resize(w, h); err != nil {
			return err
		}
		w, h = halfSize(w), halfSize(h)
	}
	return nil
}

func halfSize(v int) int {
	return max(int(math32.Round(float32(v)/2)), 1)
}

// MipSize returns the size of blur mip i.
func (p *BloomPass) MipSize(i int) (int, int) {
	return p.vertical[i].Width(), p.vertical[i].Height()
}

func (p *BloomPass) Render(ctx *PassContext) error {
	if err := ctx.requireRead(); err != nil {
		return err
	}
	dev := ctx.Device
	src := ctx.Read.Target

	// 1. luminosity high pass
	if err := dev.SetRenderTarget(p.bright, 0); err != nil {
		return err
	}
	u := shader.Uniforms{}.
		Set(uniformSource, src.Texture()).
		Set(uniformThreshold, p.Threshold).
		Set(uniformSmoothWidth, p.SmoothWidth)
	if err := dev.DrawFullscreen(p.highPass, u); err != nil {
		return fmt.Errorf("high pass: %w", err)
	}

	// 2. separable blur down the mip chain
	input := p.bright
	for i := 0; i < BloomMips; i++ {
		w, h := p.horizontal[i].Width(), p.horizontal[i].Height()
		inv := math.Vec2{X: 1 / float32(w), Y: 1 / float32(h)}
		if err := p.blurInto(dev, i, input, p.horizontal[i], math.Vec2{X: 1}, inv); err != nil {
			return err
		}
		if err := p.blurInto(dev, i, p.horizontal[i], p.vertical[i], math.Vec2{Y: 1}, inv); err != nil {
			return err
		}
		input = p.vertical[i]
	}

	// 3. weighted composite into the first mip
	if err := dev.SetRenderTarget(p.horizontal[0], 0); err != nil {
		return err
	}
	cu := shader.Uniforms{}.
		Set(uniformStrength, p.Strength).
		Set(uniformRadius, p.Radius)
	for i := 0; i < BloomMips; i++ {
		cu.Set(blurUniform(i), p.vertical[i].Texture())
	}
	if err := dev.DrawFullscreen(p.composite, cu); err != nil {
		return fmt.Errorf("composite: %w", err)
	}

	// 4. add onto the read buffer
	if err := ctx.bindOutput(ctx.Read); err != nil {
		return err
	}
	if ctx.RenderToScreen {
		if err := drawCopy(dev, p.passCopy, src); err != nil {
			return err
		}
	}
	return drawCopy(dev, p.blend, p.horizontal[0])
}

func (p *BloomPass) blurInto(dev gpu.Device, mip int, src, dst gpu.RenderTarget, dir, inv math.Vec2) error {
	if err := dev.SetRenderTarget(dst, 0); err != nil {
		return err
	}
	u := shader.Uniforms{}.
		Set(uniformSource, src.Texture()).
		Set(uniformDirection, dir).
		Set(uniformInvSize, inv)
	if err := dev.DrawFullscreen(p.blur[mip], u); err != nil {
		return fmt.Errorf("blur mip %d: %w", mip, err)
	}
	return nil
}

func (p *BloomPass) Destroy() {
	for _, t := range append([]gpu.RenderTarget{p.bright}, append(p.horizontal[:], p.vertical[:]...)...) {
		if t != nil {
			t.Destroy()
		}
	}
}

// ── Programs ──

// HighPass keeps texels whose luma passes threshold, fading in over
// smoothWidth.
func HighPass(c core.Color, threshold, smoothWidth float32) core.Color {
	alpha := math.Smoothstep(threshold, threshold+smoothWidth, highPassLuma(c))
	return core.ColorTransparent.Lerp(c, alpha)
}

func highPassProgram() *shader.Program {
	return &shader.Program{
		Name:     "bloom-highpass",
		Vertex:   shader.FullscreenVertex,
		Fragment: highPassFragSrc,
		Samplers: []string{uniformSource},
		Shade: func(f *shader.Fragment) core.Color {
			c := f.Sampler(uniformSource).Sample(f.UV)
			return HighPass(c, f.Uniforms.Float(uniformThreshold), f.Uniforms.Float(uniformSmoothWidth))
		},
	}
}

const highPassFragSrc = `#version 410 core
in vec2 vUv;
out vec4 FragColor;
uniform sampler2D uSrc;
uniform float uThreshold;
uniform float uSmoothWidth;
void main() {
    vec4 texel = texture(uSrc, vUv);
    float v = dot(texel.rgb, vec3(0.299, 0.587, 0.114));
    float alpha = smoothstep(uThreshold, uThreshold + uSmoothWidth, v);
    FragColor = mix(vec4(0.0), texel, alpha);
}
` + "\x00"

// GaussianCoefficients returns the one-sided weights of a kernel with
// sigma equal to radius.
func GaussianCoefficients(radius int) []float32 {
	sigma := float32(radius)
	out := make([]float32, radius)
	for i := range out {
		x := float32(i)
		out[i] = 0.39894 * math32.Exp(-0.5*x*x/(sigma*sigma)) / sigma
	}
	return out
}

func blurProgram(radius int) *shader.Program {
	coeffs := GaussianCoefficients(radius)
	return &shader.Program{
		Name:     fmt.Sprintf("bloom-blur-%d", radius),
		Vertex:   shader.FullscreenVertex,
		Fragment: blurFragSrc(coeffs),
		Samplers: []string{uniformSource},
		Shade: func(f *shader.Fragment) core.Color {
			src := f.Sampler(uniformSource)
			step := f.Uniforms.Vec2(uniformDirection).MulVec(f.Uniforms.Vec2(uniformInvSize))
			sum := src.Sample(f.UV).ScaleRGB(coeffs[0])
			weight := coeffs[0]
			for i := 1; i < len(coeffs); i++ {
				off := step.Mul(float32(i))
				s := src.Sample(f.UV.Add(off)).AddRGB(src.Sample(f.UV.Sub(off)))
				sum = sum.AddRGB(s.ScaleRGB(coeffs[i]))
				weight += 2 * coeffs[i]
			}
			out := sum.ScaleRGB(1 / weight)
			out.A = 1
			return out
		},
	}
}

func blurFragSrc(coeffs []float32) string {
	list := ""
	for i, c := range coeffs {
		if i > 0 {
			list += ", "
		}
		list += fmt.Sprintf("%.8f", c)
	}
	return fmt.Sprintf(`#version 410 core
in vec2 vUv;
out vec4 FragColor;
uniform sampler2D uSrc;
uniform vec2 uDirection;
uniform vec2 uInvSize;
const int KERNEL_RADIUS = %d;
const float kCoefficients[KERNEL_RADIUS] = float[KERNEL_RADIUS](%s);
void main() {
    float weightSum = kCoefficients[0];
    vec3 diffuseSum = texture(uSrc, vUv).rgb * weightSum;
    for (int i = 1; i < KERNEL_RADIUS; i++) {
        float w = kCoefficients[i];
        vec2 offset = uDirection * uInvSize * float(i);
        vec3 s1 = texture(uSrc, vUv + offset).rgb;
        vec3 s2 = texture(uSrc, vUv - offset).rgb;
        diffuseSum += (s1 + s2) * w;
        weightSum += 2.0 * w;
    }
    FragColor = vec4(diffuseSum / weightSum, 1.0);
}
`, len(coeffs), list) + "\x00"
}

// BloomFactor mixes a mip factor toward its mirror as radius grows.
func BloomFactor(factor, radius float32) float32 {
	return math.Mix(factor, 1.2-factor, radius)
}

func compositeProgram() *shader.Program {
	samplers := make([]string, BloomMips)
	for i := range samplers {
		samplers[i] = blurUniform(i)
	}
	return &shader.Program{
		Name:     "bloom-composite",
		Vertex:   shader.FullscreenVertex,
		Fragment: compositeFragSrc,
		Samplers: samplers,
		Shade: func(f *shader.Fragment) core.Color {
			radius := f.Uniforms.Float(uniformRadius)
			var sum core.Color
			for i := 0; i < BloomMips; i++ {
				c := f.Sampler(samplers[i]).Sample(f.UV)
				sum = sum.Add(c.Scale(BloomFactor(bloomFactors[i], radius)))
			}
			return sum.Scale(f.Uniforms.Float(uniformStrength))
		},
	}
}

const compositeFragSrc = `#version 410 core
in vec2 vUv;
out vec4 FragColor;
uniform sampler2D uBlur0;
uniform sampler2D uBlur1;
uniform sampler2D uBlur2;
uniform sampler2D uBlur3;
uniform sampler2D uBlur4;
uniform float uStrength;
uniform float uRadius;
const float kFactors[5] = float[5](1.0, 0.8, 0.6, 0.4, 0.2);
float lerpBloomFactor(float factor) {
    return mix(factor, 1.2 - factor, uRadius);
}
void main() {
    FragColor = uStrength * (
        lerpBloomFactor(kFactors[0]) * texture(uBlur0, vUv) +
        lerpBloomFactor(kFactors[1]) * texture(uBlur1, vUv) +
        lerpBloomFactor(kFactors[2]) * texture(uBlur2, vUv) +
        lerpBloomFactor(kFactors[3]) * texture(uBlur3, vUv) +
        lerpBloomFactor(kFactors[4]) * texture(uBlur4, vUv));
}
` + "\x00"
