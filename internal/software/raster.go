package software

import (
	"github.com/chewxy/math32"

	"backdrop-engine/core"
	"backdrop-engine/math"
	"backdrop-engine/scene"
	"backdrop-engine/shader"
)

// clipVertex carries clip position and the varyings interpolated across a
// triangle.
type clipVertex struct {
	clip   math.Vec4
	world  math.Vec3
	normal math.Vec3
	uv     math.Vec2
}

func lerpClip(a, b clipVertex, t float32) clipVertex {
	return clipVertex{
		clip:   a.clip.Add(b.clip.Sub(a.clip).Mul(t)),
		world:  a.world.Lerp(b.world, t),
		normal: a.normal.Lerp(b.normal, t),
		uv:     a.uv.Lerp(b.uv, t),
	}
}

// shadeFunc colors one fragment. front reports the facing of the triangle.
type shadeFunc func(v clipVertex, front bool) core.Color

func (d *Device) drawMesh(surf *Surface, n *scene.Node, view, proj math.Mat4, eye math.Vec3, env dirSampler) {
	mesh := n.Mesh
	mat := mesh.EffectiveMaterial()
	model := n.GetWorldMatrix()
	mvp := model.Mul(view).Mul(proj)
	normalMat := model.Inverse().Transpose()

	shade := d.materialShader(mat, eye, env)

	verts := make([]clipVertex, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		verts[i] = clipVertex{
			clip:   math.Point(v.Position).MulMat(mvp),
			world:  model.MulVec3(v.Position),
			normal: normalMat.MulDir(v.Normal).Normalize(),
			uv:     v.UV,
		}
	}

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		if int(a) >= len(verts) || int(b) >= len(verts) || int(c) >= len(verts) {
			continue
		}
		tri := [3]clipVertex{verts[a], verts[b], verts[c]}
		if outsideFrustum(tri) {
			continue
		}
		poly := clipNear(tri[:])
		for k := 1; k+1 < len(poly); k++ {
			d.stats.Triangles++
			rasterize(surf, [3]clipVertex{poly[0], poly[k], poly[k+1]}, mat, shade)
		}
	}
}

// outsideFrustum rejects triangles entirely beyond one clip plane.
func outsideFrustum(t [3]clipVertex) bool {
	all := func(f func(v math.Vec4) bool) bool {
		return f(t[0].clip) && f(t[1].clip) && f(t[2].clip)
	}
	return all(func(v math.Vec4) bool { return v.X > v.W }) ||
		all(func(v math.Vec4) bool { return v.X < -v.W }) ||
		all(func(v math.Vec4) bool { return v.Y > v.W }) ||
		all(func(v math.Vec4) bool { return v.Y < -v.W }) ||
		all(func(v math.Vec4) bool { return v.Z > v.W }) ||
		all(func(v math.Vec4) bool { return v.Z < -v.W })
}

// clipNear clips a polygon against z >= -w.
func clipNear(in []clipVertex) []clipVertex {
	dist := func(v clipVertex) float32 { return v.clip.Z + v.clip.W }
	out := make([]clipVertex, 0, len(in)+1)
	for i := range in {
		cur, next := in[i], in[(i+1)%len(in)]
		dc, dn := dist(cur), dist(next)
		if dc >= 0 {
			out = append(out, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			out = append(out, lerpClip(cur, next, dc/(dc-dn)))
		}
	}
	return out
}

type screenVertex struct {
	x, y, z float32
	invW    float32
}

func toScreen(v math.Vec4, w, h int) screenVertex {
	inv := 1 / v.W
	return screenVertex{
		x:    (v.X*inv + 1) * 0.5 * float32(w),
		y:    (v.Y*inv + 1) * 0.5 * float32(h),
		z:    v.Z*inv*0.5 + 0.5,
		invW: inv,
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func rasterize(surf *Surface, t [3]clipVertex, mat *scene.Material, shade shadeFunc) {
	s0 := toScreen(t[0].clip, surf.Width, surf.Height)
	s1 := toScreen(t[1].clip, surf.Width, surf.Height)
	s2 := toScreen(t[2].clip, surf.Width, surf.Height)

	area := edge(s0.x, s0.y, s1.x, s1.y, s2.x, s2.y)
	if math32.Abs(area) < 1e-9 {
		return
	}
	front := area > 0
	switch mat.Side {
	case scene.FrontSide:
		if !front {
			return
		}
	case scene.BackSide:
		if front {
			return
		}
	}

	minX := max(int(math32.Floor(min(s0.x, s1.x, s2.x))), 0)
	maxX := min(int(math32.Ceil(max(s0.x, s1.x, s2.x))), surf.Width-1)
	minY := max(int(math32.Floor(min(s0.y, s1.y, s2.y))), 0)
	maxY := min(int(math32.Ceil(max(s0.y, s1.y, s2.y))), surf.Height-1)

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(s1.x, s1.y, s2.x, s2.y, px, py) / area
			w1 := edge(s2.x, s2.y, s0.x, s0.y, px, py) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*s0.z + w1*s1.z + w2*s2.z
			i := y*surf.Width + x
			if mat.DepthTest && (z < 0 || z >= surf.Depth[i]) {
				continue
			}

			// perspective-correct weights
			p0, p1, p2 := w0*s0.invW, w1*s1.invW, w2*s2.invW
			sum := p0 + p1 + p2
			p0, p1, p2 = p0/sum, p1/sum, p2/sum
			v := clipVertex{
				world:  t[0].world.Mul(p0).Add(t[1].world.Mul(p1)).Add(t[2].world.Mul(p2)),
				normal: t[0].normal.Mul(p0).Add(t[1].normal.Mul(p1)).Add(t[2].normal.Mul(p2)),
				uv:     t[0].uv.Mul(p0).Add(t[1].uv.Mul(p1)).Add(t[2].uv.Mul(p2)),
			}

			surf.Set(x, y, shade(v, front))
			if mat.DepthWrite {
				surf.Depth[i] = z
			}
		}
	}
}

// ── Materials ──

func (d *Device) materialShader(mat *scene.Material, eye math.Vec3, sceneEnv dirSampler) shadeFunc {
	if mat.IsShader() {
		samplers := d.resolveSamplers(mat.Program, mat.Uniforms)
		f := shader.NewFragment(mat.Uniforms, samplers)
		return func(v clipVertex, _ bool) core.Color {
			f.UV = v.uv
			return mat.Program.Shade(f)
		}
	}

	albedoMap := d.sampler2D(mat.Map)
	env := sceneEnv
	if mat.EnvMap != nil {
		env = d.envSampler(mat.EnvMap)
	}
	ambient := d.Ambient

	return func(v clipVertex, front bool) core.Color {
		albedo := mat.Color
		if albedoMap != nil {
			albedo = albedo.Mul(albedoMap.Sample(v.uv))
		}
		if mat.Unlit {
			return albedo
		}
		if env == nil {
			return albedo.ScaleRGB(ambient).AddRGB(mat.Emissive)
		}

		n := v.normal.Normalize()
		if !front {
			n = n.Negate()
		}
		view := eye.Sub(v.world).Normalize()
		r := view.Negate().Reflect(n)

		metal := math.Clamp(mat.Metalness, 0, 1)
		rough := math.Clamp(mat.Roughness, 0, 1)
		f0 := core.Color{R: 0.04, G: 0.04, B: 0.04, A: 1}.Lerp(albedo, metal)
		gloss := 1 - rough*0.75

		spec := env.SampleDir(r).Mul(f0).ScaleRGB(gloss * mat.EnvMapIntensity)
		diffuse := albedo.ScaleRGB(1 - metal).Mul(env.SampleDir(n)).ScaleRGB(mat.EnvMapIntensity)
		out := diffuse.AddRGB(spec).AddRGB(mat.Emissive)
		out.A = albedo.A
		return out
	}
}
