package scene

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"backdrop-engine/core"
	"backdrop-engine/math"
)

// GLTFResult holds the nodes, textures and clips loaded from a .glb / .gltf file.
type GLTFResult struct {
	Roots    []*Node    // top-level nodes; add each with scene.AddNode(n)
	Textures []*Texture // textures that need GPU upload
	Clips    []*AnimationClip
}

// Group wraps the roots under a single node named name.
func (r *GLTFResult) Group(name string) *Node {
	root := NewNode(name)
	for _, n := range r.Roots {
		root.AddChild(n)
	}
	return root
}

// LoadGLTF opens a .glb or .gltf file and returns a ready-to-use scene graph.
// Mesh geometry, metallic-roughness materials, base-colour textures, the
// node hierarchy and node animations are populated. Node names are made
// unique so clips can bind by name.
func LoadGLTF(path string) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return buildGLTF(doc, filepath.Dir(path), slog.Default().With("asset", path))
}

func buildGLTF(doc *gltf.Document, dir string, log *slog.Logger) (*GLTFResult, error) {
	result := &GLTFResult{}

	// ── 1. Textures ──
	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil {
			continue
		}
		img := doc.Images[*gt.Source]

		var tex *Texture
		var err error
		if img.BufferView != nil {
			// Binary GLB: image data lives in a buffer view
			raw, rerr := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
			if rerr != nil {
				log.Warn("gltf image buffer view", "image", *gt.Source, "err", rerr)
				continue
			}
			name := img.Name
			if name == "" {
				name = fmt.Sprintf("gltf_img_%d", *gt.Source)
			}
			tex, err = decodeImageBytes(name, raw)
		} else if img.URI != "" && !img.IsEmbeddedResource() {
			// External file referenced by relative URI
			tex, err = LoadTexture(filepath.Join(dir, img.URI), TextureOptions{})
		}
		if err != nil {
			log.Warn("gltf image decode", "image", *gt.Source, "err", err)
			continue
		}
		if tex != nil {
			texCache[i] = tex
			result.Textures = append(result.Textures, tex)
		}
	}

	// ── 2. Materials ──
	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Color = core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			}
			if pbr.BaseColorTexture != nil {
				idx := pbr.BaseColorTexture.Index
				if idx < len(texCache) && texCache[idx] != nil {
					mat.Map = texCache[idx]
				}
			}
			mat.Metalness = float32(pbr.MetallicFactorOrDefault())
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		}
		ef := gm.EmissiveFactor
		mat.Emissive = core.Color{R: float32(ef[0]), G: float32(ef[1]), B: float32(ef[2]), A: 1}
		if gm.DoubleSided {
			mat.Side = DoubleSide
		}
		matCache[i] = mat
	}

	// ── 3. Mesh primitives ──
	// meshPrims[meshIdx] = []*Mesh (one entry per primitive)
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, *prim)
			if err != nil {
				log.Warn("gltf primitive", "mesh", mi, "primitive", pi, "err", err)
				continue
			}
			if prim.Material != nil && *prim.Material < len(matCache) {
				m.Material = matCache[*prim.Material]
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	// ── 4. Nodes ──
	nodes := make([]*Node, len(doc.Nodes))
	used := make(map[string]int)
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		if k := used[name]; k > 0 {
			name = fmt.Sprintf("%s_%d", name, k)
		}
		used[gn.Name]++
		n := NewNode(name)

		t := gn.TranslationOrDefault()
		n.SetPosition(math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])})

		sc := gn.ScaleOrDefault()
		n.SetScale(math.Vec3{X: float32(sc[0]), Y: float32(sc[1]), Z: float32(sc[2])})

		r := gn.RotationOrDefault() // [x, y, z, w]
		n.SetRotation(math.Quaternion{
			X: float32(r[0]), Y: float32(r[1]),
			Z: float32(r[2]), W: float32(r[3]),
		})

		if gn.Camera != nil {
			n.Payload = doc.Cameras[*gn.Camera]
		}

		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			switch len(prims) {
			case 0:
				// no geometry
			case 1:
				n.Mesh = prims[0]
			default:
				// Multiple primitives → one child node per primitive
				for pi, p := range prims {
					child := NewNode(fmt.Sprintf("%s_prim%d", name, pi))
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	// Wire up parent-child relationships
	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if childIdx < len(nodes) && nodes[childIdx] != nil {
				nodes[i].AddChild(nodes[childIdx])
			}
		}
	}

	// ── 5. Root nodes ──
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx < len(nodes) {
				result.Roots = append(result.Roots, nodes[rootIdx])
			}
		}
	} else {
		// No default scene: collect all parentless nodes
		for _, n := range nodes {
			if n.Parent == nil {
				result.Roots = append(result.Roots, n)
			}
		}
	}

	// ── 6. Animations ──
	for ai, ga := range doc.Animations {
		clip, err := loadGLTFAnimation(doc, ga, nodes)
		if err != nil {
			log.Warn("gltf animation", "animation", ai, "err", err)
			continue
		}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("animation_%d", ai)
		}
		result.Clips = append(result.Clips, clip)
	}

	return result, nil
}

// loadGLTFPrimitive converts one glTF mesh primitive into a scene.Mesh.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	// Positions are required
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: math.Vec3{X: p[0], Y: p[1], Z: p[2]},
			Normal:   math.Vec3{X: 0, Y: 1, Z: 0},
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			n := normals[i]
			v.Normal = math.Vec3{X: n[0], Y: n[1], Z: n[2]}
		}
		if i < len(uvs) {
			// glTF UV origin is top-left; ours is bottom-left
			v.UV = math.Vec2{X: uvs[i][0], Y: 1 - uvs[i][1]}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	return CreateMeshFromData(name, verts, indices), nil
}

// ── Animations ──

// gltfIndex reads a glTF index field regardless of whether the binding
// declares it as a plain or optional int.
func gltfIndex[T int | *int](v T) (int, bool) {
	switch idx := any(v).(type) {
	case int:
		return idx, true
	case *int:
		if idx == nil {
			return 0, false
		}
		return *idx, true
	}
	return 0, false
}

func loadGLTFAnimation(doc *gltf.Document, ga *gltf.Animation, nodes []*Node) (*AnimationClip, error) {
	clip := &AnimationClip{Name: ga.Name}
	byNode := make(map[int]int)

	for ci, ch := range ga.Channels {
		ni, ok := gltfIndex(ch.Target.Node)
		if !ok || ni >= len(nodes) {
			continue
		}
		si, ok := gltfIndex(ch.Sampler)
		if !ok || si >= len(ga.Samplers) {
			return nil, fmt.Errorf("channel %d: bad sampler", ci)
		}
		sampler := ga.Samplers[si]
		in, _ := gltfIndex(sampler.Input)
		out, _ := gltfIndex(sampler.Output)

		times, err := readGLTFFloats(doc, in)
		if err != nil {
			return nil, fmt.Errorf("channel %d input: %w", ci, err)
		}
		values, err := modeler.ReadAccessor(doc, doc.Accessors[out], nil)
		if err != nil {
			return nil, fmt.Errorf("channel %d output: %w", ci, err)
		}
		cubic := sampler.Interpolation == gltf.InterpolationCubicSpline

		slot, seen := byNode[ni]
		if !seen {
			slot = len(clip.Channels)
			byNode[ni] = slot
			clip.Channels = append(clip.Channels, AnimationChannel{
				Target: nodes[ni].Name,
				Step:   sampler.Interpolation == gltf.InterpolationStep,
			})
		}
		target := &clip.Channels[slot]

		switch ch.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			vs, ok := values.([][3]float32)
			if !ok {
				return nil, fmt.Errorf("channel %d: unexpected %T for %v", ci, values, ch.Target.Path)
			}
			vs = cubicValues(vs, len(times), cubic)
			keys := make([]VectorKeyframe, 0, len(times))
			for k := 0; k < len(times) && k < len(vs); k++ {
				keys = append(keys, VectorKeyframe{Time: times[k], Value: math.Vec3{X: vs[k][0], Y: vs[k][1], Z: vs[k][2]}})
			}
			if ch.Target.Path == gltf.TRSTranslation {
				target.PositionKeys = keys
			} else {
				target.ScaleKeys = keys
			}
		case gltf.TRSRotation:
			qs, ok := values.([][4]float32)
			if !ok {
				return nil, fmt.Errorf("channel %d: unexpected %T for rotation", ci, values)
			}
			qs = cubicValues(qs, len(times), cubic)
			keys := make([]QuaternionKeyframe, 0, len(times))
			for k := 0; k < len(times) && k < len(qs); k++ {
				q := qs[k]
				keys = append(keys, QuaternionKeyframe{Time: times[k], Value: math.Quaternion{X: q[0], Y: q[1], Z: q[2], W: q[3]}.Normalize()})
			}
			target.RotationKeys = keys
		default:
			// morph target weights are not animated
		}
	}

	clip.ComputeDuration()
	return clip, nil
}

// cubicValues drops the in/out tangents of cubic-spline outputs.
func cubicValues[V any](vs []V, n int, cubic bool) []V {
	if !cubic || len(vs) < 3*n {
		return vs
	}
	out := make([]V, n)
	for i := range out {
		out[i] = vs[3*i+1]
	}
	return out
}

func readGLTFFloats(doc *gltf.Document, accessor int) ([]float32, error) {
	if accessor < 0 || accessor >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessor)
	}
	data, err := modeler.ReadAccessor(doc, doc.Accessors[accessor], nil)
	if err != nil {
		return nil, err
	}
	fs, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: unexpected %T", accessor, data)
	}
	return fs, nil
}
