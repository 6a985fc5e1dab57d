package scene

import (
	"backdrop-engine/core"
	"backdrop-engine/math"
)

// Mesh holds CPU-side vertex/index data.
// GPU upload is managed by the renderer backend.
type Mesh struct {
	Name     string
	Vertices []core.Vertex
	Indices  []uint32

	// Material holds surface shading properties. If nil, DefaultMaterial() is used.
	Material *Material

	// Bounds is the local-space AABB.
	Bounds AABB

	// GPUData is set by the renderer backend (e.g. *opengl.gpuMesh).
	GPUData any
}

// AABB is an axis-aligned box.
type AABB struct {
	Min, Max math.Vec3
}

func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// CreateMeshFromData builds a Mesh and pre-computes its bounds. A nil index
// slice draws the vertices as a plain triangle list.
func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	if indices == nil {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	m := &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
	if len(vertices) > 0 {
		m.Bounds = computeBounds(vertices)
	}
	return m
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// EffectiveMaterial returns the mesh material or the default one.
func (m *Mesh) EffectiveMaterial() *Material {
	if m.Material != nil {
		return m.Material
	}
	return defaultMaterial
}

func computeBounds(vertices []core.Vertex) AABB {
	min := vertices[0].Position
	max := vertices[0].Position
	for _, v := range vertices[1:] {
		p := v.Position
		min = math.Vec3{X: math32Min(min.X, p.X), Y: math32Min(min.Y, p.Y), Z: math32Min(min.Z, p.Z)}
		max = math.Vec3{X: math32Max(max.X, p.X), Y: math32Max(max.Y, p.Y), Z: math32Max(max.Z, p.Z)}
	}
	return AABB{Min: min, Max: max}
}

func math32Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func math32Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
