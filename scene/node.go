package scene

import (
	"sync/atomic"

	"backdrop-engine/core"
	"backdrop-engine/math"
)

// NodeKind is the variant carried by a node.
type NodeKind int

const (
	NodeGroup NodeKind = iota
	NodeMesh
	NodeOther
)

func (k NodeKind) String() string {
	switch k {
	case NodeMesh:
		return "mesh"
	case NodeOther:
		return "other"
	default:
		return "group"
	}
}

// Node represents an object in the scene graph
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Visible   bool
	Layers    Layers
	Id        uint32

	// Payload marks a node as NodeOther (imported cameras, lights, markers).
	Payload any

	// Cached world transform
	worldMatrixDirty bool
	worldMatrix      math.Mat4
}

var nodeIdCounter atomic.Uint32

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Visible:          true,
		Layers:           DefaultLayers,
		Id:               nodeIdCounter.Add(1),
		worldMatrixDirty: true,
	}
}

// NewMeshNode wraps a mesh in a node named after it.
func NewMeshNode(mesh *Mesh) *Node {
	n := NewNode(mesh.Name)
	n.Mesh = mesh
	return n
}

func (n *Node) Kind() NodeKind {
	switch {
	case n.Mesh != nil:
		return NodeMesh
	case n.Payload != nil:
		return NodeOther
	default:
		return NodeGroup
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	child.MarkWorldMatrixDirty()
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

// GetWorldMatrix is local * parentWorld in the row-vector convention.
func (n *Node) GetWorldMatrix() math.Mat4 {
	if n.worldMatrixDirty {
		localMatrix := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = localMatrix.Mul(n.Parent.GetWorldMatrix())
		} else {
			n.worldMatrix = localMatrix
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) SetPosition(pos math.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot math.Quaternion) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

// SetEuler sets the rotation from XYZ euler angles in radians.
func (n *Node) SetEuler(euler math.Vec3) {
	n.SetRotation(math.QuaternionFromEuler(euler))
}

func (n *Node) SetScale(scale math.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

func (n *Node) Translate(delta math.Vec3) {
	n.Transform.Position = n.Transform.Position.Add(delta)
	n.MarkWorldMatrixDirty()
}

func (n *Node) Rotate(axis math.Vec3, angle float32) {
	rotation := math.QuaternionFromAxisAngle(axis, angle)
	n.Transform.Rotation = n.Transform.Rotation.Mul(rotation).Normalize()
	n.MarkWorldMatrixDirty()
}

// WorldVisible reports whether the node and every ancestor are visible.
func (n *Node) WorldVisible() bool {
	for p := n; p != nil; p = p.Parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// Traverse visits all nodes in the graph
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// Find finds a node by name
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// ── Typed traversal ──

// Visitor receives every node of a subtree by variant. Only mesh nodes
// expose a material slot.
type Visitor interface {
	VisitMesh(n *Node, m *Mesh)
	VisitGroup(n *Node)
	VisitOther(n *Node)
}

// Accept walks the subtree depth-first, parents before children.
func (n *Node) Accept(v Visitor) {
	switch n.Kind() {
	case NodeMesh:
		v.VisitMesh(n, n.Mesh)
	case NodeOther:
		v.VisitOther(n)
	default:
		v.VisitGroup(n)
	}
	for _, child := range n.Children {
		child.Accept(v)
	}
}

// MeshVisitor adapts a function over mesh nodes into a Visitor.
type MeshVisitor func(n *Node, m *Mesh)

func (f MeshVisitor) VisitMesh(n *Node, m *Mesh) { f(n, m) }
func (f MeshVisitor) VisitGroup(*Node)           {}
func (f MeshVisitor) VisitOther(*Node)           {}
