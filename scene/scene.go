package scene

import (
	"backdrop-engine/core"
	"backdrop-engine/math"
)

// Scene owns the node tree plus the background and environment maps.
type Scene struct {
	Root       *Node
	ClearColor core.Color

	// Background is drawn behind all geometry. An equirectangular or cube
	// texture is projected onto the view directions, a UV texture is
	// stretched over the screen, nil clears to ClearColor.
	Background         *Texture
	BackgroundRotation math.Vec3

	// Environment is the fallback reflection map for standard materials
	// that have no EnvMap of their own.
	Environment         *Texture
	EnvironmentRotation math.Vec3
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		ClearColor: core.ColorBlack,
	}
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

// Contains reports whether node is attached below the root.
func (s *Scene) Contains(node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == s.Root {
			return true
		}
	}
	return false
}

// RenderList returns the visible mesh nodes whose layers intersect mask.
func (s *Scene) RenderList(mask Layers) []*Node {
	var list []*Node
	s.Root.Accept(MeshVisitor(func(n *Node, m *Mesh) {
		if n.Layers.Test(mask) && n.WorldVisible() {
			list = append(list, n)
		}
	}))
	return list
}

// Dispose detaches every node and drops the maps.
func (s *Scene) Dispose() {
	for len(s.Root.Children) > 0 {
		s.Root.RemoveChild(s.Root.Children[len(s.Root.Children)-1])
	}
	s.Background = nil
	s.Environment = nil
}
