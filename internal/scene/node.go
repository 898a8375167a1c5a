// Package scene is a small scene graph: nodes holding meshes, points, lines
// and lights, a perspective camera with orbit controls, and the per-response
// document the materializer fills and imports.
package scene

import (
	"github.com/google/uuid"
	"github.com/unixpickle/model3d/model3d"

	"rhinoview/internal/geom"
)

type NodeKind int

const (
	NodeGroup NodeKind = iota
	NodeMesh
	NodePoints
	NodeLine
	NodeLight
)

func (k NodeKind) String() string {
	switch k {
	case NodeGroup:
		return "group"
	case NodeMesh:
		return "mesh"
	case NodePoints:
		return "points"
	case NodeLine:
		return "line"
	case NodeLight:
		return "light"
	}
	return "unknown"
}

type LightKind int

const (
	LightAmbient LightKind = iota
	LightDirectional
)

type Light struct {
	Kind      LightKind
	Color     uint32
	Intensity float64
}

// Node is an element of the scene graph. Geometry is immutable once the node
// is built; only Material and the child list change.
type Node struct {
	ID       string
	Name     string
	Kind     NodeKind
	Mesh     *geom.Mesh
	Points   []model3d.Coord3D
	Material *Material
	Light    *Light

	parent   *Node
	children []*Node
}

func newNode(kind NodeKind, name string) *Node {
	return &Node{ID: uuid.NewString(), Name: name, Kind: kind}
}

func NewGroup(name string) *Node { return newNode(NodeGroup, name) }

func NewMeshNode(name string, m *geom.Mesh, mat *Material) *Node {
	n := newNode(NodeMesh, name)
	n.Mesh = m
	n.Material = mat
	return n
}

// NewPointsNode holds unconnected points.
func NewPointsNode(name string, pts []model3d.Coord3D, mat *Material) *Node {
	n := newNode(NodePoints, name)
	n.Points = pts
	n.Material = mat
	return n
}

// NewLineNode holds a polyline through pts.
func NewLineNode(name string, pts []model3d.Coord3D, mat *Material) *Node {
	n := newNode(NodeLine, name)
	n.Points = pts
	n.Material = mat
	return n
}

func NewLightNode(name string, l Light) *Node {
	n := newNode(NodeLight, name)
	n.Light = &l
	return n
}

func (n *Node) IsLight() bool { return n.Kind == NodeLight }
func (n *Node) IsMesh() bool  { return n.Kind == NodeMesh }
func (n *Node) Parent() *Node { return n.parent }

// Add appends children, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		if c.parent != nil {
			c.parent.Remove(c)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Remove detaches child and reports whether it was a direct child of n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return true
		}
	}
	return false
}

// Children returns a copy of the direct children.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Traverse visits n and its descendants depth-first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Bounds covers the geometry of n and its descendants. Lights have no extent.
func (n *Node) Bounds() geom.Box {
	var b geom.Box
	n.Traverse(func(c *Node) {
		switch c.Kind {
		case NodeMesh:
			if c.Mesh != nil {
				b.ExpandByBox(c.Mesh.Bounds())
			}
		case NodePoints, NodeLine:
			for _, p := range c.Points {
				b.ExpandByPoint(p)
			}
		}
	})
	return b
}
