package scene

// Scene is the persistent render graph. Its root is never exposed so that
// callers go through Add/Remove.
type Scene struct {
	root *Node
}

func New() *Scene {
	return &Scene{root: NewGroup("scene")}
}

// NewWithDefaultLights returns a scene lit the way the viewer starts: one
// directional light at intensity 2 and one ambient light.
func NewWithDefaultLights() *Scene {
	s := New()
	s.Add(
		NewLightNode("directional", Light{Kind: LightDirectional, Color: 0xffffff, Intensity: 2}),
		NewLightNode("ambient", Light{Kind: LightAmbient, Color: 0xffffff, Intensity: 1}),
	)
	return s
}

func (s *Scene) Add(nodes ...*Node) { s.root.Add(nodes...) }

func (s *Scene) Remove(n *Node) bool { return s.root.Remove(n) }

// Children returns the top-level nodes.
func (s *Scene) Children() []*Node { return s.root.Children() }

// Traverse visits every node below the root.
func (s *Scene) Traverse(fn func(*Node)) {
	for _, c := range s.root.children {
		c.Traverse(fn)
	}
}

// RemoveNonLights drops every top-level node that is not a light and returns
// how many were removed.
func (s *Scene) RemoveNonLights() int {
	removed := 0
	for _, c := range s.root.Children() {
		if c.IsLight() {
			continue
		}
		if s.root.Remove(c) {
			removed++
		}
	}
	return removed
}

// Meshes lists every mesh node in traversal order.
func (s *Scene) Meshes() []*Node {
	var out []*Node
	s.Traverse(func(n *Node) {
		if n.IsMesh() {
			out = append(out, n)
		}
	})
	return out
}
