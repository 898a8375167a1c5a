package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/unixpickle/model3d/model3d"

	"rhinoview/internal/scene"
	"rhinoview/internal/viewer"
)

// ndcLimit drops projected points far outside the viewport so Bresenham
// doesn't walk millions of off-screen pixels.
const ndcLimit = 8.0

type projector struct {
	cam  *scene.Camera
	w, h int // micro pixels
}

func (p projector) micro(c model3d.Coord3D) (int, int, bool) {
	x, y, ok := p.cam.Project(c)
	if !ok || x < -ndcLimit || x > ndcLimit || y < -ndcLimit || y > ndcLimit {
		return 0, 0, false
	}
	mx := int((x + 1) / 2 * float64(p.w-1))
	my := int((1 - y) / 2 * float64(p.h-1))
	return mx, my, true
}

// facesCamera reports whether t's front side is visible from the camera.
func (p projector) facesCamera(t *model3d.Triangle) bool {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	center := t[0].Add(t[1]).Add(t[2]).Scale(1.0 / 3)
	return n.Dot(p.cam.Position.Sub(center)) > 0
}

// segment rasterizes the edge a-c. Edges with an unprojectable end or lying
// wholly on one side of the viewport are skipped.
func (p projector) segment(b *brailleBuf, a, c model3d.Coord3D) {
	x0, y0, ok0 := p.micro(a)
	x1, y1, ok1 := p.micro(c)
	if !ok0 || !ok1 {
		return
	}
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 >= p.w && x1 >= p.w) || (y0 >= p.h && y1 >= p.h) {
		return
	}
	b.drawLineMicro(x0, y0, x1, y1)
}

// renderScene draws every non-light node of st into a w×h cell braille grid.
// Solid meshes only draw front-facing triangles.
func renderScene(st *viewer.State, w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	br := newBrailleBuf(w, h)
	if st == nil || st.Camera == nil {
		return strings.Join(br.toLines(), "\n")
	}
	p := projector{cam: st.Camera, w: w * 2, h: h * 4}

	drawn := 0
	st.Scene.Traverse(func(n *scene.Node) {
		switch n.Kind {
		case scene.NodeMesh:
			if n.Mesh == nil {
				return
			}
			wire := n.Material != nil && n.Material.Wireframe
			for _, t := range n.Mesh.Triangles {
				if !wire && !p.facesCamera(t) {
					continue
				}
				p.segment(br, t[0], t[1])
				p.segment(br, t[1], t[2])
				p.segment(br, t[2], t[0])
				drawn++
			}
		case scene.NodeLine:
			for i := 1; i < len(n.Points); i++ {
				p.segment(br, n.Points[i-1], n.Points[i])
				drawn++
			}
		case scene.NodePoints:
			for _, c := range n.Points {
				if mx, my, ok := p.micro(c); ok {
					br.setPixel(mx, my)
					br.setPixel(mx-1, my)
					br.setPixel(mx+1, my)
					br.setPixel(mx, my-1)
					br.setPixel(mx, my+1)
					drawn++
				}
			}
		}
	})

	lines := br.toLines()
	if drawn == 0 {
		msg := "no geometry"
		if y := h / 2; y < len(lines) {
			pad := max(0, (w-len(msg))/2)
			lines[y] = padRight(strings.Repeat(" ", pad)+msg, w-pad-len(msg))
		}
		return dimStyle.Render(strings.Join(lines, "\n"))
	}
	return lipgloss.NewStyle().Foreground(meshFg).Render(strings.Join(lines, "\n"))
}
