package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	panelWidth     = 32
	sidebarWidth   = 28
	sliderBarWidth = panelWidth - 4
	headerHeight   = 1
	footerHeight   = 2
)

type layout struct {
	contentW, contentH int
	sidebarW           int
	viewX, viewY       int
	viewW, viewH       int
}

// layout must agree with View; mouse handling and the camera aspect use it.
func (m Model) layout() layout {
	var l layout
	l.contentW = max(10, m.width)
	l.contentH = max(4, m.height-headerHeight-footerHeight)
	if m.showSidebar {
		l.sidebarW = sidebarWidth
	}
	l.viewX = panelWidth + 1
	if m.showSidebar {
		l.viewX += l.sidebarW + 1
	}
	l.viewY = headerHeight
	l.viewW = max(10, l.contentW-l.viewX)
	l.viewH = l.contentH
	return l
}

// viewAspect is the dot aspect of a braille viewport. A cell holds a 2x4 dot
// grid and is about twice as tall as it is wide, so dots are roughly square.
func viewAspect(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	return float64(w*2) / float64(h*4)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lay := m.layout()

	// Header
	title := " rhinoview ─ RhinoCompute slider viewer "
	if m.defPath != "" {
		title += "─ " + filepath.Base(m.defPath) + " "
	}
	header := titleStyle.Render(title)
	if m.busy() {
		header += " " + m.spin.View() + dimStyle.Render(" computing")
	}
	header = lipgloss.NewStyle().Width(lay.contentW).MaxHeight(headerHeight).Render(header)

	// Slider panel
	panel := boxStyle.Width(panelWidth - 2).Height(lay.contentH - 2).Render(m.renderSliders())

	// Sidebar
	var sidebar string
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	// Viewport
	var view string
	switch {
	case m.showOutputs:
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		if colW == 0 {
			colW = min(60, lay.viewW-6)
		}
		maxW := min(lay.viewW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lay.viewH-2, 20))
		outBox := boxStyle.Width(maxW).Render(m.tbl.View())
		view = lipgloss.Place(lay.viewW, lay.viewH, lipgloss.Center, lipgloss.Center, outBox)
	case m.sourceMode:
		m.ta.SetWidth(min(lay.viewW-4, 80))
		box := boxStyle.Render(m.ta.View())
		view = lipgloss.Place(lay.viewW, lay.viewH, lipgloss.Center, lipgloss.Center, box)
	default:
		view = lipgloss.NewStyle().Width(lay.viewW).Height(lay.viewH).Render(renderScene(m.state, lay.viewW, lay.viewH))
	}

	// Body row
	cols := []string{panel, " "}
	if m.showSidebar {
		cols = append(cols, sidebar, " ")
	}
	cols = append(cols, view)
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	// Footer / help
	status := dimStyle.Render(" " + m.status + " ")
	gen := ""
	if m.generation > 0 {
		gen = dimStyle.Render(fmt.Sprintf("  gen %d  ", m.generation))
	}
	spacerW := max(0, lay.contentW-lipgloss.Width(status)-lipgloss.Width(gen))
	statusLine := lipgloss.JoinHorizontal(lipgloss.Bottom, status, strings.Repeat(" ", spacerW), gen)
	footer := lipgloss.NewStyle().Width(lay.contentW).Render(lipgloss.JoinVertical(lipgloss.Left, statusLine, m.renderHelp()))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(lay.contentW).Height(m.height).Render(ui)
}

func (m Model) renderSliders() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Parameters"))
	b.WriteString("\n\n")
	if len(m.params) == 0 {
		b.WriteString(dimStyle.Render("no parameters configured"))
	}
	for i, p := range m.params {
		v := m.values[p.Name]
		frac := 0.0
		if p.Max > p.Min {
			frac = (v - p.Min) / (p.Max - p.Min)
		}
		label := fmt.Sprintf("%s  %g", p.Name, v)
		if i == m.focus {
			b.WriteString(focusStyle.Render("› " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n  ")
		b.WriteString(m.bar.ViewAs(frac))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %g … %g", p.Min, p.Max)))
		b.WriteString("\n\n")
	}
	wire := "solid"
	if m.mat.Wireframe() {
		wire = "wireframe"
	}
	b.WriteString(dimStyle.Render("material: " + wire))
	return b.String()
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"Tab/←→ sliders",
		"Enter compute",
		"wasd orbit",
		"+/- dolly",
		"f fit",
		"m wire",
		"e/E/x export",
		"o outputs",
		"b defs",
		"u source",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
