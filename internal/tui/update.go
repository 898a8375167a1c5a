package tui

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"rhinoview/internal/compute"
	"rhinoview/internal/export"
	"rhinoview/internal/scene"
	"rhinoview/internal/viewer"
)

const (
	orbitStep   = math.Pi / 12
	dragRadians = 0.04
	dollyIn     = 0.8
	dollyOut    = 1.25
)

// evaluateMsg asks the model to send the current slider values.
type evaluateMsg struct{}

type evaluatedMsg struct {
	res viewer.Result
	err error
}

type parsedMsg struct {
	pass *viewer.Pass
	root *scene.Node
	err  error
}

type definitionLoadedMsg struct {
	def *compute.Definition
	err error
}

// evaluate sends the current slider values.
func (m *Model) evaluate() tea.Cmd {
	if m.ctl == nil {
		m.status = "no compute server configured"
		return nil
	}
	m.inflight++
	ctl, ctx, values := m.ctl, m.ctx, m.Values()
	run := func() tea.Msg {
		res, err := ctl.Evaluate(ctx, values)
		return evaluatedMsg{res: res, err: err}
	}
	if m.inflight+m.parsing == 1 {
		return tea.Batch(run, m.spin.Tick)
	}
	return run
}

func waitParse(m Model, p *viewer.Pass) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		root, err := p.Wait(ctx)
		return parsedMsg{pass: p, root: root, err: err}
	}
}

func (m Model) loadDefinition(source string) tea.Cmd {
	ctx, hc := m.ctx, m.httpClient
	return func() tea.Msg {
		def, err := compute.LoadDefinition(ctx, hc, source)
		return definitionLoadedMsg{def: def, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		lay := m.layout()
		m.viewW, m.viewH = lay.viewW, lay.viewH
		m.state.SetAspect(viewAspect(lay.viewW, lay.viewH))
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, lay.contentH-2)
		}

	case evaluatedMsg:
		return m.handleEvaluated(msg)

	case parsedMsg:
		m.parsing--
		if msg.err != nil {
			m.status = "import failed: " + msg.err.Error()
			m.logger.Error("import failed", "generation", msg.pass.Generation, "error", msg.err)
			return m, nil
		}
		if err := m.mat.Commit(msg.pass, msg.root); err != nil {
			if !errors.Is(err, viewer.ErrStale) {
				m.status = "update failed: " + err.Error()
			}
			return m, nil
		}
		m.generation = msg.pass.Generation
		m.status = fmt.Sprintf("generation %d: %d objects", msg.pass.Generation, msg.pass.Document.Len())
		if m.showOutputs {
			m.refreshOutputs()
		}
		return m, nil

	case definitionLoadedMsg:
		if msg.err != nil {
			m.status = "definition error: " + msg.err.Error()
			return m, nil
		}
		if m.ctl == nil {
			m.status = "no compute server configured"
			return m, nil
		}
		m.ctl.SetDefinition(msg.def)
		m.defPath = msg.def.Name
		m.status = "loaded definition: " + filepath.Base(msg.def.Name)
		cmd := m.evaluate()
		return m, cmd

	case evaluateMsg:
		cmd := m.evaluate()
		return m, cmd

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.sourceMode {
			switch msg.String() {
			case "esc":
				m.sourceMode = false
				m.ta.Blur()
				return m, nil
			case "enter":
				src := strings.TrimSpace(m.ta.Value())
				m.sourceMode = false
				m.ta.Blur()
				if src == "" {
					m.status = "source: empty"
					return m, nil
				}
				m.status = "loading " + src
				return m, m.loadDefinition(src)
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		if m.showOutputs {
			switch msg.String() {
			case "o", "esc":
				m.showOutputs = false
				return m, nil
			case "up", "down", "pgup", "pgdown", "home", "end", "k", "j":
				var cmd tea.Cmd
				m.tbl, cmd = m.tbl.Update(msg)
				return m, cmd
			}
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleEvaluated(msg evaluatedMsg) (tea.Model, tea.Cmd) {
	m.inflight--
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, viewer.ErrSuperseded):
			return m, nil
		case errors.Is(msg.err, compute.ErrServiceUnavailable):
			m.status = "compute service unavailable, adjust a slider to retry"
		default:
			m.status = "compute failed: " + msg.err.Error()
		}
		m.logger.Error("evaluation failed", "generation", msg.res.Generation, "error", msg.err)
		return m, nil
	}
	pass, err := m.mat.Begin(m.ctx, msg.res.Generation, msg.res.Response)
	if errors.Is(err, viewer.ErrStale) {
		return m, nil
	}
	m.lastResp = msg.res.Response
	switch {
	case errors.Is(err, viewer.ErrNoGeometryDecoded):
		m.status = "no geometry decoded"
		if m.showOutputs {
			m.refreshOutputs()
		}
		return m, nil
	case err != nil:
		m.status = "decode failed: " + err.Error()
		return m, nil
	}
	m.parsing++
	return m, waitParse(m, pass)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cam, ctl := m.state.Camera, m.state.Controls
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if len(m.params) > 0 {
			m.focus = (m.focus + 1) % len(m.params)
		}
	case "shift+tab":
		if len(m.params) > 0 {
			m.focus = (m.focus + len(m.params) - 1) % len(m.params)
		}
	case "left", "right":
		if len(m.params) == 0 {
			break
		}
		p := m.params[m.focus]
		step := p.Step
		if step <= 0 {
			step = (p.Max - p.Min) / 100
		}
		if msg.String() == "left" {
			step = -step
		}
		m.values[p.Name] = p.Clamp(m.values[p.Name] + step)
		m.status = fmt.Sprintf("%s = %g (enter to evaluate)", p.Name, m.values[p.Name])
	case "enter":
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(definitionItem); ok {
				m.status = "loading " + it.title
				return m, m.loadDefinition(it.path)
			}
			return m, nil
		}
		cmd := m.evaluate()
		return m, cmd
	case "r":
		cmd := m.evaluate()
		return m, cmd
	case "a":
		ctl.Orbit(cam, -orbitStep, 0)
	case "d":
		ctl.Orbit(cam, orbitStep, 0)
	case "w":
		ctl.Orbit(cam, 0, -orbitStep)
	case "s":
		ctl.Orbit(cam, 0, orbitStep)
	case "+", "=":
		ctl.Dolly(cam, dollyIn)
	case "-", "_":
		ctl.Dolly(cam, dollyOut)
	case "f":
		if m.state.Refit(m.mat.FitOffset()) {
			m.status = "view fitted"
		} else {
			m.status = "nothing to fit"
		}
	case "m":
		m.toggleWireframe()
	case "e", "E", "x":
		f := export.FormatSTL
		switch msg.String() {
		case "E":
			f = export.FormatBinarySTL
		case "x":
			f = export.FormatDocument
		}
		m.exportScene(f)
	case "o":
		m.showOutputs = !m.showOutputs
		if m.showOutputs {
			m.refreshOutputs()
		}
	case "b":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshDir()
			m.l.SetSize(sidebarWidth-2, m.layout().contentH-2)
		}
	case "u":
		m.sourceMode = true
		m.ta.SetValue("")
		m.ta.Focus()
		m.status = "source mode"
	case "h":
		m.helpVisible = !m.helpVisible
	case "up", "down":
		if m.showSidebar {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) toggleWireframe() {
	on := !m.mat.Wireframe()
	m.mat.SetWireframe(on)
	m.state.Scene.Traverse(func(n *scene.Node) {
		if n.IsMesh() {
			n.Material = scene.NormalMaterial(on)
		}
	})
	m.status = fmt.Sprintf("wireframe: %v", on)
}

func (m *Model) exportScene(f export.Format) {
	path, err := export.WriteFile(m.exportDir, f, m.state, time.Now())
	if err != nil {
		m.status = "export failed: " + err.Error()
		return
	}
	m.logger.Info("exported", "path", path, "format", f.String())
	m.status = "exported " + path
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	lay := m.layout()
	inView := msg.X >= lay.viewX && msg.X < lay.viewX+lay.viewW && msg.Y >= lay.viewY && msg.Y < lay.viewY+lay.viewH
	cam, ctl := m.state.Camera, m.state.Controls
	switch {
	case msg.Button == tea.MouseButtonWheelUp && inView:
		ctl.Dolly(cam, dollyIn)
	case msg.Button == tea.MouseButtonWheelDown && inView:
		ctl.Dolly(cam, dollyOut)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inView:
		m.dragging = true
		m.dragX, m.dragY = msg.X, msg.Y
	case msg.Action == tea.MouseActionMotion && m.dragging:
		dx, dy := msg.X-m.dragX, msg.Y-m.dragY
		// cells are twice as tall as they are wide
		ctl.Orbit(cam, -float64(dx)*dragRadians, -float64(dy)*2*dragRadians)
		m.dragX, m.dragY = msg.X, msg.Y
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
	}
	return m
}
