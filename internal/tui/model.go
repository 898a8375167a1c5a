package tui

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	list "github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"rhinoview/internal/compute"
	"rhinoview/internal/config"
	"rhinoview/internal/logging"
	"rhinoview/internal/viewer"
)

// Options wires the model to the evaluation pipeline.
type Options struct {
	Params       []config.Parameter
	Controller   *viewer.Controller
	Materializer *viewer.Materializer
	State        *viewer.State
	// HTTPClient fetches definitions given as URLs.
	HTTPClient *http.Client
	ExportDir  string
	// Dir is where the definition browser looks for .gh/.ghx files.
	Dir    string
	Logger *slog.Logger
	Ctx    context.Context
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string

	// Sliders
	params []config.Parameter
	values map[string]float64
	focus  int
	bar    progress.Model

	// Definition browser
	cwd     string
	l       list.Model
	items   []list.Item
	defPath string

	// source mode: type a definition path or URL
	sourceMode bool
	ta         textarea.Model

	// Evaluation pipeline
	ctx        context.Context
	ctl        *viewer.Controller
	mat        *viewer.Materializer
	state      *viewer.State
	httpClient *http.Client
	logger     *slog.Logger
	inflight   int
	parsing    int
	spin       spinner.Model
	lastResp   *compute.Response
	generation uint64

	// last rendered viewport size
	viewW int
	viewH int

	// mouse orbit
	dragging bool
	dragX    int
	dragY    int

	exportDir string

	// outputs table
	showOutputs bool
	tbl         table.Model
}

func New(opts Options) Model {
	m := Model{
		helpVisible: true,
		status:      "rhinoview ready",
		params:      opts.Params,
		values:      make(map[string]float64, len(opts.Params)),
		ctx:         opts.Ctx,
		ctl:         opts.Controller,
		mat:         opts.Materializer,
		state:       opts.State,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		exportDir:   opts.ExportDir,
		cwd:         opts.Dir,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.httpClient == nil {
		m.httpClient = http.DefaultClient
	}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}
	if m.state == nil {
		m.state = viewer.NewState(1)
	}
	if m.mat == nil {
		m.mat = viewer.NewMaterializer(m.state, viewer.Options{Logger: m.logger})
	}
	if m.cwd == "" {
		m.cwd, _ = os.Getwd()
	}
	if m.exportDir == "" {
		m.exportDir = m.cwd
	}
	for _, p := range m.params {
		m.values[p.Name] = p.Clamp(p.Default)
	}
	if m.ctl != nil {
		if def := m.ctl.Definition(); def != nil {
			m.defPath = def.Name
		}
	}

	m.bar = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(sliderBarWidth))
	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.spin.Style = titleStyle

	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Definitions"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Definition path or URL (.gh/.ghx). Press Enter to load; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.ShowLineNumbers = false
	m.ta.SetWidth(50)
	m.ta.SetHeight(3)
	// outputs table setup
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// Init evaluates the definition once with the slider defaults, like the page
// load did.
func (m Model) Init() tea.Cmd {
	if m.ctl == nil {
		return nil
	}
	return func() tea.Msg { return evaluateMsg{} }
}

// Values returns a copy of the current slider values.
func (m Model) Values() map[string]float64 {
	out := make(map[string]float64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m Model) Status() string { return m.status }

func (m Model) busy() bool { return m.inflight > 0 || m.parsing > 0 }
