package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/metrics"
	"github.com/san-kum/nbodyquad/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	shapeStep       = 0.1
	treeDepth       = 6
)

type TickMsg time.Time

// Factory builds a freshly initialised simulator. Reset calls it again, so
// it must reseed deterministically to replay the same scene.
type Factory func() (*sim.Simulator, error)

type Options struct {
	Name          string
	StepsPerFrame int
	FPS           int
	GIFPath       string
}

// Model drives a simulator one tick at a time and renders its particles.
type Model struct {
	factory Factory
	opts    Options

	sim      *sim.Simulator
	canvas   *Canvas
	recorder *Recorder
	theme    Theme

	running   bool
	recording bool
	showTree  bool
	showHelp  bool

	energy   []float64
	stepTime []float64
	last     sim.StepStats
	status   string
	err      error
}

// NewModel builds the first simulator from factory.
func NewModel(factory Factory, opts Options) (Model, error) {
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = 1
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "simulation.gif"
	}
	s, err := factory()
	if err != nil {
		return Model{}, err
	}
	m := Model{
		factory:  factory,
		opts:     opts,
		sim:      s,
		canvas:   NewCanvas(width, height),
		recorder: NewRecorder(),
		theme:    CurrentTheme,
		running:  true,
		energy:   make([]float64, 0, historyCapacity),
		stepTime: make([]float64, 0, historyCapacity),
	}
	m.sampleEnergy()
	m.draw()
	return m, nil
}

func (m Model) Simulator() *sim.Simulator { return m.sim }
func (m Model) Running() bool             { return m.running }
func (m Model) Recording() bool           { return m.recording }
func (m Model) Err() error                { return m.err }
func (m Model) Canvas() *Canvas           { return m.canvas }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.recording {
				m.stopRecording()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "m":
			m.toggleMode()
		case "+", "=":
			m.adjustShapeFactor(shapeStep)
		case "-", "_":
			m.adjustShapeFactor(-shapeStep)
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
				m.recorder.Reset()
				m.status = "recording"
			}
		case "b":
			m.showTree = !m.showTree
		case "t":
			m.theme = NextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
		m.draw()
	case TickMsg:
		if m.running {
			m.advance()
		}
		m.draw()
		if m.recording {
			m.recorder.Capture(m.canvas)
		}
		return m, m.tick()
	}
	return m, nil
}

// advance runs StepsPerFrame simulator steps. A failing step pauses the
// model and keeps the error for display.
func (m *Model) advance() {
	for i := 0; i < m.opts.StepsPerFrame; i++ {
		stats, err := m.sim.Step(context.Background())
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.last = stats
		m.stepTime = appendCapped(m.stepTime, float64(stats.Total().Microseconds()))
	}
	m.sampleEnergy()
}

func (m *Model) sampleEnergy() {
	cfg := m.sim.Config()
	ke, pe := metrics.TotalEnergy(m.sim.Store(), cfg.Gravity, cfg.Softening)
	m.energy = appendCapped(m.energy, ke+pe)
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// reset replaces the simulator with a new one from the factory. Mode and
// shape factor chosen interactively carry over.
func (m *Model) reset() {
	cfg := m.sim.Config()
	s, err := m.factory()
	if err != nil {
		m.err = err
		return
	}
	s.SetMode(cfg.Mode)
	s.SetShapeFactor(cfg.ShapeFactor)
	m.sim = s
	m.err = nil
	m.last = sim.StepStats{}
	m.energy = m.energy[:0]
	m.stepTime = m.stepTime[:0]
	m.sampleEnergy()
	m.status = "reset"
}

func (m *Model) toggleMode() {
	if m.sim.Config().Mode == barneshut.ModeTree {
		m.sim.SetMode(barneshut.ModeBruteForce)
	} else {
		m.sim.SetMode(barneshut.ModeTree)
	}
	m.status = "mode " + m.sim.Config().Mode.String()
}

// adjustShapeFactor changes the opening criterion, never below zero.
func (m *Model) adjustShapeFactor(delta float64) {
	sf := math.Max(0, m.sim.Config().ShapeFactor+delta)
	m.sim.SetShapeFactor(math.Round(sf*100) / 100)
	m.status = fmt.Sprintf("shape factor %.2f", m.sim.Config().ShapeFactor)
}

func (m *Model) stopRecording() {
	m.recording = false
	if m.recorder.Len() == 0 {
		m.status = "nothing recorded"
		return
	}
	if err := m.recorder.Save(m.opts.GIFPath); err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), m.opts.GIFPath)
	m.recorder.Reset()
}

func (m *Model) draw() {
	m.canvas.Clear()
	d := m.sim.Config().Domain
	if m.showTree && m.sim.Config().Mode == barneshut.ModeTree {
		m.canvas.DrawTree(m.sim.Nodes(), d, treeDepth)
	}
	m.canvas.Plot(m.sim.Store().Positions(), d)
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.theme.Styles()
	cfg := m.sim.Config()

	var s strings.Builder
	name := m.opts.Name
	if name == "" {
		name = "nbody"
	}
	s.WriteString(st.Header.Render(strings.ToUpper(name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(st.Error.Render("ERROR "+m.err.Error()) + "\n")
	case m.recording:
		s.WriteString(st.Recording.Render(fmt.Sprintf("● REC %d", m.recorder.Len())) + "\n")
	case m.running:
		s.WriteString(st.Running.Render("RUNNING") + "\n")
	default:
		s.WriteString(st.Paused.Render("PAUSED") + "\n")
	}
	if m.status != "" {
		s.WriteString(st.Help.Render(m.status) + "\n")
	}
	s.WriteString("\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	n := m.sim.Store().Len()
	row("Time", fmt.Sprintf("%.5f", m.sim.Time()))
	row("Step", fmt.Sprintf("%d", m.sim.StepCount()))
	row("Particles", fmt.Sprintf("%d", n))
	row("Nodes", fmt.Sprintf("%d / %d", m.last.Nodes, m.sim.Nodes().Cap()))
	row("Mode", cfg.Mode.String())
	s.WriteString(st.Label.Render("Shape factor") + st.Active.Render(fmt.Sprintf("%.2f", cfg.ShapeFactor)) + "\n")
	if n > 0 {
		row("Work/particle", fmt.Sprintf("%.1f", float64(m.last.Work.Interactions)/float64(n)))
	}
	row("Build", m.last.Build.String())
	row("Evaluate", m.last.Evaluate.String())
	row("Workers", fmt.Sprintf("%d", m.sim.Backend().Workers()))
	if len(m.energy) > 0 {
		row("Energy", fmt.Sprintf("%.6g", m.energy[len(m.energy)-1]))
	}
	if len(m.stepTime) > 0 {
		s.WriteString(st.Label.Render("Step µs") + Sparkline(m.stepTime, 24) + "\n")
	}

	s.WriteString(st.Help.Render("SP:Pause R:Reset Q:Quit\nM:Mode +/-:Shape B:Tree\nG:Record T:Theme ?:Help"))

	canvasView := st.Canvas.Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q / Esc  - Quit                     ║
║  M        - Toggle tree/brute force  ║
║  + / -    - Shape factor ± 0.1       ║
║  B        - Show quadtree cells      ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run starts the interactive program on the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
