package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/cwbudde/mlvis/internal/anim"
	"github.com/cwbudde/mlvis/internal/descent"
)

const (
	mapWidth    = 48
	mapHeight   = 20
	chartWidth  = 40
	chartHeight = 10
	chartWindow = 200
)

// shades orders glyphs from low to high loss.
var shades = []rune(" .:-=+*#%@")

var (
	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	trailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	mapStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// DescentModel runs gradient descent live over a shaded loss map.
type DescentModel struct {
	engine *descent.Engine
	driver *anim.Driver
	now    time.Time
	err    error

	// Precomputed shading for the active objective.
	grid [][]rune

	markerX *easedValue
	markerY *easedValue
}

// NewDescent returns a model that steps e once per cadence. A non-positive
// cadence steps on every frame.
func NewDescent(e *descent.Engine, cadence time.Duration) DescentModel {
	if cadence <= 0 {
		cadence = time.Nanosecond
	}
	m := DescentModel{
		engine:  e,
		driver:  anim.New(cadence, e),
		markerX: newEasedValue(),
		markerY: newEasedValue(),
	}
	m.grid = shadeGrid(e.Objective())
	return m
}

func (m DescentModel) Init() tea.Cmd {
	return tick()
}

// Running reports whether descent is active.
func (m DescentModel) Running() bool { return m.driver.Running() }

// Engine exposes the driven engine.
func (m DescentModel) Engine() *descent.Engine { return m.engine }

// Err returns the last rejected input, if any.
func (m DescentModel) Err() error { return m.err }

func (m DescentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			m.toggle()
		case "r":
			m.driver.Stop()
			m.engine.Reset(true)
		case "o", "tab":
			m.nextObjective()
		case "up", "k":
			m.err = m.engine.SetLearningRate(m.engine.LearningRate() * 2)
		case "down", "j":
			m.err = m.engine.SetLearningRate(m.engine.LearningRate() / 2)
		}
	case TickMsg:
		m.now = time.Time(msg)
		m.driver.OnFrame(m.now)
		col, row := m.cellOf(m.engine.Position())
		m.markerX.Update(col)
		m.markerY.Update(row)
		return m, tick()
	}
	return m, nil
}

func (m *DescentModel) toggle() {
	if m.driver.Running() {
		m.driver.Stop()
		m.engine.Stop()
		return
	}
	now := m.now
	if now.IsZero() {
		now = time.Now()
	}
	m.engine.Start()
	m.driver.Start(now)
}

// nextObjective cycles through the registered objectives and starts over.
func (m *DescentModel) nextObjective() {
	names := descent.Names()
	current := m.engine.Objective().Name()
	next := names[0]
	for i, name := range names {
		if name == current {
			next = names[(i+1)%len(names)]
			break
		}
	}
	if err := m.engine.SelectObjective(next); err != nil {
		m.err = err
		return
	}
	m.driver.Stop()
	m.engine.Reset(false)
	m.grid = shadeGrid(m.engine.Objective())
}

// cellOf maps a point in the objective's domain to fractional map
// coordinates; y grows upwards on screen.
func (m DescentModel) cellOf(p descent.Point) (col, row float64) {
	lo, hi := m.engine.Objective().Domain()
	span := hi - lo
	col = (p.X - lo) / span * float64(mapWidth-1)
	row = (hi - p.Y) / span * float64(mapHeight-1)
	return col, row
}

// shadeGrid samples obj at map resolution and buckets the values into
// shade glyphs by rank in the [min, max] range.
func shadeGrid(obj descent.Objective) [][]rune {
	lo, hi := obj.Domain()
	values := make([][]float64, mapHeight)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for r := range values {
		values[r] = make([]float64, mapWidth)
		y := hi - float64(r)/float64(mapHeight-1)*(hi-lo)
		for c := range values[r] {
			x := lo + float64(c)/float64(mapWidth-1)*(hi-lo)
			v := obj.Value(x, y)
			values[r][c] = v
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}

	grid := make([][]rune, mapHeight)
	for r := range grid {
		grid[r] = make([]rune, mapWidth)
		for c, v := range values[r] {
			level := 0
			if maxV > minV {
				level = int((v - minV) / (maxV - minV) * float64(len(shades)-1))
			}
			grid[r][c] = shades[level]
		}
	}
	return grid
}

func (m DescentModel) View() string {
	header := headerStyle.Render(fmt.Sprintf("Gradient Descent: %s", m.engine.Objective().Name()))
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewMap(),
		panelStyle.Render(m.viewStats()+"\n"+m.viewChart()),
	)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(main)
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
	}
	b.WriteString(helpStyle.Render("\nspace start/pause • r reset • o objective • ↑/↓ learning rate • q quit"))
	return b.String()
}

func (m DescentModel) viewMap() string {
	trail := make(map[[2]int]bool)
	for _, p := range m.engine.Trajectory() {
		col, row := m.cellOf(p)
		trail[[2]int{int(math.Round(row)), int(math.Round(col))}] = true
	}
	markerRow := int(math.Round(m.markerY.Value()))
	markerCol := int(math.Round(m.markerX.Value()))

	var b strings.Builder
	for r, line := range m.grid {
		for c, ch := range line {
			switch {
			case r == markerRow && c == markerCol:
				b.WriteString(markerStyle.Render("●"))
			case trail[[2]int{r, c}]:
				b.WriteString(trailStyle.Render("•"))
			default:
				b.WriteString(mapStyle.Render(string(ch)))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m DescentModel) viewStats() string {
	p := m.engine.Position()
	state := "paused"
	if m.driver.Running() {
		state = "running"
	}
	lines := []string{
		labelStyle.Render("state") + valueStyle.Render(state),
		labelStyle.Render("iteration") + valueStyle.Render(fmt.Sprintf("%d", m.engine.Iteration())),
		labelStyle.Render("position") + valueStyle.Render(fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)),
		labelStyle.Render("loss") + valueStyle.Render(fmt.Sprintf("%.5f", p.Z)),
		labelStyle.Render("learning rate") + valueStyle.Render(fmt.Sprintf("%g", m.engine.LearningRate())),
	}
	xs, ys := descent.ModelLine(p)
	lines = append(lines, labelStyle.Render("model line")+
		valueStyle.Render(fmt.Sprintf("(%.1f, %.2f) to (%.1f, %.2f)", xs[0], ys[0], xs[1], ys[1])))
	return strings.Join(lines, "\n")
}

func (m DescentModel) viewChart() string {
	losses := m.engine.Losses()
	if len(losses) > chartWindow {
		losses = losses[len(losses)-chartWindow:]
	}
	if len(losses) < 2 {
		return graphStyle.Render("waiting for data...")
	}
	graph := asciigraph.Plot(losses,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption("Loss"),
	)
	return graphStyle.Render(graph)
}
