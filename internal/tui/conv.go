package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/mlvis/internal/anim"
	"github.com/cwbudde/mlvis/internal/conv"
)

// DefaultSpeed is the initial speed setting of the convolution demos.
const DefaultSpeed = 5

// stepper is the part of a convolution engine the model drives.
type stepper interface {
	anim.Advancer
	Step() int
	SetStep(n int) int
	TotalSteps() int
	StepOperands(step int) conv.Breakdown
}

// ConvModel animates a 1D or 2D convolution one output element at a time.
type ConvModel struct {
	one    *conv.Engine1D
	two    *conv.Engine2D
	engine stepper
	driver *anim.Driver
	speed  int
	now    time.Time

	// Eased column of the kernel window.
	window *easedValue
}

// NewConv1D returns a model for a 1D engine.
func NewConv1D(e *conv.Engine1D) ConvModel {
	return newConvModel(e, e, nil)
}

// NewConv2D returns a model for a 2D engine.
func NewConv2D(e *conv.Engine2D) ConvModel {
	return newConvModel(e, nil, e)
}

func newConvModel(engine stepper, one *conv.Engine1D, two *conv.Engine2D) ConvModel {
	return ConvModel{
		one:    one,
		two:    two,
		engine: engine,
		driver: anim.New(anim.CadenceForSpeed(DefaultSpeed), engine),
		speed:  DefaultSpeed,
		window: newEasedValue(),
	}
}

func (m ConvModel) Init() tea.Cmd {
	return tick()
}

// Playing reports whether the animation is running.
func (m ConvModel) Playing() bool { return m.driver.Running() }

// Step returns the current step.
func (m ConvModel) Step() int { return m.engine.Step() }

// Speed returns the speed setting in [1, 10].
func (m ConvModel) Speed() int { return m.speed }

func (m ConvModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			m.togglePlay()
		case "right", "l":
			m.driver.Stop()
			m.engine.SetStep(m.engine.Step() + 1)
		case "left", "h":
			m.driver.Stop()
			m.engine.SetStep(m.engine.Step() - 1)
		case "home", "r":
			m.driver.Stop()
			m.engine.SetStep(0)
		case "end":
			m.driver.Stop()
			m.engine.SetStep(m.engine.TotalSteps() - 1)
		case "+", "=":
			m.setSpeed(m.speed + 1)
		case "-", "_":
			m.setSpeed(m.speed - 1)
		}
	case TickMsg:
		m.now = time.Time(msg)
		m.driver.OnFrame(m.now)
		m.window.Update(float64(m.windowColumn()))
		return m, tick()
	}
	return m, nil
}

// togglePlay pauses or resumes. Resuming at the last step pauses again on
// the next due frame.
func (m *ConvModel) togglePlay() {
	if m.driver.Running() {
		m.driver.Stop()
		return
	}
	now := m.now
	if now.IsZero() {
		now = time.Now()
	}
	m.driver.Start(now)
}

func (m *ConvModel) setSpeed(v int) {
	if v < 1 {
		v = 1
	}
	if v > 10 {
		v = 10
	}
	m.speed = v
	m.driver.SetCadence(anim.CadenceForSpeed(v))
}

func (m ConvModel) windowColumn() int {
	if m.two != nil {
		_, col := m.two.Position(m.two.Step())
		return col
	}
	start, _ := m.one.Window(m.one.Step())
	return start
}

func (m ConvModel) View() string {
	var b strings.Builder
	if m.two != nil {
		b.WriteString(headerStyle.Render("2D Convolution"))
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.view2DInput(),
			panelStyle.Render(m.view2DOutput()),
			panelStyle.Render(m.viewBreakdown()),
		))
	} else {
		b.WriteString(headerStyle.Render("1D Convolution"))
		b.WriteString("\n")
		b.WriteString(m.view1D())
		b.WriteString("\n\n")
		b.WriteString(m.viewBreakdown())
	}
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString(helpStyle.Render("space play/pause • ←/→ step • r reset • +/- speed • q quit"))
	return b.String()
}

func (m ConvModel) view1D() string {
	e := m.one
	step := e.Step()
	start, end := e.Window(step)
	kernel := e.Kernel()

	// The kernel row slides with the eased window column.
	offset := int(m.window.Value()*5 + 0.5)
	var kernelRow strings.Builder
	kernelRow.WriteString(labelStyle.Render("kernel"))
	kernelRow.WriteString(strings.Repeat(" ", offset))
	for _, k := range kernel {
		kernelRow.WriteString(windowStyle.Render(formatValue(k)))
	}

	var inputRow strings.Builder
	inputRow.WriteString(labelStyle.Render("input"))
	for i, v := range e.Input() {
		style := cellStyle
		if i >= start && i < end {
			style = windowStyle
		}
		inputRow.WriteString(style.Render(formatValue(v)))
	}

	// Outputs sit under the centre of their window.
	var outputRow strings.Builder
	outputRow.WriteString(labelStyle.Render("output"))
	outputRow.WriteString(strings.Repeat(" ", (len(kernel)-1)*5/2))
	for i, v := range e.Compute() {
		outputRow.WriteString(outputCell(i, step, v))
	}

	return strings.Join([]string{kernelRow.String(), inputRow.String(), outputRow.String()}, "\n")
}

func (m ConvModel) view2DInput() string {
	e := m.two
	r0, r1, c0, c1 := e.Window(e.Step())
	var b strings.Builder
	b.WriteString(labelStyle.Render("input"))
	b.WriteString("\n")
	for r, row := range e.InputRows() {
		for c, v := range row {
			style := cellStyle
			if r >= r0 && r < r1 && c >= c0 && c < c1 {
				style = windowStyle
			}
			b.WriteString(style.Render(formatValue(v)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("kernel"))
	b.WriteString("\n")
	for _, row := range e.KernelRows() {
		for _, v := range row {
			b.WriteString(cellStyle.Render(formatValue(v)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m ConvModel) view2DOutput() string {
	e := m.two
	step := e.Step()
	_, cols := e.OutputDims()
	var b strings.Builder
	b.WriteString(labelStyle.Render("output"))
	b.WriteString("\n")
	for r, row := range e.OutputRows() {
		for c, v := range row {
			b.WriteString(outputCell(r*cols+c, step, v))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// outputCell renders computed outputs, highlights the current one and
// hides the rest.
func outputCell(i, step int, v float64) string {
	switch {
	case i < step:
		return doneStyle.Render(formatValue(v))
	case i == step:
		return currentStyle.Render(formatValue(v))
	default:
		return pendingStyle.Render("·")
	}
}

func (m ConvModel) viewBreakdown() string {
	b := m.engine.StepOperands(m.engine.Step())
	parts := make([]string, len(b.Terms))
	for i, t := range b.Terms {
		parts[i] = fmt.Sprintf("%s×%s", formatValue(t.Input), formatValue(t.Kernel))
	}

	var out strings.Builder
	out.WriteString(labelStyle.Render("calculation"))
	if m.two != nil {
		out.WriteString(valueStyle.Render(fmt.Sprintf("output[%d][%d]", b.Row, b.Col)))
	} else {
		out.WriteString(valueStyle.Render(fmt.Sprintf("output[%d]", b.Step)))
	}
	out.WriteString("\n")
	// Long 2D sums wrap one kernel row per line.
	perLine := len(parts)
	if m.two != nil {
		_, perLine = m.two.Kernel().Dims()
	}
	for i := 0; i < len(parts); i += perLine {
		end := i + perLine
		if end > len(parts) {
			end = len(parts)
		}
		prefix := "  "
		if i > 0 {
			prefix = "+ "
		}
		out.WriteString(valueStyle.Render(prefix + strings.Join(parts[i:end], " + ")))
		out.WriteString("\n")
	}
	out.WriteString(currentStyle.UnsetWidth().Render("= " + formatValue(b.Sum)))
	return out.String()
}

func (m ConvModel) viewStatus() string {
	state := "paused"
	if m.driver.Running() {
		state = "playing"
	}
	lines := []string{
		labelStyle.Render("step") + valueStyle.Render(fmt.Sprintf("%d / %d", m.engine.Step()+1, m.engine.TotalSteps())),
		labelStyle.Render("state") + valueStyle.Render(state),
		labelStyle.Render("speed") + valueStyle.Render(fmt.Sprintf("%d (%v)", m.speed, m.driver.Cadence())),
	}
	return strings.Join(lines, "\n")
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
