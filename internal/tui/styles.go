// Package tui renders the convolution and descent demos in the terminal.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FPS is the frame rate of the tick loop.
const FPS = 60

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Width(5).Align(lipgloss.Right)
	windowStyle  = cellStyle.Foreground(lipgloss.Color("33")).Bold(true)
	doneStyle    = cellStyle.Foreground(lipgloss.Color("49"))
	currentStyle = cellStyle.Foreground(lipgloss.Color("205")).Bold(true)
	pendingStyle = cellStyle.Foreground(lipgloss.Color("240"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// TickMsg is one rendering opportunity.
type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/FPS, func(t time.Time) tea.Msg { return TickMsg(t) })
}
