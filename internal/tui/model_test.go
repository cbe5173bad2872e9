package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/mlvis/internal/anim"
	"github.com/cwbudde/mlvis/internal/conv"
	"github.com/cwbudde/mlvis/internal/descent"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var space = tea.KeyMsg{Type: tea.KeySpace}

func sendConv(t *testing.T, m ConvModel, msgs ...tea.Msg) ConvModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(ConvModel)
		require.True(t, ok)
	}
	return m
}

func sendDescent(t *testing.T, m DescentModel, msgs ...tea.Msg) DescentModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(DescentModel)
		require.True(t, ok)
	}
	return m
}

func newConv1D(t *testing.T) ConvModel {
	e, err := conv.New1D(conv.Preset1D())
	require.NoError(t, err)
	return NewConv1D(e)
}

func TestConvModel_PlayAutoPauses(t *testing.T) {
	m := newConv1D(t)
	t0 := time.Unix(1000, 0)
	cadence := anim.CadenceForSpeed(DefaultSpeed)

	m = sendConv(t, m, TickMsg(t0), space)
	require.True(t, m.Playing())

	// A tick exactly one cadence later does not step.
	m = sendConv(t, m, TickMsg(t0.Add(cadence)))
	assert.Equal(t, 0, m.Step())

	now := t0
	for i := 1; i <= 7; i++ {
		now = now.Add(cadence + time.Millisecond)
		m = sendConv(t, m, TickMsg(now))
		assert.Equal(t, i, m.Step())
	}
	assert.False(t, m.Playing(), "reaching the last step pauses")

	// Playing again at the end pauses on the next due frame without moving.
	m = sendConv(t, m, space)
	assert.True(t, m.Playing())
	now = now.Add(cadence + time.Millisecond)
	m = sendConv(t, m, TickMsg(now))
	assert.False(t, m.Playing())
	assert.Equal(t, 7, m.Step())
}

func TestConvModel_ManualStepping(t *testing.T) {
	m := newConv1D(t)

	right := tea.KeyMsg{Type: tea.KeyRight}
	left := tea.KeyMsg{Type: tea.KeyLeft}

	m = sendConv(t, m, left)
	assert.Equal(t, 0, m.Step(), "stepping back from zero clamps")

	m = sendConv(t, m, right, right, right)
	assert.Equal(t, 3, m.Step())

	m = sendConv(t, m, tea.KeyMsg{Type: tea.KeyEnd}, right)
	assert.Equal(t, 7, m.Step())

	m = sendConv(t, m, space, runes("r"))
	assert.False(t, m.Playing(), "reset pauses")
	assert.Equal(t, 0, m.Step())
}

func TestConvModel_Speed(t *testing.T) {
	m := newConv1D(t)

	m = sendConv(t, m, runes("+"))
	assert.Equal(t, 6, m.Speed())
	assert.Equal(t, 500*time.Millisecond, m.driver.Cadence())

	for i := 0; i < 20; i++ {
		m = sendConv(t, m, runes("-"))
	}
	assert.Equal(t, 1, m.Speed())
	assert.Equal(t, time.Second, m.driver.Cadence())
}

func TestConvModel_View(t *testing.T) {
	m := newConv1D(t)
	m = sendConv(t, m, TickMsg(time.Unix(0, 0)))
	view := m.View()
	assert.Contains(t, view, "1D Convolution")
	assert.Contains(t, view, "output[0]")
	assert.Contains(t, view, "= -1")

	e, err := conv.New2DFromRows(conv.Preset2D())
	require.NoError(t, err)
	m2 := NewConv2D(e)
	m2 = sendConv(t, m2, TickMsg(time.Unix(0, 0)), tea.KeyMsg{Type: tea.KeyRight})
	view = m2.View()
	assert.Contains(t, view, "2D Convolution")
	assert.Contains(t, view, "output[0][1]")
	assert.Contains(t, view, "= 0")
}

func newDescent(t *testing.T) DescentModel {
	e, err := descent.New(descent.DefaultConfig())
	require.NoError(t, err)
	return NewDescent(e, 0)
}

func TestDescentModel_RunsEveryFrame(t *testing.T) {
	m := newDescent(t)
	t0 := time.Unix(1000, 0)

	m = sendDescent(t, m, TickMsg(t0), space)
	require.True(t, m.Running())
	require.True(t, m.Engine().Running())

	for i := 1; i <= 10; i++ {
		m = sendDescent(t, m, TickMsg(t0.Add(time.Duration(i)*time.Second/FPS)))
	}
	assert.Equal(t, 10, m.Engine().Iteration())
	assert.Len(t, m.Engine().Losses(), 11)

	m = sendDescent(t, m, space)
	assert.False(t, m.Running())
	assert.False(t, m.Engine().Running())
	m = sendDescent(t, m, TickMsg(t0.Add(time.Second)))
	assert.Equal(t, 10, m.Engine().Iteration())
}

func TestDescentModel_Controls(t *testing.T) {
	m := newDescent(t)
	lr := m.Engine().LearningRate()

	m = sendDescent(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, lr*2, m.Engine().LearningRate())
	m = sendDescent(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, lr/2, m.Engine().LearningRate())
	assert.NoError(t, m.Err())

	start := m.Engine().Objective().Name()
	m = sendDescent(t, m, space, runes("o"))
	assert.NotEqual(t, start, m.Engine().Objective().Name())
	assert.False(t, m.Running(), "switching objective stops descent")
	assert.Equal(t, 0, m.Engine().Iteration())

	m = sendDescent(t, m, runes("o"))
	assert.Equal(t, start, m.Engine().Objective().Name(), "objectives cycle")

	m = sendDescent(t, m, space, TickMsg(time.Unix(5, 0)), TickMsg(time.Unix(6, 0)), runes("r"))
	assert.False(t, m.Running())
	assert.Equal(t, 0, m.Engine().Iteration())
}

func TestDescentModel_View(t *testing.T) {
	m := newDescent(t)
	m = sendDescent(t, m, TickMsg(time.Unix(0, 0)))
	view := m.View()
	assert.Contains(t, view, "Gradient Descent: "+m.Engine().Objective().Name())
	assert.Contains(t, view, "●")
	assert.Contains(t, view, "waiting for data")

	m = sendDescent(t, m, space)
	for i := 1; i <= 5; i++ {
		m = sendDescent(t, m, TickMsg(time.Unix(int64(i), 0)))
	}
	assert.Contains(t, m.View(), "Loss")
}

func TestShadeGrid(t *testing.T) {
	obj, err := descent.Lookup(descent.Ackley)
	require.NoError(t, err)

	grid := shadeGrid(obj)
	require.Len(t, grid, mapHeight)
	var lowest, highest bool
	for _, row := range grid {
		require.Len(t, row, mapWidth)
		s := string(row)
		lowest = lowest || strings.ContainsRune(s, shades[0])
		highest = highest || strings.ContainsRune(s, shades[len(shades)-1])
	}
	assert.True(t, lowest)
	assert.True(t, highest)
}

func TestEasedValue(t *testing.T) {
	v := newEasedValue()
	assert.Equal(t, 3.0, v.Update(3), "first update snaps")

	for i := 0; i < 3*FPS; i++ {
		v.Update(10)
	}
	assert.InDelta(t, 10, v.Value(), 0.01)
}
