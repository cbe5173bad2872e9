package descent

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, objective string, seed int64) *Engine {
	t.Helper()
	e, err := New(Config{Objective: objective, Seed: seed})
	require.NoError(t, err)
	return e
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)

	assert.Equal(t, Rugged, e.Objective().Name())
	assert.Equal(t, DefaultLearningRate, e.LearningRate())
	assert.Equal(t, 0, e.Iteration())
	assert.False(t, e.Running())
	require.Len(t, e.Trajectory(), 1)
	assert.Equal(t, e.Position(), e.Trajectory()[0])
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Config{Objective: "rosenbrock"})
	assert.ErrorIs(t, err, ErrUnknownObjective)

	_, err = New(Config{LearningRate: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStep_RuggedUpdateLaw(t *testing.T) {
	e := newEngine(t, Rugged, 42)
	e.Start()

	for i := 0; i < 20; i++ {
		before := e.Position()
		dx, dy := e.Objective().Gradient(before.X, before.Y)
		n := len(e.Trajectory())

		p, err := e.Step()
		require.NoError(t, err)

		assert.InDelta(t, before.X-0.01*dx, p.X, 1e-9)
		assert.InDelta(t, before.Y-0.01*dy, p.Y, 1e-9)
		assert.Equal(t, i+1, e.Iteration())
		assert.Len(t, e.Trajectory(), n+1)

		last := e.Trajectory()[len(e.Trajectory())-1]
		assert.Equal(t, Point{X: p.X, Y: p.Y, Z: e.Objective().Value(p.X, p.Y)}, last)
	}
}

func TestStep_NotRunnable(t *testing.T) {
	e := newEngine(t, Rugged, 3)
	before := e.Position()

	_, err := e.Step()
	assert.ErrorIs(t, err, ErrNotRunnable)
	assert.Equal(t, before, e.Position())
	assert.Equal(t, 0, e.Iteration())
	assert.Len(t, e.Trajectory(), 1)

	assert.True(t, e.Advance(), "a stopped engine reports the end of its sequence")

	e.Start()
	assert.False(t, e.Advance())
	e.Stop()
	_, err = e.Step()
	assert.ErrorIs(t, err, ErrNotRunnable)
}

func TestReset(t *testing.T) {
	e := newEngine(t, Rugged, 5)
	e.Start()
	for i := 0; i < 5; i++ {
		_, err := e.Step()
		require.NoError(t, err)
	}

	ev := e.Reset(true)
	assert.True(t, ev.Randomized)
	assert.False(t, e.Running(), "reset stops the engine")
	assert.Equal(t, 0, e.Iteration())
	assert.Equal(t, []Point{ev.Start}, e.Trajectory())
	assert.Equal(t, ev.Start, e.Position())

	// A non-randomized reset still draws a fresh start point.
	ev2 := e.Reset(false)
	assert.False(t, ev2.Randomized)
	assert.NotEqual(t, ev.Start, ev2.Start)
}

func TestReset_RuggedStartPolicy(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	ref := rand.New(rand.NewSource(99))

	e, err := New(Config{Objective: Rugged, Rand: rng})
	require.NoError(t, err)

	coord := func() float64 {
		sign := -1.0
		if ref.Float64() > 0.5 {
			sign = 1
		}
		return sign * (3 + ref.Float64()*1.5)
	}
	wantX := coord()
	wantY := coord()

	p := e.Position()
	assert.Equal(t, wantX, p.X)
	assert.Equal(t, wantY, p.Y)

	for i := 0; i < 200; i++ {
		p := e.Reset(true).Start
		for _, v := range []float64{p.X, p.Y} {
			assert.GreaterOrEqual(t, math.Abs(v), 3.0)
			assert.Less(t, math.Abs(v), 4.5)
		}
	}
}

func TestReset_AckleyStartPolicy(t *testing.T) {
	ref := rand.New(rand.NewSource(17))
	e, err := New(Config{Objective: Ackley, Rand: rand.New(rand.NewSource(17))})
	require.NoError(t, err)

	wantX := ref.Float64()*10 - 5
	wantY := ref.Float64()*10 - 5
	assert.Equal(t, wantX, e.Position().X)
	assert.Equal(t, wantY, e.Position().Y)

	for i := 0; i < 200; i++ {
		p := e.Reset(false).Start
		assert.GreaterOrEqual(t, p.X, -5.0)
		assert.Less(t, p.X, 5.0)
		assert.GreaterOrEqual(t, p.Y, -5.0)
		assert.Less(t, p.Y, 5.0)
	}
}

func TestReset_Reproducible(t *testing.T) {
	a := newEngine(t, Ackley, 7)
	b := newEngine(t, Ackley, 7)
	assert.Equal(t, a.Position(), b.Position())
	assert.Equal(t, a.Reset(true), b.Reset(true))
}

func TestSetLearningRate(t *testing.T) {
	e := newEngine(t, Rugged, 1)

	for _, v := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		err := e.SetLearningRate(v)
		assert.ErrorIs(t, err, ErrInvalidArgument, "value %v", v)
		assert.Equal(t, DefaultLearningRate, e.LearningRate())
	}

	require.NoError(t, e.SetLearningRate(0.1))
	e.Start()
	before := e.Position()
	dx, _ := e.Objective().Gradient(before.X, before.Y)
	p, err := e.Step()
	require.NoError(t, err)
	assert.InDelta(t, before.X-0.1*dx, p.X, 1e-9)

	// Earlier trajectory entries are untouched.
	assert.Equal(t, before, e.Trajectory()[0])
}

func TestSelectObjective(t *testing.T) {
	e := newEngine(t, Rugged, 1)
	before := e.Trajectory()

	assert.ErrorIs(t, e.SelectObjective("sphere"), ErrUnknownObjective)
	assert.Equal(t, Rugged, e.Objective().Name())

	require.NoError(t, e.SelectObjective(Ackley))
	assert.Equal(t, Ackley, e.Objective().Name())
	assert.Equal(t, before, e.Trajectory(), "selecting does not reset")
}

func TestLosses(t *testing.T) {
	e := newEngine(t, Ackley, 2)
	e.Start()
	for i := 0; i < 3; i++ {
		_, err := e.Step()
		require.NoError(t, err)
	}

	traj := e.Trajectory()
	losses := e.Losses()
	require.Len(t, losses, 4)
	for i, p := range traj {
		assert.Equal(t, p.Z, losses[i])
	}
}
