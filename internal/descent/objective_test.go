package descent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		obj, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, obj.Name())

		lo, hi := obj.Domain()
		assert.Equal(t, -5.0, lo)
		assert.Equal(t, 5.0, hi)
	}

	_, err := Lookup("")
	assert.ErrorIs(t, err, ErrUnknownObjective)
}

func TestRugged(t *testing.T) {
	obj, err := Lookup(Rugged)
	require.NoError(t, err)

	assert.InDelta(t, -2.0, obj.Value(0, 0), 1e-12)
	dx, dy := obj.Gradient(0, 0)
	assert.Equal(t, 0.0, dx)
	assert.Equal(t, 0.0, dy)

	dx, dy = obj.Gradient(1, -2)
	assert.InDelta(t, 2+3*math.Sin(3), dx, 1e-12)
	assert.InDelta(t, -4+3*math.Sin(-6), dy, 1e-12)
}

func TestAckley(t *testing.T) {
	obj, err := Lookup(Ackley)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, obj.Value(0, 0), 1e-12)

	dx, dy := obj.Gradient(0, 0)
	assert.Equal(t, 0.0, dx)
	assert.Equal(t, 0.0, dy)
	assert.False(t, math.IsNaN(dx))

	// Analytic gradient agrees with central differences away from the origin.
	const h = 1e-6
	for _, p := range [][2]float64{{1.3, -0.7}, {-2.2, 3.1}, {0.4, 0.45}} {
		x, y := p[0], p[1]
		dx, dy := obj.Gradient(x, y)
		numX := (obj.Value(x+h, y) - obj.Value(x-h, y)) / (2 * h)
		numY := (obj.Value(x, y+h) - obj.Value(x, y-h)) / (2 * h)
		assert.InDelta(t, numX, dx, 1e-4, "dx at %v", p)
		assert.InDelta(t, numY, dy, 1e-4, "dy at %v", p)
	}
}

func TestSampleSurface(t *testing.T) {
	obj, err := Lookup(Rugged)
	require.NoError(t, err)

	s := SampleSurface(obj, 50)
	require.Len(t, s.X, 51)
	require.Len(t, s.Z, 51)
	assert.Equal(t, -5.0, s.X[0])
	assert.InDelta(t, 5.0, s.X[50], 1e-12)
	assert.Equal(t, obj.Value(s.X[3], s.Y[7]), s.Z[7][3])

	def := SampleSurface(obj, 0)
	assert.Len(t, def.X, DefaultResolution+1)
}

func TestModelLine(t *testing.T) {
	xs, ys := ModelLine(Point{X: 5, Y: -5})
	assert.Equal(t, [2]float64{-2, 2}, xs)
	assert.InDelta(t, -3.0, ys[0], 1e-12)
	assert.InDelta(t, 1.0, ys[1], 1e-12)
}
