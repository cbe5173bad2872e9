package opt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/mlvis/internal/descent"
)

func lookup(t *testing.T, name string) descent.Objective {
	t.Helper()
	obj, err := descent.Lookup(name)
	require.NoError(t, err)
	return obj
}

func TestMayflyAdapter_FindsGlobalMinimum(t *testing.T) {
	cases := []struct {
		name string
		want float64
	}{
		{descent.Rugged, -2},
		{descent.Ackley, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := NewMayfly(200, 30, 42).Minimize(lookup(t, tc.name))
			require.NoError(t, err)

			assert.InDelta(t, tc.want, res.Loss, 0.1)
			assert.Less(t, math.Abs(res.X), 0.5)
			assert.Less(t, math.Abs(res.Y), 0.5)
		})
	}
}

func TestMayflyAdapter_Deterministic(t *testing.T) {
	obj := lookup(t, descent.Ackley)

	r1, err := NewMayfly(50, 20, 123).Minimize(obj)
	require.NoError(t, err)
	r2, err := NewMayfly(50, 20, 123).Minimize(obj)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
}

func TestNewMayfly_RaisesPopulation(t *testing.T) {
	m := NewMayfly(10, 5, 1)
	assert.Equal(t, MinPopulation, m.popSize)
}

func TestGridSearch(t *testing.T) {
	res, err := GridSearch{Resolution: 50}.Minimize(lookup(t, descent.Rugged))
	require.NoError(t, err)

	// The origin lies on the 0.2-spaced grid.
	assert.InDelta(t, 0, res.X, 1e-9)
	assert.InDelta(t, 0, res.Y, 1e-9)
	assert.InDelta(t, -2, res.Loss, 1e-9)
}

func TestGap(t *testing.T) {
	ref := Result{Loss: -2}
	assert.Equal(t, 1.5, Gap(-0.5, ref))
	assert.Equal(t, 0.0, Gap(-3, ref))
}
