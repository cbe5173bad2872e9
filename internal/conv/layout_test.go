package conv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine1D_MapCoordinateToStep(t *testing.T) {
	e, err := New1D(Preset1D())
	require.NoError(t, err)

	// 800x400 canvas: pitch 60, 10 inputs span 600 units, so StartX = 100.
	l := e.DefaultLayout1D(800, 400)
	require.Equal(t, 100.0, l.StartX)
	require.Equal(t, 120.0, l.InputY)
	require.Equal(t, 240.0, l.OutputY)

	// Output box 0 starts at StartX + (3*60-10)/2 - 25 = 160.
	assert.Equal(t, 160.0, l.OutputX(0, 3))

	cases := []struct {
		name string
		x, y float64
		want int
		ok   bool
	}{
		{"first output box", 165, 250, 0, true},
		{"fourth output box", 160 + 3*60 + 1, 260, 3, true},
		{"left of output row", 150, 250, 0, false},
		{"input index 0 clamps", 101, 130, 0, true},
		{"input index 5 centres", 100 + 5*60 + 5, 130, 4, true},
		{"input index 9 clamps", 100 + 9*60 + 5, 130, 7, true},
		{"kernel row is not hit", 200, 45, 0, false},
		{"below everything", 200, 399, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			step, ok := e.MapCoordinateToStep(l, tc.x, tc.y)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, step)
			}
		})
	}
}

func TestEngine2D_MapCoordinateToStep(t *testing.T) {
	e, err := New2DFromRows(Preset2D())
	require.NoError(t, err)

	// 1000x500 canvas: pitch 45.
	l := e.DefaultLayout2D(1000, 500)
	require.Equal(t, 100.0, l.InputX)
	require.Equal(t, 137.5, l.InputY)
	require.Equal(t, 600.0, l.OutputX)
	require.Equal(t, 182.5, l.OutputY)

	cases := []struct {
		name string
		x, y float64
		want int
		ok   bool
	}{
		{"output (0,0)", 601, 183, 0, true},
		{"output (2,1)", 600 + 45 + 5, 182.5 + 90 + 5, 7, true},
		{"input centre", 100 + 2*45 + 5, 137.5 + 2*45 + 5, 4, true},
		{"input corner clamps", 101, 138, 0, true},
		{"input bottom right clamps", 100 + 4*45 + 5, 137.5 + 4*45 + 5, 8, true},
		{"between grids", 450, 250, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			step, ok := e.MapCoordinateToStep(l, tc.x, tc.y)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, step)
			}
		})
	}
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()

	path1 := filepath.Join(dir, "one.json")
	require.NoError(t, os.WriteFile(path1, []byte(`{"input":[1,2,3,4],"kernel":[1,1]}`), 0644))
	e1, err := Load1D(path1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5, 7}, e1.Compute())

	path2 := filepath.Join(dir, "two.json")
	require.NoError(t, os.WriteFile(path2, []byte(`{"input":[[1,2],[3,4]],"kernel":[[1]]}`), 0644))
	e2, err := Load2D(path2)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, e2.OutputRows())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"input":[1],"kernel":[1,2]}`), 0644))
	_, err = Load1D(bad)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = Load1D(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	def, err := Load2D("")
	require.NoError(t, err)
	assert.Equal(t, 9, def.TotalSteps())
}
