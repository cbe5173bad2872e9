package descent

import "math/rand"

// DefaultResolution is the number of grid intervals per axis.
const DefaultResolution = 50

// Surface is a sampled objective, ready for a 3D plot. Z is indexed
// [row][col] with rows following Y.
type Surface struct {
	Objective string      `json:"objective"`
	X         []float64   `json:"x"`
	Y         []float64   `json:"y"`
	Z         [][]float64 `json:"z"`
}

// SampleSurface evaluates obj on a (resolution+1)² grid spanning its domain.
func SampleSurface(obj Objective, resolution int) Surface {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	lo, hi := obj.Domain()
	step := (hi - lo) / float64(resolution)

	axis := make([]float64, resolution+1)
	for i := range axis {
		axis[i] = lo + float64(i)*step
	}

	z := make([][]float64, len(axis))
	for j, y := range axis {
		row := make([]float64, len(axis))
		for i, x := range axis {
			row[i] = obj.Value(x, y)
		}
		z[j] = row
	}

	return Surface{
		Objective: obj.Name(),
		X:         axis,
		Y:         append([]float64(nil), axis...),
		Z:         z,
	}
}

// ModelLine is the "model performance" panel: the line y = (0.2·w1)x + 0.2·w2
// evaluated at x = -2 and x = 2.
func ModelLine(p Point) (xs, ys [2]float64) {
	xs = [2]float64{-2, 2}
	for i, x := range xs {
		ys[i] = (p.X*0.2)*x + p.Y*0.2
	}
	return xs, ys
}

// TargetData returns the noisy samples around y = 0 the model line is drawn
// against.
func TargetData(rng *rand.Rand) (xs, ys []float64) {
	xs = []float64{-1.5, -1, -0.5, 0, 0.5, 1, 1.5}
	ys = make([]float64, len(xs))
	for i := range ys {
		ys[i] = (rng.Float64() - 0.5) * 0.5
	}
	return xs, ys
}
