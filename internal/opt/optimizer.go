// Package opt finds reference minima of descent objectives, so a gradient
// descent run can be judged against the best point a global search finds.
package opt

import "github.com/cwbudde/mlvis/internal/descent"

// Result is the best point an optimizer found.
type Result struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Loss float64 `json:"loss"`
}

// Optimizer searches an objective's domain for its minimum.
type Optimizer interface {
	Minimize(obj descent.Objective) (Result, error)
}

// Gap is how far a descent loss sits above the reference minimum. It is
// never negative; a descent run that beats the reference reports zero.
func Gap(loss float64, ref Result) float64 {
	if loss < ref.Loss {
		return 0
	}
	return loss - ref.Loss
}

// GridSearch evaluates the objective on its plotting grid and keeps the
// lowest sample. It is exact up to the grid spacing and fully deterministic.
type GridSearch struct {
	Resolution int
}

func (g GridSearch) Minimize(obj descent.Objective) (Result, error) {
	s := descent.SampleSurface(obj, g.Resolution)
	best := Result{X: s.X[0], Y: s.Y[0], Loss: s.Z[0][0]}
	for j, row := range s.Z {
		for i, z := range row {
			if z < best.Loss {
				best = Result{X: s.X[i], Y: s.Y[j], Loss: z}
			}
		}
	}
	return best, nil
}
