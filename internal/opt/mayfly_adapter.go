package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/mlvis/internal/descent"
)

// MinPopulation is the smallest population mayfly accepts.
const MinPopulation = 20

// MayflyAdapter runs the mayfly swarm optimizer over an objective's domain.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly-backed optimizer. Populations below
// MinPopulation are raised to it.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	if popSize < MinPopulation {
		popSize = MinPopulation
	}
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Minimize searches the square domain of obj. The objective is evaluated on
// two-element position vectors (w1, w2).
func (m *MayflyAdapter) Minimize(obj descent.Objective) (Result, error) {
	lo, hi := obj.Domain()

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(p []float64) float64 {
		return obj.Value(p[0], p[1])
	}
	config.ProblemSize = 2
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = lo
	config.UpperBound = hi
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return Result{}, fmt.Errorf("mayfly optimize %s: %w", obj.Name(), err)
	}

	best := result.GlobalBest.Position
	return Result{X: best[0], Y: best[1], Loss: result.GlobalBest.Cost}, nil
}
