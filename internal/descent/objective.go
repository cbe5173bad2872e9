package descent

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Objective is a bivariate loss surface with an analytic gradient.
type Objective interface {
	Name() string
	Value(x, y float64) float64
	Gradient(x, y float64) (dx, dy float64)
	// Domain is the square [lo, hi] x [lo, hi] the surface is shown on.
	Domain() (lo, hi float64)
	// Start draws a starting point from rng.
	Start(rng *rand.Rand) (x, y float64)
}

const (
	Rugged = "rugged"
	Ackley = "ackley"
)

// Lookup returns the registered objective with the given name.
func Lookup(name string) (Objective, error) {
	switch name {
	case Rugged:
		return rugged{}, nil
	case Ackley:
		return ackley{a: 20, b: 0.2, c: 2 * math.Pi}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjective, name)
	}
}

// Names lists the registered objectives in sorted order.
func Names() []string {
	names := []string{Rugged, Ackley}
	sort.Strings(names)
	return names
}

// rugged is a paraboloid with cosine ripples: f = x²+y² - cos3x - cos3y.
type rugged struct{}

func (rugged) Name() string { return Rugged }

func (rugged) Value(x, y float64) float64 {
	return x*x + y*y - math.Cos(3*x) - math.Cos(3*y)
}

func (rugged) Gradient(x, y float64) (float64, float64) {
	return 2*x + 3*math.Sin(3*x), 2*y + 3*math.Sin(3*y)
}

func (rugged) Domain() (float64, float64) { return -5, 5 }

// Start places each coordinate at magnitude [3, 4.5) with a random sign, so
// the walk begins outside the central basin. Draw order is sign then
// magnitude, w1 before w2.
func (rugged) Start(rng *rand.Rand) (float64, float64) {
	coord := func() float64 {
		sign := -1.0
		if rng.Float64() > 0.5 {
			sign = 1
		}
		return sign * (3 + rng.Float64()*1.5)
	}
	x := coord()
	y := coord()
	return x, y
}

type ackley struct {
	a, b, c float64
}

func (ackley) Name() string { return Ackley }

func (f ackley) Value(x, y float64) float64 {
	term1 := -f.a * math.Exp(-f.b*math.Sqrt(0.5*(x*x+y*y)))
	term2 := -math.Exp(0.5 * (math.Cos(f.c*x) + math.Cos(f.c*y)))
	return term1 + term2 + f.a + math.E
}

// Gradient is zero at the origin, where the radial term divides by zero.
func (f ackley) Gradient(x, y float64) (float64, float64) {
	r := math.Sqrt(0.5 * (x*x + y*y))
	if r < 1e-15 {
		return 0, 0
	}

	exp1 := math.Exp(-f.b * r)
	exp2 := math.Exp(0.5 * (math.Cos(f.c*x) + math.Cos(f.c*y)))

	dx := (2*x*exp1)/r + math.Pi*exp2*math.Sin(f.c*x)
	dy := (2*y*exp1)/r + math.Pi*exp2*math.Sin(f.c*y)
	return dx, dy
}

func (ackley) Domain() (float64, float64) { return -5, 5 }

// Start draws each coordinate uniformly over the domain, w1 first.
func (f ackley) Start(rng *rand.Rand) (float64, float64) {
	lo, hi := f.Domain()
	x := rng.Float64()*(hi-lo) + lo
	y := rng.Float64()*(hi-lo) + lo
	return x, y
}
