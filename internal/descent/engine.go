package descent

import (
	"fmt"
	"math"
	"math/rand"
)

// DefaultSeed seeds the random source when Config.Seed is zero.
const DefaultSeed int64 = 1

// DefaultLearningRate is the step size used when none is configured.
const DefaultLearningRate = 0.01

// Point is one visited position and its loss.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Config configures a new Engine.
type Config struct {
	Objective    string
	LearningRate float64
	Seed         int64
	// Rand overrides Seed when set.
	Rand *rand.Rand
}

// DefaultConfig returns the classroom defaults.
func DefaultConfig() Config {
	return Config{
		Objective:    Rugged,
		LearningRate: DefaultLearningRate,
		Seed:         DefaultSeed,
	}
}

// ResetEvent describes the outcome of a Reset. Randomized mirrors the flag
// the caller passed; the start point is drawn fresh either way.
type ResetEvent struct {
	Randomized bool  `json:"randomized"`
	Start      Point `json:"start"`
}

// Engine runs plain gradient descent on a selectable objective. It is not
// safe for concurrent use.
type Engine struct {
	objective    Objective
	rng          *rand.Rand
	x, y         float64
	learningRate float64
	iteration    int
	running      bool
	trajectory   []Point
}

// New builds an engine and places it at a random start point.
func New(cfg Config) (*Engine, error) {
	if cfg.Objective == "" {
		cfg.Objective = Rugged
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = DefaultLearningRate
	}
	if err := validateLearningRate(cfg.LearningRate); err != nil {
		return nil, err
	}
	obj, err := Lookup(cfg.Objective)
	if err != nil {
		return nil, err
	}

	rng := cfg.Rand
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = DefaultSeed
		}
		rng = rand.New(rand.NewSource(seed))
	}

	e := &Engine{
		objective:    obj,
		rng:          rng,
		learningRate: cfg.LearningRate,
	}
	e.Reset(false)
	return e, nil
}

func validateLearningRate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: learning rate must be positive, got %v", ErrInvalidArgument, v)
	}
	return nil
}

// SelectObjective switches the active objective. Position and trajectory are
// left alone; callers reset when they want a fresh start.
func (e *Engine) SelectObjective(name string) error {
	obj, err := Lookup(name)
	if err != nil {
		return err
	}
	e.objective = obj
	return nil
}

// Reset stops the engine, draws a new start point and restarts the
// trajectory from it. A new point is drawn even when randomize is false.
func (e *Engine) Reset(randomize bool) ResetEvent {
	e.running = false
	e.x, e.y = e.objective.Start(e.rng)
	e.iteration = 0

	start := e.current()
	e.trajectory = []Point{start}
	return ResetEvent{Randomized: randomize, Start: start}
}

// Start marks the engine runnable.
func (e *Engine) Start() { e.running = true }

// Stop marks the engine stopped; Step fails until Start is called.
func (e *Engine) Stop() { e.running = false }

// Running reports whether Step is currently allowed.
func (e *Engine) Running() bool { return e.running }

// Step applies p -= lr * grad(p) once and records the new point.
func (e *Engine) Step() (Point, error) {
	if !e.running {
		return Point{}, ErrNotRunnable
	}

	dx, dy := e.objective.Gradient(e.x, e.y)
	e.x -= e.learningRate * dx
	e.y -= e.learningRate * dy
	e.iteration++

	p := e.current()
	e.trajectory = append(e.trajectory, p)
	return p, nil
}

// Advance steps once and reports true when the engine refused to step, so a
// driver stops alongside a stopped engine.
func (e *Engine) Advance() bool {
	_, err := e.Step()
	return err != nil
}

// SetLearningRate changes the step size used by subsequent steps.
func (e *Engine) SetLearningRate(v float64) error {
	if err := validateLearningRate(v); err != nil {
		return err
	}
	e.learningRate = v
	return nil
}

func (e *Engine) current() Point {
	return Point{X: e.x, Y: e.y, Z: e.objective.Value(e.x, e.y)}
}

// Position returns the current point and its loss.
func (e *Engine) Position() Point { return e.current() }

// Value returns the loss at the current position.
func (e *Engine) Value() float64 { return e.objective.Value(e.x, e.y) }

// Iteration returns the number of steps taken since the last reset.
func (e *Engine) Iteration() int { return e.iteration }

// LearningRate returns the step size applied by the next step.
func (e *Engine) LearningRate() float64 { return e.learningRate }

// Objective returns the active objective.
func (e *Engine) Objective() Objective { return e.objective }

// Trajectory returns a copy of every visited point, start included.
func (e *Engine) Trajectory() []Point {
	return append([]Point(nil), e.trajectory...)
}

// Losses returns the loss column of the trajectory.
func (e *Engine) Losses() []float64 {
	out := make([]float64, len(e.trajectory))
	for i, p := range e.trajectory {
		out[i] = p.Z
	}
	return out
}
