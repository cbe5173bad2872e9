package tui

import "github.com/charmbracelet/harmonica"

// easedValue glides toward a target on a critically damped spring, so
// markers slide between cells instead of jumping.
type easedValue struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	primed bool
}

func newEasedValue() *easedValue {
	return &easedValue{spring: harmonica.NewSpring(harmonica.FPS(FPS), 8.0, 1.0)}
}

// Update advances one frame toward target and returns the new position.
// The first call snaps to the target.
func (e *easedValue) Update(target float64) float64 {
	if !e.primed {
		e.pos, e.vel, e.primed = target, 0, true
		return e.pos
	}
	e.pos, e.vel = e.spring.Update(e.pos, e.vel, target)
	return e.pos
}

// Value returns the current eased position.
func (e *easedValue) Value() float64 { return e.pos }
