// Package anim gates discrete animation steps on wall-clock time.
package anim

import "time"

// DefaultCadence is the pause between steps at the default speed.
const DefaultCadence = time.Second

// Advancer moves a sequence one step forward. It reports atEnd when no
// further step is possible, which stops the driver.
type Advancer interface {
	Advance() (atEnd bool)
}

// AdvanceFunc adapts a function to Advancer.
type AdvanceFunc func() bool

func (f AdvanceFunc) Advance() bool { return f() }

// Driver is a two-state machine, stopped or running, that takes at most one
// step per frame once more than the cadence has elapsed since the previous
// step. It is not safe for concurrent use; callers serialize frames with
// their own mutations.
type Driver struct {
	advancer Advancer
	cadence  time.Duration
	running  bool
	lastStep time.Time
	onStep   func(atEnd bool)
}

// Option configures a Driver.
type Option func(*Driver)

// WithStepHook registers fn to run after every step the driver takes.
func WithStepHook(fn func(atEnd bool)) Option {
	return func(d *Driver) { d.onStep = fn }
}

// New returns a stopped driver. A non-positive cadence uses DefaultCadence.
func New(cadence time.Duration, advancer Advancer, opts ...Option) *Driver {
	if cadence <= 0 {
		cadence = DefaultCadence
	}
	d := &Driver{advancer: advancer, cadence: cadence}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start switches to running and rebases the step clock to now, so time spent
// paused is never counted. It is a no-op while running.
func (d *Driver) Start(now time.Time) {
	if d.running {
		return
	}
	d.running = true
	d.lastStep = now
}

// Stop switches to stopped. It may be called from inside Advance.
func (d *Driver) Stop() {
	d.running = false
}

// OnFrame is called once per rendering opportunity at any rate. It returns
// true when it advanced the sequence.
func (d *Driver) OnFrame(now time.Time) bool {
	if !d.running {
		return false
	}
	if now.Sub(d.lastStep) <= d.cadence {
		return false
	}

	atEnd := d.advancer.Advance()
	d.lastStep = now
	if atEnd {
		d.running = false
	}
	if d.onStep != nil {
		d.onStep(atEnd)
	}
	return true
}

// SetCadence changes the minimum interval between steps.
func (d *Driver) SetCadence(cadence time.Duration) {
	if cadence > 0 {
		d.cadence = cadence
	}
}

func (d *Driver) Cadence() time.Duration { return d.cadence }

func (d *Driver) Running() bool { return d.running }

// CadenceForSpeed maps a speed slider value in [1, 10] to 1100-100·v ms.
// Out-of-range values are clamped.
func CadenceForSpeed(speed int) time.Duration {
	if speed < 1 {
		speed = 1
	}
	if speed > 10 {
		speed = 10
	}
	return time.Duration(1100-100*speed) * time.Millisecond
}
