package descent

import (
	"log/slog"
	"math"
)

// ConvergenceConfig controls plateau detection on the loss curve.
type ConvergenceConfig struct {
	Enabled bool

	// Patience is how many consecutive steps may pass without a significant
	// improvement before the run counts as converged.
	Patience int

	// Threshold is the minimum relative improvement, measured against the
	// magnitude of the last significant loss. Losses may be negative.
	Threshold float64
}

// DefaultConvergenceConfig returns a conservative plateau detector.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  25,
		Threshold: 1e-6,
	}
}

// ConvergenceTracker watches successive losses and reports a plateau.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	seen            int
	best            float64
	lastSignificant float64
	stale           int
}

func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	t := &ConvergenceTracker{config: config}
	t.Reset()
	return t
}

// Update records loss and returns true once the run has converged.
func (t *ConvergenceTracker) Update(loss float64) bool {
	if !t.config.Enabled {
		return false
	}

	t.seen++
	if loss < t.best {
		t.best = loss
	}
	if t.seen == 1 {
		t.lastSignificant = loss
		return false
	}

	scale := math.Max(math.Abs(t.lastSignificant), 1e-12)
	improvement := (t.lastSignificant - loss) / scale

	if improvement >= t.config.Threshold {
		t.lastSignificant = loss
		t.stale = 0
		return false
	}

	t.stale++
	slog.Debug("No significant loss improvement",
		"loss", loss,
		"last_significant", t.lastSignificant,
		"relative_improvement", improvement,
		"stale_count", t.stale,
	)
	if t.stale >= t.config.Patience {
		slog.Info("Descent converged",
			"stale_count", t.stale,
			"patience", t.config.Patience,
			"best_loss", t.best,
		)
		return true
	}
	return false
}

// Best returns the lowest loss seen.
func (t *ConvergenceTracker) Best() float64 { return t.best }

// StaleCount returns the number of steps since the last significant improvement.
func (t *ConvergenceTracker) StaleCount() int { return t.stale }

// Reset forgets all recorded losses.
func (t *ConvergenceTracker) Reset() {
	t.seen = 0
	t.best = math.Inf(1)
	t.lastSignificant = math.Inf(1)
	t.stale = 0
}
