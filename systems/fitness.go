package systems

import (
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/creature"
)

// FitnessSystem tracks the running fitness of one creature: the highest
// value, over all ticks so far, of its lowest block's height.
type FitnessSystem struct {
	cfg config.EvaluationConfig

	best    float64
	lowest  float64
	invalid bool
	reason  string
}

// NewFitnessSystem creates a fitness tracker.
func NewFitnessSystem(cfg config.EvaluationConfig) *FitnessSystem {
	return &FitnessSystem{cfg: cfg}
}

// Reset prepares for a new creature.
func (f *FitnessSystem) Reset() {
	f.best, f.lowest, f.invalid, f.reason = 0, 0, false, ""
}

// Update samples the creature at the given elapsed time. Returns false once
// the creature is invalid.
func (f *FitnessSystem) Update(c *creature.Creature, elapsed float64) bool {
	if f.invalid {
		return false
	}
	f.lowest = c.Lowest()

	if f.lowest < -f.cfg.SinkTolerance {
		f.invalidate("sank through ground")
		return false
	}
	if f.lowest > f.best {
		f.best = f.lowest
	}
	if elapsed < f.cfg.InvalidCheckSeconds && f.best > f.cfg.InvalidHeight {
		f.invalidate("implausible early fitness")
		return false
	}
	return true
}

func (f *FitnessSystem) invalidate(reason string) {
	f.invalid = true
	f.reason = reason
	f.best = 0
}

// Fitness returns the running fitness, 0 for an invalid creature.
func (f *FitnessSystem) Fitness() float64 {
	return f.best
}

// Lowest returns the lowest block height seen on the last Update.
func (f *FitnessSystem) Lowest() float64 {
	return f.lowest
}

// Invalid reports whether the creature was rejected, and why.
func (f *FitnessSystem) Invalid() (bool, string) {
	return f.invalid, f.reason
}
