package homestead

import (
	"math"

	"github.com/cory-johannsen/homestead/internal/world"
)

// NeedsConfig parameterizes Needs. Levels are fractions in [0, 1].
type NeedsConfig struct {
	Food            float64
	Water           float64
	HungerThreshold float64
	ThirstThreshold float64
	// RestorePerUnit is the level regained per unit consumed.
	RestorePerUnit float64
}

// Needs models food and water levels. Levels only change through Restore;
// the hunger and thirst flags are derived from them on every sense.
//
// Invariant: both levels stay in [0, 1].
type Needs struct {
	cfg   NeedsConfig
	food  float64
	water float64
}

// NewNeeds creates a needs model at the configured starting levels.
func NewNeeds(cfg NeedsConfig) *Needs {
	return &Needs{cfg: cfg, food: clamp01(cfg.Food), water: clamp01(cfg.Water)}
}

// Level returns the current level for food or water; 1 for other kinds.
func (n *Needs) Level(kind world.Kind) float64 {
	switch kind {
	case world.Food:
		return n.food
	case world.Water:
		return n.water
	}
	return 1
}

// Hungry reports whether the food level is below the hunger threshold.
func (n *Needs) Hungry() bool { return n.food < n.cfg.HungerThreshold }

// Thirsty reports whether the water level is below the thirst threshold.
func (n *Needs) Thirsty() bool { return n.water < n.cfg.ThirstThreshold }

// Restore raises kind's level by amount consumed.
func (n *Needs) Restore(kind world.Kind, amount float64) {
	gain := amount * n.cfg.RestorePerUnit
	switch kind {
	case world.Food:
		n.food = clamp01(n.food + gain)
	case world.Water:
		n.water = clamp01(n.water + gain)
	}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
