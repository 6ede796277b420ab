package homestead

import (
	"math"

	"github.com/cory-johannsen/homestead/internal/goap"
	"github.com/cory-johannsen/homestead/internal/world"
)

// Goal names.
const (
	GoalSatisfyHunger  = "satisfy_hunger"
	GoalSatisfyThirst  = "satisfy_thirst"
	GoalRestockFood    = "restock_food"
	GoalRestockWater   = "restock_water"
	GoalRestockWood    = "restock_wood"
	GoalUpgradeStorage = "upgrade_storage"
)

// GoalNames lists every goal in registration order.
var GoalNames = []string{
	GoalSatisfyHunger,
	GoalSatisfyThirst,
	GoalRestockFood,
	GoalRestockWater,
	GoalRestockWood,
	GoalUpgradeStorage,
}

// Levels reports need levels in [0, 1].
type Levels interface {
	Level(kind world.Kind) float64
}

// NeedGoal is met by consuming a resource. Its priority is
// round(MaxPriority * (1 - level)).
type NeedGoal struct {
	name     string
	kind     world.Kind
	gate     goap.Flag
	levels   Levels
	priority int
}

// NewSatisfyHunger creates the goal that runs while IsHungry is set.
func NewSatisfyHunger(levels Levels) *NeedGoal {
	return &NeedGoal{name: GoalSatisfyHunger, kind: world.Food, gate: goap.IsHungry, levels: levels}
}

// NewSatisfyThirst creates the goal that runs while IsThirsty is set.
func NewSatisfyThirst(levels Levels) *NeedGoal {
	return &NeedGoal{name: GoalSatisfyThirst, kind: world.Water, gate: goap.IsThirsty, levels: levels}
}

func (g *NeedGoal) Name() string  { return g.name }
func (g *NeedGoal) Priority() int { return g.priority }

func (g *NeedGoal) CanRun(current *goap.WorldState) bool { return current.Has(g.gate) }

func (g *NeedGoal) RefreshPriority() {
	level := g.levels.Level(g.kind)
	g.priority = goap.ClampPriority(int(math.Round(goap.MaxPriority * (1 - level))))
}

func (g *NeedGoal) DesiredState() *goap.WorldState {
	return goap.NewWorldState(consumedFlag(g.kind))
}

// PriorityFunc optionally overrides a goal's configured priority.
type PriorityFunc func(goal string) (priority int, ok bool)

// StandingGoal has a configured base priority and runs while a sensed flag is set.
type StandingGoal struct {
	name     string
	gate     goap.Flag
	desired  goap.Flag
	base     int
	override PriorityFunc
	priority int
}

// NewRestockGoal creates restock_<kind>, runnable while RestockNeeded<kind> is set.
func NewRestockGoal(kind world.Kind, base int, override PriorityFunc) *StandingGoal {
	return &StandingGoal{
		name:     "restock_" + string(kind),
		gate:     restockNeededFlag(kind),
		desired:  restockedFlag(kind),
		base:     base,
		override: override,
	}
}

// NewUpgradeStorage creates upgrade_storage, runnable while ExpansionNeeded is set.
func NewUpgradeStorage(base int, override PriorityFunc) *StandingGoal {
	return &StandingGoal{
		name:     GoalUpgradeStorage,
		gate:     goap.ExpansionNeeded,
		desired:  goap.ExpandedStorage,
		base:     base,
		override: override,
	}
}

func (g *StandingGoal) Name() string  { return g.name }
func (g *StandingGoal) Priority() int { return g.priority }

func (g *StandingGoal) CanRun(current *goap.WorldState) bool { return current.Has(g.gate) }

// RefreshPriority applies the override when it reports a value, else the base.
func (g *StandingGoal) RefreshPriority() {
	p := g.base
	if g.override != nil {
		if v, ok := g.override(g.name); ok {
			p = v
		}
	}
	g.priority = goap.ClampPriority(p)
}

func (g *StandingGoal) DesiredState() *goap.WorldState {
	return goap.NewWorldState(g.desired)
}
