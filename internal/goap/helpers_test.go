package goap_test

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cory-johannsen/homestead/internal/goap"
)

// point is a Target at a fixed position.
type point struct{ pos r3.Vec }

func (p *point) Position() r3.Vec { return p.pos }

// stubAction is a configurable Action. Nil funcs fall back to permissive
// defaults: always runnable, never achieving, no effect.
type stubAction struct {
	goap.Stager
	name    string
	cost    float64
	achieve goap.Flag
	canRun  func(*goap.WorldState) bool
	effect  func(current, target *goap.WorldState) *goap.WorldState
	move    func(*goap.WorldState) goap.Result
	perform func(*goap.WorldState) goap.Result

	calculated int
	performed  int
}

func (a *stubAction) Name() string { return a.name }

func (a *stubAction) CanAchieve(target *goap.WorldState) bool {
	return target.HasAny(a.achieve)
}

func (a *stubAction) CanRun(current *goap.WorldState) bool {
	if a.canRun == nil {
		return true
	}
	return a.canRun(current)
}

func (a *stubAction) CalculateState(current, target *goap.WorldState) *goap.WorldState {
	a.calculated++
	if a.effect == nil {
		return current.Clone()
	}
	return a.effect(current, target)
}

func (a *stubAction) Cost(state *goap.WorldState) float64 { return a.cost }

func (a *stubAction) MoveIntoPosition(current *goap.WorldState) goap.Result {
	if a.move == nil {
		return goap.Complete
	}
	return a.move(current)
}

func (a *stubAction) Perform(current *goap.WorldState) goap.Result {
	a.performed++
	if a.perform == nil {
		return goap.Complete
	}
	return a.perform(current)
}

// setting returns an effect that sets f and binds tgt for the named action.
func setting(name string, f goap.Flag, tgt goap.Target) func(current, target *goap.WorldState) *goap.WorldState {
	return func(current, target *goap.WorldState) *goap.WorldState {
		next := current.Clone()
		next.SetFlag(f)
		if tgt != nil {
			next.SetCurrentTarget(tgt)
			next.SetTargetForAction(name, tgt)
		}
		return next
	}
}

// stubGoal is a Goal with a fixed desired flag set and settable priority.
type stubGoal struct {
	name     string
	priority int
	desired  goap.Flag
	canRun   func(*goap.WorldState) bool

	refreshed int
	desires   int
}

func (g *stubGoal) Name() string  { return g.name }
func (g *stubGoal) Priority() int { return g.priority }

func (g *stubGoal) CanRun(current *goap.WorldState) bool {
	if g.canRun == nil {
		return true
	}
	return g.canRun(current)
}

func (g *stubGoal) RefreshPriority() { g.refreshed++ }

func (g *stubGoal) DesiredState() *goap.WorldState {
	g.desires++
	return goap.NewWorldState(g.desired)
}

// eatingDomain returns the gather-or-withdraw and consume actions used by the
// food scenario.
func eatingDomain() (*stubAction, *stubAction) {
	gather := &stubAction{
		name:    "gather_or_withdraw",
		cost:    12,
		achieve: goap.HoldingFood | goap.HoldingWater | goap.HoldingWood,
		effect: func(current, target *goap.WorldState) *goap.WorldState {
			next := current.Clone()
			if target.HasAny(goap.HoldingFood | goap.ConsumedFood | goap.RestockedFood) {
				next.SetFlag(goap.HoldingFood)
			}
			return next
		},
	}
	consume := &stubAction{
		name:    "consume",
		cost:    5,
		achieve: goap.ConsumedFood | goap.ConsumedWater,
		canRun: func(ws *goap.WorldState) bool {
			return ws.HasAny(goap.HoldingFood | goap.HoldingWater)
		},
		effect: func(current, target *goap.WorldState) *goap.WorldState {
			next := current.Clone()
			switch {
			case current.Has(goap.HoldingFood):
				next.SetFlag(goap.ConsumedFood)
			case current.Has(goap.HoldingWater):
				next.SetFlag(goap.ConsumedWater)
			}
			return next
		},
	}
	return gather, consume
}
