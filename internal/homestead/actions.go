package homestead

import (
	"github.com/cory-johannsen/homestead/internal/goap"
	"github.com/cory-johannsen/homestead/internal/world"
)

// Action names.
const (
	ActionGather       = "gather"
	ActionWithdraw     = "withdraw"
	ActionStore        = "store"
	ActionConsumeFood  = "consume_food"
	ActionConsumeWater = "consume_water"
	ActionConstruct    = "construct"
)

// ActionCost is an action's flat cost plus a charge per unit of travel to its target.
type ActionCost struct {
	Base        float64
	PerDistance float64
}

// DefaultActionCosts is used for any action kind a scenario leaves out. Keys are
// action kinds: gather, withdraw, store, consume, construct.
var DefaultActionCosts = map[string]ActionCost{
	"gather":    {Base: 10, PerDistance: 0.5},
	"withdraw":  {Base: 5, PerDistance: 0.5},
	"store":     {Base: 5, PerDistance: 0.5},
	"consume":   {Base: 2},
	"construct": {Base: 20, PerDistance: 0.5},
}

type baseAction struct {
	goap.Stager
	name string
	cost ActionCost
}

func (a *baseAction) Name() string { return a.name }

func (a *baseAction) Cost(state *goap.WorldState) float64 {
	return goap.DistanceCost(a.cost.Base, a.cost.PerDistance, state)
}

// bind records tgt as the object this action operates on.
func (a *baseAction) bind(next *goap.WorldState, tgt goap.Target) *goap.WorldState {
	next.SetCurrentTarget(tgt)
	next.SetTargetForAction(a.name, tgt)
	return next
}

func moveTo(m Mover, current *goap.WorldState) goap.Result {
	tgt := current.CurrentTarget()
	if tgt == nil {
		return goap.Failed
	}
	m.SetDestination(tgt.Position())
	if m.AtDestination() {
		return goap.Complete
	}
	return goap.InProgress
}

const anyHolding = goap.HoldingFood | goap.HoldingWater | goap.HoldingWood

// Gather harvests the nearest source of the resource the desired state calls for.
type Gather struct {
	baseAction
	lookup  Lookup
	mover   Mover
	carrier Carrier
}

// NewGather creates a Gather action.
func NewGather(cost ActionCost, lookup Lookup, mover Mover, carrier Carrier) *Gather {
	return &Gather{baseAction: baseAction{name: ActionGather, cost: cost}, lookup: lookup, mover: mover, carrier: carrier}
}

func (g *Gather) CanAchieve(target *goap.WorldState) bool { return target.HasAny(anyHolding) }

func (g *Gather) CanRun(*goap.WorldState) bool { return true }

func (g *Gather) CalculateState(current, target *goap.WorldState) *goap.WorldState {
	kind, ok := wantedKind(target)
	if !ok {
		return nil
	}
	src := g.lookup.NearestSource(kind, current.Location())
	if src == nil {
		return nil
	}
	next := current.Clone()
	next.SetFlag(holdingFlag(kind))
	return g.bind(next, src)
}

func (g *Gather) MoveIntoPosition(current *goap.WorldState) goap.Result {
	return moveTo(g.mover, current)
}

func (g *Gather) Perform(current *goap.WorldState) goap.Result {
	src, ok := current.CurrentTarget().(*world.Source)
	if !ok {
		return goap.Failed
	}
	got := src.Harvest(g.carrier.RemainingCapacity(src.Kind))
	if got <= 0 {
		return goap.Failed
	}
	g.carrier.AddCarried(src.Kind, got)
	return goap.Complete
}

// Withdraw takes a resource out of the nearest container holding at least the
// configured minimum. It never serves a restock of the same resource.
type Withdraw struct {
	baseAction
	minAmount float64
	lookup    Lookup
	mover     Mover
	carrier   Carrier
}

// NewWithdraw creates a Withdraw action.
func NewWithdraw(cost ActionCost, minAmount float64, lookup Lookup, mover Mover, carrier Carrier) *Withdraw {
	return &Withdraw{
		baseAction: baseAction{name: ActionWithdraw, cost: cost},
		minAmount:  minAmount,
		lookup:     lookup,
		mover:      mover,
		carrier:    carrier,
	}
}

func (w *Withdraw) CanAchieve(target *goap.WorldState) bool { return target.HasAny(anyHolding) }

func (w *Withdraw) CanRun(*goap.WorldState) bool { return true }

func (w *Withdraw) CalculateState(current, target *goap.WorldState) *goap.WorldState {
	kind, ok := wantedKind(target)
	if !ok || target.Has(restockedFlag(kind)) {
		return nil
	}
	c := w.lookup.NearestContainer(kind, current.Location(), w.minAmount)
	if c == nil {
		return nil
	}
	next := current.Clone()
	next.SetFlag(holdingFlag(kind))
	return w.bind(next, c)
}

func (w *Withdraw) MoveIntoPosition(current *goap.WorldState) goap.Result {
	return moveTo(w.mover, current)
}

func (w *Withdraw) Perform(current *goap.WorldState) goap.Result {
	c, ok := current.CurrentTarget().(*world.Container)
	if !ok {
		return goap.Failed
	}
	got := c.Retrieve(w.carrier.RemainingCapacity(c.Kind))
	if got <= 0 {
		return goap.Failed
	}
	w.carrier.AddCarried(c.Kind, got)
	return goap.Complete
}

// Store puts everything carried of one resource into the nearest container of
// that resource with room left.
type Store struct {
	baseAction
	lookup  Lookup
	mover   Mover
	carrier Carrier
}

// NewStore creates a Store action.
func NewStore(cost ActionCost, lookup Lookup, mover Mover, carrier Carrier) *Store {
	return &Store{baseAction: baseAction{name: ActionStore, cost: cost}, lookup: lookup, mover: mover, carrier: carrier}
}

func (s *Store) CanAchieve(target *goap.WorldState) bool {
	return target.HasAny(goap.RestockedFood | goap.RestockedWater | goap.RestockedWood)
}

func (s *Store) CanRun(current *goap.WorldState) bool { return current.HasAny(anyHolding) }

// storedKind prefers the resource the desired state asks for, then the first
// held resource.
func storedKind(current, target *goap.WorldState) (world.Kind, bool) {
	if kind, ok := wantedKind(target); ok && current.Has(holdingFlag(kind)) {
		return kind, true
	}
	for _, kind := range world.Kinds {
		if current.Has(holdingFlag(kind)) {
			return kind, true
		}
	}
	return "", false
}

func (s *Store) CalculateState(current, target *goap.WorldState) *goap.WorldState {
	kind, ok := storedKind(current, target)
	if !ok {
		return nil
	}
	c := s.lookup.NearestContainerWithSpace(kind, current.Location())
	if c == nil {
		return nil
	}
	next := current.Clone()
	next.SetFlag(restockedFlag(kind))
	return s.bind(next, c)
}

func (s *Store) MoveIntoPosition(current *goap.WorldState) goap.Result {
	return moveTo(s.mover, current)
}

func (s *Store) Perform(current *goap.WorldState) goap.Result {
	c, ok := current.CurrentTarget().(*world.Container)
	if !ok {
		return goap.Failed
	}
	stored := c.Store(s.carrier.Carried(c.Kind))
	if stored <= 0 {
		return goap.Failed
	}
	s.carrier.AddCarried(c.Kind, -stored)
	return goap.Complete
}

// Consume eats or drinks everything carried of one resource. It needs no target
// and no movement.
type Consume struct {
	baseAction
	kind    world.Kind
	carrier Carrier
}

// NewConsume creates the Consume action for food or water.
func NewConsume(kind world.Kind, cost ActionCost, carrier Carrier) *Consume {
	return &Consume{
		baseAction: baseAction{name: "consume_" + string(kind), cost: cost},
		kind:       kind,
		carrier:    carrier,
	}
}

func (c *Consume) CanAchieve(target *goap.WorldState) bool { return target.Has(consumedFlag(c.kind)) }

func (c *Consume) CanRun(current *goap.WorldState) bool { return current.Has(holdingFlag(c.kind)) }

func (c *Consume) CalculateState(current, _ *goap.WorldState) *goap.WorldState {
	next := current.Clone()
	next.SetFlag(consumedFlag(c.kind))
	return next
}

// Cost is flat; the state's target belongs to an earlier action.
func (c *Consume) Cost(*goap.WorldState) float64 { return c.cost.Base }

func (c *Consume) MoveIntoPosition(*goap.WorldState) goap.Result { return goap.Complete }

func (c *Consume) Perform(*goap.WorldState) goap.Result {
	if c.carrier.Consume(c.kind) <= 0 {
		return goap.Failed
	}
	return goap.Complete
}

// Construct spends carried wood to expand the smallest container.
type Construct struct {
	baseAction
	lookup  Lookup
	mover   Mover
	carrier Carrier
}

// NewConstruct creates a Construct action.
func NewConstruct(cost ActionCost, lookup Lookup, mover Mover, carrier Carrier) *Construct {
	return &Construct{baseAction: baseAction{name: ActionConstruct, cost: cost}, lookup: lookup, mover: mover, carrier: carrier}
}

func (c *Construct) CanAchieve(target *goap.WorldState) bool { return target.Has(goap.ExpandedStorage) }

func (c *Construct) CanRun(current *goap.WorldState) bool { return current.Has(goap.HoldingWood) }

func (c *Construct) CalculateState(current, _ *goap.WorldState) *goap.WorldState {
	smallest := c.lookup.SmallestContainer(current.Location())
	if smallest == nil {
		return nil
	}
	next := current.Clone()
	next.SetFlag(goap.ExpandedStorage)
	return c.bind(next, smallest)
}

func (c *Construct) MoveIntoPosition(current *goap.WorldState) goap.Result {
	return moveTo(c.mover, current)
}

func (c *Construct) Perform(current *goap.WorldState) goap.Result {
	container, ok := current.CurrentTarget().(*world.Container)
	if !ok {
		return goap.Failed
	}
	if c.carrier.Consume(world.Wood) <= 0 {
		return goap.Failed
	}
	container.Expand()
	return goap.Complete
}
