package homestead

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cory-johannsen/homestead/internal/goap"
	"github.com/cory-johannsen/homestead/internal/journal"
	"github.com/cory-johannsen/homestead/internal/world"
)

// Config describes one agent.
type Config struct {
	Name             string
	Position         r3.Vec
	Speed            float64
	ArrivalTolerance float64
	CarryCapacity    map[world.Kind]float64
	Needs            NeedsConfig
	// RestockThreshold is the total fill of a resource's containers below which
	// RestockNeeded is sensed.
	RestockThreshold float64
	// ExpansionThreshold is the fill of any single container at or above which
	// ExpansionNeeded is sensed.
	ExpansionThreshold float64
	MinContainerAmount float64
	// Costs is keyed by action kind; see DefaultActionCosts.
	Costs map[string]ActionCost
	// Priorities holds base priorities for the restock and upgrade goals.
	Priorities map[string]int
	MaxNodes   int
}

// Validate checks the agent's parameters.
func (c Config) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("agent name must not be empty"))
	}
	if c.Speed <= 0 {
		errs = append(errs, fmt.Errorf("agent %q: speed must be > 0, got %v", c.Name, c.Speed))
	}
	for _, v := range []struct {
		field string
		val   float64
	}{
		{"restock_threshold", c.RestockThreshold},
		{"expansion_threshold", c.ExpansionThreshold},
		{"needs.hunger_threshold", c.Needs.HungerThreshold},
		{"needs.thirst_threshold", c.Needs.ThirstThreshold},
	} {
		if v.val < 0 || v.val > 1 {
			errs = append(errs, fmt.Errorf("agent %q: %s must be in [0, 1], got %v", c.Name, v.field, v.val))
		}
	}
	if c.MinContainerAmount < 0 {
		errs = append(errs, fmt.Errorf("agent %q: min_container_amount must be >= 0", c.Name))
	}
	for kind := range c.Costs {
		if _, ok := DefaultActionCosts[kind]; !ok {
			errs = append(errs, fmt.Errorf("agent %q: unknown action kind %q in costs", c.Name, kind))
		}
	}
	for goal := range c.Priorities {
		if !knownGoal(goal) {
			errs = append(errs, fmt.Errorf("agent %q: unknown goal %q in priorities", c.Name, goal))
		}
	}
	return errors.Join(errs...)
}

func knownGoal(name string) bool {
	for _, g := range GoalNames {
		if g == name {
			return true
		}
	}
	return false
}

func (c Config) cost(kind string) ActionCost {
	if cost, ok := c.Costs[kind]; ok {
		return cost
	}
	return DefaultActionCosts[kind]
}

// PriorityScript supplies scripted goal priorities for an agent scope.
type PriorityScript interface {
	Priority(scope, goal string, metrics map[string]float64) (int, bool)
}

// Status is a point-in-time view of an agent.
type Status struct {
	Name     string
	Tick     int64
	Position r3.Vec
	Food     float64
	Water    float64
	Carried  map[world.Kind]float64
	Flags    string
	Goal     string
	Plan     []string
}

// Agent senses its environment, drives a goap controller, and journals plan
// lifecycle events. An Agent is not safe for concurrent use.
type Agent struct {
	cfg        Config
	env        Environment
	inv        *Inventory
	mover      *KinematicMover
	needs      *Needs
	planner    *goap.Planner
	controller *goap.Controller
	goals      []goap.Goal

	recorder journal.Recorder
	scripts  PriorityScript
	logger   *zap.Logger

	tick    int64
	metrics map[string]float64
	pending []journal.Event
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithLogger sets the agent's logger.
func WithLogger(logger *zap.Logger) AgentOption {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder sets the journal recorder.
func WithRecorder(r journal.Recorder) AgentOption {
	return func(a *Agent) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithScripts enables scripted priorities for the restock and upgrade goals.
func WithScripts(s PriorityScript) AgentOption {
	return func(a *Agent) { a.scripts = s }
}

// NewAgent builds an agent in env.
//
// Precondition: env must not be nil.
// Postcondition: returns an error when cfg is invalid.
func NewAgent(cfg Config, env Environment, opts ...AgentOption) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("homestead.NewAgent: %w", err)
	}
	a := &Agent{
		cfg:      cfg,
		env:      env,
		inv:      NewInventory(cfg.CarryCapacity),
		mover:    NewKinematicMover(cfg.Position, cfg.Speed, cfg.ArrivalTolerance),
		needs:    NewNeeds(cfg.Needs),
		recorder: journal.Nop{},
		logger:   zap.NewNop(),
		metrics:  make(map[string]float64),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("agent", cfg.Name))

	actions := []goap.Action{
		NewGather(cfg.cost("gather"), env, a.mover, a),
		NewWithdraw(cfg.cost("withdraw"), cfg.MinContainerAmount, env, a.mover, a),
		NewStore(cfg.cost("store"), env, a.mover, a),
		NewConsume(world.Food, cfg.cost("consume"), a),
		NewConsume(world.Water, cfg.cost("consume"), a),
		NewConstruct(cfg.cost("construct"), env, a.mover, a),
	}
	plannerOpts := []goap.PlannerOption{goap.WithPlannerLogger(a.logger)}
	if cfg.MaxNodes > 0 {
		plannerOpts = append(plannerOpts, goap.WithMaxNodes(cfg.MaxNodes))
	}
	planner, err := goap.NewPlanner(actions, plannerOpts...)
	if err != nil {
		return nil, fmt.Errorf("homestead.NewAgent: %w", err)
	}
	a.planner = planner

	var override PriorityFunc
	if a.scripts != nil {
		override = a.scriptedPriority
	}
	a.goals = []goap.Goal{
		NewSatisfyHunger(a.needs),
		NewSatisfyThirst(a.needs),
		NewRestockGoal(world.Food, cfg.Priorities[GoalRestockFood], override),
		NewRestockGoal(world.Water, cfg.Priorities[GoalRestockWater], override),
		NewRestockGoal(world.Wood, cfg.Priorities[GoalRestockWood], override),
		NewUpgradeStorage(cfg.Priorities[GoalUpgradeStorage], override),
	}

	a.controller = goap.NewController(planner, a.goals, goap.WithControllerLogger(a.logger))
	a.controller.SetLocation(cfg.Position)
	a.controller.OnActiveGoalChanged(func(goal string) {
		a.pending = append(a.pending, journal.NewEvent(cfg.Name, a.tick, journal.GoalChanged, goal))
	})
	a.controller.OnPlanAdopted(func(p *goap.Plan) {
		a.pending = append(a.pending, a.planEvent(journal.PlanAdopted, p))
	})
	a.controller.OnPlanFinished(func(p *goap.Plan, reason goap.FinishReason) {
		a.pending = append(a.pending, a.planEvent(finishKind(reason), p))
	})
	return a, nil
}

func finishKind(reason goap.FinishReason) journal.Kind {
	switch reason {
	case goap.FinishComplete:
		return journal.PlanComplete
	case goap.FinishFailed:
		return journal.PlanFailed
	default:
		return journal.PlanInvalidated
	}
}

func (a *Agent) planEvent(kind journal.Kind, p *goap.Plan) journal.Event {
	e := journal.NewEvent(a.cfg.Name, a.tick, kind, p.Goal.Name())
	e.PlanID = p.ID
	e.Actions = p.Names()
	e.Cost = p.Cost
	return e
}

func (a *Agent) scriptedPriority(goal string) (int, bool) {
	return a.scripts.Priority(a.cfg.Name, goal, a.metrics)
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.cfg.Name }

// Controller exposes the agent's goap controller.
func (a *Agent) Controller() *goap.Controller { return a.controller }

// Planner exposes the agent's planner.
func (a *Agent) Planner() *goap.Planner { return a.planner }

// Mover returns the agent's mover.
func (a *Agent) Mover() *KinematicMover { return a.mover }

// Needs returns the agent's needs model.
func (a *Agent) Needs() *Needs { return a.needs }

// RemainingCapacity implements Carrier.
func (a *Agent) RemainingCapacity(kind world.Kind) float64 { return a.inv.RemainingCapacity(kind) }

// Carried implements Carrier.
func (a *Agent) Carried(kind world.Kind) float64 { return a.inv.Carried(kind) }

// AddCarried implements Carrier.
func (a *Agent) AddCarried(kind world.Kind, amount float64) float64 {
	return a.inv.AddCarried(kind, amount)
}

// Consume implements Carrier. Food and water restore the matching need.
func (a *Agent) Consume(kind world.Kind) float64 {
	amount := a.inv.Take(kind)
	a.needs.Restore(kind, amount)
	return amount
}

// Tick runs one simulation step: sense, run the controller, move, then journal
// whatever the controller reported.
func (a *Agent) Tick(ctx context.Context) {
	a.tick++
	a.Sense()
	a.controller.Tick()
	a.mover.Step()
	a.flush(ctx)
}

// Sense pushes inventory, needs, storage, and location into the controller
// state and refreshes the script metrics.
func (a *Agent) Sense() {
	set := func(f goap.Flag, on bool) {
		if on {
			a.controller.SetFlag(f)
		} else {
			a.controller.ClearFlag(f)
		}
	}

	for _, kind := range world.Kinds {
		carried := a.inv.Carried(kind)
		set(holdingFlag(kind), carried > 0)
		a.metrics[string(kind)+"_carried"] = carried

		stored, capacity := a.env.Stock(kind)
		fill := 1.0
		if capacity > 0 {
			fill = stored / capacity
		}
		set(restockNeededFlag(kind), capacity > 0 && fill < a.cfg.RestockThreshold)
		a.metrics[string(kind)+"_fill"] = fill
	}
	set(goap.IsHungry, a.needs.Hungry())
	set(goap.IsThirsty, a.needs.Thirsty())

	maxFill := a.env.MaxFill()
	set(goap.ExpansionNeeded, maxFill >= a.cfg.ExpansionThreshold)

	a.metrics["food_level"] = a.needs.Level(world.Food)
	a.metrics["water_level"] = a.needs.Level(world.Water)
	a.metrics["max_fill"] = maxFill
	a.metrics["tick"] = float64(a.tick)

	a.controller.SetLocation(a.mover.Position())
}

func (a *Agent) flush(ctx context.Context) {
	for _, e := range a.pending {
		if err := a.recorder.Record(ctx, e); err != nil {
			a.logger.Warn("recording journal event",
				zap.String("kind", string(e.Kind)),
				zap.String("goal", e.Goal),
				zap.Error(err),
			)
		}
	}
	a.pending = a.pending[:0]
}

// Status snapshots the agent.
func (a *Agent) Status() Status {
	s := Status{
		Name:     a.cfg.Name,
		Tick:     a.tick,
		Position: a.mover.Position(),
		Food:     a.needs.Level(world.Food),
		Water:    a.needs.Level(world.Water),
		Carried:  make(map[world.Kind]float64, len(world.Kinds)),
		Flags:    a.controller.State().Flags().String(),
	}
	for _, kind := range world.Kinds {
		s.Carried[kind] = a.inv.Carried(kind)
	}
	if p := a.controller.ActivePlan(); p != nil {
		s.Goal = p.Goal.Name()
		s.Plan = p.Names()
	}
	return s
}

// Preview is the outcome of planning one goal without adopting it.
type Preview struct {
	Goal     string
	Priority int
	Runnable bool
	Plan     *goap.Plan
	Search   goap.SearchStats
}

// Preview senses, refreshes priorities, and plans every goal against the
// current state. Nothing is adopted or executed.
func (a *Agent) Preview() []Preview {
	a.Sense()
	out := make([]Preview, 0, len(a.goals))
	for _, g := range a.goals {
		g.RefreshPriority()
		p := Preview{Goal: g.Name(), Priority: g.Priority(), Runnable: g.CanRun(a.controller.State())}
		if p.Runnable {
			p.Plan = a.planner.BuildPlan(a.controller.State(), g)
			p.Search = a.planner.LastSearch()
		}
		out = append(out, p)
	}
	return out
}
