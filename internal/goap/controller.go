package goap

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// FinishReason explains why the active plan was dropped.
type FinishReason string

const (
	FinishComplete    FinishReason = "complete"
	FinishFailed      FinishReason = "failed"
	FinishInvalidated FinishReason = "invalidated"
)

// Controller owns an agent's persistent WorldState and drives goal selection,
// replanning, and plan execution once per tick.
//
// Invariant: at most one plan is active; it is dropped on Complete, Failed, or
// when it stops being valid.
type Controller struct {
	state   *WorldState
	goals   []Goal
	planner *Planner
	active  *Plan
	logger  *zap.Logger

	goalChanged  []func(goal string)
	planAdopted  []func(*Plan)
	planFinished []func(*Plan, FinishReason)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the controller's logger.
func WithControllerLogger(logger *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInitialState replaces the empty starting state.
func WithInitialState(ws *WorldState) ControllerOption {
	return func(c *Controller) {
		if ws != nil {
			c.state = ws
		}
	}
}

// NewController builds a Controller over goals in registration order.
//
// Precondition: planner must not be nil.
func NewController(planner *Planner, goals []Goal, opts ...ControllerOption) *Controller {
	if planner == nil {
		panic("goap.NewController: planner must not be nil")
	}
	c := &Controller{
		state:   NewWorldState(),
		goals:   goals,
		planner: planner,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnActiveGoalChanged registers fn to receive the goal name whenever
// replanning adopts a plan.
func (c *Controller) OnActiveGoalChanged(fn func(goal string)) {
	c.goalChanged = append(c.goalChanged, fn)
}

// OnPlanAdopted registers fn to receive every adopted plan.
func (c *Controller) OnPlanAdopted(fn func(*Plan)) {
	c.planAdopted = append(c.planAdopted, fn)
}

// OnPlanFinished registers fn to receive every dropped plan and the reason.
func (c *Controller) OnPlanFinished(fn func(*Plan, FinishReason)) {
	c.planFinished = append(c.planFinished, fn)
}

// State returns the persistent world state. Callers outside the tick should
// prefer SetFlag/ClearFlag/SetLocation.
func (c *Controller) State() *WorldState {
	return c.state
}

// ActivePlan returns the plan being executed, or nil.
func (c *Controller) ActivePlan() *Plan {
	return c.active
}

// Goals returns the registered goals in order.
func (c *Controller) Goals() []Goal {
	return c.goals
}

// SetFlag asserts f on the persistent state.
func (c *Controller) SetFlag(f Flag) { c.state.SetFlag(f) }

// ClearFlag retracts f on the persistent state.
func (c *Controller) ClearFlag(f Flag) { c.state.ClearFlag(f) }

// SetLocation moves the persistent state.
func (c *Controller) SetLocation(loc r3.Vec) { c.state.SetLocation(loc) }

// Tick runs one control step: refresh priorities, select a goal, replan if the
// most urgent goal changed, then advance the active plan.
func (c *Controller) Tick() {
	for _, g := range c.goals {
		g.RefreshPriority()
	}

	best := c.selectGoal()
	if c.active == nil || best != c.active.Goal {
		c.replan()
	}

	if c.active == nil {
		return
	}

	if !c.active.IsValid(c.state) {
		c.finish(FinishInvalidated)
		return
	}

	switch c.active.Tick(c.state) {
	case Failed:
		c.finish(FinishFailed)
	case Complete:
		c.finish(FinishComplete)
	}
}

// selectGoal returns the highest-priority runnable goal. The active goal wins
// ties; nil when nothing is active and nothing can run.
func (c *Controller) selectGoal() Goal {
	var best Goal
	if c.active != nil {
		best = c.active.Goal
	}
	for _, g := range c.goals {
		if !g.CanRun(c.state) {
			continue
		}
		if best == nil || g.Priority() > best.Priority() {
			best = g
		}
	}
	return best
}

func (c *Controller) replan() {
	c.state.ClearDirty()

	var adopted *Plan
	for _, g := range c.goals {
		if !g.CanRun(c.state) {
			continue
		}
		plan := c.planner.BuildPlan(c.state, g)
		if plan == nil {
			continue
		}
		if !c.better(plan) {
			continue
		}
		c.active = plan
		adopted = plan
	}

	if adopted == nil {
		return
	}

	adopted.ID = uuid.NewString()
	adopted.ResetActions()
	c.logger.Info("active goal changed",
		zap.String("goal", adopted.Goal.Name()),
		zap.Int("priority", adopted.Goal.Priority()),
		zap.Strings("actions", adopted.Names()),
		zap.Float64("cost", adopted.Cost),
		zap.String("plan_id", adopted.ID),
	)
	for _, fn := range c.goalChanged {
		fn(adopted.Goal.Name())
	}
	for _, fn := range c.planAdopted {
		fn(adopted)
	}
}

// better reports whether candidate should replace the active plan.
func (c *Controller) better(candidate *Plan) bool {
	if c.active == nil {
		return true
	}
	if candidate.Goal.Priority() > c.active.Goal.Priority() {
		return true
	}
	return candidate.Goal == c.active.Goal && candidate.Cost < c.active.Cost
}

func (c *Controller) finish(reason FinishReason) {
	plan := c.active
	c.active = nil
	c.logger.Debug("plan finished",
		zap.String("goal", plan.Goal.Name()),
		zap.String("plan_id", plan.ID),
		zap.String("reason", string(reason)),
	)
	for _, fn := range c.planFinished {
		fn(plan, reason)
	}
}
