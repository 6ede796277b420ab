package goap

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxNodes bounds a single search. The immediate-parent guard does not
// stop longer cycles, so the cap is what guarantees termination.
const DefaultMaxNodes = 4096

// SearchStats describes the most recent BuildPlan call.
type SearchStats struct {
	Goal string
	// Seeded is the number of nodes in the initial open set.
	Seeded int
	// Expanded is the number of nodes removed from the open set and expanded.
	Expanded int
	// Generated is the total number of nodes created.
	Generated int
	// Truncated is true when the node cap stopped the search.
	Truncated bool
}

// node is one arena entry. parent is an index into the same arena, or -1.
type node struct {
	action Action
	state  *WorldState
	cost   float64
	parent int
}

// Planner runs a cost-ordered best-first search over action applications.
//
// Invariant: action names are unique.
type Planner struct {
	actions  []Action
	maxNodes int
	logger   *zap.Logger
	last     SearchStats
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithMaxNodes caps the number of nodes a single search may create. n <= 0
// keeps the default.
func WithMaxNodes(n int) PlannerOption {
	return func(p *Planner) {
		if n > 0 {
			p.maxNodes = n
		}
	}
}

// WithPlannerLogger sets the logger used for search summaries.
func WithPlannerLogger(logger *zap.Logger) PlannerOption {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPlanner constructs a Planner over actions in registration order.
//
// Precondition: every action is non-nil with a unique, non-empty Name.
// Postcondition: returns an error describing the first violation.
func NewPlanner(actions []Action, opts ...PlannerOption) (*Planner, error) {
	seen := make(map[string]struct{}, len(actions))
	for i, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("goap.NewPlanner: action %d is nil", i)
		}
		if a.Name() == "" {
			return nil, fmt.Errorf("goap.NewPlanner: action %d has empty name", i)
		}
		if _, dup := seen[a.Name()]; dup {
			return nil, fmt.Errorf("goap.NewPlanner: duplicate action name %q", a.Name())
		}
		seen[a.Name()] = struct{}{}
	}
	p := &Planner{
		actions:  actions,
		maxNodes: DefaultMaxNodes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Actions returns the registered actions in order.
func (p *Planner) Actions() []Action {
	return p.actions
}

// LastSearch reports statistics for the most recent BuildPlan call.
func (p *Planner) LastSearch() SearchStats {
	return p.last
}

// BuildPlan searches for the cheapest chain of actions that takes current to a
// state achieving goal's desired state.
//
// Precondition: current and goal must not be nil. current is not modified.
// Postcondition: returns nil when the goal is already met, no terminal action
// exists, the open set empties, or the node cap is reached.
func (p *Planner) BuildPlan(current *WorldState, goal Goal) *Plan {
	p.last = SearchStats{Goal: goal.Name()}

	working := current.Clone()
	target := goal.DesiredState()
	if working.Equal(target) {
		return nil
	}

	if !p.hasTerminalAction(target) {
		p.logger.Debug("no terminal action",
			zap.String("goal", goal.Name()),
			zap.Stringer("target", target),
		)
		return nil
	}

	var arena []node
	var open []int
	open = p.expand(&arena, open, working, target, -1)
	p.last.Seeded = len(open)

	for len(open) > 0 {
		best := 0
		for i := 1; i < len(open); i++ {
			if arena[open[i]].cost < arena[open[best]].cost {
				best = i
			}
		}
		idx := open[best]

		if arena[idx].state.Achieves(target) {
			plan := materialize(goal, arena, idx)
			p.logger.Debug("plan found",
				zap.String("goal", goal.Name()),
				zap.Strings("actions", plan.Names()),
				zap.Float64("cost", plan.Cost),
				zap.Int("generated", p.last.Generated),
			)
			return plan
		}

		if len(arena) >= p.maxNodes {
			p.last.Truncated = true
			p.logger.Warn("plan search truncated",
				zap.String("goal", goal.Name()),
				zap.Int("nodes", len(arena)),
			)
			return nil
		}

		open = append(open[:best], open[best+1:]...)
		p.last.Expanded++
		open = p.expand(&arena, open, arena[idx].state, target, idx)
	}

	p.logger.Debug("no plan",
		zap.String("goal", goal.Name()),
		zap.Int("generated", p.last.Generated),
	)
	return nil
}

func (p *Planner) hasTerminalAction(target *WorldState) bool {
	for _, a := range p.actions {
		if a.CanAchieve(target) {
			return true
		}
	}
	return false
}

// expand applies every runnable action to state and appends the surviving
// children to the arena and the open set.
func (p *Planner) expand(arena *[]node, open []int, state, target *WorldState, parent int) []int {
	var parentAction Action
	var parentCost float64
	if parent >= 0 {
		parentAction = (*arena)[parent].action
		parentCost = (*arena)[parent].cost
	}

	for _, a := range p.actions {
		if !a.CanRun(state) {
			continue
		}
		if parentAction != nil && parentAction.Name() == a.Name() {
			continue
		}
		next := a.CalculateState(state, target)
		if next == nil || !next.Dirty() {
			continue
		}
		*arena = append(*arena, node{
			action: a,
			state:  next,
			cost:   parentCost + a.Cost(next),
			parent: parent,
		})
		p.last.Generated++
		open = append(open, len(*arena)-1)
	}
	return open
}

// materialize walks parent links from idx and returns the plan in
// root-to-goal order.
func materialize(goal Goal, arena []node, idx int) *Plan {
	depth := 0
	for i := idx; i >= 0; i = arena[i].parent {
		depth++
	}
	actions := make([]Action, depth)
	for i := idx; i >= 0; i = arena[i].parent {
		depth--
		actions[depth] = arena[i].action
	}
	return newPlan(goal, actions, arena[idx].cost, arena[idx].state)
}
