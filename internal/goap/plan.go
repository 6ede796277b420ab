package goap

import (
	"fmt"
	"strings"
)

// Plan is a realized action sequence toward a goal.
//
// Invariant: Actions is non-empty and in execution order.
type Plan struct {
	// ID is assigned by the controller when the plan is adopted.
	ID      string
	Goal    Goal
	Actions []Action
	Cost    float64
	// Desired is the terminal search state; it carries the target each action
	// was planned against.
	Desired *WorldState

	cursor int
}

func newPlan(goal Goal, actions []Action, cost float64, desired *WorldState) *Plan {
	return &Plan{
		Goal:    goal,
		Actions: actions,
		Cost:    cost,
		Desired: desired,
		cursor:  -1,
	}
}

// ActiveAction returns the action under the cursor, or nil before the first
// tick and after completion.
func (p *Plan) ActiveAction() Action {
	if p.cursor < 0 || p.cursor >= len(p.Actions) {
		return nil
	}
	return p.Actions[p.cursor]
}

// Tick runs the active action for one tick.
//
// Postcondition: Failed propagates immediately; Complete is returned only once
// the last action completes; Unknown means the cursor advanced.
func (p *Plan) Tick(current *WorldState) Result {
	if p.cursor < 0 {
		p.cursor = 0
		p.bindTarget(current)
	}

	switch Step(p.ActiveAction(), current) {
	case Failed:
		return Failed
	case InProgress:
		return InProgress
	case Complete:
		p.cursor++
		if p.cursor >= len(p.Actions) {
			return Complete
		}
		p.bindTarget(current)
	}
	return Unknown
}

func (p *Plan) bindTarget(current *WorldState) {
	current.SetCurrentTarget(p.Desired.TargetForAction(p.ActiveAction().Name()))
}

// ResetActions returns every action to AwaitingPosition. Call once when the plan
// becomes active.
func (p *Plan) ResetActions() {
	for _, a := range p.Actions {
		Reset(a)
	}
}

// IsValid reports whether the goal can still run and every action can still
// achieve the plan's desired state. The check is whole-plan, not per step.
func (p *Plan) IsValid(current *WorldState) bool {
	if !p.Goal.CanRun(current) {
		return false
	}
	for _, a := range p.Actions {
		if !a.CanAchieve(p.Desired) {
			return false
		}
	}
	return true
}

// Names returns the action names in order.
func (p *Plan) Names() []string {
	out := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		out[i] = a.Name()
	}
	return out
}

// String renders the goal, sequence, and cost.
func (p *Plan) String() string {
	return fmt.Sprintf("%s: %s (cost %.2f)", p.Goal.Name(), strings.Join(p.Names(), " -> "), p.Cost)
}
