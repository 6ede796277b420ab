package goap

import "gonum.org/v1/gonum/spatial/r3"

// Result is the outcome of ticking an action or a plan.
type Result int

const (
	// Unknown is reported by Plan.Tick after advancing to the next action.
	Unknown Result = iota
	InProgress
	Failed
	Complete
)

// String returns the lowercase result name.
func (r Result) String() string {
	switch r {
	case InProgress:
		return "in_progress"
	case Failed:
		return "failed"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Stage is the two-phase execution cursor of an action.
type Stage int

const (
	AwaitingPosition Stage = iota
	Performing
)

// String returns the lowercase stage name.
func (s Stage) String() string {
	if s == Performing {
		return "performing"
	}
	return "awaiting_position"
}

// Action is a parameterized step the planner can chain.
//
// Invariant: Name is unique among the actions given to one Planner.
type Action interface {
	Name() string
	// CanAchieve reports whether the action is a plausible terminal step toward
	// a state requiring any of target's predicates.
	CanAchieve(target *WorldState) bool
	// CanRun is the precondition gate against the current state.
	CanRun(current *WorldState) bool
	// CalculateState returns the hypothetical state after applying the action,
	// or nil when no world object can be resolved for it. Must not mutate current.
	CalculateState(current, target *WorldState) *WorldState
	// Cost is evaluated on the state returned by CalculateState.
	Cost(state *WorldState) float64

	// MoveIntoPosition reports Complete once the actor has arrived.
	MoveIntoPosition(current *WorldState) Result
	// Perform applies the action's effects through external collaborators.
	Perform(current *WorldState) Result

	Stage() Stage
	SetStage(Stage)
}

// Stager is an embeddable execution-stage cursor implementing Stage/SetStage.
type Stager struct {
	stage Stage
}

// Stage returns the current execution stage.
func (s *Stager) Stage() Stage { return s.stage }

// SetStage replaces the execution stage.
func (s *Stager) SetStage(stage Stage) { s.stage = stage }

// Step advances a's execution state machine by one tick.
//
// A positioning Complete moves the action to Performing and reports InProgress
// for that tick; performing starts on the next tick.
func Step(a Action, current *WorldState) Result {
	switch a.Stage() {
	case AwaitingPosition:
		res := a.MoveIntoPosition(current)
		if res == Complete {
			a.SetStage(Performing)
			return InProgress
		}
		return res
	case Performing:
		return a.Perform(current)
	default:
		return InProgress
	}
}

// Reset returns a to AwaitingPosition.
func Reset(a Action) {
	a.SetStage(AwaitingPosition)
}

// DistanceCost is base plus perDistance times the distance from the state's
// location to its current target. Without a bound target only base is charged.
func DistanceCost(base, perDistance float64, state *WorldState) float64 {
	t := state.CurrentTarget()
	if t == nil {
		return base
	}
	return base + perDistance*r3.Norm(r3.Sub(t.Position(), state.Location()))
}
