package goap

// MaxPriority is the conventional upper bound of a goal priority.
const MaxPriority = 100

// Goal is a desired partial world state competing for the agent's attention.
type Goal interface {
	// Name identifies the goal in logs and notifications.
	Name() string
	// Priority returns the value computed by the last RefreshPriority.
	Priority() int
	// CanRun reports whether the goal is eligible for selection and planning.
	CanRun(current *WorldState) bool
	// RefreshPriority recomputes the priority from external inputs. Called once
	// per tick for every goal.
	RefreshPriority()
	// DesiredState returns a freshly constructed sparse predicate set.
	DesiredState() *WorldState
}

// ClampPriority bounds p to [0, MaxPriority].
func ClampPriority(p int) int {
	switch {
	case p < 0:
		return 0
	case p > MaxPriority:
		return MaxPriority
	default:
		return p
	}
}
