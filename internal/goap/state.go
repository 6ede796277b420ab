// Package goap implements goal-oriented action planning: a predicate world
// state, goal and action contracts, a cost-ordered best-first planner, and the
// per-tick controller that selects goals and executes plans.
//
// Everything in this package is single-threaded. The controller's WorldState is
// passed explicitly into every planner, action, and goal call.
package goap

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Flag is a bitset over the fixed predicate set.
type Flag uint32

const (
	FlagNone Flag = 0

	// Character predicates; may persist across ticks.
	HoldingFood  Flag = 0x00000001
	HoldingWater Flag = 0x00000002
	HoldingWood  Flag = 0x00000004
	IsHungry     Flag = 0x00000008
	IsThirsty    Flag = 0x00000010

	// Global predicates; may persist across ticks.
	ExpansionNeeded    Flag = 0x00000100
	RestockNeededFood  Flag = 0x00000200
	RestockNeededWater Flag = 0x00000400
	RestockNeededWood  Flag = 0x00000800

	// Planning-only predicates.
	RestockedFood   Flag = 0x00010000
	RestockedWater  Flag = 0x00020000
	RestockedWood   Flag = 0x00040000
	ExpandedStorage Flag = 0x00080000
	ConsumedFood    Flag = 0x00100000
	ConsumedWater   Flag = 0x00200000
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{HoldingFood, "holding_food"},
	{HoldingWater, "holding_water"},
	{HoldingWood, "holding_wood"},
	{IsHungry, "is_hungry"},
	{IsThirsty, "is_thirsty"},
	{ExpansionNeeded, "expansion_needed"},
	{RestockNeededFood, "restock_needed_food"},
	{RestockNeededWater, "restock_needed_water"},
	{RestockNeededWood, "restock_needed_wood"},
	{RestockedFood, "restocked_food"},
	{RestockedWater, "restocked_water"},
	{RestockedWood, "restocked_wood"},
	{ExpandedStorage, "expanded_storage"},
	{ConsumedFood, "consumed_food"},
	{ConsumedWater, "consumed_water"},
}

// AllFlags is every named predicate in declaration order.
func AllFlags() []Flag {
	out := make([]Flag, len(flagNames))
	for i, fn := range flagNames {
		out[i] = fn.flag
	}
	return out
}

// ParseFlag returns the flag for a snake_case predicate name.
func ParseFlag(name string) (Flag, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return FlagNone, false
}

// String joins the names of all set predicates with "|"; "none" when empty.
func (f Flag) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag == fn.flag {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Target is a handle to a world object an action operates on. The planner never
// owns targets; clones share the same handles.
type Target interface {
	Position() r3.Vec
}

// WorldState is a predicate snapshot plus the bookkeeping the planner
// accumulates while searching.
//
// Invariant: equality and Achieves consider flags only.
type WorldState struct {
	flags    Flag
	location r3.Vec
	dirty    bool

	currentTarget Target

	// actionTargets is shared between clones until one side writes.
	actionTargets map[string]Target
	ownsTargets   bool
}

// NewWorldState returns an empty state with the given flags set. The result is
// not dirty.
func NewWorldState(flags ...Flag) *WorldState {
	ws := &WorldState{}
	for _, f := range flags {
		ws.flags |= f
	}
	return ws
}

// Clone returns an independent copy with a clear dirty bit.
//
// Postcondition: mutating the copy's flags, location, or action targets never
// affects ws and vice versa.
func (ws *WorldState) Clone() *WorldState {
	ws.ownsTargets = false
	return &WorldState{
		flags:         ws.flags,
		location:      ws.location,
		currentTarget: ws.currentTarget,
		actionTargets: ws.actionTargets,
	}
}

// Flags returns the raw predicate bitset.
func (ws *WorldState) Flags() Flag {
	return ws.flags
}

// Has reports whether every bit of f is set.
func (ws *WorldState) Has(f Flag) bool {
	return ws.flags&f == f
}

// HasAny reports whether at least one bit of f is set.
func (ws *WorldState) HasAny(f Flag) bool {
	return ws.flags&f != 0
}

// SetFlag asserts f. Marks the state dirty only if a bit changed.
func (ws *WorldState) SetFlag(f Flag) {
	if ws.flags|f != ws.flags {
		ws.dirty = true
	}
	ws.flags |= f
}

// ClearFlag retracts f. Marks the state dirty only if a bit changed.
func (ws *WorldState) ClearFlag(f Flag) {
	if ws.flags&f != 0 {
		ws.dirty = true
	}
	ws.flags &^= f
}

// Location returns the advisory location.
func (ws *WorldState) Location() r3.Vec {
	return ws.location
}

// SetLocation moves the state. Marks the state dirty only on change.
func (ws *WorldState) SetLocation(loc r3.Vec) {
	if loc != ws.location {
		ws.dirty = true
	}
	ws.location = loc
}

// Dirty reports whether the latest mutation changed flags or location.
func (ws *WorldState) Dirty() bool {
	return ws.dirty
}

// ClearDirty resets the dirty bit.
func (ws *WorldState) ClearDirty() {
	ws.dirty = false
}

// CurrentTarget returns the target bound by the most recent transition, or nil.
func (ws *WorldState) CurrentTarget() Target {
	return ws.currentTarget
}

// SetCurrentTarget binds t as the current target. Does not affect dirty.
func (ws *WorldState) SetCurrentTarget(t Target) {
	ws.currentTarget = t
}

// SetTargetForAction records t as the object the named action operates on.
func (ws *WorldState) SetTargetForAction(action string, t Target) {
	if !ws.ownsTargets {
		copied := make(map[string]Target, len(ws.actionTargets)+1)
		for k, v := range ws.actionTargets {
			copied[k] = v
		}
		ws.actionTargets = copied
		ws.ownsTargets = true
	}
	ws.actionTargets[action] = t
}

// TargetForAction returns the target recorded for the named action, or nil.
func (ws *WorldState) TargetForAction(action string) Target {
	return ws.actionTargets[action]
}

// Equal compares flags only.
func (ws *WorldState) Equal(other *WorldState) bool {
	if other == nil {
		return false
	}
	return ws.flags == other.flags
}

// Achieves reports whether every predicate set in other is set in ws.
func (ws *WorldState) Achieves(other *WorldState) bool {
	return ws.flags&other.flags == other.flags
}

// String renders the flag set.
func (ws *WorldState) String() string {
	return ws.flags.String()
}
