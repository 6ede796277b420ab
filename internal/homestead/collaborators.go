// Package homestead implements a resource-gathering agent on top of the goap
// planner: the concrete actions and goals, plus the carrier, mover, and needs
// models they act through.
package homestead

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cory-johannsen/homestead/internal/goap"
	"github.com/cory-johannsen/homestead/internal/world"
)

// Lookup finds world objects for actions.
type Lookup interface {
	NearestSource(kind world.Kind, from r3.Vec) *world.Source
	NearestContainer(kind world.Kind, from r3.Vec, minAmount float64) *world.Container
	NearestContainerWithSpace(kind world.Kind, from r3.Vec) *world.Container
	SmallestContainer(from r3.Vec) *world.Container
}

// Survey reports aggregate storage for sensing.
type Survey interface {
	Stock(kind world.Kind) (stored, capacity float64)
	MaxFill() float64
}

// Environment is everything an agent needs from the world.
type Environment interface {
	Lookup
	Survey
}

// Mover walks the agent toward a destination.
type Mover interface {
	SetDestination(dest r3.Vec)
	AtDestination() bool
}

// Carrier holds the resources an agent is carrying.
type Carrier interface {
	RemainingCapacity(kind world.Kind) float64
	Carried(kind world.Kind) float64
	// AddCarried adds amount (negative to drop) and returns the change applied.
	AddCarried(kind world.Kind, amount float64) float64
	// Consume removes everything carried of kind, applies it, and returns the amount.
	Consume(kind world.Kind) float64
}

func holdingFlag(k world.Kind) goap.Flag {
	switch k {
	case world.Food:
		return goap.HoldingFood
	case world.Water:
		return goap.HoldingWater
	case world.Wood:
		return goap.HoldingWood
	}
	return goap.FlagNone
}

func restockedFlag(k world.Kind) goap.Flag {
	switch k {
	case world.Food:
		return goap.RestockedFood
	case world.Water:
		return goap.RestockedWater
	case world.Wood:
		return goap.RestockedWood
	}
	return goap.FlagNone
}

func restockNeededFlag(k world.Kind) goap.Flag {
	switch k {
	case world.Food:
		return goap.RestockNeededFood
	case world.Water:
		return goap.RestockNeededWater
	case world.Wood:
		return goap.RestockNeededWood
	}
	return goap.FlagNone
}

func consumedFlag(k world.Kind) goap.Flag {
	switch k {
	case world.Food:
		return goap.ConsumedFood
	case world.Water:
		return goap.ConsumedWater
	}
	return goap.FlagNone
}

// wantedKind derives the resource a desired state calls for. Expanded storage
// is built from wood.
func wantedKind(target *goap.WorldState) (world.Kind, bool) {
	switch {
	case target.HasAny(goap.HoldingFood | goap.ConsumedFood | goap.RestockedFood):
		return world.Food, true
	case target.HasAny(goap.HoldingWater | goap.ConsumedWater | goap.RestockedWater):
		return world.Water, true
	case target.HasAny(goap.HoldingWood | goap.RestockedWood | goap.ExpandedStorage):
		return world.Wood, true
	}
	return "", false
}
