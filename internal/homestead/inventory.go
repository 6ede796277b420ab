package homestead

import (
	"math"

	"github.com/cory-johannsen/homestead/internal/world"
)

// Inventory tracks carried amounts against per-kind capacities.
//
// Invariant: 0 <= carried[k] <= capacity[k].
type Inventory struct {
	capacity map[world.Kind]float64
	carried  map[world.Kind]float64
}

// NewInventory creates an empty inventory. Kinds missing from capacity cannot
// be carried.
func NewInventory(capacity map[world.Kind]float64) *Inventory {
	caps := make(map[world.Kind]float64, len(capacity))
	for k, v := range capacity {
		caps[k] = math.Max(v, 0)
	}
	return &Inventory{capacity: caps, carried: make(map[world.Kind]float64)}
}

// RemainingCapacity returns how much more of kind fits.
func (inv *Inventory) RemainingCapacity(kind world.Kind) float64 {
	return inv.capacity[kind] - inv.carried[kind]
}

// Carried returns the amount of kind held.
func (inv *Inventory) Carried(kind world.Kind) float64 {
	return inv.carried[kind]
}

// AddCarried adds amount, clamped to [0, capacity], and returns the applied change.
func (inv *Inventory) AddCarried(kind world.Kind, amount float64) float64 {
	before := inv.carried[kind]
	after := math.Min(math.Max(before+amount, 0), inv.capacity[kind])
	inv.carried[kind] = after
	return after - before
}

// Take removes and returns everything carried of kind.
func (inv *Inventory) Take(kind world.Kind) float64 {
	amount := inv.carried[kind]
	inv.carried[kind] = 0
	return amount
}
