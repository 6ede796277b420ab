// Package world provides the resource world agents plan against: resource
// sources, storage containers, and the lookup service that finds them.
package world

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind is a resource type.
type Kind string

const (
	Food  Kind = "food"
	Water Kind = "water"
	Wood  Kind = "wood"
)

// Kinds lists every resource kind in a stable order.
var Kinds = []Kind{Food, Water, Wood}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Source is a harvestable resource node.
//
// Invariant: Amount is ignored when Infinite is true; otherwise Amount >= 0.
type Source struct {
	ID       string
	Kind     Kind
	Pos      r3.Vec
	Amount   float64
	Infinite bool
}

// Position implements goap.Target.
func (s *Source) Position() r3.Vec { return s.Pos }

// Depleted reports whether nothing can be harvested.
func (s *Source) Depleted() bool {
	return !s.Infinite && s.Amount <= 0
}

// Harvest removes up to amount and returns what was taken.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= result <= amount.
func (s *Source) Harvest(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if s.Infinite {
		return amount
	}
	taken := math.Min(amount, s.Amount)
	s.Amount -= taken
	return taken
}

// Validate checks the source's fields.
func (s *Source) Validate() error {
	if s.ID == "" {
		return errors.New("source ID must not be empty")
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("source %q: unknown kind %q", s.ID, s.Kind)
	}
	if s.Amount < 0 {
		return fmt.Errorf("source %q: amount must be >= 0, got %v", s.ID, s.Amount)
	}
	return nil
}

// Container stores one kind of resource up to a capacity.
//
// Invariant: 0 <= Stored <= Capacity.
type Container struct {
	ID         string
	Kind       Kind
	Pos        r3.Vec
	Stored     float64
	Capacity   float64
	ExpandStep float64
}

// Position implements goap.Target.
func (c *Container) Position() r3.Vec { return c.Pos }

// Fill returns Stored/Capacity in [0, 1]; 1 when Capacity is zero.
func (c *Container) Fill() float64 {
	if c.Capacity <= 0 {
		return 1
	}
	return c.Stored / c.Capacity
}

// CanStore reports whether the container has room left.
func (c *Container) CanStore() bool { return c.Stored < c.Capacity }

// Store adds up to amount and returns what fit.
//
// Postcondition: Stored never exceeds Capacity.
func (c *Container) Store(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	stored := math.Min(amount, c.Capacity-c.Stored)
	c.Stored += stored
	return stored
}

// Retrieve removes up to amount and returns what was taken.
//
// Postcondition: Stored never drops below zero.
func (c *Container) Retrieve(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	taken := math.Min(amount, c.Stored)
	c.Stored -= taken
	return taken
}

// Expand raises Capacity by ExpandStep.
func (c *Container) Expand() {
	c.Capacity += c.ExpandStep
}

// Validate checks the container's fields.
func (c *Container) Validate() error {
	if c.ID == "" {
		return errors.New("container ID must not be empty")
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("container %q: unknown kind %q", c.ID, c.Kind)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("container %q: capacity must be > 0, got %v", c.ID, c.Capacity)
	}
	if c.Stored < 0 || c.Stored > c.Capacity {
		return fmt.Errorf("container %q: stored %v outside [0, %v]", c.ID, c.Stored, c.Capacity)
	}
	if c.ExpandStep < 0 {
		return fmt.Errorf("container %q: expand_step must be >= 0, got %v", c.ID, c.ExpandStep)
	}
	return nil
}
