package world

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// World indexes sources and containers and answers nearest/smallest queries.
// Lookups and registration are safe for concurrent use; mutating a returned
// Source or Container is the caller's responsibility.
type World struct {
	mu         sync.RWMutex
	sources    []*Source
	containers []*Container
	ids        map[string]struct{}
}

// New creates a World from sources and containers.
//
// Postcondition: returns an error on an invalid entry or a duplicate ID.
func New(sources []*Source, containers []*Container) (*World, error) {
	w := &World{ids: make(map[string]struct{})}
	for _, s := range sources {
		if err := w.AddSource(s); err != nil {
			return nil, err
		}
	}
	for _, c := range containers {
		if err := w.AddContainer(c); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *World) claim(id string) error {
	if _, dup := w.ids[id]; dup {
		return fmt.Errorf("world: duplicate object ID %q", id)
	}
	w.ids[id] = struct{}{}
	return nil
}

// AddSource registers s.
func (w *World) AddSource(s *Source) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.claim(s.ID); err != nil {
		return err
	}
	w.sources = append(w.sources, s)
	return nil
}

// AddContainer registers c.
func (w *World) AddContainer(c *Container) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.claim(c.ID); err != nil {
		return err
	}
	w.containers = append(w.containers, c)
	return nil
}

// Sources returns the registered sources in registration order.
func (w *World) Sources() []*Source {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Source(nil), w.sources...)
}

// Containers returns the registered containers in registration order.
func (w *World) Containers() []*Container {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Container(nil), w.containers...)
}

// NearestSource returns the closest non-depleted source of kind, or nil.
// Ties go to the earlier registration.
func (w *World) NearestSource(kind Kind, from r3.Vec) *Source {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var best *Source
	bestDist := 0.0
	for _, s := range w.sources {
		if s.Kind != kind || s.Depleted() {
			continue
		}
		d := r3.Norm(r3.Sub(s.Pos, from))
		if best == nil || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

// NearestContainer returns the closest container of kind holding at least
// minAmount, or nil. Ties go to the earlier registration.
func (w *World) NearestContainer(kind Kind, from r3.Vec, minAmount float64) *Container {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var best *Container
	bestDist := 0.0
	for _, c := range w.containers {
		if c.Kind != kind || c.Stored < minAmount {
			continue
		}
		d := r3.Norm(r3.Sub(c.Pos, from))
		if best == nil || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// NearestContainerWithSpace returns the closest container of kind that can
// still store something, or nil. Ties go to the earlier registration.
func (w *World) NearestContainerWithSpace(kind Kind, from r3.Vec) *Container {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var best *Container
	bestDist := 0.0
	for _, c := range w.containers {
		if c.Kind != kind || !c.CanStore() {
			continue
		}
		d := r3.Norm(r3.Sub(c.Pos, from))
		if best == nil || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// SmallestContainer returns the container with the lowest capacity, or nil.
// Ties go to the closer container, then the earlier registration.
func (w *World) SmallestContainer(from r3.Vec) *Container {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var best *Container
	bestDist := 0.0
	for _, c := range w.containers {
		d := r3.Norm(r3.Sub(c.Pos, from))
		switch {
		case best == nil,
			c.Capacity < best.Capacity,
			c.Capacity == best.Capacity && d < bestDist:
			best, bestDist = c, d
		}
	}
	return best
}

// Stock returns the total stored amount and capacity of every container of kind.
func (w *World) Stock(kind Kind) (stored, capacity float64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, c := range w.containers {
		if c.Kind == kind {
			stored += c.Stored
			capacity += c.Capacity
		}
	}
	return stored, capacity
}

// MaxFill returns the highest Fill across all containers; 0 when there are none.
func (w *World) MaxFill() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	max := 0.0
	for _, c := range w.containers {
		if f := c.Fill(); f > max {
			max = f
		}
	}
	return max
}
