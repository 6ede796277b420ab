package homestead

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultArrivalTolerance is the distance at which a mover counts as arrived.
const DefaultArrivalTolerance = 0.1

// KinematicMover moves at a fixed speed per step in a straight line.
type KinematicMover struct {
	pos       r3.Vec
	dest      r3.Vec
	speed     float64
	tolerance float64
}

// NewKinematicMover creates a mover resting at pos.
//
// Precondition: speed > 0.
func NewKinematicMover(pos r3.Vec, speed, tolerance float64) *KinematicMover {
	if tolerance <= 0 {
		tolerance = DefaultArrivalTolerance
	}
	return &KinematicMover{pos: pos, dest: pos, speed: speed, tolerance: tolerance}
}

// Position returns the current location.
func (m *KinematicMover) Position() r3.Vec { return m.pos }

// SetDestination implements Mover.
func (m *KinematicMover) SetDestination(dest r3.Vec) { m.dest = dest }

// AtDestination implements Mover.
func (m *KinematicMover) AtDestination() bool {
	return r3.Norm(r3.Sub(m.dest, m.pos)) <= m.tolerance
}

// Step advances one tick toward the destination, snapping on arrival.
func (m *KinematicMover) Step() {
	delta := r3.Sub(m.dest, m.pos)
	dist := r3.Norm(delta)
	if dist <= m.speed {
		m.pos = m.dest
		return
	}
	m.pos = r3.Add(m.pos, r3.Scale(m.speed/dist, delta))
}
