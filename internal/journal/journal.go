// Package journal records plan lifecycle events emitted by agents.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a journal event.
type Kind string

const (
	GoalChanged     Kind = "goal_changed"
	PlanAdopted     Kind = "plan_adopted"
	PlanComplete    Kind = "plan_complete"
	PlanFailed      Kind = "plan_failed"
	PlanInvalidated Kind = "plan_invalidated"
)

// Kinds lists every event kind.
var Kinds = []Kind{GoalChanged, PlanAdopted, PlanComplete, PlanFailed, PlanInvalidated}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Event is one plan lifecycle record.
type Event struct {
	ID      string
	Agent   string
	Tick    int64
	Kind    Kind
	Goal    string
	PlanID  string
	Actions []string
	Cost    float64
	At      time.Time
}

// NewEvent fills ID and At.
func NewEvent(agent string, tick int64, kind Kind, goal string) Event {
	return Event{
		ID:    uuid.NewString(),
		Agent: agent,
		Tick:  tick,
		Kind:  kind,
		Goal:  goal,
		At:    time.Now().UTC(),
	}
}

// Validate checks the fields every backend relies on.
func (e Event) Validate() error {
	if e.ID == "" {
		return errors.New("event ID must not be empty")
	}
	if e.Agent == "" {
		return errors.New("event agent must not be empty")
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

// Recorder persists events.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Reader lists recorded events for one agent, ordered by tick then arrival.
type Reader interface {
	ListByAgent(ctx context.Context, agent string) ([]Event, error)
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

// Multi fans an event out to several recorders. Every recorder is called; the
// errors are joined.
type Multi []Recorder

// Record implements Recorder.
func (m Multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Memory keeps events in memory. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// Record implements Recorder.
func (m *Memory) Record(_ context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// ListByAgent implements Reader.
func (m *Memory) ListByAgent(_ context.Context, agent string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Agent == agent {
			out = append(out, e)
		}
	}
	return out, nil
}

// Kinds returns the kinds of the recorded events in arrival order.
func (m *Memory) Kinds() []Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Kind, len(m.events))
	for i, e := range m.events {
		out[i] = e.Kind
	}
	return out
}
